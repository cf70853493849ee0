package embed

import (
	"slices"
	"sync"
	"time"
)

type call struct {
	at         time.Time
	durationMs int64
	texts      int
}

// StatsSnapshot is a point-in-time aggregate of embedding calls.
type StatsSnapshot struct {
	Calls       int     `json:"calls"`
	Texts       int     `json:"texts"`
	Failures    int     `json:"failures"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	AvgPerText  float64 `json:"avg_ms_per_text"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	P99Ms       float64 `json:"p99_ms"`
	WindowStart string  `json:"window_start,omitempty"`
}

// Stats keeps embedding calls seen within a rolling window.
type Stats struct {
	mu       sync.Mutex
	calls    []call
	failures []time.Time
	maxAge   time.Duration
	now      func() time.Time
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		calls:  make([]call, 0, 256),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Record adds one successful call that embedded texts in durationMs.
func (s *Stats) Record(durationMs int64, texts int) {
	if durationMs < 0 {
		durationMs = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{at: now, durationMs: durationMs, texts: texts})
}

// RecordFailure counts one failed call.
func (s *Stats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.failures = append(s.failures, now)
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	snap := StatsSnapshot{Failures: len(s.failures)}
	if len(s.calls) == 0 {
		return snap
	}

	durations := make([]int64, len(s.calls))
	var sum int64
	for i, c := range s.calls {
		durations[i] = c.durationMs
		sum += c.durationMs
		snap.Texts += c.texts
	}
	slices.Sort(durations)

	snap.Calls = len(durations)
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(sum) / float64(len(durations))
	if snap.Texts > 0 {
		snap.AvgPerText = float64(sum) / float64(snap.Texts)
	}
	snap.P50Ms = percentile(durations, 50)
	snap.P95Ms = percentile(durations, 95)
	snap.P99Ms = percentile(durations, 99)
	snap.WindowStart = s.calls[0].at.UTC().Format(time.RFC3339)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool { return c.at.Before(cutoff) })
	s.failures = slices.DeleteFunc(s.failures, func(t time.Time) bool { return t.Before(cutoff) })
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := float64(len(sorted)-1) * pct / 100.0
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}
