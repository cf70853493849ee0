package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of a collection run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run tracks one queued or executing collection analysis.
type Run struct {
	mu sync.Mutex

	ID         string
	Collection string
	Dir        string

	Status    RunStatus
	Phase     string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time

	output *Output
}

// NewRun creates a queued run for the collection stored in dir.
func NewRun(name, dir string) *Run {
	now := time.Now()
	return &Run{
		ID:         uuid.NewString(),
		Collection: name,
		Dir:        dir,
		Status:     StatusQueued,
		Phase:      "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// SetPhase records progress without changing status.
func (r *Run) SetPhase(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// Fail marks the run failed with err.
func (r *Run) Fail(phase string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusFailed
	r.Phase = phase
	r.Error = err.Error()
	r.UpdatedAt = time.Now()
}

// Complete stores the output and marks the run completed.
func (r *Run) Complete(out *Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output = out
	r.Status = StatusCompleted
	r.Phase = "done"
	r.UpdatedAt = time.Now()
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID         string    `json:"run_id"`
	Collection string    `json:"collection"`
	Status     RunStatus `json:"status"`
	Phase      string    `json:"phase"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Output     *Output   `json:"output,omitempty"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunSnapshot{
		ID:         r.ID,
		Collection: r.Collection,
		Status:     r.Status,
		Phase:      r.Phase,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Output:     r.output,
	}
}

func (r *Run) updatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.UpdatedAt
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Len returns the number of tracked runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes runs idle for longer than the TTL.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		if now.Sub(run.updatedAt()) > s.ttl {
			delete(s.runs, id)
		}
	}
}
