package classify

import (
	"context"
	"math"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
)

// HeuristicClassifier labels headings from typography alone. It is used when
// no model server is configured.
type HeuristicClassifier struct {
	// SizeRatio is the minimum font size, relative to body text, that makes
	// a short line a heading.
	SizeRatio float64
	// MaxWords is the longest line still considered a heading.
	MaxWords int
	// LevelRatios are the size ratios for H1 and H2; smaller headings are H3.
	LevelRatios [2]float64
}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{
		SizeRatio:   1.15,
		MaxWords:    12,
		LevelRatios: [2]float64{1.6, 1.3},
	}
}

const sizeBucket = 0.5

func (h *HeuristicClassifier) Classify(_ context.Context, lines []document.Line) ([]string, error) {
	labels := make([]string, len(lines))
	body := bodyFontSize(lines)
	for i, l := range lines {
		labels[i] = h.label(l, body)
	}
	return labels, nil
}

func (h *HeuristicClassifier) label(l document.Line, body float64) string {
	f := l.Features
	if f.WordCount == 0 || f.WordCount > h.MaxWords || strings.HasSuffix(l.Text, ".") {
		return BodyLabel
	}

	ratio := 1.0
	if body > 0 {
		ratio = f.FontSize / body
	}
	heading := ratio >= h.SizeRatio ||
		(f.IsBold && ratio >= 1 && (f.IsTitleCase || f.IsUpper)) ||
		f.IsConventionalHeading
	if !heading {
		return BodyLabel
	}

	switch {
	case ratio >= h.LevelRatios[0]:
		return "H1"
	case ratio >= h.LevelRatios[1]:
		return "H2"
	}
	return "H3"
}

// bodyFontSize returns the most common font size, bucketed to half points.
// Ties go to the smaller size.
func bodyFontSize(lines []document.Line) float64 {
	counts := make(map[int]int)
	for _, l := range lines {
		counts[int(math.Round(l.Features.FontSize/sizeBucket))]++
	}

	best, bestCount := 0, 0
	for bucket, n := range counts {
		if n > bestCount || (n == bestCount && bucket < best) {
			best, bestCount = bucket, n
		}
	}
	return float64(best) * sizeBucket
}
