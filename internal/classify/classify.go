// Package classify assigns a heading-or-body label to each feature line.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/document"
)

// BodyLabel is the label for ordinary text lines.
const BodyLabel = "other"

// Classifier returns one label per line, in input order.
type Classifier interface {
	Classify(ctx context.Context, lines []document.Line) ([]string, error)
}

// IsHeading reports whether label marks a section heading.
func IsHeading(label string) bool {
	return strings.HasPrefix(strings.ToLower(label), "h")
}

// Label classifies lines, using each line's Hint when present and sending
// only the remaining lines to c.
func Label(ctx context.Context, c Classifier, lines []document.Line) ([]document.ClassifiedLine, error) {
	out := make([]document.ClassifiedLine, len(lines))
	var pending []document.Line
	var pendingIdx []int
	for i, l := range lines {
		out[i] = document.ClassifiedLine{Line: l, Label: l.Hint}
		if l.Hint == "" {
			pending = append(pending, l)
			pendingIdx = append(pendingIdx, i)
		}
	}
	if len(pending) == 0 {
		return out, nil
	}

	labels, err := c.Classify(ctx, pending)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(pending) {
		return nil, fmt.Errorf("classifier returned %d labels for %d lines", len(labels), len(pending))
	}
	for j, idx := range pendingIdx {
		out[idx].Label = labels[j]
	}
	return out, nil
}

// New builds a classifier from configuration. Each call returns a fresh
// instance so concurrent workers never share one.
func New(cfg config.Config, log *slog.Logger) Classifier {
	if cfg.ClassifierURL == "" {
		return NewHeuristicClassifier()
	}
	return NewHTTPClassifier(cfg.ClassifierURL, cfg.ModelTimeout, log)
}
