package chunker

import (
	"regexp"
	"strings"
)

var newlineRunRe = regexp.MustCompile(`\n+`)

// SplitParagraphs splits text on runs of newlines, trims each piece and
// drops the empty ones. Order is preserved.
func SplitParagraphs(text string) []string {
	parts := newlineRunRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
