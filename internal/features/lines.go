// Package features turns raw page lines into cleaned line records carrying
// the layout and text-shape features consumed by the heading classifier.
package features

import (
	"github.com/dgallion1/docrank/internal/document"
)

// LeftAlignedRatio is the fraction of page width under which a line's left
// edge counts as left aligned.
const LeftAlignedRatio = 0.1

// BuildLines cleans raw lines, drops lines that are empty after cleaning and
// computes per-line features. Input must be ordered by page and then by
// vertical position; spacing is only measured between lines of one page.
func BuildLines(raw []document.RawLine) []document.Line {
	var out []document.Line
	for start := 0; start < len(raw); {
		end := start
		for end < len(raw) && raw[end].Page == raw[start].Page {
			end++
		}
		out = append(out, buildPage(raw[start:end])...)
		start = end
	}
	return out
}

func buildPage(raw []document.RawLine) []document.Line {
	kept := make([]document.RawLine, 0, len(raw))
	for _, rl := range raw {
		rl.Text = CleanText(rl.Text)
		if rl.Text == "" {
			continue
		}
		kept = append(kept, rl)
	}

	lines := make([]document.Line, 0, len(kept))
	for i, rl := range kept {
		height := rl.PageHeight
		if height <= 0 {
			height = 1
		}
		width := rl.PageWidth
		if width <= 0 {
			width = 1
		}

		var before, after float64
		if i > 0 {
			before = rl.BBox.Y0 - kept[i-1].BBox.Y1
		}
		if i < len(kept)-1 {
			after = kept[i+1].BBox.Y0 - rl.BBox.Y1
		}

		lines = append(lines, document.Line{
			Text: rl.Text,
			Page: rl.Page,
			BBox: rl.BBox,
			Hint: rl.Hint,
			Features: document.Features{
				FontSize:                  rl.FontSize,
				IsBold:                    rl.Bold,
				IsItalic:                  rl.Italic,
				YPosNormalized:            rl.BBox.Y0 / height,
				XPosNormalized:            rl.BBox.X0 / width,
				LineHeight:                rl.BBox.Y1 - rl.BBox.Y0,
				SpaceAfterLine:            after,
				SpaceBeforeLine:           before,
				NormalizedSpaceAfterLine:  after / height,
				NormalizedSpaceBeforeLine: before / height,
				IsLeftAligned:             rl.BBox.X0 < width*LeftAlignedRatio,
				Page:                      rl.Page,
				IsTitleCase:               IsTitleCase(rl.Text),
				IsUpper:                   IsUpper(rl.Text),
				EndsColon:                 EndsWithColon(rl.Text),
				StartsNumber:              StartsWithNumber(rl.Text),
				WordCount:                 WordCount(rl.Text),
				HasBulletPrefix:           HasBulletPrefix(rl.Text),
				IsConventionalHeading:     IsConventionalHeading(rl.Text),
			},
		})
	}
	return lines
}
