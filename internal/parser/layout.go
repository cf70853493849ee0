package parser

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
)

// Glyph is one positioned piece of decoded page text, top-left origin.
type Glyph struct {
	Text     string
	Font     string
	FontSize float64
	BBox     document.BBox
	Word     bool // Whole word; always space-separated from its neighbour
}

// wordGapRatio is the horizontal gap, relative to font size, above which two
// glyphs of one span are separated by a space.
const wordGapRatio = 0.25

// GroupLines clusters glyphs of one page into lines keyed by their top
// coordinate rounded to 0.1pt. Glyphs smaller than minFontSize are dropped
// first. Lines are returned top to bottom; spans within a line left to right.
func GroupLines(glyphs []Glyph, page int, pageWidth, pageHeight, minFontSize float64) []document.RawLine {
	byTop := make(map[float64][]Glyph)
	for _, g := range glyphs {
		if g.FontSize < minFontSize {
			continue
		}
		key := math.Round(g.BBox.Y0*10) / 10
		byTop[key] = append(byTop[key], g)
	}

	tops := make([]float64, 0, len(byTop))
	for k := range byTop {
		tops = append(tops, k)
	}
	sort.Float64s(tops)

	lines := make([]document.RawLine, 0, len(tops))
	for _, top := range tops {
		gs := byTop[top]
		sort.SliceStable(gs, func(i, j int) bool { return gs[i].BBox.X0 < gs[j].BBox.X0 })

		spans := mergeSpans(gs)
		if len(spans) == 0 {
			continue
		}

		texts := make([]string, 0, len(spans))
		box := spans[0].BBox
		var sizeSum float64
		var bold, italic bool
		for _, s := range spans {
			texts = append(texts, s.Text)
			box = box.Union(s.BBox)
			sizeSum += s.FontSize
			bold = bold || s.Bold
			italic = italic || s.Italic
		}

		lines = append(lines, document.RawLine{
			Text:       strings.Join(texts, " "),
			Page:       page,
			BBox:       box,
			FontSize:   sizeSum / float64(len(spans)),
			Bold:       bold,
			Italic:     italic,
			PageWidth:  pageWidth,
			PageHeight: pageHeight,
		})
	}
	return lines
}

// mergeSpans joins x-sorted glyphs sharing font and size into spans.
func mergeSpans(gs []Glyph) []document.Span {
	var spans []document.Span
	var cur *document.Span
	var sb strings.Builder
	pendingSpace := false

	flush := func() {
		if cur != nil {
			cur.Text = sb.String()
			if strings.TrimSpace(cur.Text) != "" {
				spans = append(spans, *cur)
			}
		}
		cur = nil
		sb.Reset()
		pendingSpace = false
	}

	for _, g := range gs {
		if strings.TrimSpace(g.Text) == "" {
			pendingSpace = cur != nil
			continue
		}
		if cur == nil || cur.Font != g.Font || math.Abs(cur.FontSize-g.FontSize) > 0.01 {
			flush()
			cur = &document.Span{
				Font:     g.Font,
				FontSize: g.FontSize,
				BBox:     g.BBox,
				Bold:     isBoldFont(g.Font),
				Italic:   isItalicFont(g.Font),
			}
		} else {
			if pendingSpace || g.Word || g.BBox.X0-cur.BBox.X1 > wordGapRatio*g.FontSize {
				sb.WriteByte(' ')
			}
			cur.BBox = cur.BBox.Union(g.BBox)
		}
		pendingSpace = false
		sb.WriteString(g.Text)
	}
	flush()
	return spans
}

func isBoldFont(font string) bool {
	f := strings.ToLower(font)
	for _, marker := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(f, marker) {
			return true
		}
	}
	return false
}

func isItalicFont(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "italic") || strings.Contains(f, "oblique")
}

// Synthetic geometry for sources without page layout.
const (
	syntheticPageWidth  = 612.0
	syntheticPageHeight = 792.0
	syntheticMargin     = 72.0
	bodyFontSize        = 11.0
)

// headingFontSize maps heading levels 1..6 to a synthetic point size.
func headingFontSize(level int) float64 {
	sizes := []float64{24, 20, 16, 14, 13, 12}
	if level < 1 {
		return bodyFontSize
	}
	if level > len(sizes) {
		level = len(sizes)
	}
	return sizes[level-1]
}

// block is a unit of structured text: a heading (level > 0) or body.
type block struct {
	text   string
	level  int
	bold   bool
	italic bool
}

// layoutBlocks stacks blocks top to bottom on letter-sized synthetic pages
// and attaches hint labels. hinted=false leaves the classifier to decide.
func layoutBlocks(blocks []block, hinted bool) []document.RawLine {
	lines := make([]document.RawLine, 0, len(blocks))
	page := 1
	y := syntheticMargin
	for _, b := range blocks {
		size := bodyFontSize
		if b.level > 0 {
			size = headingFontSize(b.level)
		}
		height := size * 1.2
		width := math.Min(float64(len([]rune(b.text)))*size*0.5, syntheticPageWidth-2*syntheticMargin)
		if y+height > syntheticPageHeight-syntheticMargin && y > syntheticMargin {
			page++
			y = syntheticMargin
		}

		rl := document.RawLine{
			Text:       b.text,
			Page:       page,
			BBox:       document.BBox{X0: syntheticMargin, Y0: y, X1: syntheticMargin + width, Y1: y + height},
			FontSize:   size,
			Bold:       b.bold || b.level > 0,
			Italic:     b.italic,
			PageWidth:  syntheticPageWidth,
			PageHeight: syntheticPageHeight,
		}
		if hinted {
			rl.Hint = "other"
			if b.level > 0 {
				rl.Hint = "H" + strconv.Itoa(min(b.level, 6))
			}
		}
		lines = append(lines, rl)
		y += height + size*0.5
	}
	return lines
}
