package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/dgallion1/docrank/internal/document"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// DefaultMinFontSize is the legibility floor for PDF glyphs.
const DefaultMinFontSize = 6.0

// PDFSource extracts positioned lines from PDF files. It tries the Go
// library first, then falls back to pdftotext -bbox if enabled.
type PDFSource struct {
	MinFontSize       float64
	FallbackPdftotext bool
	Log               *slog.Logger
}

func (p *PDFSource) Lines(r io.Reader, filename string) ([]document.RawLine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	minSize := p.MinFontSize
	if minSize <= 0 {
		minSize = DefaultMinFontSize
	}

	lines, err := p.extractLines(data, minSize)
	if err != nil && p.FallbackPdftotext {
		p.logger().Warn("pdf decode failed, trying pdftotext", "document", filename, "error", err)
		lines, err = extractPdftotextLines(data, minSize)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf lines: %w", err)
	}
	return lines, nil
}

func (p *PDFSource) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

func (p *PDFSource) extractLines(data []byte, minSize float64) (lines []document.RawLine, err error) {
	// The decoder panics on some malformed xref tables.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf decoder panic: %v", rec)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	failed := 0
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		width, height := pageSize(page)
		glyphs, perr := pageGlyphs(page)
		if perr != nil {
			failed++
			p.logger().Warn("skipping undecodable page", "page", i, "error", perr)
			continue
		}
		lines = append(lines, GroupLines(glyphs, i, width, height, minSize)...)
	}
	if numPages > 0 && failed == numPages {
		return nil, fmt.Errorf("no decodable pages in %d", numPages)
	}
	return lines, nil
}

// pageGlyphs converts the page's decoded text into top-left-origin glyphs.
func pageGlyphs(page pdflib.Page) (glyphs []Glyph, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("content stream: %v", rec)
		}
	}()

	x0, _, _, y1 := mediaBox(page)
	content := page.Content()
	glyphs = make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		top := (y1 - t.Y) - t.FontSize
		glyphs = append(glyphs, Glyph{
			Text:     t.S,
			Font:     t.Font,
			FontSize: t.FontSize,
			BBox: document.BBox{
				X0: t.X - x0,
				Y0: top,
				X1: t.X - x0 + t.W,
				Y1: y1 - t.Y,
			},
		})
	}
	return glyphs, nil
}

const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// pageSize returns the MediaBox dimensions, guarding against degenerate boxes.
func pageSize(page pdflib.Page) (float64, float64) {
	x0, y0, x1, y1 := mediaBox(page)
	w, h := x1-x0, y1-y0
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

func mediaBox(page pdflib.Page) (x0, y0, x1, y1 float64) {
	box := inherited(page.V, "MediaBox")
	if box.Kind() != pdflib.Array || box.Len() != 4 {
		return 0, 0, defaultPageWidth, defaultPageHeight
	}
	return box.Index(0).Float64(), box.Index(1).Float64(), box.Index(2).Float64(), box.Index(3).Float64()
}

// inherited looks up key on the page dictionary or its Pages ancestors.
func inherited(v pdflib.Value, key string) pdflib.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if found := v.Key(key); !found.IsNull() {
			return found
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}

// extractPdftotextLines runs poppler's pdftotext in bbox mode and groups the
// word boxes into lines. Fonts are unknown here, so word height stands in for
// font size and bold/italic stay false.
func extractPdftotextLines(data []byte, minSize float64) ([]document.RawLine, error) {
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-bbox", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return parseBBoxHTML(bytes.NewReader(out), minSize)
}

func parseBBoxHTML(r io.Reader, minSize float64) ([]document.RawLine, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse pdftotext output: %w", err)
	}

	var lines []document.RawLine
	pageNum := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "page" {
			pageNum++
			width := attrFloat(n, "width", defaultPageWidth)
			height := attrFloat(n, "height", defaultPageHeight)
			var glyphs []Glyph
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || c.Data != "word" {
					continue
				}
				box := document.BBox{
					X0: attrFloat(c, "xmin", 0),
					Y0: attrFloat(c, "ymin", 0),
					X1: attrFloat(c, "xmax", 0),
					Y1: attrFloat(c, "ymax", 0),
				}
				glyphs = append(glyphs, Glyph{
					Text:     textContent(c),
					FontSize: box.Y1 - box.Y0,
					BBox:     box,
					Word:     true,
				})
			}
			lines = append(lines, GroupLines(glyphs, pageNum, width, height, minSize)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return lines, nil
}

func attrFloat(n *html.Node, key string, fallback float64) float64 {
	for _, a := range n.Attr {
		if a.Key == key {
			if f, err := strconv.ParseFloat(a.Val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}
