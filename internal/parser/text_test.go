package parser

import (
	"strings"
	"testing"
)

func TestTextSource_OneLinePerNonBlankLine(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n   \nThird paragraph."
	p := &TextSource{}
	lines, err := p.Lines(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"First paragraph line one.",
		"First paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, w := range want {
		if lines[i].Text != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, lines[i].Text)
		}
		if lines[i].Hint != "" {
			t.Errorf("line[%d]: plain text must not carry hints, got %q", i, lines[i].Hint)
		}
		if lines[i].FontSize != bodyFontSize {
			t.Errorf("line[%d]: expected body font size, got %v", i, lines[i].FontSize)
		}
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].BBox.Y0 <= lines[i-1].BBox.Y0 {
			t.Errorf("line[%d] is not below line[%d]", i, i-1)
		}
	}
}

func TestTextSource_EmptyInput(t *testing.T) {
	p := &TextSource{}
	lines, err := p.Lines(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected 0 lines for empty input, got %d", len(lines))
	}
}

func TestLayoutBlocks_Paginates(t *testing.T) {
	blocks := make([]block, 100)
	for i := range blocks {
		blocks[i] = block{text: "filler line"}
	}
	lines := layoutBlocks(blocks, false)
	if lines[0].Page != 1 {
		t.Fatalf("expected first line on page 1, got %d", lines[0].Page)
	}
	last := lines[len(lines)-1]
	if last.Page < 2 {
		t.Errorf("expected overflow onto later pages, last page %d", last.Page)
	}
	for i, l := range lines {
		if l.BBox.Y1 > syntheticPageHeight {
			t.Errorf("line[%d] overflows page height: %v", i, l.BBox.Y1)
		}
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"a.pdf", "*parser.PDFSource", false},
		{"A.PDF", "*parser.PDFSource", false},
		{"b.md", "*parser.MarkdownSource", false},
		{"c.htm", "*parser.HTMLSource", false},
		{"d.docx", "*parser.DOCXSource", false},
		{"e.txt", "*parser.TextSource", false},
		{"f.xlsx", "", true},
	}
	for _, tt := range tests {
		src, err := ForFile(tt.name, Options{})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got := typeName(src); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
	if IsSupportedExtension("x.csv") {
		t.Error("csv is not supported")
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *PDFSource:
		return "*parser.PDFSource"
	case *MarkdownSource:
		return "*parser.MarkdownSource"
	case *HTMLSource:
		return "*parser.HTMLSource"
	case *DOCXSource:
		return "*parser.DOCXSource"
	case *TextSource:
		return "*parser.TextSource"
	}
	return "unknown"
}
