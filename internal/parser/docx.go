package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXSource handles .docx files. Paragraphs styled Heading1..6 become hinted
// heading lines; other paragraphs become body lines.
type DOCXSource struct{}

func (p *DOCXSource) Lines(r io.Reader, filename string) ([]document.RawLine, error) {
	// go-docx needs a ReaderAt+size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var blocks []block
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		text, bold, italic := docxParagraphText(para)
		if text == "" {
			continue
		}
		blocks = append(blocks, block{
			text:   text,
			level:  docxHeadingLevel(para),
			bold:   bold,
			italic: italic,
		})
	}

	return layoutBlocks(blocks, true), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

// docxParagraphText returns the paragraph text and whether every text run
// is bold or italic.
func docxParagraphText(para *docx.Paragraph) (string, bool, bool) {
	var buf strings.Builder
	runs, boldRuns, italicRuns := 0, 0, 0
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		hasText := false
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
				hasText = hasText || strings.TrimSpace(t.Text) != ""
			}
		}
		if !hasText {
			continue
		}
		runs++
		if run.RunProperties != nil && run.RunProperties.Bold != nil {
			boldRuns++
		}
		if run.RunProperties != nil && run.RunProperties.Italic != nil {
			italicRuns++
		}
	}
	return strings.TrimSpace(buf.String()), runs > 0 && boldRuns == runs, runs > 0 && italicRuns == runs
}
