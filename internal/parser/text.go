package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
)

// TextSource handles plain text files. Every non-blank line becomes a line
// record; there are no structural hints, so the classifier decides headings.
type TextSource struct{}

func (p *TextSource) Lines(r io.Reader, filename string) ([]document.RawLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []block
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		blocks = append(blocks, block{text: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return layoutBlocks(blocks, false), nil
}
