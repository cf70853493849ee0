package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
)

// Source converts raw document bytes into positioned lines, ordered by
// page, then top-to-bottom.
type Source interface {
	Lines(r io.Reader, filename string) ([]document.RawLine, error)
}

// Options configures source construction.
type Options struct {
	MinFontSize       float64 // Glyphs below this size are discarded (PDF only)
	FallbackPdftotext bool
	Log               *slog.Logger
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate source for a filename.
func ForFile(filename string, opts Options) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextSource{}, nil
	case ".md", ".markdown":
		return &MarkdownSource{}, nil
	case ".html", ".htm":
		return &HTMLSource{}, nil
	case ".pdf":
		return &PDFSource{
			MinFontSize:       opts.MinFontSize,
			FallbackPdftotext: opts.FallbackPdftotext,
			Log:               opts.Log,
		}, nil
	case ".docx":
		return &DOCXSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseFile opens path and extracts its lines with the source matching its
// extension.
func ParseFile(path string, opts Options) ([]document.RawLine, error) {
	src, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return src.Lines(f, filepath.Base(path))
}
