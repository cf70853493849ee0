// Package collection loads the metadata that describes one document
// collection: its files, the persona and the task to serve.
package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/schemas"
)

// ErrMetadataNotFound is returned when the collection has no metadata file.
var ErrMetadataNotFound = errors.New("collection metadata not found")

// Collection is a parsed metadata file plus the directory it came from.
type Collection struct {
	Dir           string         `json:"-"`
	ChallengeInfo *ChallengeInfo `json:"challenge_info,omitempty"`
	Documents     []Document     `json:"documents"`
	Persona       Persona        `json:"persona"`
	JobToBeDone   JobToBeDone    `json:"job_to_be_done"`
}

type ChallengeInfo struct {
	ChallengeID  string `json:"challenge_id,omitempty"`
	TestCaseName string `json:"test_case_name,omitempty"`
	Description  string `json:"description,omitempty"`
}

type Document struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

type Persona struct {
	Role string `json:"role"`
}

type JobToBeDone struct {
	Task string `json:"task"`
}

// Load reads and validates <dir>/<inputFile>.
func Load(dir, inputFile string) (*Collection, error) {
	path := filepath.Join(dir, inputFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, path)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	if err := schemas.ValidateInput(data); err != nil {
		return nil, fmt.Errorf("invalid metadata %s: %w", path, err)
	}

	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	c.Dir = dir
	return &c, nil
}

// Query is the ranking query: persona role and task joined by a space.
func (c *Collection) Query() string {
	return c.Persona.Role + " " + c.JobToBeDone.Task
}

// Filenames lists the documents in metadata order.
func (c *Collection) Filenames() []string {
	names := make([]string, len(c.Documents))
	for i, d := range c.Documents {
		names[i] = d.Filename
	}
	return names
}

// UnsupportedDocuments lists filenames no parser can read, in metadata order.
func (c *Collection) UnsupportedDocuments() []string {
	var bad []string
	for _, d := range c.Documents {
		if !parser.IsSupportedExtension(d.Filename) {
			bad = append(bad, d.Filename)
		}
	}
	return bad
}

// Descriptors resolves each document under <Dir>/<docDir>, in metadata order.
// Filenames that would escape the document directory are rejected.
func (c *Collection) Descriptors(docDir string) ([]document.Descriptor, error) {
	root := filepath.Join(c.Dir, docDir)
	out := make([]document.Descriptor, len(c.Documents))
	for i, d := range c.Documents {
		clean := filepath.Clean(d.Filename)
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("document %q escapes %s", d.Filename, root)
		}
		out[i] = document.Descriptor{
			Filename: d.Filename,
			Path:     filepath.Join(root, clean),
		}
	}
	return out, nil
}
