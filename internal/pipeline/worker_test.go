package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/chunker"
	"github.com/dgallion1/docrank/internal/classify"
	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const childEnv = "DOCRANK_PIPELINE_TEST_CHILD"

// TestMain lets the test binary stand in for the segment child process.
func TestMain(m *testing.M) {
	if os.Getenv(childEnv) == "1" {
		os.Exit(fakeSegmentChild(os.Args[1:]))
	}
	os.Exit(m.Run())
}

func fakeSegmentChild(args []string) int {
	var name string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "--name" {
			name = args[i+1]
		}
	}
	switch name {
	case "crash.pdf":
		fmt.Fprintln(os.Stderr, "segmentation fault")
		return 2
	case "garbage.pdf":
		fmt.Print("not json")
		return 0
	case "empty.pdf":
		fmt.Print("null")
		return 0
	}
	json.NewEncoder(os.Stdout).Encode([]document.Chunk{
		{Document: name, PageNumber: 3, SectionTitle: "From Child", Text: "child text"},
	})
	return 0
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessWorker(t *testing.T) {
	t.Setenv(childEnv, "1")
	exe, err := os.Executable()
	require.NoError(t, err)
	w := NewProcessWorker(exe, quietLogger())

	chunks, err := w.Process(context.Background(), document.Descriptor{Filename: "ok.pdf", Path: "/x/ok.pdf"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, document.Chunk{Document: "ok.pdf", PageNumber: 3, SectionTitle: "From Child", Text: "child text"}, chunks[0])

	_, err = w.Process(context.Background(), document.Descriptor{Filename: "crash.pdf", Path: "/x/crash.pdf"})
	assert.Error(t, err)

	_, err = w.Process(context.Background(), document.Descriptor{Filename: "garbage.pdf", Path: "/x/garbage.pdf"})
	assert.Error(t, err)

	chunks, err = w.Process(context.Background(), document.Descriptor{Filename: "empty.pdf", Path: "/x/empty.pdf"})
	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestSegmentArgs(t *testing.T) {
	args := SegmentArgs(document.Descriptor{Filename: "a b.pdf", Path: "/c/PDFs/a b.pdf"})
	assert.Equal(t, []string{"segment", "--file", "/c/PDFs/a b.pdf", "--name", "a b.pdf"}, args)
}

func newLocal() *LocalWorker {
	return NewLocalWorker(
		classify.NewHeuristicClassifier(),
		parser.Options{MinFontSize: parser.DefaultMinFontSize},
		chunker.DefaultConfig(),
		quietLogger(),
	)
}

func TestLocalWorker_Markdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Guide\n\nIntro para.\n\n## Setup\n\nInstall it.\nThen run it.\n"), 0o644))

	chunks, err := newLocal().Process(context.Background(), document.Descriptor{Filename: "guide.md", Path: path})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, document.Chunk{Document: "guide.md", PageNumber: 1, SectionTitle: "Guide", Text: "Intro para."}, chunks[0])
	assert.Equal(t, document.Chunk{Document: "guide.md", PageNumber: 1, SectionTitle: "Setup", Text: "Install it. Then run it."}, chunks[1])
}

func TestLocalWorker_PlainTextUsesDefaultTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first line of notes.\nsecond line of notes.\n"), 0o644))

	chunks, err := newLocal().Process(context.Background(), document.Descriptor{Filename: "notes.txt", Path: path})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Introduction", chunks[0].SectionTitle)
	assert.Equal(t, "first line of notes. second line of notes.", chunks[0].Text)
}

func TestLocalWorker_Errors(t *testing.T) {
	_, err := newLocal().Process(context.Background(), document.Descriptor{Filename: "missing.pdf", Path: filepath.Join(t.TempDir(), "missing.pdf")})
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err = newLocal().Process(context.Background(), document.Descriptor{Filename: "sheet.xlsx", Path: path})
	assert.Error(t, err)
}

func TestLocalWorker_EmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n   \n"), 0o644))

	chunks, err := newLocal().Process(context.Background(), document.Descriptor{Filename: "blank.txt", Path: path})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestLocalWorker_ClassifierErrorPrefixedOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad feature row", http.StatusBadRequest)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("a line of text\n"), 0o644))

	w := NewLocalWorker(classify.NewHTTPClassifier(srv.URL, time.Second, quietLogger()),
		parser.Options{}, chunker.DefaultConfig(), quietLogger())
	defer w.Close()

	_, err := w.Process(context.Background(), document.Descriptor{Filename: "notes.txt", Path: path})
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "classify"), err.Error())
	assert.Contains(t, err.Error(), "predict")
}

type closableClassifier struct {
	closed bool
}

func (c *closableClassifier) Classify(_ context.Context, lines []document.Line) ([]string, error) {
	return make([]string, len(lines)), nil
}

func (c *closableClassifier) Close() error {
	c.closed = true
	return nil
}

func TestLocalWorker_CloseReleasesClassifier(t *testing.T) {
	c := &closableClassifier{}
	w := NewLocalWorker(c, parser.Options{}, chunker.DefaultConfig(), quietLogger())
	require.NoError(t, w.Close())
	assert.True(t, c.closed)

	assert.NoError(t, newLocal().Close(), "heuristic classifier has nothing to close")
}
