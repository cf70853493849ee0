package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/docrank/internal/classify"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/spf13/cobra"
)

// segmentCmd is the child side of process isolation: it segments one
// document and prints the chunk list as JSON on stdout.
var segmentCmd = &cobra.Command{
	Use:    "segment",
	Short:  "Segment a single document into titled chunks",
	Hidden: true,
	RunE:   runSegment,
}

var (
	segmentFile string
	segmentName string
)

func init() {
	segmentCmd.Flags().StringVar(&segmentFile, "file", "", "Path to the document (required)")
	segmentCmd.Flags().StringVar(&segmentName, "name", "", "Filename recorded on each chunk (default: base of --file)")

	if err := segmentCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := newLogger(cfg)

	name := segmentName
	if name == "" {
		name = filepath.Base(segmentFile)
	}

	w := pipeline.NewLocalWorker(classify.New(cfg, log), parseOptions(cfg), chunkConfig(cfg), log)
	chunks, err := w.Process(cmd.Context(), document.Descriptor{Filename: name, Path: segmentFile})
	if err != nil {
		return err
	}
	if chunks == nil {
		chunks = []document.Chunk{}
	}
	return json.NewEncoder(os.Stdout).Encode(chunks)
}
