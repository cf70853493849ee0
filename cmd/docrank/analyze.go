package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/docrank/internal/collection"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank the sections of one collection",
	Long: "Reads <collection>/challenge1b_input.json, segments every listed document, ranks the " +
		"sections against the persona and task, and writes the ranked output JSON.",
	RunE: runAnalyze,
}

var (
	analyzeCollection string
	analyzeOutput     string
	analyzeBatchSize  int
	analyzeTopK       int
	analyzeWorkers    int
	analyzeIsolation  string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeCollection, "collection", "c", "", "Path to the collection directory (required)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "out", "o", "", "Output file (default <collection>/$OUTPUT_FILE)")
	analyzeCmd.Flags().IntVar(&analyzeBatchSize, "batch-size", 0, "Texts per embedding call (default $BATCH_SIZE)")
	analyzeCmd.Flags().IntVar(&analyzeTopK, "top-k", 0, "Number of sections to keep (default $TOP_K)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Parallel document workers (default $WORKER_COUNT)")
	analyzeCmd.Flags().StringVar(&analyzeIsolation, "isolation", "", "Worker isolation: process or goroutine (default $ISOLATION)")

	if err := analyzeCmd.MarkFlagRequired("collection"); err != nil {
		panic(fmt.Sprintf("failed to mark collection flag as required: %v", err))
	}

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = analyzeBatchSize
	}
	if cmd.Flags().Changed("top-k") {
		cfg.TopK = analyzeTopK
	}
	if cmd.Flags().Changed("workers") {
		cfg.WorkerCount = analyzeWorkers
	}
	if cmd.Flags().Changed("isolation") {
		cfg.Isolation = analyzeIsolation
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := collection.Load(analyzeCollection, cfg.InputFile)
	if err != nil {
		return err
	}

	if err := checkClassifier(ctx, cfg, log); err != nil {
		return err
	}

	pipe, emb, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer emb.Close()

	if err := emb.Check(ctx); err != nil {
		return fmt.Errorf("embedding backend unavailable: %w", err)
	}

	start := time.Now()
	out, err := pipe.Run(ctx, c)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", analyzeCollection, err)
	}

	path := analyzeOutput
	if path == "" {
		path = filepath.Join(analyzeCollection, cfg.OutputFile)
	}
	if err := pipeline.WriteOutput(path, out, log); err != nil {
		return err
	}

	log.Info("analysis complete",
		"collection", analyzeCollection,
		"output", path,
		"sections", len(out.ExtractedSections),
		"elapsed", time.Since(start),
		"embed_stats", emb.Stats().Snapshot(),
	)
	return nil
}
