package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/docrank/internal/collection"
)

// Orchestrator queues collection runs for the HTTP server and executes them
// one at a time; each run already fans out across the dispatcher's pool.
type Orchestrator struct {
	runs       *RunStore
	queue      chan *Run
	pipe       *Pipeline
	log        *slog.Logger
	inputFile  string
	outputFile string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OrchestratorConfig carries the settings the run loop needs.
type OrchestratorConfig struct {
	MaxQueueSize int
	RunTTL       time.Duration
	InputFile    string
	OutputFile   string // Written inside the collection dir; empty skips writing.
}

func NewOrchestrator(cfg OrchestratorConfig, pipe *Pipeline, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runs:       NewRunStore(cfg.RunTTL),
		queue:      make(chan *Run, cfg.MaxQueueSize),
		pipe:       pipe,
		log:        log,
		inputFile:  cfg.InputFile,
		outputFile: cfg.OutputFile,
	}
}

// Start launches the run loop and store cleanup.
func (o *Orchestrator) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-loopCtx.Done():
				return
			case run, ok := <-o.queue:
				if !ok {
					return
				}
				o.execute(loopCtx, run)
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// Stop cancels in-flight work and waits for the loop to exit.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a run.
func (o *Orchestrator) Submit(run *Run) error {
	o.runs.Put(run)
	select {
	case o.queue <- run:
		return nil
	default:
		run.Fail("queued", fmt.Errorf("queue_full"))
		return fmt.Errorf("run queue is full (%d)", cap(o.queue))
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) execute(ctx context.Context, run *Run) {
	log := o.log.With("run_id", run.ID, "collection", run.Collection)
	run.SetStatus(StatusRunning, "loading")

	c, err := collection.Load(run.Dir, o.inputFile)
	if err != nil {
		log.Error("load collection failed", "error", err)
		run.Fail("loading", err)
		return
	}

	start := time.Now()
	out, err := o.pipe.RunWithProgress(ctx, c, run.SetPhase)
	if err != nil {
		log.Error("run failed", "error", err)
		run.Fail(run.Snapshot().Phase, err)
		return
	}

	if o.outputFile != "" {
		path := filepath.Join(run.Dir, o.outputFile)
		if err := WriteOutput(path, out, log); err != nil {
			log.Error("write output failed", "path", path, "error", err)
			run.Fail("writing", err)
			return
		}
	}

	run.Complete(out)
	log.Info("run completed",
		"sections", len(out.ExtractedSections),
		"subsections", len(out.SubsectionAnalysis),
		"elapsed", time.Since(start),
	)
}
