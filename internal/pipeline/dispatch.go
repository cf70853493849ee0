package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/dgallion1/docrank/internal/document"
	"golang.org/x/sync/errgroup"
)

// WorkerFactory builds the DocWorker owned by one pool slot. Workers that
// implement io.Closer are closed when their slot finishes.
type WorkerFactory func(slot int) (DocWorker, error)

// Dispatcher fans documents out over a bounded pool of workers.
type Dispatcher struct {
	Workers   int
	NewWorker WorkerFactory
	Log       *slog.Logger
}

// Dispatch processes every document and returns all chunks, grouped by
// document in input order. A document that fails or panics contributes no
// chunks; the failure is logged and the run continues.
func (d *Dispatcher) Dispatch(ctx context.Context, docs []document.Descriptor) []document.Chunk {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	if len(docs) == 0 {
		return []document.Chunk{}
	}

	workers := d.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(docs))

	results := make([][]document.Chunk, len(docs))
	var next atomic.Int64

	var g errgroup.Group
	for slot := range workers {
		g.Go(func() error {
			w, err := d.NewWorker(slot)
			if err != nil {
				log.Error("worker init failed", "slot", slot, "error", err)
				return nil
			}
			if c, ok := w.(io.Closer); ok {
				defer func() {
					if err := c.Close(); err != nil {
						log.Warn("worker close failed", "slot", slot, "error", err)
					}
				}()
			}
			for {
				i := int(next.Add(1) - 1)
				if i >= len(docs) {
					return nil
				}
				if ctx.Err() != nil {
					log.Warn("skipping document, run cancelled", "document", docs[i].Filename)
					continue
				}
				results[i] = d.processOne(ctx, w, docs[i], log)
			}
		})
	}
	_ = g.Wait()

	all := []document.Chunk{}
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (d *Dispatcher) processOne(ctx context.Context, w DocWorker, doc document.Descriptor, log *slog.Logger) (chunks []document.Chunk) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("document processing panicked",
				"document", doc.Filename,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			chunks = nil
		}
	}()

	chunks, err := w.Process(ctx, doc)
	if err != nil {
		log.Error("document processing failed", "document", doc.Filename, "error", err)
		return nil
	}
	return chunks
}
