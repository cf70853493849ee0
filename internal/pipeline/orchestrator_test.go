package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCollection(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "challenge1b_input.json"), []byte(body), 0o644))
	return dir
}

func waitForRun(t *testing.T, o *Orchestrator, id string) RunSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := o.GetRun(id).Snapshot()
		if snap.Status == StatusCompleted || snap.Status == StatusFailed {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish", id)
	return RunSnapshot{}
}

func TestOrchestrator_RunCompletes(t *testing.T) {
	dir := writeCollection(t, `{
		"documents": [{"filename": "cities.pdf"}, {"filename": "cuisine.pdf"}],
		"persona": {"role": "Travel Planner"},
		"job_to_be_done": {"task": "Plan a trip"}
	}`)

	o := NewOrchestrator(OrchestratorConfig{
		MaxQueueSize: 4,
		RunTTL:       time.Hour,
		InputFile:    "challenge1b_input.json",
		OutputFile:   "challenge1b_output.json",
	}, newTestPipeline(&keywordEmbedder{}, sampleChunks()), quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	run := NewRun("south-of-france", dir)
	require.NoError(t, o.Submit(run))

	snap := waitForRun(t, o, run.ID)
	require.Equal(t, StatusCompleted, snap.Status, snap.Error)
	require.NotNil(t, snap.Output)
	assert.Len(t, snap.Output.ExtractedSections, 5)

	_, err := os.Stat(filepath.Join(dir, "challenge1b_output.json"))
	assert.NoError(t, err, "output file should be written into the collection")
}

func TestOrchestrator_MissingMetadataFails(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{
		MaxQueueSize: 1,
		RunTTL:       time.Hour,
		InputFile:    "challenge1b_input.json",
	}, newTestPipeline(&keywordEmbedder{}, sampleChunks()), quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	run := NewRun("empty", t.TempDir())
	require.NoError(t, o.Submit(run))

	snap := waitForRun(t, o, run.ID)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "loading", snap.Phase)
	assert.Contains(t, snap.Error, "not found")
}

func TestOrchestrator_QueueFull(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{MaxQueueSize: 1, RunTTL: time.Hour},
		newTestPipeline(&keywordEmbedder{}, sampleChunks()), quietLogger())

	first := NewRun("a", t.TempDir())
	require.NoError(t, o.Submit(first))
	assert.Equal(t, 1, o.QueueDepth())

	second := NewRun("b", t.TempDir())
	require.Error(t, o.Submit(second))
	assert.Equal(t, StatusFailed, o.GetRun(second.ID).Snapshot().Status)
}
