package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/youterm/pkg/adapters/logger"
	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

// mockRetrieveStage is a mock for the retrieve stage.
type mockRetrieveStage struct {
	result pipeline.RetrieveResult
	err    error
	input  pipeline.RetrieveInput
}

func (m *mockRetrieveStage) Execute(ctx context.Context, input pipeline.RetrieveInput) (pipeline.RetrieveResult, error) {
	m.input = input
	if m.err != nil {
		return pipeline.RetrieveResult{}, m.err
	}
	return m.result, nil
}

// mockPlaybackStage is a mock for the playback stage.
type mockPlaybackStage struct {
	result pipeline.PlayResult
	err    error
	calls  int
	input  pipeline.PlayInput
}

func (m *mockPlaybackStage) Execute(ctx context.Context, input pipeline.PlayInput) (pipeline.PlayResult, error) {
	m.calls++
	m.input = input
	return m.result, m.err
}

func TestOrchestrator_Run(t *testing.T) {
	retrieveStage := &mockRetrieveStage{
		result: pipeline.RetrieveResult{Path: "out/a.mp4", Fetched: true},
	}
	playbackStage := &mockPlaybackStage{
		result: pipeline.PlayResult{FramesRendered: 42, State: pipeline.StateDone},
	}
	var logs bytes.Buffer
	orch := New(retrieveStage, playbackStage, logger.NewWriter(ports.LevelInfo, &logs))

	config := DefaultConfig()
	config.RequestID = "https://example.com/v"
	config.Width = 80
	config.Scale = 2

	result, err := orch.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if retrieveStage.input.RequestID != config.RequestID || !retrieveStage.input.UseCache {
		t.Errorf("unexpected retrieve input %+v", retrieveStage.input)
	}
	want := pipeline.PlayInput{Path: "out/a.mp4", Width: 80, Scale: 2}
	if playbackStage.input != want {
		t.Errorf("playback input = %+v, want %+v", playbackStage.input, want)
	}

	if result.AssetPath != "out/a.mp4" || !result.Fetched {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Playback.FramesRendered != 42 {
		t.Errorf("expected 42 frames, got %d", result.Playback.FramesRendered)
	}
	if !strings.Contains(logs.String(), "Playback finished: 42 frames") {
		t.Errorf("expected completion log, got %q", logs.String())
	}
}

func TestOrchestrator_RetrieveFailure(t *testing.T) {
	retrieveStage := &mockRetrieveStage{err: pipeline.ErrFetch}
	playbackStage := &mockPlaybackStage{}
	orch := New(retrieveStage, playbackStage, logger.NewNoop())

	_, err := orch.Run(context.Background(), Config{RequestID: "https://example.com/v"})
	if !errors.Is(err, pipeline.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "retrieve stage") {
		t.Errorf("expected stage name in error, got %v", err)
	}
	if playbackStage.calls != 0 {
		t.Error("playback must not run when retrieval fails")
	}
}

func TestOrchestrator_PlaybackFailure(t *testing.T) {
	retrieveStage := &mockRetrieveStage{result: pipeline.RetrieveResult{Path: "out/a.mp4"}}
	playbackStage := &mockPlaybackStage{
		result: pipeline.PlayResult{FramesRendered: 3, State: pipeline.StateErrored},
		err:    pipeline.ErrDecode,
	}
	orch := New(retrieveStage, playbackStage, logger.NewNoop())

	result, err := orch.Run(context.Background(), Config{RequestID: "https://example.com/v", UseCache: true})
	if !errors.Is(err, pipeline.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if result.Playback.State != pipeline.StateErrored || result.Playback.FramesRendered != 3 {
		t.Errorf("expected partial playback stats, got %+v", result.Playback)
	}
	if result.AssetPath != "out/a.mp4" {
		t.Errorf("expected asset path to be reported, got %q", result.AssetPath)
	}
}
