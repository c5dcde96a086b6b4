// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

// Config contains all configuration for one run.
type Config struct {
	// Input
	RequestID string
	UseCache  bool

	// Output size
	Width  int
	Height int
	Scale  float64

	// Terminal area in pixels, 0 = unknown
	MaxWidth  int
	MaxHeight int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		UseCache: true,
		Scale:    1.0,
	}
}

// Orchestrator runs the retrieve stage and then the playback stage.
type Orchestrator struct {
	retrieveStage pipeline.Stage[pipeline.RetrieveInput, pipeline.RetrieveResult]
	playbackStage pipeline.Stage[pipeline.PlayInput, pipeline.PlayResult]
	logger        ports.Logger
}

// New creates a new Orchestrator.
func New(
	retrieveStage pipeline.Stage[pipeline.RetrieveInput, pipeline.RetrieveResult],
	playbackStage pipeline.Stage[pipeline.PlayInput, pipeline.PlayResult],
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		retrieveStage: retrieveStage,
		playbackStage: playbackStage,
		logger:        logger,
	}
}

// Run makes the media available locally and plays it.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	o.logger.Info("Playing %s", config.RequestID)

	// 1. Fetch or reuse
	retrieved, err := o.retrieveStage.Execute(ctx, pipeline.RetrieveInput{
		RequestID: config.RequestID,
		UseCache:  config.UseCache,
	})
	if err != nil {
		o.logger.Error("Failed to retrieve media: %s", err)
		return RunResult{}, fmt.Errorf("retrieve stage: %w", err)
	}
	if retrieved.Fetched {
		o.logger.Info("Fetched %s", retrieved.Path)
	} else {
		o.logger.Info("Cache hit for %s", config.RequestID)
	}

	result := RunResult{
		RequestID: config.RequestID,
		AssetPath: retrieved.Path,
		Fetched:   retrieved.Fetched,
	}

	// 2. Decode, encode and render
	played, err := o.playbackStage.Execute(ctx, pipeline.PlayInput{
		Path:   retrieved.Path,
		Width:  config.Width,
		Height: config.Height,
		Scale:  config.Scale,

		MaxWidth:  config.MaxWidth,
		MaxHeight: config.MaxHeight,
	})
	result.Playback = played
	if err != nil {
		o.logger.Error("Failed to play media: %s", err)
		return result, fmt.Errorf("playback stage: %w", err)
	}

	o.logger.Info("Playback finished: %d frames in %d ms", played.FramesRendered, played.DurationMs)
	return result, nil
}

// RunResult contains the results of a run.
type RunResult struct {
	RequestID string
	AssetPath string
	Fetched   bool // true when the media was downloaded in this run

	Playback pipeline.PlayResult
}
