// Package playback implements the decode, encode and render stage.
//
// One producer goroutine pulls frames from a framesource.Source and hands
// them in batches to a bounded channel. A pool of encode workers turns frames
// into sixel blocks, and a single sink goroutine renders them. A full channel
// blocks the producer, so at most ChannelCapacity frames wait between decode
// and encode.
package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/user/youterm/pkg/framesource"
	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

const (
	// DefaultChannelCapacity is the number of frames buffered between decode and encode.
	DefaultChannelCapacity = 64
	// DefaultBatchSize is the number of frames decoded per producer iteration.
	DefaultBatchSize = 10
)

// Options configures the coordinator.
type Options struct {
	ChannelCapacity int  // frames buffered between producer and workers
	BatchSize       int  // frames decoded before handing off
	Workers         int  // encode workers, 0 = runtime.NumCPU()
	Ordered         bool // render in decode order

	// OnStateChange, when set, is called after every state transition.
	OnStateChange func(pipeline.State)
}

// DefaultOptions returns the default coordinator options.
func DefaultOptions() Options {
	return Options{
		ChannelCapacity: DefaultChannelCapacity,
		BatchSize:       DefaultBatchSize,
		Workers:         runtime.NumCPU(),
		Ordered:         true,
	}
}

func (o Options) normalized() Options {
	if o.ChannelCapacity < 1 {
		o.ChannelCapacity = DefaultChannelCapacity
	}
	if o.BatchSize < 1 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Workers < 1 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Stats is a snapshot of the counters of the current or last run.
type Stats struct {
	FramesDecoded  int
	FramesEncoded  int
	FramesRendered int
	MaxQueueDepth  int
	State          pipeline.State
}

// Stage plays one local media file. A Stage runs one Execute at a time.
type Stage struct {
	decoder  ports.VideoDecoder
	encoder  ports.FrameEncoder
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
	opts     Options

	decoded  atomic.Int64
	encoded  atomic.Int64
	rendered atomic.Int64
	maxDepth atomic.Int64

	mu    sync.Mutex
	state pipeline.State
}

// New creates a new playback stage.
func New(
	decoder ports.VideoDecoder,
	encoder ports.FrameEncoder,
	renderer ports.Renderer,
	sink ports.DebugSink,
	logger ports.Logger,
	opts Options,
) *Stage {
	return &Stage{
		decoder:  decoder,
		encoder:  encoder,
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("playback"),
		opts:     opts.normalized(),
	}
}

// Stats returns the current counters. Safe to call while Execute runs.
func (s *Stage) Stats() Stats {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	return Stats{
		FramesDecoded:  int(s.decoded.Load()),
		FramesEncoded:  int(s.encoded.Load()),
		FramesRendered: int(s.rendered.Load()),
		MaxQueueDepth:  int(s.maxDepth.Load()),
		State:          state,
	}
}

func (s *Stage) reset() {
	s.decoded.Store(0)
	s.encoded.Store(0)
	s.rendered.Store(0)
	s.maxDepth.Store(0)
	s.mu.Lock()
	s.state = pipeline.StateIdle
	s.mu.Unlock()
}

// setState moves to next if allowed. Invalid transitions are ignored.
func (s *Stage) setState(next pipeline.State) {
	s.mu.Lock()
	prev := s.state
	if !prev.CanTransition(next) {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()

	s.logger.Debug("State %s -> %s", prev, next)
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(next)
	}
}

func (s *Stage) observeDepth(depth int) {
	d := int64(depth)
	for {
		cur := s.maxDepth.Load()
		if d <= cur || s.maxDepth.CompareAndSwap(cur, d) {
			return
		}
	}
}

// Execute plays input.Path until the end of the stream or the first error.
func (s *Stage) Execute(ctx context.Context, input pipeline.PlayInput) (pipeline.PlayResult, error) {
	start := time.Now()
	s.reset()

	result, err := s.run(ctx, input)
	if err != nil {
		s.setState(pipeline.StateErrored)
	} else {
		s.setState(pipeline.StateDone)
	}

	stats := s.Stats()
	result.FramesDecoded = stats.FramesDecoded
	result.FramesEncoded = stats.FramesEncoded
	result.FramesRendered = stats.FramesRendered
	result.MaxQueueDepth = stats.MaxQueueDepth
	result.State = stats.State
	result.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		if result.Stream.SampleCount > 0 {
			s.logger.Warn("Playback stopped after %d of %d frames", result.FramesRendered, result.Stream.SampleCount)
		}
		return result, err
	}
	return result, nil
}

func (s *Stage) run(ctx context.Context, input pipeline.PlayInput) (pipeline.PlayResult, error) {
	var result pipeline.PlayResult

	// The decode session lives until run returns, or until the first
	// failure in the group.
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, err := framesource.Open(sessionCtx, s.decoder, input.Path, framesource.Options{
		Width:  input.Width,
		Height: input.Height,
		Scale:  input.Scale,

		MaxWidth:  input.MaxWidth,
		MaxHeight: input.MaxHeight,
	})
	if err != nil {
		return result, err
	}
	defer src.Close()

	result.Stream = src.Info()
	result.Width, result.Height = src.Size()
	s.logger.Debug("Opened %s stream %dx%d (%d samples)",
		result.Stream.Codec, result.Stream.Width, result.Stream.Height, result.Stream.SampleCount)
	s.logger.Debug("Scaling to %dx%d", result.Width, result.Height)
	s.saveStreamInfo(result.Stream)

	g, gctx := errgroup.WithContext(sessionCtx)
	stop := context.AfterFunc(gctx, cancel)
	defer stop()

	s.setState(pipeline.StateStreaming)

	opts := s.opts
	s.logger.Debug("Starting %d encode workers, queue %d, batch %d", opts.Workers, opts.ChannelCapacity, opts.BatchSize)

	frames := make(chan ports.ScaledFrame, opts.ChannelCapacity)
	blocks := make(chan ports.EncodedBlock)

	// Tokens bound the frames between a worker's receive and their render,
	// which keeps the reorder buffer finite.
	var window *semaphore.Weighted
	if opts.Ordered {
		window = semaphore.NewWeighted(int64(2 * opts.Workers))
	}

	g.Go(func() error {
		defer close(frames)
		return s.produce(gctx, src, frames)
	})

	var workers sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			return s.encodeWorker(gctx, window, frames, blocks)
		})
	}
	g.Go(func() error {
		workers.Wait()
		close(blocks)
		return nil
	})

	g.Go(func() error {
		return s.renderSink(gctx, window, blocks)
	})

	return result, g.Wait()
}

// produce decodes frames in batches and hands each batch to the workers.
// It returns on end of stream, decode failure or cancellation.
func (s *Stage) produce(ctx context.Context, src *framesource.Source, frames chan<- ports.ScaledFrame) error {
	batch := make(pipeline.Batch, 0, s.opts.BatchSize)
	seq := 0

	for {
		for !batch.Full(s.opts.BatchSize) {
			if err := ctx.Err(); err != nil {
				return err
			}
			frame, err := src.Next()
			if errors.Is(err, io.EOF) {
				if err := s.send(ctx, batch, frames); err != nil {
					return err
				}
				s.setState(pipeline.StateDraining)
				return nil
			}
			if err != nil {
				return err
			}

			frame.Index = seq
			seq++
			s.decoded.Add(1)
			s.saveFrame(frame)
			batch = append(batch, frame)
		}

		if err := s.send(ctx, batch, frames); err != nil {
			return err
		}
		batch = batch[:0]
	}
}

func (s *Stage) send(ctx context.Context, batch pipeline.Batch, frames chan<- ports.ScaledFrame) error {
	for _, frame := range batch {
		select {
		case frames <- frame:
			s.observeDepth(len(frames))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// encodeWorker encodes frames until the channel is closed. After a failure
// anywhere in the group it keeps receiving so the channel drains, but skips
// the encoding.
func (s *Stage) encodeWorker(ctx context.Context, window *semaphore.Weighted, frames <-chan ports.ScaledFrame, blocks chan<- ports.EncodedBlock) error {
	for {
		held := false
		if window != nil && ctx.Err() == nil {
			held = window.Acquire(ctx, 1) == nil
		}
		release := func() {
			if held {
				window.Release(1)
				held = false
			}
		}

		frame, ok := <-frames
		if !ok {
			release()
			return nil
		}
		if ctx.Err() != nil {
			release()
			continue
		}

		started := time.Now()
		block, err := s.encoder.Encode(frame)
		if err != nil {
			release()
			if errors.Is(err, pipeline.ErrEncode) {
				return err
			}
			return fmt.Errorf("%w: frame %d: %w", pipeline.ErrEncode, frame.Index, err)
		}
		block.Index = frame.Index
		s.encoded.Add(1)
		s.logger.Debug("Frame %d encoded in %s", frame.Index, time.Since(started))

		select {
		case blocks <- block:
			// the sink releases the token once the block is rendered
		case <-ctx.Done():
			release()
		}
	}
}

// renderSink is the only caller of the renderer. In ordered mode it holds
// early blocks until their predecessors have been rendered.
func (s *Stage) renderSink(ctx context.Context, window *semaphore.Weighted, blocks <-chan ports.EncodedBlock) error {
	release := func() {
		if window != nil {
			window.Release(1)
		}
	}

	next := 0
	pending := make(map[int]ports.EncodedBlock)

	for block := range blocks {
		if ctx.Err() != nil {
			release()
			continue
		}

		if window == nil {
			if err := s.render(block); err != nil {
				return err
			}
			continue
		}

		pending[block.Index] = block
		for {
			b, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			err := s.render(b)
			release()
			if err != nil {
				return err
			}
			next++
		}
	}

	if ctx.Err() == nil && len(pending) > 0 {
		return fmt.Errorf("%w: %d frames never became renderable after frame %d", pipeline.ErrRender, len(pending), next)
	}
	return nil
}

func (s *Stage) render(block ports.EncodedBlock) error {
	if err := s.renderer.Render(block); err != nil {
		if errors.Is(err, pipeline.ErrRender) {
			return err
		}
		return fmt.Errorf("%w: frame %d: %w", pipeline.ErrRender, block.Index, err)
	}
	s.rendered.Add(1)
	s.logger.Debug("Frame %d rendered", block.Index)
	return nil
}

func (s *Stage) saveStreamInfo(info ports.StreamInfo) {
	if !s.sink.Enabled() {
		return
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err == nil {
		err = s.sink.SaveStreamInfo(data)
	}
	if err != nil {
		s.logger.Warn("Failed to write debug output: %s", err)
	}
}

func (s *Stage) saveFrame(frame ports.ScaledFrame) {
	if !s.sink.Enabled() {
		return
	}
	if err := s.sink.SaveFrame(frame.Index, framesource.Image(frame)); err != nil {
		s.logger.Warn("Failed to write debug output: %s", err)
	}
}
