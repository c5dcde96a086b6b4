package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/user/youterm/pkg/ports"
)

// VideoDecoder is a scripted ports.VideoDecoder.
// Each session emits Frames solid-colored frames of Width x Height, then
// either FailErr (after FailAfter frames) or io.EOF.
type VideoDecoder struct {
	Width     int
	Height    int
	Frames    int
	Format    ports.PixelFormat
	FailAfter int   // frames emitted before FailErr; ignored when FailErr is nil
	FailErr   error // mid-stream error
	OpenErr   error

	mu       sync.Mutex
	ctx      context.Context
	produced int
	opened   int
	closed   int
}

// NewVideoDecoder creates an RGB24 decoder that emits n frames.
func NewVideoDecoder(width, height, n int) *VideoDecoder {
	return &VideoDecoder{Width: width, Height: height, Frames: n, Format: ports.PixelRGB24}
}

// Open implements ports.VideoDecoder.
func (m *VideoDecoder) Open(ctx context.Context, path string) (ports.FrameReader, error) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.mu.Lock()
	m.opened++
	m.mu.Unlock()
	return &frameReader{dec: m}, nil
}

// OpenContext returns the context passed to the last Open call.
func (m *VideoDecoder) OpenContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// Produced returns the number of frames handed out across sessions.
func (m *VideoDecoder) Produced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.produced
}

// Opened returns the number of sessions opened.
func (m *VideoDecoder) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Closed returns the number of sessions closed.
func (m *VideoDecoder) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type frameReader struct {
	dec    *VideoDecoder
	next   int
	closed bool
}

func (r *frameReader) Info() ports.StreamInfo {
	return ports.StreamInfo{
		Codec:       "avc1",
		TrackID:     1,
		Width:       r.dec.Width,
		Height:      r.dec.Height,
		Timescale:   1000,
		SampleCount: r.dec.Frames,
	}
}

func (r *frameReader) ReadFrame() (ports.RawFrame, error) {
	if r.dec.FailErr != nil && r.next >= r.dec.FailAfter {
		return ports.RawFrame{}, r.dec.FailErr
	}
	if r.next >= r.dec.Frames {
		return ports.RawFrame{}, io.EOF
	}

	channels := r.dec.Format.Channels()
	pix := make([]byte, r.dec.Width*r.dec.Height*channels)
	for i := range pix {
		pix[i] = byte(r.next)
	}
	frame := ports.RawFrame{
		Index:  r.next,
		Width:  r.dec.Width,
		Height: r.dec.Height,
		Format: r.dec.Format,
		Pix:    pix,
	}
	r.next++

	r.dec.mu.Lock()
	r.dec.produced++
	r.dec.mu.Unlock()
	return frame, nil
}

func (r *frameReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.dec.mu.Lock()
	r.dec.closed++
	r.dec.mu.Unlock()
	return nil
}

var _ ports.VideoDecoder = (*VideoDecoder)(nil)
