package ports

import (
	"context"
)

// PixelFormat identifies the memory layout of a decoded frame.
type PixelFormat int

const (
	// PixelRGB24 is packed 8-bit R, G, B with no padding.
	PixelRGB24 PixelFormat = iota
	// PixelRGBA32 is packed 8-bit R, G, B, A.
	PixelRGBA32
)

// Channels returns the number of bytes per pixel.
func (p PixelFormat) Channels() int {
	switch p {
	case PixelRGB24:
		return 3
	case PixelRGBA32:
		return 4
	default:
		return 0
	}
}

// String returns the ffmpeg name of the pixel format.
func (p PixelFormat) String() string {
	switch p {
	case PixelRGB24:
		return "rgb24"
	case PixelRGBA32:
		return "rgba"
	default:
		return "unknown"
	}
}

// StreamInfo describes the video stream selected for decoding.
type StreamInfo struct {
	Codec       string `json:"codec"`
	TrackID     uint32 `json:"track_id"`
	VideoIndex  int    `json:"video_index"` // position among the file's video tracks
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Timescale   uint32 `json:"timescale"`
	SampleCount int    `json:"sample_count"` // 0 when unknown (fragmented files)
	Fragmented  bool   `json:"fragmented"`
}

// RawFrame is a decoded frame at the decoder's native resolution.
// The holder owns Pix; it is handed over, never shared.
type RawFrame struct {
	Index  int
	Width  int
	Height int
	Format PixelFormat
	Pix    []byte
}

// VideoDecoder abstracts the container demuxer and video decoder.
type VideoDecoder interface {
	// Open starts a decode session for the best video stream in the file.
	Open(ctx context.Context, path string) (FrameReader, error)
}

// FrameReader is a single-pass, pull-based frame producer.
type FrameReader interface {
	// Info returns the selected stream.
	Info() StreamInfo

	// ReadFrame returns the next frame, io.EOF after the last frame,
	// or a decode error.
	ReadFrame() (RawFrame, error)

	// Close releases the session. It is safe to call more than once.
	Close() error
}
