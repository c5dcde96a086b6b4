// Package sixelencoder converts RGB24 frames into sixel graphics.
package sixelencoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/mattn/go-sixel"

	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

// ErrMalformedFrame is returned when a frame's buffer does not match its size.
var ErrMalformedFrame = errors.New("sixelencoder: malformed frame")

// Encoder implements ports.FrameEncoder.
// Palette reduction is automatic (median cut) and dithering is always on;
// neither is tunable.
type Encoder struct{}

// New creates a new sixel encoder.
func New() *Encoder {
	return &Encoder{}
}

// Encode converts one frame. It holds no state between calls.
func (e *Encoder) Encode(frame ports.ScaledFrame) (ports.EncodedBlock, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return ports.EncodedBlock{}, fmt.Errorf("%w: %w: frame %d has size %dx%d",
			pipeline.ErrEncode, ErrMalformedFrame, frame.Index, frame.Width, frame.Height)
	}
	if want := frame.Width * frame.Height * ports.ScaledChannels; len(frame.Pix) != want {
		return ports.EncodedBlock{}, fmt.Errorf("%w: %w: frame %d has %d bytes, want %d",
			pipeline.ErrEncode, ErrMalformedFrame, frame.Index, len(frame.Pix), want)
	}

	var buf bytes.Buffer
	enc := sixel.NewEncoder(&buf)
	enc.Dither = true
	if err := enc.Encode(toNRGBA(frame)); err != nil {
		return ports.EncodedBlock{}, fmt.Errorf("%w: frame %d: %w", pipeline.ErrEncode, frame.Index, err)
	}

	return ports.EncodedBlock{Index: frame.Index, Data: buf.Bytes()}, nil
}

func toNRGBA(frame ports.ScaledFrame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i, j := 0, 0; i < len(frame.Pix); i, j = i+3, j+4 {
		img.Pix[j] = frame.Pix[i]
		img.Pix[j+1] = frame.Pix[i+1]
		img.Pix[j+2] = frame.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// Ensure Encoder implements ports.FrameEncoder
var _ ports.FrameEncoder = (*Encoder)(nil)
