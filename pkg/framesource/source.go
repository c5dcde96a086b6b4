// Package framesource turns a decode session into a sequence of RGB24 frames
// at the playback size.
package framesource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"golang.org/x/image/draw"

	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

// Options selects the output size.
// An explicit Width and Height win; a single explicit dimension keeps the
// aspect ratio; otherwise the native size is divided by Scale and then
// shrunk to fit MaxWidth and MaxHeight when they are set.
type Options struct {
	Width  int
	Height int
	Scale  float64

	MaxWidth  int
	MaxHeight int
}

// Source is a single-pass producer of scaled frames.
type Source struct {
	reader ports.FrameReader
	info   ports.StreamInfo
	width  int
	height int

	// scratch buffers reused across frames when scaling
	src *image.RGBA
	dst *image.RGBA
}

// Open starts decoding path through decoder.
func Open(ctx context.Context, decoder ports.VideoDecoder, path string, opts Options) (*Source, error) {
	reader, err := decoder.Open(ctx, path)
	if err != nil {
		if errors.Is(err, pipeline.ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", pipeline.ErrDecode, err)
	}

	info := reader.Info()
	width, height, err := TargetSize(info.Width, info.Height, opts)
	if err != nil {
		reader.Close()
		return nil, err
	}

	return &Source{
		reader: reader,
		info:   info,
		width:  width,
		height: height,
	}, nil
}

// TargetSize computes the output size for a native size.
func TargetSize(nativeW, nativeH int, opts Options) (int, int, error) {
	if nativeW <= 0 || nativeH <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid native size %dx%d", pipeline.ErrDecode, nativeW, nativeH)
	}
	if opts.Width < 0 || opts.Height < 0 {
		return 0, 0, fmt.Errorf("invalid target size %dx%d", opts.Width, opts.Height)
	}

	switch {
	case opts.Width > 0 && opts.Height > 0:
		return opts.Width, opts.Height, nil
	case opts.Width > 0:
		return opts.Width, atLeastOne(float64(nativeH) * float64(opts.Width) / float64(nativeW)), nil
	case opts.Height > 0:
		return atLeastOne(float64(nativeW) * float64(opts.Height) / float64(nativeH)), opts.Height, nil
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 1 {
		return 0, 0, fmt.Errorf("invalid scale %.2f: must be >= 1", scale)
	}
	w, h := float64(nativeW)/scale, float64(nativeH)/scale
	if opts.MaxWidth > 0 && w > float64(opts.MaxWidth) {
		w, h = float64(opts.MaxWidth), h*float64(opts.MaxWidth)/w
	}
	if opts.MaxHeight > 0 && h > float64(opts.MaxHeight) {
		w, h = w*float64(opts.MaxHeight)/h, float64(opts.MaxHeight)
	}
	return atLeastOne(w), atLeastOne(h), nil
}

func atLeastOne(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}

// Info returns the selected stream.
func (s *Source) Info() ports.StreamInfo {
	return s.info
}

// Size returns the output frame size.
func (s *Source) Size() (int, int) {
	return s.width, s.height
}

// Next returns the next frame, io.EOF at the end of the stream, or a
// decode error. Errors are final.
func (s *Source) Next() (ports.ScaledFrame, error) {
	raw, err := s.reader.ReadFrame()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ports.ScaledFrame{}, io.EOF
		}
		if errors.Is(err, pipeline.ErrDecode) {
			return ports.ScaledFrame{}, err
		}
		return ports.ScaledFrame{}, fmt.Errorf("%w: %w", pipeline.ErrDecode, err)
	}
	return s.scale(raw)
}

// Close ends the decode session.
func (s *Source) Close() error {
	return s.reader.Close()
}

func (s *Source) scale(raw ports.RawFrame) (ports.ScaledFrame, error) {
	channels := raw.Format.Channels()
	if channels == 0 {
		return ports.ScaledFrame{}, fmt.Errorf("%w: frame %d: unsupported pixel format %d", pipeline.ErrDecode, raw.Index, raw.Format)
	}
	if len(raw.Pix) != raw.Width*raw.Height*channels {
		return ports.ScaledFrame{}, fmt.Errorf("%w: frame %d: %d bytes for %dx%d %s", pipeline.ErrDecode, raw.Index, len(raw.Pix), raw.Width, raw.Height, raw.Format)
	}

	// Native size RGB24 is already the output format; hand the buffer over.
	if raw.Format == ports.PixelRGB24 && raw.Width == s.width && raw.Height == s.height {
		return ports.ScaledFrame{Index: raw.Index, Width: raw.Width, Height: raw.Height, Pix: raw.Pix}, nil
	}

	s.src = toRGBA(raw, s.src)
	if s.dst == nil {
		s.dst = image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	}
	draw.BiLinear.Scale(s.dst, s.dst.Bounds(), s.src, s.src.Bounds(), draw.Src, nil)

	return ports.ScaledFrame{
		Index:  raw.Index,
		Width:  s.width,
		Height: s.height,
		Pix:    packRGB(s.dst),
	}, nil
}

// toRGBA expands raw into an RGBA image, reusing buf when it fits.
func toRGBA(raw ports.RawFrame, buf *image.RGBA) *image.RGBA {
	if buf == nil || buf.Rect.Dx() != raw.Width || buf.Rect.Dy() != raw.Height {
		buf = image.NewRGBA(image.Rect(0, 0, raw.Width, raw.Height))
	}

	if raw.Format == ports.PixelRGBA32 {
		copy(buf.Pix, raw.Pix)
		return buf
	}

	for i, j := 0, 0; i < len(raw.Pix); i, j = i+3, j+4 {
		buf.Pix[j] = raw.Pix[i]
		buf.Pix[j+1] = raw.Pix[i+1]
		buf.Pix[j+2] = raw.Pix[i+2]
		buf.Pix[j+3] = 0xff
	}
	return buf
}

// packRGB drops alpha into a fresh buffer owned by the returned frame.
func packRGB(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, w*h*ports.ScaledChannels)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			o := (y*w + x) * 3
			out[o] = row[x*4]
			out[o+1] = row[x*4+1]
			out[o+2] = row[x*4+2]
		}
	}
	return out
}

// Image wraps a scaled frame as an image for debug output.
func Image(frame ports.ScaledFrame) *image.RGBA {
	return toRGBA(ports.RawFrame{
		Index:  frame.Index,
		Width:  frame.Width,
		Height: frame.Height,
		Format: ports.PixelRGB24,
		Pix:    frame.Pix,
	}, nil)
}
