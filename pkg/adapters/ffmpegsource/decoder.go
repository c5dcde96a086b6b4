// Package ffmpegsource decodes video files into raw RGB24 frames by streaming
// them out of an ffmpeg child process.
//
// The container is probed with mp4probe first so that missing or unsupported
// video tracks are reported before a process is started, and so the frame
// size is known up front.
package ffmpegsource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/user/youterm/pkg/adapters/mp4probe"
	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

// ErrFFmpegNotFound is returned when ffmpeg is not found.
var ErrFFmpegNotFound = errors.New("ffmpegsource: ffmpeg not found in PATH")

// Options configures the decoder.
type Options struct {
	// FFmpegPath is an explicit path to the ffmpeg binary.
	FFmpegPath string
	// SearchDirs are checked for ffmpeg after PATH.
	SearchDirs []string
}

// Decoder implements ports.VideoDecoder.
type Decoder struct {
	opts Options
}

// New creates a new ffmpeg-backed decoder.
func New(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

// findFFmpeg searches the custom path, PATH, the extra directories and
// common install locations, in that order.
func findFFmpeg(opts Options) (string, error) {
	if opts.FFmpegPath != "" {
		if _, err := os.Stat(opts.FFmpegPath); err == nil {
			return opts.FFmpegPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, opts.FFmpegPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	candidates := make([]string, 0, len(opts.SearchDirs)+4)
	for _, dir := range opts.SearchDirs {
		candidates = append(candidates, filepath.Join(dir, execName))
	}
	if runtime.GOOS == "windows" {
		candidates = append(candidates,
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		)
	} else {
		candidates = append(candidates,
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// Available reports whether an ffmpeg binary can be found.
func (d *Decoder) Available() bool {
	_, err := findFFmpeg(d.opts)
	return err == nil
}

// Open probes path and starts streaming the selected video track.
func (d *Decoder) Open(ctx context.Context, path string) (ports.FrameReader, error) {
	info, err := mp4probe.ProbeFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrDecode, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has no frame dimensions", pipeline.ErrDecode, path)
	}

	ffmpegPath, err := findFFmpeg(d.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrDecode, err)
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args(path, info)...)

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", pipeline.ErrDecode, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %w", pipeline.ErrDecode, err)
	}

	frameSize := info.Width * info.Height * ports.PixelRGB24.Channels()
	return &reader{
		info:      info,
		cmd:       cmd,
		stdout:    bufio.NewReaderSize(stdout, frameSize),
		stderr:    stderr,
		frameSize: frameSize,
	}, nil
}

// args builds the ffmpeg command line for streaming info's track as raw
// frames. Passthrough timing emits each decoded frame exactly once.
func args(path string, info ports.StreamInfo) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-noautorotate",
		"-i", path,
		"-map", fmt.Sprintf("0:v:%d", info.VideoIndex),
		"-an", "-sn",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", ports.PixelRGB24.String(),
		"-",
	}
}

// reader is one ffmpeg decode session.
type reader struct {
	info      ports.StreamInfo
	cmd       *exec.Cmd
	stdout    *bufio.Reader
	stderr    *bytes.Buffer
	frameSize int
	next      int

	waitOnce sync.Once
	waitErr  error
	done     bool
}

func (r *reader) Info() ports.StreamInfo {
	return r.info
}

// ReadFrame reads exactly one frame of raw RGB24 from ffmpeg.
func (r *reader) ReadFrame() (ports.RawFrame, error) {
	if r.done {
		return ports.RawFrame{}, io.EOF
	}

	pix := make([]byte, r.frameSize)
	n, err := io.ReadFull(r.stdout, pix)
	switch {
	case err == nil:
		frame := ports.RawFrame{
			Index:  r.next,
			Width:  r.info.Width,
			Height: r.info.Height,
			Format: ports.PixelRGB24,
			Pix:    pix,
		}
		r.next++
		return frame, nil

	case errors.Is(err, io.EOF):
		r.done = true
		if werr := r.wait(); werr != nil {
			return ports.RawFrame{}, r.decodeError(werr)
		}
		return ports.RawFrame{}, io.EOF

	case errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		werr := r.wait()
		if werr == nil {
			werr = fmt.Errorf("short frame %d: %d of %d bytes", r.next, n, r.frameSize)
		}
		return ports.RawFrame{}, r.decodeError(werr)

	default:
		r.done = true
		r.kill()
		return ports.RawFrame{}, r.decodeError(err)
	}
}

// Close stops ffmpeg if it is still running.
func (r *reader) Close() error {
	if !r.done {
		r.done = true
		r.kill()
	}
	return nil
}

func (r *reader) kill() {
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	_ = r.wait()
}

func (r *reader) wait() error {
	r.waitOnce.Do(func() {
		r.waitErr = r.cmd.Wait()
	})
	return r.waitErr
}

func (r *reader) decodeError(err error) error {
	msg := strings.TrimSpace(r.stderr.String())
	if msg != "" {
		return fmt.Errorf("%w: frame %d: %w\nstderr: %s", pipeline.ErrDecode, r.next, err, msg)
	}
	return fmt.Errorf("%w: frame %d: %w", pipeline.ErrDecode, r.next, err)
}

// Ensure Decoder implements ports.VideoDecoder
var _ ports.VideoDecoder = (*Decoder)(nil)
