// Package termrenderer writes encoded frames to a terminal.
package termrenderer

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

const (
	cursorHome = "\x1b[1;1H"
	cursorHide = "\x1b[?25l"
	cursorShow = "\x1b[?25h"
)

// Renderer implements ports.Renderer.
// Each frame is drawn from the top-left corner so playback overwrites in place.
type Renderer struct {
	out      io.Writer
	terminal bool

	mu     sync.Mutex
	hidden bool
	closed bool
	buf    []byte
}

// New creates a renderer writing to out.
// Cursor handling is enabled only when out is a terminal.
func New(out io.Writer) *Renderer {
	return &Renderer{
		out:      out,
		terminal: isTerminal(out),
	}
}

// NewStdout creates a renderer writing to os.Stdout.
func NewStdout() *Renderer {
	return New(os.Stdout)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes one block. The cursor move, payload and trailing newline go
// out in a single write.
func (r *Renderer) Render(block ports.EncodedBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: renderer closed", pipeline.ErrRender)
	}

	r.buf = r.buf[:0]
	if r.terminal && !r.hidden {
		r.buf = append(r.buf, cursorHide...)
		r.hidden = true
	}
	r.buf = append(r.buf, cursorHome...)
	r.buf = append(r.buf, block.Data...)
	r.buf = append(r.buf, '\n')

	if _, err := r.out.Write(r.buf); err != nil {
		return fmt.Errorf("%w: frame %d: %w", pipeline.ErrRender, block.Index, err)
	}
	return nil
}

// Close restores the cursor if it was hidden. Safe to call more than once.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.hidden {
		r.hidden = false
		if _, err := io.WriteString(r.out, cursorShow); err != nil {
			return fmt.Errorf("%w: restore cursor: %w", pipeline.ErrRender, err)
		}
	}
	return nil
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)
