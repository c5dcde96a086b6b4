package termrenderer

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestRenderer_SingleWritePerFrame(t *testing.T) {
	w := &countingWriter{}
	r := New(w)

	if err := r.Render(ports.EncodedBlock{Index: 0, Data: []byte("AAA")}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := r.Render(ports.EncodedBlock{Index: 1, Data: []byte("BBB")}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if w.writes != 2 {
		t.Errorf("expected 2 writes, got %d", w.writes)
	}
	want := "\x1b[1;1HAAA\n\x1b[1;1HBBB\n"
	if got := w.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRenderer_NonTerminalLeavesCursorAlone(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	if err := r.Render(ports.EncodedBlock{Data: []byte("x")}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if bytes.Contains(buf.Bytes(), []byte(cursorHide)) || bytes.Contains(buf.Bytes(), []byte(cursorShow)) {
		t.Errorf("unexpected cursor sequences in %q", buf.String())
	}
}

func TestRenderer_TerminalHidesAndRestoresCursor(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.terminal = true

	r.Render(ports.EncodedBlock{Data: []byte("a")})
	r.Render(ports.EncodedBlock{Data: []byte("b")})
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := cursorHide + cursorHome + "a\n" + cursorHome + "b\n" + cursorShow
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRenderer_WriteFailure(t *testing.T) {
	r := New(failingWriter{})

	err := r.Render(ports.EncodedBlock{Index: 7, Data: []byte("x")})
	if !errors.Is(err, pipeline.ErrRender) {
		t.Errorf("expected ErrRender, got %v", err)
	}
}

func TestRenderer_RenderAfterClose(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := r.Render(ports.EncodedBlock{Data: []byte("x")}); !errors.Is(err, pipeline.ErrRender) {
		t.Errorf("expected ErrRender after Close, got %v", err)
	}
}

func TestPixelSize_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, _, ok := PixelSize(f); ok {
		t.Error("expected no pixel size for a regular file")
	}
}
