package mocks

import (
	"sync"

	"github.com/user/youterm/pkg/ports"
)

// Renderer records rendered blocks.
// RenderFunc, when set, runs before recording and its error is returned.
type Renderer struct {
	RenderFunc func(block ports.EncodedBlock) error

	mu       sync.Mutex
	indices  []int
	active   int
	overlaps int
	closed   bool
}

func (m *Renderer) Render(block ports.EncodedBlock) error {
	m.mu.Lock()
	m.active++
	if m.active > 1 {
		m.overlaps++
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if m.RenderFunc != nil {
		if err := m.RenderFunc(block); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.indices = append(m.indices, block.Index)
	m.mu.Unlock()
	return nil
}

func (m *Renderer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Indices returns the frame indices in render order.
func (m *Renderer) Indices() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.indices...)
}

// Overlaps returns how many Render calls started while another was running.
func (m *Renderer) Overlaps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

// Closed reports whether Close was called.
func (m *Renderer) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ports.Renderer = (*Renderer)(nil)
