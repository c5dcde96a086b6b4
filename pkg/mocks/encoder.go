package mocks

import (
	"fmt"
	"sync"

	"github.com/user/youterm/pkg/ports"
)

// FrameEncoder is a mock implementation of ports.FrameEncoder.
// By default it emits "frame-<index>" as the payload.
type FrameEncoder struct {
	EncodeFunc func(frame ports.ScaledFrame) (ports.EncodedBlock, error)

	mu    sync.Mutex
	calls int
}

func (m *FrameEncoder) Encode(frame ports.ScaledFrame) (ports.EncodedBlock, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.EncodeFunc != nil {
		return m.EncodeFunc(frame)
	}
	return ports.EncodedBlock{Index: frame.Index, Data: []byte(fmt.Sprintf("frame-%d", frame.Index))}, nil
}

// Calls returns the number of Encode calls.
func (m *FrameEncoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ ports.FrameEncoder = (*FrameEncoder)(nil)
