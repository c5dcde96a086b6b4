package mocks

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/user/youterm/pkg/ports"
)

// Fetcher is a stub ports.Fetcher that "downloads" AssetName.
// When FS is set the asset is written there so existence checks pass.
type Fetcher struct {
	AssetName string
	Err       error
	FS        ports.FileSystem

	mu    sync.Mutex
	calls []string
}

func (m *Fetcher) Fetch(ctx context.Context, requestID string, outDir string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, requestID)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.FS != nil {
		if err := m.FS.WriteFile(filepath.Join(outDir, m.AssetName), []byte("media")); err != nil {
			return "", err
		}
	}
	return m.AssetName, nil
}

// Calls returns the request identifiers fetched, in order.
func (m *Fetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

var _ ports.Fetcher = (*Fetcher)(nil)
