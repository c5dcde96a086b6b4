package ports

import (
	"context"
)

// Fetcher materializes remote media into a local directory.
type Fetcher interface {
	// Fetch downloads the media identified by requestID into outDir and
	// returns the file name of the asset relative to outDir.
	Fetch(ctx context.Context, requestID string, outDir string) (string, error)
}
