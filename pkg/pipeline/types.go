package pipeline

import (
	"github.com/user/youterm/pkg/ports"
)

// =============================================================================
// Retrieve Stage Types
// =============================================================================

// RetrieveInput identifies the media to make available locally.
type RetrieveInput struct {
	RequestID string // canonical URL
	UseCache  bool   // false forces a fetch even when a record exists
}

// RetrieveResult points at the local asset.
type RetrieveResult struct {
	Path    string // asset path under the output directory
	Fetched bool   // true when the fetcher ran for this request
}

// =============================================================================
// Playback Stage Types
// =============================================================================

// PlayInput configures one playback.
type PlayInput struct {
	Path   string
	Width  int     // target width, 0 = derive from Scale
	Height int     // target height, 0 = derive from Scale
	Scale  float64 // downscale factor applied to the native size (>= 1)

	// Bounds for a size derived from Scale, 0 = unbounded
	MaxWidth  int
	MaxHeight int
}

// PlayResult summarizes a finished playback.
type PlayResult struct {
	Stream         ports.StreamInfo
	Width          int
	Height         int
	FramesDecoded  int
	FramesEncoded  int
	FramesRendered int
	MaxQueueDepth  int
	State          State
	DurationMs     int64
}

// Batch is a group of frames decoded in one producer iteration.
type Batch []ports.ScaledFrame

// Full reports whether the batch reached size.
func (b Batch) Full(size int) bool {
	return len(b) >= size
}
