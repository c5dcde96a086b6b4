package ports

import (
	"image"
)

// DebugSink receives intermediate playback artifacts for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveStreamInfo saves the probed stream description as JSON.
	SaveStreamInfo(data []byte) error

	// SaveFrame saves a scaled frame.
	SaveFrame(index int, img image.Image) error
}
