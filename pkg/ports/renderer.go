package ports

// Renderer writes encoded frames to the terminal.
// Calls are serialized by the caller.
type Renderer interface {
	// Render positions the cursor at the anchor and writes the block,
	// overwriting the previous frame in place.
	Render(block EncodedBlock) error

	// Close restores any terminal state changed by Render.
	Close() error
}
