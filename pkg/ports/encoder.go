package ports

// ScaledFrame is a frame converted to RGB24 at the playback size.
// len(Pix) is always Width*Height*3 for a well-formed frame.
type ScaledFrame struct {
	Index  int
	Width  int
	Height int
	Pix    []byte
}

// ScaledChannels is the channel count of a ScaledFrame buffer.
const ScaledChannels = 3

// EncodedBlock is one frame in the terminal graphics protocol.
type EncodedBlock struct {
	Index int
	Data  []byte
}

// FrameEncoder converts frames to terminal graphics.
// Implementations must be safe for concurrent use.
type FrameEncoder interface {
	Encode(frame ScaledFrame) (EncodedBlock, error)
}
