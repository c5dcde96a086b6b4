package pipeline

import "errors"

// Failure classes. Adapters wrap their own errors with one of these so the
// command layer can report what went wrong without knowing the adapter.
var (
	// ErrCacheIO means the cache store could not be read or written.
	ErrCacheIO = errors.New("cache I/O error")

	// ErrFetch means the media could not be downloaded.
	ErrFetch = errors.New("fetch error")

	// ErrDecode means the media is malformed, unsupported, or failed mid-stream.
	ErrDecode = errors.New("decode error")

	// ErrEncode means a frame could not be converted to sixel.
	ErrEncode = errors.New("encode error")

	// ErrRender means the terminal write failed.
	ErrRender = errors.New("render error")
)
