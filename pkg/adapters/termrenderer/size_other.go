//go:build !aix && !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris && !zos

package termrenderer

import "os"

// PixelSize always reports an unknown size on this platform.
func PixelSize(f *os.File) (width, height int, ok bool) {
	return 0, 0, false
}
