//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris || zos

package termrenderer

import (
	"os"

	"golang.org/x/sys/unix"
)

// PixelSize returns the drawable area of the terminal behind f in pixels.
// ok is false when f is not a terminal or the terminal does not report a
// pixel size. The last text row is left for the newline after each frame.
func PixelSize(f *os.File) (width, height int, ok bool) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Xpixel == 0 || ws.Ypixel == 0 {
		return 0, 0, false
	}
	height = int(ws.Ypixel)
	if ws.Row > 1 {
		height -= int(ws.Ypixel) / int(ws.Row)
	}
	return int(ws.Xpixel), height, true
}
