package ytdlp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultReleaseURL is where the standalone yt-dlp builds are published.
const DefaultReleaseURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download"

const installTimeout = 2 * time.Minute

// releaseAsset returns the release file name for goos/goarch.
// Platforms without a standalone build get the zipapp, which needs python3.
func releaseAsset(goos, goarch string) string {
	switch {
	case goos == "windows":
		return "yt-dlp.exe"
	case goos == "darwin":
		return "yt-dlp_macos"
	case goos == "linux" && goarch == "amd64":
		return "yt-dlp_linux"
	case goos == "linux" && goarch == "arm64":
		return "yt-dlp_linux_aarch64"
	default:
		return "yt-dlp"
	}
}

func execName() string {
	if runtime.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// install downloads yt-dlp into opts.InstallDir and returns its path.
// The binary is staged next to its final name and renamed into place.
func (f *Fetcher) install(ctx context.Context) (string, error) {
	dir := f.opts.InstallDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}

	base := f.opts.ReleaseURL
	if base == "" {
		base = DefaultReleaseURL
	}
	url := base + "/" + releaseAsset(runtime.GOOS, runtime.GOARCH)
	f.logger.Info("Installing yt-dlp into %s", dir)
	f.logger.Debug("Downloading %s", url)

	ctx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}
	client := f.opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: install: GET %s: %s", ErrYtDlpNotFound, url, resp.Status)
	}

	dest := filepath.Join(dir, execName())
	tmp, err := os.CreateTemp(dir, ".yt-dlp-*")
	if err != nil {
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}
	if err := os.Chmod(tmp.Name(), 0755); err != nil {
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("%w: install: %w", ErrYtDlpNotFound, err)
	}

	f.logger.Info("Installed yt-dlp at %s", dest)
	return dest, nil
}
