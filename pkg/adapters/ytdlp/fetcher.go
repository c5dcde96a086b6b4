// Package ytdlp fetches remote media with the yt-dlp command-line tool.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

var (
	// ErrYtDlpNotFound is returned when yt-dlp is not found.
	ErrYtDlpNotFound = errors.New("ytdlp: yt-dlp not found")
	// ErrNoOutput is returned when yt-dlp exits without reporting a file.
	ErrNoOutput = errors.New("ytdlp: no output file reported")
)

// DefaultSocketTimeout matches the timeout the tool uses for each connection.
const DefaultSocketTimeout = 8 * time.Second

// Format prefers an mp4 video with m4a audio, then any single mp4.
const Format = "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b"

// Options configures the fetcher.
type Options struct {
	// Path is an explicit path to the yt-dlp binary.
	Path string
	// SearchDirs are checked for yt-dlp after PATH.
	SearchDirs []string
	// SocketTimeout is passed to --socket-timeout. Zero means DefaultSocketTimeout.
	SocketTimeout time.Duration
	// Timeout bounds the whole download. Zero means no limit beyond ctx.
	Timeout time.Duration

	// InstallDir, when set, receives a downloaded yt-dlp if none is found.
	// An explicit Path disables the install.
	InstallDir string
	// ReleaseURL overrides DefaultReleaseURL.
	ReleaseURL string
	// HTTPClient is used for the install download. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Fetcher implements ports.Fetcher.
type Fetcher struct {
	opts   Options
	logger ports.Logger
}

// New creates a new yt-dlp fetcher.
func New(opts Options, logger ports.Logger) *Fetcher {
	if opts.SocketTimeout <= 0 {
		opts.SocketTimeout = DefaultSocketTimeout
	}
	return &Fetcher{
		opts:   opts,
		logger: logger.WithComponent("ytdlp"),
	}
}

func findYtDlp(opts Options) (string, error) {
	if opts.Path != "" {
		if _, err := os.Stat(opts.Path); err == nil {
			return opts.Path, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrYtDlpNotFound, opts.Path)
	}

	name := execName()
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	for _, dir := range opts.SearchDirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrYtDlpNotFound
}

// binary finds yt-dlp, installing it into InstallDir when it is missing.
func (f *Fetcher) binary(ctx context.Context) (string, error) {
	bin, err := findYtDlp(f.opts)
	if err == nil || f.opts.Path != "" || f.opts.InstallDir == "" || !errors.Is(err, ErrYtDlpNotFound) {
		return bin, err
	}
	return f.install(ctx)
}

// Available reports whether a yt-dlp binary can be found.
func (f *Fetcher) Available() bool {
	_, err := findYtDlp(f.opts)
	return err == nil
}

func (f *Fetcher) args(requestID, outDir string) []string {
	secs := int(f.opts.SocketTimeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	return []string{
		"--quiet",
		"--no-warnings",
		"--no-progress",
		"--no-playlist",
		"--socket-timeout", strconv.Itoa(secs),
		"-f", Format,
		"--merge-output-format", "mp4",
		"-P", outDir,
		"-o", "%(title)s [%(id)s].%(ext)s",
		"--print", "after_move:filepath",
		"--", requestID,
	}
}

// Fetch downloads requestID into outDir and returns the asset file name.
func (f *Fetcher) Fetch(ctx context.Context, requestID string, outDir string) (string, error) {
	bin, err := f.binary(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", pipeline.ErrFetch, err)
	}

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", pipeline.ErrFetch, err)
	}

	args := f.args(requestID, outDir)
	f.logger.Debug("Running %s", bin+" "+strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %s: %w", pipeline.ErrFetch, requestID, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%w: %s: %w", pipeline.ErrFetch, requestID, err)
		}
		return "", fmt.Errorf("%w: %s: %w: %s", pipeline.ErrFetch, requestID, err, msg)
	}

	name, err := assetName(stdout.String(), outDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", pipeline.ErrFetch, requestID, err)
	}
	if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
		return "", fmt.Errorf("%w: %s: %w", pipeline.ErrFetch, requestID, err)
	}

	f.logger.Debug("Downloaded %s", name)
	return name, nil
}

// assetName takes the last path yt-dlp printed and returns it relative to
// outDir. Paths outside outDir are rejected.
func assetName(output, outDir string) (string, error) {
	var last string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			last = line
		}
	}
	if last == "" {
		return "", ErrNoOutput
	}

	if !filepath.IsAbs(last) {
		last = filepath.Join(outDir, last)
	}
	rel, err := filepath.Rel(outDir, last)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.Dir(rel) != "." {
		return "", fmt.Errorf("ytdlp: %s is not inside %s", last, outDir)
	}
	return rel, nil
}

// Ensure Fetcher implements ports.Fetcher
var _ ports.Fetcher = (*Fetcher)(nil)
