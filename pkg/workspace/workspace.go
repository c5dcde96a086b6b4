// Package workspace lays out youterm's per-user data directory.
//
// The root is injected so tests and alternate installs never touch the real
// user directory; DefaultRoot is only consulted by the command layer.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/user/youterm/pkg/ports"
)

// AppName is the directory name under the user data home.
const AppName = "youterm"

// EnvDataDir overrides the default root when set.
const EnvDataDir = "YOUTERM_DATA_DIR"

const (
	cacheFile  = "cache.json"
	configFile = "config.yaml"
	outDir     = "out"
	binDir     = "bin"
	debugDir   = "debug"
)

// Workspace resolves the fixed paths below a data root.
type Workspace struct {
	root string
}

// New creates a Workspace rooted at root.
func New(root string) *Workspace {
	return &Workspace{root: filepath.Clean(root)}
}

// DefaultRoot returns $YOUTERM_DATA_DIR, or <user data home>/youterm.
func DefaultRoot() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, AppName)
}

// Root returns the data root.
func (w *Workspace) Root() string { return w.root }

// CachePath returns the cache store file.
func (w *Workspace) CachePath() string { return filepath.Join(w.root, cacheFile) }

// ConfigPath returns the optional YAML configuration file.
func (w *Workspace) ConfigPath() string { return filepath.Join(w.root, configFile) }

// OutDir returns the directory holding downloaded assets.
func (w *Workspace) OutDir() string { return filepath.Join(w.root, outDir) }

// BinDir returns the directory searched for helper executables.
func (w *Workspace) BinDir() string { return filepath.Join(w.root, binDir) }

// DebugDir returns the directory for debug sink output.
func (w *Workspace) DebugDir() string { return filepath.Join(w.root, debugDir) }

// Ensure creates the root, output and bin directories.
func (w *Workspace) Ensure(fs ports.FileSystem) error {
	for _, dir := range []string{w.root, w.OutDir(), w.BinDir()} {
		if err := fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
