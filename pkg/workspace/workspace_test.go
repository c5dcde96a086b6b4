package workspace

import (
	"path/filepath"
	"testing"

	"github.com/user/youterm/pkg/mocks"
)

func TestWorkspace_Paths(t *testing.T) {
	root := filepath.Join("home", "u", ".local", "share", "youterm")
	ws := New(root + string(filepath.Separator))

	tests := map[string]string{
		ws.Root():       root,
		ws.CachePath():  filepath.Join(root, "cache.json"),
		ws.ConfigPath(): filepath.Join(root, "config.yaml"),
		ws.OutDir():     filepath.Join(root, "out"),
		ws.BinDir():     filepath.Join(root, "bin"),
		ws.DebugDir():   filepath.Join(root, "debug"),
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestWorkspace_Ensure(t *testing.T) {
	fs := mocks.NewFileSystem()
	ws := New("/data/youterm")

	if err := ws.Ensure(fs); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	for _, dir := range []string{ws.Root(), ws.OutDir(), ws.BinDir()} {
		exists, _ := fs.Exists(dir)
		if !exists {
			t.Errorf("expected %s to be created", dir)
		}
	}
}

func TestDefaultRoot_EnvOverride(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/youterm-test")

	if got := DefaultRoot(); got != "/tmp/youterm-test" {
		t.Errorf("expected env override, got %s", got)
	}
}

func TestDefaultRoot_UsesAppName(t *testing.T) {
	t.Setenv(EnvDataDir, "")

	if got := filepath.Base(DefaultRoot()); got != AppName {
		t.Errorf("expected root to end in %s, got %s", AppName, got)
	}
}
