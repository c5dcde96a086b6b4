package contentcache

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/youterm/pkg/adapters/osfilesystem"
	"github.com/user/youterm/pkg/mocks"
	"github.com/user/youterm/pkg/pipeline"
)

const (
	storePath = "/data/youterm/cache.json"
	outDir    = "/data/youterm/out"
	videoA    = "https://example.test/video-a"
)

func newTestCache(t *testing.T, opts Options) (*Cache, *mocks.FileSystem) {
	t.Helper()
	fs := mocks.NewFileSystem()
	c := New(fs, storePath, outDir, opts)
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return c, fs
}

func TestCache_InitializeCreatesEmptyTable(t *testing.T) {
	_, fs := newTestCache(t, Options{})

	data, ok := fs.GetFile(storePath)
	if !ok {
		t.Fatal("expected store file to be created")
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("store is not valid JSON: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty table, got %d records", len(records))
	}
}

func TestCache_InitializeIsIdempotent(t *testing.T) {
	c, fs := newTestCache(t, Options{})
	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := c.Initialize(); err != nil {
			t.Fatalf("Initialize #%d failed: %v", i, err)
		}
	}

	ok, err := c.Contains(videoA)
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if !ok {
		t.Error("expected existing record to survive repeated Initialize")
	}
	if fs.Writes != 2 {
		t.Errorf("expected 2 writes (init + insert), got %d", fs.Writes)
	}
}

func TestCache_InsertThenLookup(t *testing.T) {
	c, _ := newTestCache(t, Options{})

	ids := []string{
		videoA,
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://example.test/path/with spaces?q=1#frag",
	}
	for i, id := range ids {
		asset := filepath.Base(id) + ".mp4"
		if err := c.Insert(id, asset); err != nil {
			t.Fatalf("Insert(%d) failed: %v", i, err)
		}

		path, ok, err := c.Lookup(id)
		if err != nil {
			t.Fatalf("Lookup(%d) failed: %v", i, err)
		}
		if !ok {
			t.Fatalf("Lookup(%d) found no record", i)
		}
		if want := filepath.Join(outDir, asset); path != want {
			t.Errorf("Lookup(%d) = %s, want %s", i, path, want)
		}
	}
}

func TestCache_ContainsBeforeAndAfterInsert(t *testing.T) {
	c, _ := newTestCache(t, Options{})

	ok, err := c.Contains(videoA)
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if ok {
		t.Error("expected Contains to be false before insert")
	}

	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ok, err = c.Contains(videoA)
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if !ok {
		t.Error("expected Contains to be true after insert")
	}
}

func TestCache_LastWriteWins(t *testing.T) {
	c, _ := newTestCache(t, Options{})

	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := c.Insert(videoA, "a-reencoded.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	records, err := c.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].AssetName != "a-reencoded.mp4" {
		t.Errorf("expected overwritten asset, got %s", records[0].AssetName)
	}
}

func TestCache_LookupMissing(t *testing.T) {
	c, _ := newTestCache(t, Options{})

	path, ok, err := c.Lookup(videoA)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok || path != "" {
		t.Errorf("expected no result, got %q ok=%v", path, ok)
	}
}

func TestCache_VerifyAssetsEvictsStaleRecord(t *testing.T) {
	c, fs := newTestCache(t, Options{VerifyAssets: true})

	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Asset never written: record is stale.
	_, ok, err := c.Lookup(videoA)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok {
		t.Fatal("expected stale record to be reported missing")
	}
	if contains, _ := c.Contains(videoA); contains {
		t.Error("expected stale record to be evicted")
	}

	// Asset present: record is trusted.
	if err := fs.WriteFile(filepath.Join(outDir, "a.mp4"), []byte("media")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, ok, _ := c.Lookup(videoA); !ok {
		t.Error("expected record with existing asset to resolve")
	}
}

func TestCache_WithoutVerifyTrustsRecord(t *testing.T) {
	c, _ := newTestCache(t, Options{VerifyAssets: false})

	if err := c.Insert(videoA, "gone.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	path, ok, err := c.Lookup(videoA)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok || path != filepath.Join(outDir, "gone.mp4") {
		t.Errorf("expected path without verification, got %q ok=%v", path, ok)
	}
}

func TestCache_Remove(t *testing.T) {
	c, _ := newTestCache(t, Options{})

	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := c.Remove(videoA); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := c.Remove(videoA); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if ok, _ := c.Contains(videoA); ok {
		t.Error("expected record to be removed")
	}
}

func TestCache_WriteGoesThroughStagingFile(t *testing.T) {
	c, fs := newTestCache(t, Options{})

	var renames [][2]string
	fs.RenameFunc = func(oldPath, newPath string) error {
		renames = append(renames, [2]string{oldPath, newPath})
		data, _ := fs.GetFile(oldPath)
		return fs.WriteFile(newPath, data)
	}

	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(renames) != 1 {
		t.Fatalf("expected 1 rename, got %d", len(renames))
	}
	if renames[0][0] != storePath+".tmp" || renames[0][1] != storePath {
		t.Errorf("unexpected rename %v", renames[0])
	}
}

func TestCache_FailedReplaceKeepsPreviousTable(t *testing.T) {
	c, fs := newTestCache(t, Options{})
	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	fs.RenameFunc = func(oldPath, newPath string) error {
		return errors.New("disk full")
	}

	err := c.Insert("https://example.test/video-b", "b.mp4")
	if !errors.Is(err, pipeline.ErrCacheIO) {
		t.Fatalf("expected ErrCacheIO, got %v", err)
	}

	fs.RenameFunc = nil
	records, err := c.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 1 || records[0].RequestID != videoA {
		t.Errorf("expected previous table intact, got %+v", records)
	}
}

func TestCache_CorruptStoreIsCacheIOError(t *testing.T) {
	c, fs := newTestCache(t, Options{})
	if err := fs.WriteFile(storePath, []byte("{not json")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := c.Contains(videoA); !errors.Is(err, pipeline.ErrCacheIO) {
		t.Errorf("expected ErrCacheIO, got %v", err)
	}
	if err := c.Insert(videoA, "a.mp4"); !errors.Is(err, pipeline.ErrCacheIO) {
		t.Errorf("expected ErrCacheIO, got %v", err)
	}
}

func TestCache_OnDisk(t *testing.T) {
	root := t.TempDir()
	fs := osfilesystem.New()
	c := New(fs, filepath.Join(root, "cache.json"), filepath.Join(root, "out"), Options{})

	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := c.Insert(videoA, "a.mp4"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	reopened := New(fs, filepath.Join(root, "cache.json"), filepath.Join(root, "out"), Options{})
	path, ok, err := reopened.Lookup(videoA)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok || path != filepath.Join(root, "out", "a.mp4") {
		t.Errorf("unexpected lookup result %q ok=%v", path, ok)
	}
	if exists, _ := fs.Exists(filepath.Join(root, "cache.json.tmp")); exists {
		t.Error("expected no staging file left behind")
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://example.test/video-a", want: "https://example.test/video-a"},
		{in: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{in: "https://example.test/a b", want: "https://example.test/a%20b"},
		{in: "not a url", wantErr: true},
		{in: "/relative/path", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Canonicalize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
