package retrieve

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/youterm/pkg/adapters/logger"
	"github.com/user/youterm/pkg/contentcache"
	"github.com/user/youterm/pkg/mocks"
	"github.com/user/youterm/pkg/pipeline"
)

const testURL = "https://example.com/watch?v=abc"

var (
	testStore  = filepath.Join("data", "cache.json")
	testOutDir = filepath.Join("data", "out")
)

func newStage(fs *mocks.FileSystem, fetcher *mocks.Fetcher, verify bool) (*Stage, *contentcache.Cache) {
	cache := contentcache.New(fs, testStore, testOutDir, contentcache.Options{VerifyAssets: verify})
	return New(cache, fetcher, fs, logger.NewNoop()), cache
}

// seedRecord records assetName for testURL without creating the asset file.
func seedRecord(t *testing.T, cache *contentcache.Cache, assetName string) {
	t.Helper()
	if err := cache.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := cache.Insert(testURL, assetName); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func TestStage_MissFetchesAndRecords(t *testing.T) {
	fs := mocks.NewFileSystem()
	fetcher := &mocks.Fetcher{AssetName: "a.mp4", FS: fs}
	stage, cache := newStage(fs, fetcher, true)

	result, err := stage.Execute(context.Background(), pipeline.RetrieveInput{RequestID: testURL, UseCache: true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := filepath.Join(testOutDir, "a.mp4")
	if result.Path != want {
		t.Errorf("expected path %s, got %s", want, result.Path)
	}
	if !result.Fetched {
		t.Error("expected Fetched to be true")
	}
	if calls := fetcher.Calls(); len(calls) != 1 || calls[0] != testURL {
		t.Errorf("unexpected fetch calls %v", calls)
	}

	path, ok, err := cache.Lookup(testURL)
	if err != nil || !ok {
		t.Fatalf("expected recorded entry, ok=%v err=%v", ok, err)
	}
	if path != want {
		t.Errorf("expected lookup %s, got %s", want, path)
	}
}

func TestStage_SecondCallReusesCache(t *testing.T) {
	fs := mocks.NewFileSystem()
	fetcher := &mocks.Fetcher{AssetName: "a.mp4", FS: fs}
	stage, _ := newStage(fs, fetcher, true)
	input := pipeline.RetrieveInput{RequestID: testURL, UseCache: true}

	if _, err := stage.Execute(context.Background(), input); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if len(fetcher.Calls()) != 1 {
		t.Errorf("expected one fetch in total, got %d", len(fetcher.Calls()))
	}
	if result.Fetched {
		t.Error("expected the second call to be served from cache")
	}
	if result.Path != filepath.Join(testOutDir, "a.mp4") {
		t.Errorf("unexpected path %s", result.Path)
	}
}

func TestStage_NoCacheAlwaysFetches(t *testing.T) {
	fs := mocks.NewFileSystem()
	fetcher := &mocks.Fetcher{AssetName: "a.mp4", FS: fs}
	stage, _ := newStage(fs, fetcher, true)
	input := pipeline.RetrieveInput{RequestID: testURL, UseCache: false}

	for i := 0; i < 2; i++ {
		if _, err := stage.Execute(context.Background(), input); err != nil {
			t.Fatalf("Execute %d failed: %v", i, err)
		}
	}
	if len(fetcher.Calls()) != 2 {
		t.Errorf("expected two fetches, got %d", len(fetcher.Calls()))
	}
}

func TestStage_StaleRecordIsRefetched(t *testing.T) {
	fs := mocks.NewFileSystem()
	fetcher := &mocks.Fetcher{AssetName: "a.mp4", FS: fs}
	stage, cache := newStage(fs, fetcher, true)

	seedRecord(t, cache, "gone.mp4")

	result, err := stage.Execute(context.Background(), pipeline.RetrieveInput{RequestID: testURL, UseCache: true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Fetched || result.Path != filepath.Join(testOutDir, "a.mp4") {
		t.Errorf("expected refetch into a.mp4, got %+v", result)
	}
	if len(fetcher.Calls()) != 1 {
		t.Errorf("expected one fetch, got %d", len(fetcher.Calls()))
	}

	path, ok, err := cache.Lookup(testURL)
	if err != nil || !ok {
		t.Fatalf("expected refreshed entry, ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(testOutDir, "a.mp4") {
		t.Errorf("expected record to point at a.mp4, got %s", path)
	}
}

func TestStage_UnverifiedRecordIsTrusted(t *testing.T) {
	fs := mocks.NewFileSystem()
	fetcher := &mocks.Fetcher{AssetName: "a.mp4", FS: fs}
	stage, cache := newStage(fs, fetcher, false)

	seedRecord(t, cache, "gone.mp4")

	result, err := stage.Execute(context.Background(), pipeline.RetrieveInput{RequestID: testURL, UseCache: true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Fetched || len(fetcher.Calls()) != 0 {
		t.Error("expected the record to be used without fetching")
	}
	if result.Path != filepath.Join(testOutDir, "gone.mp4") {
		t.Errorf("unexpected path %s", result.Path)
	}
}

func TestStage_FetchFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	fetcher := &mocks.Fetcher{Err: errors.New("HTTP Error 404")}
	stage, cache := newStage(fs, fetcher, true)

	_, err := stage.Execute(context.Background(), pipeline.RetrieveInput{RequestID: testURL, UseCache: true})
	if !errors.Is(err, pipeline.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}

	ok, err := cache.Contains(testURL)
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if ok {
		t.Error("expected no record after a failed fetch")
	}
}

func TestStage_CacheStoreFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("read-only file system")
	}
	stage, _ := newStage(fs, &mocks.Fetcher{AssetName: "a.mp4"}, true)

	_, err := stage.Execute(context.Background(), pipeline.RetrieveInput{RequestID: testURL, UseCache: true})
	if !errors.Is(err, pipeline.ErrCacheIO) {
		t.Errorf("expected ErrCacheIO, got %v", err)
	}
}

func TestStage_InvalidIdentifier(t *testing.T) {
	fs := mocks.NewFileSystem()
	fetcher := &mocks.Fetcher{AssetName: "a.mp4", FS: fs}
	stage, _ := newStage(fs, fetcher, true)

	if _, err := stage.Execute(context.Background(), pipeline.RetrieveInput{RequestID: "not a url"}); err == nil {
		t.Error("expected error for a relative identifier")
	}
	if len(fetcher.Calls()) != 0 {
		t.Error("expected no fetch for an invalid identifier")
	}
}
