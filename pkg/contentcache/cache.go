// Package contentcache maps request identifiers to downloaded assets.
//
// The store is a single JSON document holding the whole table. Every lookup
// reads it in full and every mutation rewrites it in full through a staging
// file and a rename, so a crash mid-write leaves the previous table intact.
// There is no locking: one writer at a time is assumed.
package contentcache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"

	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

// Record is one cache entry.
type Record struct {
	RequestID string `json:"request_id"`
	AssetName string `json:"asset_name"`
}

type table map[string]Record

// Options configures a Cache.
type Options struct {
	// VerifyAssets makes Lookup check that the asset file still exists
	// and evict the record when it does not.
	VerifyAssets bool
}

// Cache is the content cache.
type Cache struct {
	fs        ports.FileSystem
	storePath string
	outDir    string
	opts      Options
}

// New creates a cache persisted at storePath whose assets live in outDir.
func New(fs ports.FileSystem, storePath, outDir string, opts Options) *Cache {
	return &Cache{
		fs:        fs,
		storePath: storePath,
		outDir:    outDir,
		opts:      opts,
	}
}

// Canonicalize returns the canonical string form of a request identifier.
// The identifier must be an absolute URL with a host.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request identifier %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid request identifier %q: absolute URL required", raw)
	}
	return u.String(), nil
}

// OutDir returns the directory assets are resolved against.
func (c *Cache) OutDir() string {
	return c.outDir
}

// Initialize creates an empty store if none exists. It is idempotent.
func (c *Cache) Initialize() error {
	exists, err := c.fs.Exists(c.storePath)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", pipeline.ErrCacheIO, c.storePath, err)
	}
	if exists {
		return nil
	}
	return c.write(table{})
}

// Contains reports whether a record exists for requestID.
func (c *Cache) Contains(requestID string) (bool, error) {
	records, err := c.read()
	if err != nil {
		return false, err
	}
	_, ok := records[requestID]
	return ok, nil
}

// Lookup resolves requestID to the asset path. ok is false when there is no
// record, or when VerifyAssets is set and the asset has disappeared; in the
// latter case the record is evicted.
func (c *Cache) Lookup(requestID string) (path string, ok bool, err error) {
	records, err := c.read()
	if err != nil {
		return "", false, err
	}
	rec, found := records[requestID]
	if !found {
		return "", false, nil
	}

	path = filepath.Join(c.outDir, rec.AssetName)
	if !c.opts.VerifyAssets {
		return path, true, nil
	}

	exists, err := c.fs.Exists(path)
	if err != nil {
		return "", false, fmt.Errorf("%w: stat %s: %w", pipeline.ErrCacheIO, path, err)
	}
	if !exists {
		delete(records, requestID)
		if err := c.write(records); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return path, true, nil
}

// Insert records assetName for requestID, replacing any previous record.
func (c *Cache) Insert(requestID, assetName string) error {
	records, err := c.read()
	if err != nil {
		return err
	}
	records[requestID] = Record{RequestID: requestID, AssetName: assetName}
	return c.write(records)
}

// Remove deletes the record for requestID. Removing a missing record is not
// an error. The asset file is left in place.
func (c *Cache) Remove(requestID string) error {
	records, err := c.read()
	if err != nil {
		return err
	}
	if _, ok := records[requestID]; !ok {
		return nil
	}
	delete(records, requestID)
	return c.write(records)
}

// Records returns all records sorted by request identifier.
func (c *Cache) Records() ([]Record, error) {
	records, err := c.read()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestID < out[j].RequestID
	})
	return out, nil
}

func (c *Cache) read() (table, error) {
	data, err := c.fs.ReadFile(c.storePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", pipeline.ErrCacheIO, c.storePath, err)
	}
	records := table{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", pipeline.ErrCacheIO, c.storePath, err)
	}
	return records, nil
}

func (c *Cache) write(records table) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode table: %w", pipeline.ErrCacheIO, err)
	}

	staging := c.storePath + ".tmp"
	if err := c.fs.WriteFile(staging, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", pipeline.ErrCacheIO, staging, err)
	}
	if err := c.fs.Rename(staging, c.storePath); err != nil {
		_ = c.fs.Remove(staging)
		return fmt.Errorf("%w: replace %s: %w", pipeline.ErrCacheIO, c.storePath, err)
	}
	return nil
}
