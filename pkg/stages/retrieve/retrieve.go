// Package retrieve implements the fetch-or-reuse stage.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/user/youterm/pkg/contentcache"
	"github.com/user/youterm/pkg/pipeline"
	"github.com/user/youterm/pkg/ports"
)

// Stage resolves a request identifier to a local file, downloading it on a
// cache miss and recording the result.
type Stage struct {
	cache   *contentcache.Cache
	fetcher ports.Fetcher
	fs      ports.FileSystem
	logger  ports.Logger
}

// New creates a new retrieve stage.
func New(cache *contentcache.Cache, fetcher ports.Fetcher, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		cache:   cache,
		fetcher: fetcher,
		fs:      fs,
		logger:  logger.WithComponent("retrieve"),
	}
}

// Execute returns the local path for input.RequestID.
func (s *Stage) Execute(ctx context.Context, input pipeline.RetrieveInput) (pipeline.RetrieveResult, error) {
	requestID, err := contentcache.Canonicalize(input.RequestID)
	if err != nil {
		return pipeline.RetrieveResult{}, err
	}

	if err := s.cache.Initialize(); err != nil {
		return pipeline.RetrieveResult{}, err
	}

	if input.UseCache {
		path, ok, err := s.lookup(requestID)
		if err != nil {
			return pipeline.RetrieveResult{}, err
		}
		if ok {
			s.logger.Debug("Cache hit for %s", requestID)
			return pipeline.RetrieveResult{Path: path}, nil
		}
		s.logger.Debug("Cache miss for %s, fetching", requestID)
	} else {
		s.logger.Debug("Cache bypassed for %s, fetching", requestID)
	}

	outDir := s.cache.OutDir()
	if err := s.fs.MkdirAll(outDir); err != nil {
		return pipeline.RetrieveResult{}, fmt.Errorf("%w: create %s: %w", pipeline.ErrCacheIO, outDir, err)
	}

	name, err := s.fetcher.Fetch(ctx, requestID, outDir)
	if err != nil {
		if errors.Is(err, pipeline.ErrFetch) {
			return pipeline.RetrieveResult{}, err
		}
		return pipeline.RetrieveResult{}, fmt.Errorf("%w: %w", pipeline.ErrFetch, err)
	}
	s.logger.Debug("Fetched %s", name)

	if err := s.cache.Insert(requestID, name); err != nil {
		return pipeline.RetrieveResult{}, err
	}

	return pipeline.RetrieveResult{
		Path:    filepath.Join(outDir, name),
		Fetched: true,
	}, nil
}

// lookup resolves requestID, noting records whose asset has gone missing.
func (s *Stage) lookup(requestID string) (string, bool, error) {
	known, err := s.cache.Contains(requestID)
	if err != nil || !known {
		return "", false, err
	}
	path, ok, err := s.cache.Lookup(requestID)
	if err != nil {
		return "", false, err
	}
	if !ok {
		s.logger.Warn("Cached asset %s is missing, evicting", requestID)
	}
	return path, ok, nil
}
