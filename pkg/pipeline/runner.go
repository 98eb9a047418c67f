package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/cache"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/topology"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// selects the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute lays out m and renders every requested format.
func (r *Runner) Execute(ctx context.Context, m topology.Model, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(m); err != nil {
		return nil, err
	}

	modelHash, err := cache.HashJSON(m)
	if err != nil {
		return nil, fmt.Errorf("hash model: %w", err)
	}
	result := &Result{ModelHash: modelHash}

	layoutStart := time.Now()
	laidOut, warnings, layoutHit, err := r.layoutWithCacheInfo(ctx, m, modelHash, opts)
	if err != nil {
		return nil, err
	}
	result.Model = laidOut
	result.Warnings = warnings
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(laidOut.Nodes)
	result.Stats.EdgeCount = len(laidOut.Edges)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"layout", opts.Layout,
		"nodes", result.Stats.NodeCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.renderWithCacheInfo(ctx, laidOut, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Layout runs only the layout stage.
func (r *Runner) Layout(ctx context.Context, m topology.Model, opts Options) (topology.Model, []string, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(m); err != nil {
		return topology.Model{}, nil, err
	}
	modelHash, err := cache.HashJSON(m)
	if err != nil {
		return topology.Model{}, nil, fmt.Errorf("hash model: %w", err)
	}
	laidOut, warnings, _, err := r.layoutWithCacheInfo(ctx, m, modelHash, opts)
	return laidOut, warnings, err
}

// layoutEntry is the cached form of a layout stage result.
type layoutEntry struct {
	Model    topology.Model `json:"model"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (r *Runner) layoutWithCacheInfo(ctx context.Context, m topology.Model, modelHash string, opts Options) (topology.Model, []string, bool, error) {
	key := r.Keyer.LayoutKey(modelHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit := r.get(ctx, key, "layout"); hit {
			var entry layoutEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				return entry.Model, entry.Warnings, true, nil
			}
		}
	}

	laidOut, warnings, err := GenerateLayout(ctx, m, opts)
	if err != nil {
		return topology.Model{}, nil, false, err
	}
	if data, err := json.Marshal(layoutEntry{Model: laidOut, Warnings: warnings}); err == nil {
		r.set(ctx, key, "layout", data, cache.ModelTTL)
	}
	return laidOut, warnings, false, nil
}

func (r *Runner) renderWithCacheInfo(ctx context.Context, laidOut topology.Model, opts Options) (map[string][]byte, bool, error) {
	layoutHash, err := cache.HashJSON(laidOut)
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit := r.get(ctx, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), "artifact")
			if !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, laidOut, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		r.set(ctx, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), "artifact", data, cache.ArtifactTTL)
	}
	return rendered, false, nil
}

// get reads a cache entry. Backend failures count as misses.
func (r *Runner) get(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key_type", keyType, "err", err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

func (r *Runner) set(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key_type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
