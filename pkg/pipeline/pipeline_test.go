package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/layout"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/topology"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, perrors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateLayout(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"layered", false},
		{"grid", false},
		{"graphviz", false},
		{"force", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateLayout(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLayout(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		model      topology.Model
		wantLayout string
	}{
		{"default", Options{}, topology.Model{}, DefaultLayout},
		{"from model", Options{}, topology.Model{Graph: &topology.GraphModel{Layout: layout.Grid}}, layout.Grid},
		{"options win", Options{Layout: layout.Graphviz}, topology.Model{Graph: &topology.GraphModel{Layout: layout.Grid}}, layout.Graphviz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if err := opts.ValidateAndSetDefaults(tt.model); err != nil {
				t.Fatal(err)
			}
			if opts.Layout != tt.wantLayout {
				t.Errorf("Layout = %q, want %q", opts.Layout, tt.wantLayout)
			}
			if opts.Width != DefaultWidth || opts.Height != DefaultHeight || opts.Padding != DefaultPadding {
				t.Errorf("viewport defaults = %v x %v pad %v", opts.Width, opts.Height, opts.Padding)
			}
			if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
				t.Errorf("Formats = %v", opts.Formats)
			}
			if opts.Logger == nil {
				t.Error("Logger should default to a discard logger")
			}
		})
	}

	bad := Options{Direction: "RL"}
	if err := bad.ValidateAndSetDefaults(topology.Model{}); !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("bad direction: err = %v", err)
	}
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func chainModel() topology.Model {
	node := func(id string) topology.NodeModel {
		return topology.NodeModel{
			ElementModel: topology.ElementModel{ID: id, Type: "pod", Label: id},
			Width:        topology.Float(40),
			Height:       topology.Float(20),
			Shape:        topology.ShapeRect,
		}
	}
	edge := func(id, s, t string) topology.EdgeModel {
		return topology.EdgeModel{ElementModel: topology.ElementModel{ID: id, Type: "link"}, Source: s, Target: t}
	}
	return topology.Model{
		Nodes: []topology.NodeModel{node("a"), node("b"), node("c")},
		Edges: []topology.EdgeModel{edge("ab", "a", "b"), edge("bc", "b", "c"), edge("bx", "b", "x")},
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)

	opts := Options{Formats: []string{FormatSVG, FormatJSON}, Width: 400, Height: 300}
	res, err := r.Execute(ctx, chainModel(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v, want 3 nodes and 2 edges", res.Stats)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], `"x"`) {
		t.Errorf("warnings = %v", res.Warnings)
	}

	svg := string(res.Artifacts[FormatSVG])
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, `width="400"`) {
		t.Errorf("svg header: %.120s", svg)
	}
	var m topology.Model
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &m); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if m.Graph == nil || m.Graph.Scale == nil || *m.Graph.Scale <= 0 {
		t.Errorf("laid-out graph = %+v", m.Graph)
	}

	// Nodes of a chain land on distinct ranks.
	ys := map[float64]bool{}
	for _, n := range res.Model.Nodes {
		ys[*n.Y] = true
	}
	if len(ys) != 3 {
		t.Errorf("chain nodes share ranks: %v", ys)
	}

	again, err := r.Execute(ctx, chainModel(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v", again.CacheInfo)
	}
	if !bytes.Equal(again.Artifacts[FormatSVG], res.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}
	if len(again.Warnings) != 1 {
		t.Errorf("cached warnings = %v", again.Warnings)
	}

	sets := mc.sets
	opts.Refresh = true
	if _, err := r.Execute(ctx, chainModel(), opts); err != nil {
		t.Fatal(err)
	}
	if mc.sets == sets {
		t.Error("refresh should rewrite cache entries")
	}
}

func TestRunnerFormatChangeReusesLayout(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, nil)

	if _, err := r.Execute(ctx, chainModel(), Options{Formats: []string{FormatSVG}}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, chainModel(), Options{Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Errorf("cache info = %+v, want layout hit and render miss", res.CacheInfo)
	}
}

func TestRunnerInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), chainModel(), Options{Layout: "spiral"})
	if !perrors.Is(err, perrors.ErrCodeInvalidLayout) {
		t.Errorf("err = %v, want INVALID_LAYOUT", err)
	}
	_, err = r.Execute(context.Background(), chainModel(), Options{Formats: []string{"pdf"}})
	if !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	layouts []string
	renders int
}

func (h *countingHooks) OnLayoutComplete(_ context.Context, name string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.layouts = append(h.layouts, name)
}

func (h *countingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renders++
}

func TestRunnerCallsHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(context.Background(), chainModel(), Options{Layout: layout.Grid}); err != nil {
		t.Fatal(err)
	}
	if len(hooks.layouts) != 1 || hooks.layouts[0] != layout.Grid {
		t.Errorf("layout hooks = %v", hooks.layouts)
	}
	if hooks.renders != 1 {
		t.Errorf("render hooks = %d, want 1", hooks.renders)
	}
}

func TestRunnerLayoutOnly(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	m, warnings, err := r.Layout(context.Background(), chainModel(), Options{Layout: layout.Grid, Padding: -1})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v", warnings)
	}
	if *m.Graph.Scale != 1 {
		t.Errorf("negative padding should skip fit, scale = %v", *m.Graph.Scale)
	}
}
