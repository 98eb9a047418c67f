// Package pipeline turns a topology model into rendered artifacts.
//
// # Architecture
//
// A run has two stages, each cached independently:
//
//  1. Layout: load the model into a fresh controller, run the layout
//     algorithm, size the viewport and fit the content into it
//  2. Render: draw the laid-out model as SVG or re-emit it as JSON
//
// The layout stage is keyed by a hash of the model and the layout options,
// the render stage by a hash of the laid-out model and the format. Changing
// only the output format therefore never re-runs the layout.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, model, pipeline.Options{
//	    Layout:  "layered",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(result.Artifacts["svg"])
//
// Edges with unknown endpoints do not fail a run. They are dropped and
// listed in [Result.Warnings].
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/cache"
	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/layout"
	"github.com/matzehuels/topoview/pkg/topology"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultLayout is used when neither the options nor the model name one.
	DefaultLayout = layout.Layered

	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 600.0

	// DefaultPadding is the margin kept around the content by fit.
	DefaultPadding = 20.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatSVG, FormatJSON}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It serializes for server requests.
type Options struct {
	// Layout names the algorithm. Empty means the model's own layout, then
	// DefaultLayout.
	Layout    string           `json:"layout,omitempty"`
	Direction layout.Direction `json:"direction,omitempty"`
	Width     float64          `json:"width,omitempty"`
	Height    float64          `json:"height,omitempty"`
	// Padding is the fit margin. Negative disables fitting.
	Padding float64  `json:"padding,omitempty"`
	Formats []string `json:"formats,omitempty"`
	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the laid-out model with positions and the fitted viewport.
	Model topology.Model

	// ModelHash is the content hash of the input model.
	ModelHash string

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Warnings lists problems that were skipped while loading the model.
	Warnings []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return perrors.New(perrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLayout checks that name is a known layout.
func ValidateLayout(name string) error {
	if !layout.Valid(name) {
		return perrors.New(perrors.ErrCodeInvalidLayout, "invalid layout: %q (must be one of: %v)", name, layout.Names())
	}
	return nil
}

// ValidateDirection checks a layered rank direction. Empty is allowed.
func ValidateDirection(d layout.Direction) error {
	switch d {
	case "", layout.TopToBottom, layout.LeftToRight:
		return nil
	}
	return perrors.New(perrors.ErrCodeInvalidInput, "invalid direction: %q (must be TB or LR)", d)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults fills unset fields and validates the result. The
// model supplies the layout when the options do not.
func (o *Options) ValidateAndSetDefaults(m topology.Model) error {
	if o.Layout == "" && m.Graph != nil {
		o.Layout = m.Graph.Layout
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if err := ValidateLayout(o.Layout); err != nil {
		return err
	}
	if err := ValidateDirection(o.Direction); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Layout:    o.Layout,
		Direction: string(o.Direction),
		Width:     o.Width,
		Height:    o.Height,
		Padding:   o.Padding,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}
