package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/layout"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/topology"
)

// NewController returns a controller with the layouts of package layout
// registered.
func NewController(opts Options) *topology.Controller {
	logger := opts.Logger
	return topology.NewController(
		topology.WithLogger(logger),
		topology.WithLayoutFactory(layout.Factory(layout.Options{
			Direction: opts.Direction,
			Logger:    logger,
		})),
	)
}

// Load builds a controller from m sized to the options' viewport. Elements
// the controller skipped are returned as warnings.
func Load(m topology.Model, opts Options) (*topology.Controller, []string, error) {
	c := NewController(opts)
	var warnings []string
	if err := c.FromModel(m); err != nil {
		warnings = splitJoined(err)
		logWarnings(opts.Logger, warnings)
	}
	g := c.Graph()
	if g == nil {
		return nil, warnings, perrors.New(perrors.ErrCodeInvalidModel, "model has no usable graph")
	}
	g.SetBounds(*g.Bounds().Clone().SetSize(opts.Width, opts.Height))
	return c, warnings, nil
}

// GenerateLayout positions the model's nodes and fits the viewport.
func GenerateLayout(ctx context.Context, m topology.Model, opts Options) (topology.Model, []string, error) {
	c, warnings, err := Load(m, opts)
	if err != nil {
		return topology.Model{}, nil, err
	}
	g := c.Graph()
	g.SetLayout(opts.Layout)

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Layout, len(g.Nodes()))
	start := time.Now()
	err = g.RunLayout()
	hooks.OnLayoutComplete(ctx, opts.Layout, time.Since(start), err)
	if err != nil {
		return topology.Model{}, nil, perrors.Wrap(perrors.ErrCodeInvalidLayout, err, "%s layout", opts.Layout)
	}
	if opts.Padding >= 0 {
		g.Fit(opts.Padding)
	}
	opts.Logger.Debug("laid out model", "layout", opts.Layout, "nodes", len(g.Nodes()),
		"scale", g.Scale(), "x", g.Bounds().X, "y", g.Bounds().Y)
	return c.ToModel(), warnings, nil
}

func splitJoined(err error) []string {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range j.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func logWarnings(l *log.Logger, warnings []string) {
	for _, w := range warnings {
		l.Warn("skipped model element", "reason", w)
	}
}
