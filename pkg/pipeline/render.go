package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/surface"
	"github.com/matzehuels/topoview/pkg/topology"
)

// Render draws a laid-out model in the requested formats. The model's
// viewport position and scale are used as is.
func Render(ctx context.Context, m topology.Model, opts Options) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := render(m, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(m topology.Model, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var c *topology.Controller
	for _, format := range opts.Formats {
		var buf bytes.Buffer
		switch format {
		case FormatSVG:
			if c == nil {
				var err error
				if c, _, err = Load(m, opts); err != nil {
					return nil, err
				}
			}
			if err := surface.Render(&buf, c); err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "render svg")
			}
		case FormatJSON:
			enc := json.NewEncoder(&buf)
			enc.SetIndent("", "  ")
			if err := enc.Encode(m); err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "render json")
			}
		default:
			return nil, ValidateFormat(format)
		}
		artifacts[format] = buf.Bytes()
	}
	return artifacts, nil
}
