package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	topoio "github.com/matzehuels/topoview/pkg/io"
	"github.com/matzehuels/topoview/pkg/layout"
	"github.com/matzehuels/topoview/pkg/pipeline"
)

// layoutFlags are the pipeline options shared by render and layout.
type layoutFlags struct {
	layout    string
	direction string
	width     float64
	height    float64
	padding   float64
	noCache   bool
	refresh   bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.layout, "layout", "l", "", "layout algorithm: "+strings.Join(layout.Names(), ", ")+" (default: model's, then config)")
	cmd.Flags().StringVar(&f.direction, "direction", "", "layered rank direction: TB or LR")
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "viewport width")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "viewport height")
	cmd.Flags().Float64Var(&f.padding, "padding", pipeline.DefaultPadding, "fit padding (negative disables fitting)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	registerLayoutCompletions(cmd)
	cmd.ValidArgsFunction = completeModelFile
}

// options merges flags over the config file. A layout set in neither
// leaves the choice to the model.
func (f *layoutFlags) options(cmd *cobra.Command, cfg RenderConfig) pipeline.Options {
	return pipeline.Options{
		Layout:    flagOr(cmd, "layout", f.layout, ""),
		Direction: layout.Direction(strings.ToUpper(flagOr(cmd, "direction", f.direction, cfg.Direction))),
		Width:     flagOr(cmd, "width", f.width, cfg.Width),
		Height:    flagOr(cmd, "height", f.height, cfg.Height),
		Padding:   flagOr(cmd, "padding", f.padding, cfg.Padding),
		Refresh:   f.refresh,
	}
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags   layoutFlags
		output  string
		formats string
	)

	cmd := &cobra.Command{
		Use:   "render [model]",
		Short: "Lay out a topology model and render it to SVG or JSON",
		Long: `Lay out a topology model (JSON or YAML) and render it.

With a single format the output goes to --output, or <model>.<format> when
unset; "-" writes to stdout. With several formats --output is a base path
and each format gets its own extension.

Layouts and rendered artifacts are cached, so re-rendering an unchanged
model or switching only the output format is cheap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, c.Config.Render)
			opts.Formats = parseFormats(formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, opts, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, base path for several formats, or - for stdout")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), json (comma-separated)")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options, noCache bool) error {
	logger := loggerFromContext(ctx)
	m, err := topoio.ReadModelFile(input)
	if err != nil {
		return err
	}
	if opts.Layout == "" && (m.Graph == nil || m.Graph.Layout == "") {
		opts.Layout = c.Config.Render.Layout
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st := startStage(logger, "render")
	result, err := runner.Execute(ctx, m, opts)
	if err != nil {
		return st.fail(err)
	}
	st.end("layout", opts.Layout, "formats", len(result.Artifacts), "nodes", result.Stats.NodeCount)

	for _, w := range result.Warnings {
		printWarning("%s", w)
	}

	formats := slices.Sorted(maps.Keys(result.Artifacts))
	for _, format := range formats {
		path := outputPath(output, input, format, len(formats) > 1)
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return err
		}
		if path != "-" {
			printFile(path)
		}
	}
	if output != "-" {
		printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	}
	return nil
}

// outputPath derives where one format is written. Without an explicit
// output the input's extension is replaced by the format.
func outputPath(output, input, format string, multiple bool) string {
	switch {
	case output == "-":
		return "-"
	case output == "":
		return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	case multiple:
		ext := filepath.Ext(output)
		if slices.Contains(pipeline.ValidFormats, strings.TrimPrefix(ext, ".")) {
			output = strings.TrimSuffix(output, ext)
		}
		return output + "." + format
	default:
		return output
	}
}

func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing; "-" is stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}
