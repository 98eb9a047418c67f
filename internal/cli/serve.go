package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/internal/server"
	topoio "github.com/matzehuels/topoview/pkg/io"
	"github.com/matzehuels/topoview/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags    layoutFlags
		listen   string
		debounce time.Duration
		origins  []string
	)

	cmd := &cobra.Command{
		Use:   "serve [model]",
		Short: "Serve a live topology surface over HTTP and WebSocket",
		Long: `Serve one live topology surface.

Models are loaded with PUT /api/topology or preloaded from the optional
argument. Browsers connect to /ws, send resize, zoom, fit, reset, pan and
layout commands and receive the rendered SVG after every change.
Prometheus metrics are exposed on /metrics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, c.Config.Render)
			opts.Layout = flagOr(cmd, "layout", flags.layout, c.Config.Render.Layout)

			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			srv, err := server.New(server.Options{
				Runner:      runner,
				Render:      opts,
				Debounce:    flagOr(cmd, "debounce", debounce, c.Config.Serve.Debounce),
				CORSOrigins: flagOr(cmd, "cors-origin", origins, c.Config.Serve.CORSOrigins),
				Logger:      c.Logger,
			})
			if err != nil {
				return err
			}
			defer srv.Close()

			if len(args) == 1 {
				if err := preload(cmd.Context(), srv, args[0], opts, cmd.Flags().Changed("layout")); err != nil {
					return err
				}
			}
			return c.listen(cmd.Context(), srv, flagOr(cmd, "listen", listen, c.Config.Serve.Listen))
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8080", "address to listen on")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "resize coalescing window (default from config)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	flags.register(cmd)

	return cmd
}

// preload loads the model at path. A layout named by the model wins over
// the configured one unless --layout was given.
func preload(ctx context.Context, srv *server.Server, path string, opts pipeline.Options, explicitLayout bool) error {
	m, err := topoio.ReadModelFile(path)
	if err != nil {
		return err
	}
	if !explicitLayout && m.Graph != nil && m.Graph.Layout != "" {
		opts.Layout = ""
	}
	loggerFromContext(ctx).Debug("preloading model", "path", path, "nodes", len(m.Nodes), "edges", len(m.Edges))
	laidOut, warnings, err := srv.LoadModel(ctx, m, opts)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printWarning("%s", w)
	}
	printSuccess("Loaded %s (%d nodes, %d edges)", path, len(laidOut.Nodes), len(laidOut.Edges))
	return nil
}

func (c *CLI) listen(ctx context.Context, srv *server.Server, addr string) error {
	printInfo("Serving on %s", addr)
	printDetail("WebSocket: ws://%s/ws", displayAddr(addr))
	err := srv.ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// displayAddr turns a bare ":port" into a dialable localhost address.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
