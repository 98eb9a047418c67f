// Package cli implements the topoview command-line interface.
//
// The commands fall in three groups:
//   - render, layout, serve: lay out and draw topology models, or serve a
//     live surface over HTTP and WebSocket
//   - storage, pipeline, vm: the console flows against a cluster
//   - cache, completion: housekeeping
//
// Settings come from an optional TOML file (see [Config]); flags given on
// the command line win over the file. All commands support --verbose (-v)
// for debug-level logging, and loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/buildinfo"
	"github.com/matzehuels/topoview/pkg/cache"
	"github.com/matzehuels/topoview/pkg/kube"
	"github.com/matzehuels/topoview/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "topoview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configPath  string
	kubeconfig  string
	kubeContext string
	namespace   string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "topoview lays out, renders and serves topology graphs",
		Long:         `topoview renders topology models to SVG, serves a live, resizable topology surface and drives the storage, pipeline and virtualization flows of the cluster console.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/topoview/config.toml)")
	pf.StringVar(&c.kubeconfig, "kubeconfig", "", "path to the kubeconfig file")
	pf.StringVar(&c.kubeContext, "context", "", "kubeconfig context to use")
	pf.StringVarP(&c.namespace, "namespace", "n", "", "namespace (default from the kubeconfig context)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storageCommand())
	root.AddCommand(c.pipelineCommand())
	root.AddCommand(c.vmCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Keys in a shared Redis
// cache are scoped to this build's version.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if _, shared := cc.(*cache.RedisCache); shared {
		keyer = cache.VersionKeyer(buildinfo.Version)
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

// newCache picks Redis when a URL is configured, else the file cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url := c.Config.Cache.RedisURL; url != "" {
		return cache.NewRedisCache(ctx, url)
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Cluster Clients
// =============================================================================

// kubeClients connects to the configured cluster. Flags win over the config
// file, and --namespace wins over the context's namespace.
func (c *CLI) kubeClients() (*kube.Clients, error) {
	kubeconfig := firstNonEmpty(c.kubeconfig, c.Config.Kube.Kubeconfig)
	kubeContext := firstNonEmpty(c.kubeContext, c.Config.Kube.Context)
	clients, err := kube.NewClients(kubeconfig, kubeContext)
	if err != nil {
		return nil, err
	}
	clients.Logger = c.Logger
	if ns := firstNonEmpty(c.namespace, c.Config.Kube.Namespace); ns != "" {
		clients.Namespace = ns
	}
	return clients, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the XDG default
// (~/.cache/topoview/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return defaultCacheDir()
}

func defaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
