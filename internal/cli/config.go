package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/pipeline"
	"github.com/matzehuels/topoview/pkg/surface"
)

// Config is the optional TOML configuration file:
//
//	[render]
//	layout = "layered"
//	direction = "LR"
//	padding = 20.0
//
//	[serve]
//	listen = ":8080"
//	debounce = "100ms"
//
//	[kube]
//	context = "admin@prod"
//	namespace = "demo"
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
type Config struct {
	Render RenderConfig `toml:"render"`
	Serve  ServeConfig  `toml:"serve"`
	Kube   KubeConfig   `toml:"kube"`
	Cache  CacheConfig  `toml:"cache"`
}

type RenderConfig struct {
	Layout    string  `toml:"layout"`
	Direction string  `toml:"direction"`
	Width     float64 `toml:"width"`
	Height    float64 `toml:"height"`
	Padding   float64 `toml:"padding"`
}

type ServeConfig struct {
	Listen string `toml:"listen"`
	// Debounce is the resize coalescing window of the live surface.
	Debounce    time.Duration `toml:"debounce"`
	CORSOrigins []string      `toml:"cors_origins"`
}

type KubeConfig struct {
	Kubeconfig string `toml:"kubeconfig"`
	Context    string `toml:"context"`
	Namespace  string `toml:"namespace"`
}

type CacheConfig struct {
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() Config {
	return Config{
		Render: RenderConfig{
			Layout:  pipeline.DefaultLayout,
			Width:   pipeline.DefaultWidth,
			Height:  pipeline.DefaultHeight,
			Padding: pipeline.DefaultPadding,
		},
		Serve: ServeConfig{
			Listen:      ":8080",
			Debounce:    surface.DefaultDebounce,
			CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
	}
}

// configPath returns $XDG_CONFIG_HOME/topoview/config.toml
// (~/.config/topoview/config.toml when unset).
func configPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads path over the defaults. An empty path means the default
// location, where a missing file is not an error. Unknown keys are rejected
// so typos do not silently fall back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, perrors.New(perrors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// flagOr returns the flag's value when it was set on the command line and
// the configured value otherwise.
func flagOr[T any](cmd *cobra.Command, name string, flag, configured T) T {
	if cmd.Flags().Changed(name) {
		return flag
	}
	return configured
}
