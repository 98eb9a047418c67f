package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommandRegistersCommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"render", "layout", "serve", "storage", "pipeline", "vm", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "kubeconfig", "context", "namespace"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestExecuteVersion(t *testing.T) {
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("Execute(--version) error: %v", err)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	if err := Execute(context.Background(), []string{"frobnicate"}); err == nil {
		t.Fatal("Execute() expected error for unknown command")
	}
}

func TestVerboseFlag(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	root := c.RootCommand()
	addVerboseFlag(c, root)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	root.SetArgs([]string{"--verbose", "cache", "path"})
	root.SetOut(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	c.Logger.Debug("debug enabled")
	if !strings.Contains(buf.String(), "debug enabled") {
		t.Error("--verbose should enable debug logging")
	}
}

func TestConfigFlagRejectsBadFile(t *testing.T) {
	path := writeConfig(t, "[render]\nunknown = 1\n")
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"--config", path, "cache", "path"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for a config with unknown keys")
	}
}

func TestCachePathCommand(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "path"})
	root.SetOut(&out)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if got, want := strings.TrimSpace(out.String()), filepath.Join(cacheHome, appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestLayoutFlagCompletion(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{cobra.ShellCompRequestCmd, "render", "--layout", ""})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion request: %v", err)
	}
	for _, name := range []string{"layered", "grid", "graphviz"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("layout completions missing %q:\n%s", name, out.String())
		}
	}
}
