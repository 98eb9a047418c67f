package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the topoview CLI. Logging goes to stderr at info level, or
// debug level with --verbose.
//
//	func main() {
//	    if err := cli.Execute(context.Background(), os.Args[1:]); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, args []string) error {
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	addVerboseFlag(c, root)
	return root.ExecuteContext(ctx)
}

// addVerboseFlag registers --verbose and applies it before the root's own
// pre-run hook.
func addVerboseFlag(c *CLI, root *cobra.Command) {
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	inner := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		if inner != nil {
			return inner(cmd, args)
		}
		return nil
	}
}
