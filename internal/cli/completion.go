package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/layout"
	"github.com/matzehuels/topoview/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for topoview.

To load completions:

Bash:
  $ source <(topoview completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ topoview completion bash > /etc/bash_completion.d/topoview
  # macOS:
  $ topoview completion bash > $(brew --prefix)/etc/bash_completion.d/topoview

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ topoview completion zsh > "${fpath[1]}/_topoview"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ topoview completion fish | source

  # To load completions for each session, execute once:
  $ topoview completion fish > ~/.config/fish/completions/topoview.fish

PowerShell:
  PS> topoview completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> topoview completion powershell > topoview.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeModelFile offers JSON and YAML files for a command's single model
// argument.
func completeModelFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}

// registerLayoutCompletions completes the values of the layout flags.
func registerLayoutCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("layout", cobra.FixedCompletions(layout.Names(), cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("direction", cobra.FixedCompletions(
		[]string{string(layout.TopToBottom), string(layout.LeftToRight)}, cobra.ShellCompDirectiveNoFileComp))
	if cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(pipeline.ValidFormats, cobra.ShellCompDirectiveNoFileComp))
	}
}
