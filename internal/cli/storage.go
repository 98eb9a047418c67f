package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/kube"
	"github.com/matzehuels/topoview/pkg/ocs"
)

// storageCommand groups the storage cluster install flow.
func (c *CLI) storageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Select storage nodes and install a storage cluster",
	}
	cmd.AddCommand(c.storageNodesCommand())
	cmd.AddCommand(c.storageInstallCommand())
	return cmd
}

// storageNodesCommand creates the "storage nodes" subcommand.
func (c *CLI) storageNodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List the nodes that can host storage",
		Long: `List untainted nodes and nodes dedicated to storage. Nodes already
labeled as storage nodes are ticked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := c.kubeClients()
			if err != nil {
				return err
			}
			rows, err := storageRows(cmd.Context(), clients)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				printWarning("No candidate nodes found")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(nodeHeaders, nodeTableRows(rows), func(row, _ int) lipgloss.Style {
				if rows[row].Selected {
					return StyleSuccess
				}
				return lipgloss.NewStyle()
			}))
			sel := ocs.NewSelection(rows)
			printDetail("%d of %d nodes labeled for storage", sel.SelectedCount(), len(rows))
			return nil
		},
	}
}

// storageInstallCommand creates the "storage install" subcommand.
func (c *CLI) storageInstallCommand() *cobra.Command {
	var (
		nodes     []string
		csv       string
		namespace string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Label the selected nodes and create the storage cluster",
		Long: `Label the selected nodes as storage nodes and create the StorageCluster
on the platform's default storage class.

Without --nodes an interactive list opens, pre-selected with the nodes
already labeled. At least three nodes must be selected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clients, err := c.kubeClients()
			if err != nil {
				return err
			}
			rows, err := storageRows(ctx, clients)
			if err != nil {
				return err
			}

			var sel *ocs.Selection
			if len(nodes) > 0 {
				sel = ocs.NewSelection(rows)
				if unknown := sel.SelectByName(nodes...); len(unknown) > 0 {
					return perrors.New(perrors.ErrCodeInvalidInput, "not candidate nodes: %s", strings.Join(unknown, ", "))
				}
			} else {
				sel, err = pickNodes(rows)
				if err != nil {
					return err
				}
				if sel == nil {
					printInfo("Install cancelled")
					return nil
				}
			}
			if !sel.CanSubmit() {
				return perrors.New(perrors.ErrCodeInvalidInput, "select at least %d nodes, got %d", ocs.MinSelectedNodes, sel.SelectedCount())
			}

			installer := ocs.NewInstaller(clients, namespace, csv)

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Installing on %d nodes...", sel.SelectedCount()))
			spinner.Start()
			status := installer.Submit(ctx, sel)
			if spinner.Cancelled() {
				spinner.Stop()
				return ctx.Err()
			}
			if status.Error != "" {
				spinner.StopWithError("Install failed")
				return perrors.New(perrors.ErrCodeKube, "%s", status.Error)
			}
			spinner.StopWithSuccess("Storage cluster requested")
			printLink("Storage cluster", status.Redirect)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "nodes to use, skipping the interactive list (comma-separated)")
	cmd.Flags().StringVar(&csv, "csv", "", "ClusterServiceVersion of the storage operator")
	cmd.Flags().StringVar(&namespace, "storage-namespace", ocs.DefaultNamespace, "namespace of the storage operator")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func storageRows(ctx context.Context, clients *kube.Clients) ([]ocs.Row, error) {
	spinner := newSpinnerWithContext(ctx, "Listing nodes...")
	spinner.Start()
	rows, err := ocs.ListRows(ctx, clients)
	spinner.Stop()
	return rows, err
}

// pickNodes runs the interactive selector. A nil selection means the user
// quit without submitting.
func pickNodes(rows []ocs.Row) (*ocs.Selection, error) {
	final, err := tea.NewProgram(NewNodeListModel(rows)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(NodeListModel)
	if !m.Submitted {
		return nil, nil
	}
	return m.Selection, nil
}

var nodeHeaders = []string{"", "Name", "Role", "Location", "CPU", "Memory"}

func nodeTableRows(rows []ocs.Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		check := "[ ]"
		if r.Selected {
			check = "[x]"
		}
		out[i] = []string{check, r.Name, r.RoleText(), r.Zone, r.CPU, r.Memory}
	}
	return out
}
