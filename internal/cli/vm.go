package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/kubevirt"
)

// vmCommand groups the virtual machine commands.
func (c *CLI) vmCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vm",
		Short: "Inspect virtual machines",
	}
	cmd.AddCommand(c.vmStatusCommand())
	return cmd
}

// vmStatusCommand creates the "vm status" subcommand.
func (c *CLI) vmStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status NAME",
		Short: "Show the launcher pod and disk imports of a virtual machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := c.kubeClients()
			if err != nil {
				return err
			}
			spinner := newSpinnerWithContext(cmd.Context(), "Inspecting "+args[0]+"...")
			spinner.Start()
			report, err := kubevirt.Inspect(cmd.Context(), clients, clients.Namespace, args[0])
			spinner.Stop()
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
}

func printReport(r *kubevirt.Report) {
	fmt.Fprintln(stdout, StyleTitle.Render(r.VM)+" "+StyleDim.Render(r.Namespace))
	if r.Pod == "" {
		printInfo("No launcher pod; the virtual machine is not running")
	} else {
		printKeyValue("Pod", r.Pod)
		printKeyValue("Node", orDash(r.Host))
		printKeyValue("Phase", orDash(string(r.Phase)))
		printKeyValue("Schedulable", strconv.FormatBool(r.Schedulable))
		if r.Message != "" {
			printWarning("%s", r.Message)
		}
	}

	if len(r.Importers) == 0 {
		return
	}
	fmt.Fprintln(stdout)
	rows := make([][]string, len(r.Importers))
	for i, imp := range r.Importers {
		rows[i] = []string{imp.Pod, orDash(imp.Volume), orDash(string(imp.Phase)), imp.Message}
	}
	fmt.Fprintln(stdout, renderTable([]string{"Importer", "Volume", "Phase", "Message"}, rows, func(row, col int) lipgloss.Style {
		if col == 3 && r.Importers[row].Message != "" {
			return StyleWarning
		}
		return lipgloss.NewStyle()
	}))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
