package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	topoio "github.com/matzehuels/topoview/pkg/io"
	"github.com/matzehuels/topoview/pkg/pipeline"
	"github.com/matzehuels/topoview/pkg/topology"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [model]",
		Short: "Compute node positions for a topology model",
		Long: `Compute node positions for a topology model.

Without --output the positions are printed as a table. With --output the
laid-out model is written as JSON, or YAML for .yaml/.yml paths, and can be
rendered later without running the layout again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, flags.options(cmd, c.Config.Render), flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the laid-out model to this file")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, opts pipeline.Options, noCache bool) error {
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

	st := startStage(loggerFromContext(ctx), "layout")
	laidOut, warnings, err := runner.Layout(ctx, m, opts)
	if err != nil {
		return st.fail(err)
	}
	st.end("layout", opts.Layout, "nodes", len(laidOut.Nodes), "warnings", len(warnings))
	for _, w := range warnings {
		printWarning("%s", w)
	}

	if output != "" {
		if err := topoio.WriteModelFile(laidOut, output); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Layout complete")
		printFile(output)
		printStats(len(laidOut.Nodes), len(laidOut.Edges), false)
		return nil
	}

	printTable([]string{"Node", "X", "Y", "Width", "Height"}, positionRows(laidOut))
	if g := laidOut.Graph; g != nil && g.Scale != nil {
		printKeyValue("Scale", strconv.FormatFloat(*g.Scale, 'f', 3, 64))
	}
	return nil
}

// positionRows lists node boxes sorted by id.
func positionRows(m topology.Model) [][]string {
	nodes := slices.Clone(m.Nodes)
	slices.SortFunc(nodes, func(a, b topology.NodeModel) int { return cmp.Compare(a.ID, b.ID) })

	num := func(f *float64) string {
		if f == nil {
			return "-"
		}
		return strconv.FormatFloat(*f, 'f', 1, 64)
	}
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{n.ID, num(n.X), num(n.Y), num(n.Width), num(n.Height)})
	}
	return rows
}
