package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/cli-runtime/pkg/printers"
	"k8s.io/client-go/kubernetes/scheme"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/kube"
	"github.com/matzehuels/topoview/pkg/tekton"
)

// pipelineCommand groups the pipeline import and run commands.
func (c *CLI) pipelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pipeline",
		Aliases: []string{"pl"},
		Short:   "Import applications with pipeline templates and inspect their runs",
	}
	cmd.AddCommand(c.pipelineTemplateCommand())
	cmd.AddCommand(c.pipelineImportCommand())
	cmd.AddCommand(c.pipelineOverviewCommand())
	cmd.AddCommand(c.pipelineRerunCommand())
	return cmd
}

// pipelineTemplateCommand creates the "pipeline template" subcommand.
func (c *CLI) pipelineTemplateCommand() *cobra.Command {
	var runtimeName string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print the pipeline template of a builder runtime as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := c.kubeClients()
			if err != nil {
				return err
			}
			tmpl, err := templateFor(cmd, tekton.NewClient(clients), runtimeName)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), tmpl)
		},
	}
	cmd.Flags().StringVar(&runtimeName, "runtime", "", "builder runtime, e.g. nodejs")
	_ = cmd.MarkFlagRequired("runtime")
	return cmd
}

// pipelineImportCommand creates the "pipeline import" subcommand.
func (c *CLI) pipelineImportCommand() *cobra.Command {
	var (
		form        tekton.ImportForm
		runtimeName string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a pipeline for a git repository from the runtime's template",
		Long: `Create a pipeline named <name>-<template> in the target namespace from
the builder runtime's template, together with a git resource for the
repository and an image resource in the internal registry.

With --dry-run the pipeline is printed instead of created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := c.kubeClients()
			if err != nil {
				return err
			}
			client := tekton.NewClient(clients)
			form.Namespace = clients.Namespace
			form.Template, err = templateFor(cmd, client, runtimeName)
			if err != nil {
				return err
			}
			if err := form.Validate(); err != nil {
				return err
			}

			if dryRun {
				p, err := tekton.PipelineFromTemplate(form.Template, form.Name, form.Namespace)
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), p)
			}

			created, err := client.CreatePipelineForImportFlow(cmd.Context(), form)
			if err != nil {
				return err
			}
			printSuccess("Created pipeline %s", created.GetName())
			printLink("Pipeline", kube.ResourcePath(kube.PipelineGVK, created.GetName(), created.GetNamespace()))
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "application name")
	cmd.Flags().StringVar(&form.GitURL, "git-url", "", "git repository URL")
	cmd.Flags().StringVar(&form.GitRef, "git-ref", "", "git revision (default "+tekton.DefaultGitRef+")")
	cmd.Flags().StringVar(&runtimeName, "runtime", "", "builder runtime, e.g. nodejs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the pipeline instead of creating it")
	for _, name := range []string{"name", "git-url", "runtime"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// pipelineOverviewCommand creates the "pipeline overview" subcommand.
func (c *CLI) pipelineOverviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview NAME",
		Short: "Show the latest runs of a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := c.kubeClients()
			if err != nil {
				return err
			}
			client := tekton.NewClient(clients)
			p, err := client.GetPipeline(cmd.Context(), clients.Namespace, args[0])
			if err != nil {
				return err
			}
			runs, err := client.ListRuns(cmd.Context(), clients.Namespace, args[0])
			if err != nil {
				return err
			}
			printPanel(tekton.Overview(p, runs))
			return nil
		},
	}
}

// pipelineRerunCommand creates the "pipeline rerun" subcommand.
func (c *CLI) pipelineRerunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rerun NAME",
		Short: "Start a new run with the settings of the latest one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clients, err := c.kubeClients()
			if err != nil {
				return err
			}
			client := tekton.NewClient(clients)
			p, err := client.GetPipeline(ctx, clients.Namespace, args[0])
			if err != nil {
				return err
			}
			runs, err := client.ListRuns(ctx, clients.Namespace, args[0])
			if err != nil {
				return err
			}
			run, err := client.RerunLatest(ctx, p, runs)
			if err != nil {
				return err
			}
			printSuccess("Started %s", run.GetName())
			printLink("Run", kube.ResourcePath(kube.PipelineRunGVK, run.GetName(), run.GetNamespace()))
			return nil
		},
	}
}

// templateFor is like TemplateForRuntime but treats a missing template as
// an error.
func templateFor(cmd *cobra.Command, client *tekton.Client, runtimeName string) (*unstructured.Unstructured, error) {
	tmpl, err := client.TemplateForRuntime(cmd.Context(), runtimeName)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, perrors.New(perrors.ErrCodeNotFound, "no pipeline template for runtime %q in %s", runtimeName, tekton.TemplateNamespace)
	}
	return tmpl, nil
}

// printYAML writes obj the way kubectl get -o yaml does.
func printYAML(w io.Writer, obj runtime.Object) error {
	printer := printers.NewTypeSetter(scheme.Scheme).ToPrinter(&printers.YAMLPrinter{})
	if err := printer.PrintObj(obj, w); err != nil {
		return fmt.Errorf("print yaml: %w", err)
	}
	return nil
}

func printPanel(p tekton.Panel) {
	fmt.Fprintln(stdout, StyleTitle.Render(p.Heading))
	printLink("Pipeline", p.Pipeline.Path)
	if len(p.Runs) == 0 {
		printDetail("No runs yet")
	} else {
		rows := make([][]string, len(p.Runs))
		for i, r := range p.Runs {
			rows[i] = []string{r.Name, r.Status, r.Path}
		}
		fmt.Fprintln(stdout, renderTable([]string{"Run", "Status", "Route"}, rows, func(row, col int) lipgloss.Style {
			if col == 1 {
				return runStatusStyle(p.Runs[row].Status)
			}
			return lipgloss.NewStyle()
		}))
	}
	if p.ViewAll != nil {
		printLink(p.ViewAll.Text, p.ViewAll.Path)
	}
	if p.TriggerDisabled {
		printDetail("Start Last Run is unavailable until the pipeline has run")
	}
}

func runStatusStyle(status string) lipgloss.Style {
	switch status {
	case tekton.RunSucceeded:
		return StyleSuccess
	case tekton.RunFailed:
		return StyleError
	case tekton.RunCancelled, tekton.RunPending:
		return StyleDim
	}
	return StyleWarning
}
