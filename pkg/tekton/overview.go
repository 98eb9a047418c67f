package tekton

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	"github.com/matzehuels/topoview/pkg/kube"
)

// MaxVisibleRuns is how many runs the panel lists.
const MaxVisibleRuns = 3

// Link is a labeled console route.
type Link struct {
	Text string
	Path string
}

// RunItem is one listed run.
type RunItem struct {
	Name   string
	UID    types.UID
	Status string
	Path   string
}

// Panel is the pipeline section of the topology sidebar.
type Panel struct {
	Heading string
	// ViewAll is set when more runs exist than are listed.
	ViewAll  *Link
	Pipeline Link
	// TriggerDisabled disables the "start last run" action.
	TriggerDisabled bool
	Runs            []RunItem
}

// Overview builds the panel for pipeline. runs are listed in the given
// order, so pass them newest first.
func Overview(pipeline *unstructured.Unstructured, runs []unstructured.Unstructured) Panel {
	name, ns := pipeline.GetName(), pipeline.GetNamespace()
	path := kube.ResourcePath(kube.PipelineGVK, name, ns)

	p := Panel{
		Heading:         "Pipeline Runs",
		Pipeline:        Link{Text: name, Path: path},
		TriggerDisabled: len(runs) == 0,
	}
	if len(runs) > MaxVisibleRuns {
		p.ViewAll = &Link{
			Text: fmt.Sprintf("View All (%d)", len(runs)),
			Path: path + "/Runs",
		}
	}
	for i := range runs[:min(len(runs), MaxVisibleRuns)] {
		r := &runs[i]
		p.Runs = append(p.Runs, RunItem{
			Name:   r.GetName(),
			UID:    r.GetUID(),
			Status: RunStatus(r),
			Path:   kube.ResourcePath(kube.PipelineRunGVK, r.GetName(), r.GetNamespace()),
		})
	}
	return p
}
