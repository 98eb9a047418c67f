package tekton

import (
	"cmp"
	"context"
	"slices"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/rand"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/kube"
)

// PipelineLabel links a run to its pipeline.
const PipelineLabel = "tekton.dev/pipeline"

// Run states derived from the Succeeded condition.
const (
	RunPending   = "Pending"
	RunRunning   = "Running"
	RunSucceeded = "Succeeded"
	RunFailed    = "Failed"
	RunCancelled = "Cancelled"
)

// GetPipeline fetches one pipeline.
func (c *Client) GetPipeline(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	return kube.Call(ctx, "get", "pipelines", func() (*unstructured.Unstructured, error) {
		return c.clients.Dynamic.Resource(kube.PipelineGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	})
}

// ListRuns returns the runs of a pipeline, newest first.
func (c *Client) ListRuns(ctx context.Context, namespace, pipeline string) ([]unstructured.Unstructured, error) {
	selector := labels.SelectorFromSet(labels.Set{PipelineLabel: pipeline}).String()
	list, err := kube.Call(ctx, "list", "pipelineruns", func() (*unstructured.UnstructuredList, error) {
		return c.clients.Dynamic.Resource(kube.PipelineRunGVR).Namespace(namespace).
			List(ctx, metav1.ListOptions{LabelSelector: selector})
	})
	if err != nil {
		return nil, err
	}
	runs := list.Items
	SortRuns(runs)
	return runs, nil
}

// SortRuns orders runs newest first, by name for equal timestamps.
func SortRuns(runs []unstructured.Unstructured) {
	slices.SortStableFunc(runs, func(a, b unstructured.Unstructured) int {
		ta, tb := a.GetCreationTimestamp(), b.GetCreationTimestamp()
		if c := tb.Compare(ta.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.GetName(), b.GetName())
	})
}

// RunStatus reports the state of a run from its Succeeded condition.
func RunStatus(run *unstructured.Unstructured) string {
	conds, _, _ := unstructured.NestedSlice(run.Object, "status", "conditions")
	for _, raw := range conds {
		cond, ok := raw.(map[string]any)
		if !ok || cond["type"] != "Succeeded" {
			continue
		}
		switch cond["status"] {
		case "True":
			return RunSucceeded
		case "False":
			if cond["reason"] == "PipelineRunCancelled" {
				return RunCancelled
			}
			return RunFailed
		default:
			return RunRunning
		}
	}
	return RunPending
}

// RerunLatest starts a new run of pipeline with the spec of runs[0], which
// must be the newest run (see [SortRuns]).
func (c *Client) RerunLatest(ctx context.Context, pipeline *unstructured.Unstructured, runs []unstructured.Unstructured) (*unstructured.Unstructured, error) {
	if len(runs) == 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "pipeline %s has no runs to repeat", pipeline.GetName())
	}
	run := RerunOf(pipeline, &runs[0])
	created, err := kube.Call(ctx, "create", "pipelineruns", func() (*unstructured.Unstructured, error) {
		return c.clients.Dynamic.Resource(kube.PipelineRunGVR).Namespace(run.GetNamespace()).Create(ctx, run, metav1.CreateOptions{})
	})
	if err != nil {
		return nil, err
	}
	c.clients.Log().Info("started pipeline run", "pipeline", pipeline.GetName(), "run", created.GetName())
	return created, nil
}

// RerunOf builds a new run of pipeline copying last's spec and labels.
// Cancellation state is not copied.
func RerunOf(pipeline, last *unstructured.Unstructured) *unstructured.Unstructured {
	spec, _, _ := unstructured.NestedMap(last.Object, "spec")
	if spec == nil {
		spec = map[string]any{}
	}
	delete(spec, "status")

	run := &unstructured.Unstructured{Object: map[string]any{"spec": spec}}
	run.SetGroupVersionKind(kube.PipelineRunGVK)
	run.SetName(pipeline.GetName() + "-" + rand.String(6))
	run.SetNamespace(pipeline.GetNamespace())
	l := map[string]string{}
	for k, v := range last.GetLabels() {
		l[k] = v
	}
	l[PipelineLabel] = pipeline.GetName()
	run.SetLabels(l)
	return run
}
