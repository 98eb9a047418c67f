package tekton

import (
	"context"
	"fmt"
	"slices"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/rand"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/kube"
)

const (
	// TemplateNamespace holds the template pipelines.
	TemplateNamespace = "openshift"
	// RuntimeLabel names the builder runtime a template is for.
	RuntimeLabel = "pipeline.openshift.io/runtime"
	// AppNameParam is the template parameter defaulted to the app name.
	AppNameParam = "APP_NAME"
	// DefaultGitRef is the revision used when the form names none.
	DefaultGitRef = "master"
	// ImageRegistry is the in-cluster registry images are pushed to.
	ImageRegistry = "image-registry.openshift-image-registry.svc:5000"

	ResourceTypeGit   = "git"
	ResourceTypeImage = "image"
)

// Client performs the pipeline API calls.
type Client struct {
	clients *kube.Clients
}

// NewClient returns a client using c.
func NewClient(c *kube.Clients) *Client {
	return &Client{clients: c}
}

// TemplateForRuntime returns the first template pipeline labeled for
// runtime, or nil when there is none.
func (c *Client) TemplateForRuntime(ctx context.Context, runtime string) (*unstructured.Unstructured, error) {
	selector := labels.SelectorFromSet(labels.Set{RuntimeLabel: runtime}).String()
	list, err := kube.Call(ctx, "list", "pipelines", func() (*unstructured.UnstructuredList, error) {
		return c.clients.Dynamic.Resource(kube.PipelineGVR).Namespace(TemplateNamespace).
			List(ctx, metav1.ListOptions{LabelSelector: selector})
	})
	if err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		c.clients.Log().Debug("no pipeline template", "runtime", runtime)
		return nil, nil
	}
	return &list.Items[0], nil
}

// CreateGitResource creates a git PipelineResource for url at ref. An empty
// ref means [DefaultGitRef].
func (c *Client) CreateGitResource(ctx context.Context, url, namespace, ref string) (*unstructured.Unstructured, error) {
	if ref == "" {
		ref = DefaultGitRef
	}
	return c.createPipelineResource(ctx, map[string]string{"url": url, "revision": ref}, ResourceTypeGit, namespace)
}

// CreateImageResource creates an image PipelineResource pointing at the
// internal registry.
func (c *Client) CreateImageResource(ctx context.Context, name, namespace string) (*unstructured.Unstructured, error) {
	url := fmt.Sprintf("%s/%s/%s", ImageRegistry, namespace, name)
	return c.createPipelineResource(ctx, map[string]string{"url": url}, ResourceTypeImage, namespace)
}

func (c *Client) createPipelineResource(ctx context.Context, params map[string]string, typ, namespace string) (*unstructured.Unstructured, error) {
	obj := PipelineResource(params, typ, namespace)
	return kube.Call(ctx, "create", "pipelineresources", func() (*unstructured.Unstructured, error) {
		return c.clients.Dynamic.Resource(kube.PipelineResourceGVR).Namespace(namespace).Create(ctx, obj, metav1.CreateOptions{})
	})
}

// PipelineResource builds a resource named "<type>-<random>" with params
// sorted by name.
func PipelineResource(params map[string]string, typ, namespace string) *unstructured.Unstructured {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	slices.Sort(names)
	ps := make([]any, 0, len(names))
	for _, k := range names {
		ps = append(ps, map[string]any{"name": k, "value": params[k]})
	}

	obj := &unstructured.Unstructured{Object: map[string]any{
		"spec": map[string]any{"type": typ, "params": ps},
	}}
	obj.SetGroupVersionKind(kube.PipelineResourceGVK)
	obj.SetName(typ + "-" + rand.String(5))
	obj.SetNamespace(namespace)
	return obj
}

// ImportForm is the part of the import form the pipeline flow reads.
type ImportForm struct {
	Name      string
	Namespace string
	GitURL    string
	GitRef    string
	Template  *unstructured.Unstructured
}

// Validate checks the names and the repository URL.
func (f ImportForm) Validate() error {
	if f.Template == nil {
		return perrors.New(perrors.ErrCodeInvalidInput, "no pipeline template selected")
	}
	if err := perrors.ValidateResourceName(f.Name); err != nil {
		return err
	}
	if err := perrors.ValidateNamespace(f.Namespace); err != nil {
		return err
	}
	return perrors.ValidateGitURL(f.GitURL)
}

// CreatePipelineForImportFlow creates the git and image resources and then
// the app's copy of the template pipeline.
func (c *Client) CreatePipelineForImportFlow(ctx context.Context, form ImportForm) (*unstructured.Unstructured, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	pipeline, err := PipelineFromTemplate(form.Template, form.Name, form.Namespace)
	if err != nil {
		return nil, err
	}
	if _, err := c.CreateGitResource(ctx, form.GitURL, form.Namespace, form.GitRef); err != nil {
		return nil, err
	}
	if _, err := c.CreateImageResource(ctx, form.Name, form.Namespace); err != nil {
		return nil, err
	}
	created, err := kube.Call(ctx, "create", "pipelines", func() (*unstructured.Unstructured, error) {
		return c.clients.Dynamic.Resource(kube.PipelineGVR).Namespace(form.Namespace).Create(ctx, pipeline, metav1.CreateOptions{})
	})
	if err != nil {
		return nil, err
	}
	c.clients.Log().Info("created pipeline", "name", created.GetName(), "namespace", form.Namespace)
	return created, nil
}

// PipelineFromTemplate returns a copy of template named
// "<name>-<template name>" in namespace. Only the template's labels are kept
// from its metadata, and the APP_NAME parameter defaults to name. The
// template is not modified.
func PipelineFromTemplate(template *unstructured.Unstructured, name, namespace string) (*unstructured.Unstructured, error) {
	p := template.DeepCopy()
	tmplLabels := template.GetLabels()
	p.Object["metadata"] = map[string]any{}
	p.SetName(name + "-" + template.GetName())
	p.SetNamespace(namespace)
	p.SetLabels(tmplLabels)

	params, found, err := unstructured.NestedSlice(p.Object, "spec", "params")
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "template %s params", template.GetName())
	}
	if !found {
		return p, nil
	}
	for _, raw := range params {
		if param, ok := raw.(map[string]any); ok && param["name"] == AppNameParam {
			param["default"] = name
		}
	}
	if err := unstructured.SetNestedSlice(p.Object, params, "spec", "params"); err != nil {
		return nil, err
	}
	return p, nil
}
