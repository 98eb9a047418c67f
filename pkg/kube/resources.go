package kube

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Custom resources used by the console features.
var (
	InfrastructureGVR   = schema.GroupVersionResource{Group: "config.openshift.io", Version: "v1", Resource: "infrastructures"}
	StorageClusterGVR   = schema.GroupVersionResource{Group: "ocs.openshift.io", Version: "v1", Resource: "storageclusters"}
	PipelineGVR         = schema.GroupVersionResource{Group: "tekton.dev", Version: "v1alpha1", Resource: "pipelines"}
	PipelineResourceGVR = schema.GroupVersionResource{Group: "tekton.dev", Version: "v1alpha1", Resource: "pipelineresources"}
	PipelineRunGVR      = schema.GroupVersionResource{Group: "tekton.dev", Version: "v1alpha1", Resource: "pipelineruns"}
	VirtualMachineGVR   = schema.GroupVersionResource{Group: "kubevirt.io", Version: "v1alpha3", Resource: "virtualmachines"}
)

// Kinds of the custom resources above.
var (
	StorageClusterGVK         = StorageClusterGVR.GroupVersion().WithKind("StorageCluster")
	PipelineGVK               = PipelineGVR.GroupVersion().WithKind("Pipeline")
	PipelineResourceGVK       = PipelineResourceGVR.GroupVersion().WithKind("PipelineResource")
	PipelineRunGVK            = PipelineRunGVR.GroupVersion().WithKind("PipelineRun")
	VirtualMachineInstanceGVK = VirtualMachineGVR.GroupVersion().WithKind("VirtualMachineInstance")
)

// Reference is the console's "group~version~Kind" string for a kind. Core
// kinds are referenced by their bare kind name.
func Reference(gvk schema.GroupVersionKind) string {
	if gvk.Group == "" {
		return gvk.Kind
	}
	return fmt.Sprintf("%s~%s~%s", gvk.Group, gvk.Version, gvk.Kind)
}

// ResourcePath is the console route of a namespaced object, or of a
// cluster-scoped one when namespace is empty.
func ResourcePath(gvk schema.GroupVersionKind, name, namespace string) string {
	if namespace == "" {
		return fmt.Sprintf("/k8s/cluster/%s/%s", Reference(gvk), name)
	}
	return fmt.Sprintf("/k8s/ns/%s/%s/%s", namespace, Reference(gvk), name)
}
