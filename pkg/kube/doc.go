// Package kube holds the Kubernetes clients shared by the console features.
//
// [Clients] bundles a typed clientset for core resources and a dynamic
// client for custom resources (OpenShift config, OCS, Tekton, KubeVirt),
// whose [schema.GroupVersionResource] descriptors live in this package.
//
// Every API call goes through [Call], which reports the request to the
// observability hooks and wraps failures in a coded error:
//
//	node, err := kube.Call(ctx, "get", "nodes", func() (*corev1.Node, error) {
//	    return c.Clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
//	})
//	if err != nil {
//	    status.Error = kube.Reason(err) // what the API server said
//	}
//
// [Reason] extracts the message a user should see next to a failed action.
package kube
