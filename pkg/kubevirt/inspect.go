package kubevirt

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/matzehuels/topoview/pkg/kube"
)

// Report is the pod-derived status of one virtual machine.
type Report struct {
	VM        string
	Namespace string
	// Pod is the launcher pod name, empty when the VM is not running.
	Pod         string
	Host        string
	Phase       corev1.PodPhase
	Schedulable bool
	// Message explains the first unmet pod condition.
	Message   string
	Importers []ImporterStatus
}

// ImporterStatus is the state of one disk import.
type ImporterStatus struct {
	Pod     string
	Volume  string
	Phase   corev1.PodPhase
	Message string
}

// Inspect fetches the VM and the pods of its namespace and reports the
// launcher and importer pod state.
func Inspect(ctx context.Context, c *kube.Clients, namespace, name string) (*Report, error) {
	vm, err := kube.Call(ctx, "get", "virtualmachines", func() (*unstructured.Unstructured, error) {
		return c.Dynamic.Resource(kube.VirtualMachineGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	})
	if err != nil {
		return nil, err
	}
	pods, err := kube.Call(ctx, "list", "pods", func() (*corev1.PodList, error) {
		return c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	})
	if err != nil {
		return nil, err
	}
	c.Log().Debug("inspecting vm", "vm", name, "namespace", namespace, "pods", len(pods.Items))
	return Summarize(vm, pods.Items), nil
}

// Summarize builds the report from an already fetched VM and pod list.
func Summarize(vm *unstructured.Unstructured, pods []corev1.Pod) *Report {
	r := &Report{VM: vm.GetName(), Namespace: vm.GetNamespace(), Schedulable: true}
	if pod := FindVMPod(vm, pods, ""); pod != nil {
		r.Pod = pod.Name
		r.Host = HostName(pod)
		r.Phase = StatusPhase(pod)
		r.Schedulable = IsSchedulable(pod)
		r.Message = FalseConditionMessage(pod)
	}
	for _, p := range VMImporterPods(vm, pods, "") {
		r.Importers = append(r.Importers, ImporterStatus{
			Pod:     p.Name,
			Volume:  p.Labels[ImportPVCLabel],
			Phase:   StatusPhase(&p),
			Message: FalseConditionMessage(&p),
		})
	}
	return r
}
