package kubevirt

import (
	"slices"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/matzehuels/topoview/pkg/kube"
)

const (
	// LauncherPodPrefix starts the name of every virt-launcher pod.
	LauncherPodPrefix = "virt-launcher-"
	// CDILabel marks pods created by the containerized data importer.
	CDILabel = "cdi.kubevirt.io"
	// ImportPVCLabel names the claim an importer pod fills.
	ImportPVCLabel = CDILabel + "/storage.import.importPvcName"
)

// HostName returns the pod's spec.hostname.
func HostName(pod *corev1.Pod) string { return pod.Spec.Hostname }

func StatusPhase(pod *corev1.Pod) corev1.PodPhase { return pod.Status.Phase }

// Conditions returns the pod's status conditions.
func Conditions(pod *corev1.Pod) []corev1.PodCondition { return pod.Status.Conditions }

// ConditionOfType returns the first condition of typ, or nil.
func ConditionOfType(pod *corev1.Pod, typ corev1.PodConditionType) *corev1.PodCondition {
	for i := range pod.Status.Conditions {
		if pod.Status.Conditions[i].Type == typ {
			return &pod.Status.Conditions[i]
		}
	}
	return nil
}

// FalseConditions returns the conditions whose status is not True.
func FalseConditions(pod *corev1.Pod) []corev1.PodCondition {
	var out []corev1.PodCondition
	for _, c := range pod.Status.Conditions {
		if c.Status != corev1.ConditionTrue {
			out = append(out, c)
		}
	}
	return out
}

// FalseConditionMessage describes the first condition that is not True: its
// message, or "Step: <type>" when it has none. It is empty when every
// condition holds.
func FalseConditionMessage(pod *corev1.Pod) string {
	conds := FalseConditions(pod)
	if len(conds) == 0 {
		return ""
	}
	if conds[0].Message != "" {
		return conds[0].Message
	}
	return "Step: " + string(conds[0].Type)
}

// IsSchedulable is false only when the scheduler reported the pod as
// Unschedulable.
func IsSchedulable(pod *corev1.Pod) bool {
	c := ConditionOfType(pod, corev1.PodScheduled)
	return c == nil || c.Status == corev1.ConditionTrue || c.Reason != corev1.PodReasonUnschedulable
}

// FindVMPod returns the oldest launcher pod of vm: a pod in the VM's
// namespace named "<prefix><vm>-..." and controlled by the VM's instance.
// An empty prefix means [LauncherPodPrefix]. It returns nil when no pod
// matches.
func FindVMPod(vm *unstructured.Unstructured, pods []corev1.Pod, prefix string) *corev1.Pod {
	if prefix == "" {
		prefix = LauncherPodPrefix
	}
	namePrefix := prefix + vm.GetName() + "-"

	var match []*corev1.Pod
	for i := range pods {
		p := &pods[i]
		if p.Namespace != vm.GetNamespace() || !strings.HasPrefix(p.Name, namePrefix) {
			continue
		}
		if slices.ContainsFunc(p.OwnerReferences, func(ref metav1.OwnerReference) bool {
			return ownedByInstance(ref, vm.GetName())
		}) {
			match = append(match, p)
		}
	}
	if len(match) == 0 {
		return nil
	}
	return slices.MinFunc(match, func(a, b *corev1.Pod) int {
		return a.CreationTimestamp.Compare(b.CreationTimestamp.Time)
	})
}

// ownedByInstance compares by group, so any served version of the
// instance kind matches. The instance shares the VM's name but not its UID.
// The controller flag is not required.
func ownedByInstance(ref metav1.OwnerReference, name string) bool {
	gv, err := schema.ParseGroupVersion(ref.APIVersion)
	if err != nil {
		return false
	}
	return gv.Group == kube.VirtualMachineInstanceGVK.Group &&
		ref.Kind == kube.VirtualMachineInstanceGVK.Kind &&
		ref.Name == name
}

// VMImporterPods returns the importer pods filling vm's data volumes: pods
// in the VM's namespace labeled as CDI importers whose pvcLabel names one
// of spec.dataVolumeTemplates. An empty pvcLabel means [ImportPVCLabel].
func VMImporterPods(vm *unstructured.Unstructured, pods []corev1.Pod, pvcLabel string) []corev1.Pod {
	if pvcLabel == "" {
		pvcLabel = ImportPVCLabel
	}
	volumes := DataVolumeNames(vm)

	var out []corev1.Pod
	for _, p := range pods {
		if p.Namespace != vm.GetNamespace() || p.Labels[CDILabel] != "importer" {
			continue
		}
		if slices.Contains(volumes, p.Labels[pvcLabel]) {
			out = append(out, p)
		}
	}
	return out
}

// DataVolumeNames lists the named entries of spec.dataVolumeTemplates.
func DataVolumeNames(vm *unstructured.Unstructured) []string {
	templates, _, _ := unstructured.NestedSlice(vm.Object, "spec", "dataVolumeTemplates")
	var names []string
	for _, raw := range templates {
		t, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if name, _, _ := unstructured.NestedString(t, "metadata", "name"); name != "" {
			names = append(names, name)
		}
	}
	return names
}
