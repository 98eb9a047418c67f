package kubevirt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/kube"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func virtualMachine(name string, volumes ...string) *unstructured.Unstructured {
	templates := make([]any, 0, len(volumes)+1)
	for _, v := range volumes {
		templates = append(templates, map[string]any{"metadata": map[string]any{"name": v}})
	}
	templates = append(templates, map[string]any{"metadata": map[string]any{}})
	vm := &unstructured.Unstructured{Object: map[string]any{
		"spec": map[string]any{"dataVolumeTemplates": templates},
	}}
	vm.SetAPIVersion("kubevirt.io/v1alpha3")
	vm.SetKind("VirtualMachine")
	vm.SetName(name)
	vm.SetNamespace("vms")
	return vm
}

func instanceRef(name, apiVersion string, controller bool) metav1.OwnerReference {
	return metav1.OwnerReference{
		APIVersion: apiVersion,
		Kind:       "VirtualMachineInstance",
		Name:       name,
		Controller: ptr.To(controller),
	}
}

func pod(name, ns string, age time.Duration, refs ...metav1.OwnerReference) corev1.Pod {
	return corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Name:              name,
		Namespace:         ns,
		CreationTimestamp: metav1.NewTime(base.Add(-age)),
		OwnerReferences:   refs,
	}}
}

func TestConditionSelectors(t *testing.T) {
	p := corev1.Pod{
		Spec: corev1.PodSpec{Hostname: "fedora"},
		Status: corev1.PodStatus{
			Phase: corev1.PodPending,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodInitialized, Status: corev1.ConditionTrue},
				{Type: corev1.ContainersReady, Status: corev1.ConditionFalse},
				{Type: corev1.PodReady, Status: corev1.ConditionUnknown, Message: "not ready"},
			},
		},
	}
	assert.Equal(t, "fedora", HostName(&p))
	assert.Equal(t, corev1.PodPending, StatusPhase(&p))
	assert.Len(t, Conditions(&p), 3)
	require.NotNil(t, ConditionOfType(&p, corev1.PodReady))
	assert.Equal(t, "not ready", ConditionOfType(&p, corev1.PodReady).Message)
	assert.Nil(t, ConditionOfType(&p, corev1.PodScheduled))
	assert.Len(t, FalseConditions(&p), 2)
	assert.Equal(t, "Step: ContainersReady", FalseConditionMessage(&p))

	p.Status.Conditions[1].Message = "containers with unready status: [compute]"
	assert.Equal(t, "containers with unready status: [compute]", FalseConditionMessage(&p))

	assert.Empty(t, FalseConditionMessage(&corev1.Pod{}))
}

func TestIsSchedulable(t *testing.T) {
	tests := []struct {
		name string
		cond *corev1.PodCondition
		want bool
	}{
		{"no condition", nil, true},
		{"scheduled", &corev1.PodCondition{Type: corev1.PodScheduled, Status: corev1.ConditionTrue}, true},
		{"unschedulable", &corev1.PodCondition{Type: corev1.PodScheduled, Status: corev1.ConditionFalse, Reason: corev1.PodReasonUnschedulable}, false},
		{"other reason", &corev1.PodCondition{Type: corev1.PodScheduled, Status: corev1.ConditionFalse, Reason: "SchedulerError"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p corev1.Pod
			if tt.cond != nil {
				p.Status.Conditions = []corev1.PodCondition{*tt.cond}
			}
			assert.Equal(t, tt.want, IsSchedulable(&p))
		})
	}
}

func TestFindVMPod(t *testing.T) {
	vm := virtualMachine("fedora")
	ref := instanceRef("fedora", "kubevirt.io/v1", true)
	pods := []corev1.Pod{
		pod("virt-launcher-fedora-new", "vms", time.Minute, ref),
		pod("virt-launcher-fedora-old", "vms", time.Hour, ref),
		pod("virt-launcher-fedora-older-elsewhere", "other", 2*time.Hour, ref),
		pod("virt-launcher-fedora-unowned", "vms", 3*time.Hour),
		pod("virt-launcher-fedora-othergroup", "vms", 3*time.Hour, instanceRef("fedora", "example.com/v1", true)),
		pod("virt-launcher-fedoraxl-abc", "vms", 3*time.Hour, ref),
	}

	got := FindVMPod(vm, pods, "")
	require.NotNil(t, got)
	assert.Equal(t, "virt-launcher-fedora-old", got.Name)

	assert.Nil(t, FindVMPod(vm, nil, ""))
	assert.Nil(t, FindVMPod(vm, pods, "custom-"))

	t.Run("NonControllerOwner", func(t *testing.T) {
		plain := instanceRef("fedora", "kubevirt.io/v1", false)
		unset := plain
		unset.Controller = nil
		got := FindVMPod(vm, []corev1.Pod{
			pod("virt-launcher-fedora-plain", "vms", time.Minute, plain),
			pod("virt-launcher-fedora-unset", "vms", time.Hour, unset),
		}, "")
		require.NotNil(t, got)
		assert.Equal(t, "virt-launcher-fedora-unset", got.Name)
	})
}

func TestVMImporterPods(t *testing.T) {
	vm := virtualMachine("fedora", "fedora-rootdisk", "fedora-data")
	importer := func(name, ns, pvc string) corev1.Pod {
		p := pod(name, ns, 0)
		p.Labels = map[string]string{CDILabel: "importer", ImportPVCLabel: pvc}
		return p
	}
	other := importer("uploader", "vms", "fedora-rootdisk")
	other.Labels[CDILabel] = "uploader"
	pods := []corev1.Pod{
		importer("importer-fedora-rootdisk", "vms", "fedora-rootdisk"),
		importer("importer-fedora-data", "vms", "fedora-data"),
		importer("importer-elsewhere", "other", "fedora-data"),
		importer("importer-unrelated", "vms", "centos-rootdisk"),
		importer("importer-unnamed", "vms", ""),
		other,
	}

	got := VMImporterPods(vm, pods, "")
	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"importer-fedora-rootdisk", "importer-fedora-data"}, names)
	assert.Equal(t, []string{"fedora-rootdisk", "fedora-data"}, DataVolumeNames(vm))
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	vm := virtualMachine("fedora", "fedora-rootdisk")

	launcher := pod("virt-launcher-fedora-x1", "vms", time.Minute, instanceRef("fedora", "kubevirt.io/v1alpha3", true))
	launcher.Spec.Hostname = "fedora"
	launcher.Status = corev1.PodStatus{
		Phase: corev1.PodPending,
		Conditions: []corev1.PodCondition{{
			Type:    corev1.PodScheduled,
			Status:  corev1.ConditionFalse,
			Reason:  corev1.PodReasonUnschedulable,
			Message: "0/3 nodes are available",
		}},
	}
	importer := pod("importer-fedora-rootdisk", "vms", 0)
	importer.Labels = map[string]string{CDILabel: "importer", ImportPVCLabel: "fedora-rootdisk"}
	importer.Status.Phase = corev1.PodRunning

	cs := fake.NewSimpleClientset(&launcher, &importer)
	dyn := dynamicfake.NewSimpleDynamicClient(runtime.NewScheme(), vm)
	c := kube.NewClientsFrom(cs, dyn)

	r, err := Inspect(ctx, c, "vms", "fedora")
	require.NoError(t, err)
	assert.Equal(t, "virt-launcher-fedora-x1", r.Pod)
	assert.Equal(t, "fedora", r.Host)
	assert.Equal(t, corev1.PodPending, r.Phase)
	assert.False(t, r.Schedulable)
	assert.Equal(t, "0/3 nodes are available", r.Message)
	require.Len(t, r.Importers, 1)
	assert.Equal(t, ImporterStatus{Pod: "importer-fedora-rootdisk", Volume: "fedora-rootdisk", Phase: corev1.PodRunning}, r.Importers[0])

	_, err = Inspect(ctx, c, "vms", "missing")
	assert.True(t, perrors.Is(err, perrors.ErrCodeNotFound))
}

func TestSummarizeStoppedVM(t *testing.T) {
	r := Summarize(virtualMachine("fedora"), nil)
	assert.Empty(t, r.Pod)
	assert.True(t, r.Schedulable)
	assert.Empty(t, r.Importers)
}
