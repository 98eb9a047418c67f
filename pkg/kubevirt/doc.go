// Package kubevirt reads virtual machine state from the pods that run it.
//
// A running VM is backed by a virt-launcher pod owned by its
// VirtualMachineInstance; disks imported through data volumes are filled by
// CDI importer pods. [FindVMPod] and [VMImporterPods] pick those pods out of
// a namespace listing, and the pod selectors ([StatusPhase],
// [FalseConditionMessage], [IsSchedulable]) turn them into the status the
// console shows. [Inspect] does both against a live cluster.
package kubevirt
