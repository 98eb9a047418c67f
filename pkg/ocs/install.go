package ocs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	"github.com/matzehuels/topoview/pkg/kube"
)

const (
	// DefaultNamespace is where the operator and the StorageCluster live.
	DefaultNamespace = "openshift-storage"
	// StorageClusterName is the name of the created StorageCluster.
	StorageClusterName = "ocs-storagecluster"

	defaultClassAnnotation     = "storageclass.kubernetes.io/is-default-class"
	betaDefaultClassAnnotation = "storageclass.beta.kubernetes.io/is-default-class"

	labelPatch = `[{"op":"add","path":"/metadata/labels/cluster.ocs.openshift.io~1openshift-storage","value":""}]`
)

// Provisioners maps an infrastructure platform, lower-cased, to the volume
// provisioner whose default class backs the device sets.
var Provisioners = map[string]string{
	"aws":     "kubernetes.io/aws-ebs",
	"gcp":     "kubernetes.io/gce-pd",
	"azure":   "kubernetes.io/azure-disk",
	"vsphere": "kubernetes.io/vsphere-volume",
}

// Status is the state of an install request as shown next to the submit
// button.
type Status struct {
	InProgress bool
	// Error is the human-readable reason of the last failure.
	Error string
	// Redirect is the console path of the created StorageCluster.
	Redirect string
}

// Installer submits a StorageCluster install for a node selection.
type Installer struct {
	clients   *kube.Clients
	namespace string
	csvName   string

	mu     sync.Mutex
	status Status
}

// NewInstaller returns an installer creating the StorageCluster in
// namespace, owned by the operator's ClusterServiceVersion csvName.
func NewInstaller(c *kube.Clients, namespace, csvName string) *Installer {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Installer{clients: c, namespace: namespace, csvName: csvName}
}

// Status returns the current request state.
func (i *Installer) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

func (i *Installer) setStatus(s Status) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = s
}

// Submit labels the selected nodes and creates the StorageCluster. Any
// failure ends the request with Status.Error set; success sets
// Status.Redirect.
func (i *Installer) Submit(ctx context.Context, sel *Selection) Status {
	i.setStatus(Status{InProgress: true})
	log := i.clients.Log()

	if !sel.CanSubmit() {
		s := Status{Error: fmt.Sprintf("select at least %d nodes", MinSelectedNodes)}
		i.setStatus(s)
		return s
	}

	class, err := i.storageClass(ctx)
	if err != nil {
		log.Error("resolving storage class", "err", err)
		return i.fail(err)
	}
	log.Debug("resolved storage class", "name", class)

	g, gctx := errgroup.WithContext(ctx)
	for _, row := range sel.Selected() {
		g.Go(func() error {
			return i.labelNode(gctx, row.Name)
		})
	}
	g.Go(func() error {
		return i.createStorageCluster(gctx, class)
	})
	if err := g.Wait(); err != nil {
		log.Error("install request failed", "err", err)
		return i.fail(err)
	}

	s := Status{Redirect: i.redirect()}
	i.setStatus(s)
	log.Info("storage cluster requested", "nodes", sel.SelectedCount(), "storageClass", class)
	return s
}

func (i *Installer) fail(err error) Status {
	s := Status{Error: kube.Reason(err)}
	i.setStatus(s)
	return s
}

// storageClass returns the name of the default class of the platform's
// provisioner. It is empty when there is none.
func (i *Installer) storageClass(ctx context.Context) (string, error) {
	infra, err := kube.Call(ctx, "get", "infrastructures", func() (*unstructured.Unstructured, error) {
		return i.clients.Dynamic.Resource(kube.InfrastructureGVR).Get(ctx, "cluster", metav1.GetOptions{})
	})
	if err != nil {
		return "", err
	}
	platform, _, _ := unstructured.NestedString(infra.Object, "status", "platform")
	provisioner := Provisioners[strings.ToLower(platform)]

	classes, err := kube.Call(ctx, "list", "storageclasses", func() (*storagev1.StorageClassList, error) {
		return i.clients.Clientset.StorageV1().StorageClasses().List(ctx, metav1.ListOptions{})
	})
	if err != nil {
		return "", err
	}
	var name string
	for _, sc := range classes.Items {
		if sc.Provisioner == provisioner && isDefaultClass(sc) {
			name = sc.Name
		}
	}
	return name, nil
}

func isDefaultClass(sc storagev1.StorageClass) bool {
	return sc.Annotations[defaultClassAnnotation] == "true" ||
		sc.Annotations[betaDefaultClassAnnotation] == "true"
}

func (i *Installer) labelNode(ctx context.Context, name string) error {
	_, err := kube.Call(ctx, "patch", "nodes", func() (any, error) {
		return i.clients.Clientset.CoreV1().Nodes().Patch(ctx, name, types.JSONPatchType, []byte(labelPatch), metav1.PatchOptions{})
	})
	return err
}

func (i *Installer) createStorageCluster(ctx context.Context, class string) error {
	obj := StorageCluster(i.namespace, class)
	_, err := kube.Call(ctx, "create", "storageclusters", func() (*unstructured.Unstructured, error) {
		return i.clients.Dynamic.Resource(kube.StorageClusterGVR).Namespace(i.namespace).Create(ctx, obj, metav1.CreateOptions{})
	})
	return err
}

func (i *Installer) redirect() string {
	return fmt.Sprintf("/k8s/ns/%s/clusterserviceversions/%s/%s/%s",
		i.namespace, i.csvName, kube.Reference(kube.StorageClusterGVK), StorageClusterName)
}

// StorageCluster builds the install request: three replicated 2Ti block
// device sets on class.
func StorageCluster(namespace, class string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"spec": map[string]any{
			"manageNodes": false,
			"storageDeviceSets": []any{
				map[string]any{
					"name":      "ocs-deviceset",
					"count":     int64(1),
					"replica":   int64(3),
					"resources": map[string]any{},
					"placement": map[string]any{},
					"portable":  true,
					"dataPVCTemplate": map[string]any{
						"spec": map[string]any{
							"storageClassName": class,
							"accessModes":      []any{"ReadWriteOnce"},
							"volumeMode":       "Block",
							"resources": map[string]any{
								"requests": map[string]any{"storage": "2Ti"},
							},
						},
					},
				},
			},
		},
	}}
	obj.SetGroupVersionKind(kube.StorageClusterGVK)
	obj.SetName(StorageClusterName)
	obj.SetNamespace(namespace)
	return obj
}
