package ocs

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/matzehuels/topoview/pkg/kube"
)

const (
	// StorageLabel marks a node as a storage node.
	StorageLabel = "cluster.ocs.openshift.io/openshift-storage"
	// ZoneLabel carries the failure domain shown as the node location.
	ZoneLabel = "failure-domain.beta.kubernetes.io/zone"
	// MinSelectedNodes is the smallest selection that can be submitted.
	MinSelectedNodes = 3

	roleLabelPrefix = "node-role.kubernetes.io/"
	none            = "-"
)

// StorageTaint is the taint that dedicates a node to storage. Nodes with it
// stay installable even though they are tainted.
var StorageTaint = corev1.Taint{
	Key:    "node.ocs.openshift.io/storage",
	Value:  "true",
	Effect: corev1.TaintEffectNoSchedule,
}

// Row is one line of the node selection table.
type Row struct {
	Name     string
	UID      types.UID
	Roles    []string
	Zone     string
	CPU      string
	Memory   string
	Selected bool
	Labels   map[string]string
	Taints   []corev1.Taint
}

// RoleText is the comma separated role list, or "-".
func (r Row) RoleText() string {
	if len(r.Roles) == 0 {
		return none
	}
	return strings.Join(r.Roles, ", ")
}

// Candidates keeps nodes that are untainted or carry [StorageTaint].
func Candidates(nodes []corev1.Node) []corev1.Node {
	var out []corev1.Node
	for _, n := range nodes {
		if len(n.Spec.Taints) == 0 || hasStorageTaint(n) {
			out = append(out, n)
		}
	}
	return out
}

func hasStorageTaint(n corev1.Node) bool {
	return slices.ContainsFunc(n.Spec.Taints, func(t corev1.Taint) bool {
		return t.Key == StorageTaint.Key && t.Value == StorageTaint.Value &&
			t.Effect == StorageTaint.Effect && t.TimeAdded == nil
	})
}

// Rows converts the candidates among nodes to unselected table rows.
func Rows(nodes []corev1.Node) []Row {
	candidates := Candidates(nodes)
	rows := make([]Row, 0, len(candidates))
	for _, n := range candidates {
		zone := n.Labels[ZoneLabel]
		if zone == "" {
			zone = none
		}
		rows = append(rows, Row{
			Name:   n.Name,
			UID:    n.UID,
			Roles:  nodeRoles(n.Labels),
			Zone:   zone,
			CPU:    humanizeCPU(n.Status.Capacity[corev1.ResourceCPU]),
			Memory: humanizeBinaryBytes(n.Status.Allocatable[corev1.ResourceMemory]),
			Labels: n.Labels,
			Taints: n.Spec.Taints,
		})
	}
	return rows
}

// ListRows lists the cluster's nodes as pre-selected table rows, sorted by
// name.
func ListRows(ctx context.Context, c *kube.Clients) ([]Row, error) {
	list, err := kube.Call(ctx, "list", "nodes", func() (*corev1.NodeList, error) {
		return c.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	})
	if err != nil {
		return nil, err
	}
	nodes := list.Items
	slices.SortFunc(nodes, func(a, b corev1.Node) int { return strings.Compare(a.Name, b.Name) })
	return PreSelect(Rows(nodes)), nil
}

// PreSelect returns a copy of rows with nodes carrying [StorageLabel]
// selected and all others unselected.
func PreSelect(rows []Row) []Row {
	out := slices.Clone(rows)
	for i := range out {
		_, ok := out[i].Labels[StorageLabel]
		out[i].Selected = ok
	}
	return out
}

func nodeRoles(labels map[string]string) []string {
	var roles []string
	for k := range labels {
		if role, ok := strings.CutPrefix(k, roleLabelPrefix); ok && role != "" {
			roles = append(roles, role)
		}
	}
	slices.Sort(roles)
	return roles
}

// humanizeCPU renders whole cores as "N cores" and fractions in millicores.
func humanizeCPU(q resource.Quantity) string {
	if q.IsZero() {
		return none
	}
	if q.MilliValue() < 1000 {
		return strconv.FormatInt(q.MilliValue(), 10) + "m"
	}
	cores := formatFloat(float64(q.MilliValue()) / 1000)
	if cores == "1" {
		return "1 core"
	}
	return cores + " cores"
}

var binaryUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// humanizeBinaryBytes renders a byte quantity in the largest binary unit
// that keeps the value at or above one.
func humanizeBinaryBytes(q resource.Quantity) string {
	if q.IsZero() {
		return none
	}
	v := float64(q.Value())
	unit := 0
	for v >= 1024 && unit < len(binaryUnits)-1 {
		v /= 1024
		unit++
	}
	return formatFloat(v) + " " + binaryUnits[unit]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
