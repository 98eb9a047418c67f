package ocs

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Selection tracks which rows are ticked while the visible set is narrowed
// by a name filter. Ticks live on the unfiltered rows, so hiding a row never
// loses its state.
type Selection struct {
	all     []Row
	visible []int
	filter  string
}

// NewSelection starts a selection over rows, all visible.
func NewSelection(rows []Row) *Selection {
	s := &Selection{all: slices.Clone(rows)}
	s.Filter("")
	return s
}

// Filter shows the rows whose name fuzzily matches name, in table order.
// An empty name shows every row.
func (s *Selection) Filter(name string) {
	s.filter = name
	s.visible = s.visible[:0]
	if name == "" {
		for i := range s.all {
			s.visible = append(s.visible, i)
		}
		return
	}
	names := make([]string, len(s.all))
	for i, r := range s.all {
		names[i] = strings.ToLower(r.Name)
	}
	for _, m := range fuzzy.Find(strings.ToLower(name), names) {
		s.visible = append(s.visible, m.Index)
	}
	slices.Sort(s.visible)
}

// IsFiltered reports whether a name filter is active.
func (s *Selection) IsFiltered() bool { return s.filter != "" }

// Rows returns the visible rows.
func (s *Selection) Rows() []Row {
	out := make([]Row, len(s.visible))
	for i, idx := range s.visible {
		out[i] = s.all[idx]
	}
	return out
}

// All returns every row, visible or not.
func (s *Selection) All() []Row { return slices.Clone(s.all) }

// Select ticks or unticks the visible row at index. Index -1 applies to
// every visible row. Out-of-range indexes are ignored.
func (s *Selection) Select(index int, selected bool) {
	if index == -1 {
		for _, idx := range s.visible {
			s.all[idx].Selected = selected
		}
		return
	}
	if index < 0 || index >= len(s.visible) {
		return
	}
	s.all[s.visible[index]].Selected = selected
}

// SelectByName ticks the named rows and unticks all others. It returns the
// names that matched no row.
func (s *Selection) SelectByName(names ...string) []string {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	for i := range s.all {
		s.all[i].Selected = want[s.all[i].Name]
		delete(want, s.all[i].Name)
	}
	var unknown []string
	for _, n := range names {
		if want[n] {
			unknown = append(unknown, n)
		}
	}
	return unknown
}

// Selected returns the ticked rows, including hidden ones.
func (s *Selection) Selected() []Row {
	var out []Row
	for _, r := range s.all {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// SelectedCount counts ticked rows, including hidden ones.
func (s *Selection) SelectedCount() int {
	n := 0
	for _, r := range s.all {
		if r.Selected {
			n++
		}
	}
	return n
}

// CanSubmit reports whether enough nodes are selected to install.
func (s *Selection) CanSubmit() bool {
	return s.SelectedCount() >= MinSelectedNodes
}
