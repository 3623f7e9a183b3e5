// Package expansion holds the per-node expand/collapse state and the
// selection for a taxonomy tree view.
//
// The map is replaced wholesale whenever the query mode changes (branch
// switch, group filter change, or crossing the search threshold), because
// ids and hierarchy differ between result sets. Within one mode, new
// result sets only add defaults for ids not seen before.
package expansion

import (
	"strings"
	"unicode/utf8"

	"github.com/vanderheijden86/sortinghat/pkg/forest"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// SearchMinRunes is the query length at which search replaces browsing.
const SearchMinRunes = 2

// BrowseExpandLevel is the deepest level expanded by default when browsing.
const BrowseExpandLevel = 2

// SearchActive reports whether query is long enough to trigger search.
func SearchActive(query string) bool {
	return utf8.RuneCountInString(query) >= SearchMinRunes
}

// Mode identifies the kind of result set currently shown.
type Mode struct {
	Branch model.Branch
	Group  string // governance group slug, browse only
	Query  string
}

// Search reports whether the mode is a search.
func (m Mode) Search() bool {
	return SearchActive(m.Query)
}

// Key is stable for result sets that share ids and hierarchy. Typing more
// characters into an active search keeps the key.
func (m Mode) Key() string {
	if m.Search() {
		return "search"
	}
	var sb strings.Builder
	sb.WriteString("browse:")
	sb.WriteString(string(m.Branch))
	if m.Group != "" {
		sb.WriteString(":")
		sb.WriteString(m.Group)
	}
	return sb.String()
}

// State is the expansion map plus the selected id. The zero value is ready
// to use.
type State struct {
	mode     string
	expanded map[string]bool
	selected string
}

// Mode returns the key of the mode the map was last seeded for.
func (s *State) Mode() string {
	return s.mode
}

func defaultExpanded(search bool, n model.TaxonomyNode) bool {
	if search {
		return true
	}
	return n.Level <= BrowseExpandLevel
}

// Reseed discards the whole map and applies the defaults of mode to every
// node in f. Selection is kept.
func (s *State) Reseed(mode Mode, f *forest.Forest) {
	s.mode = mode.Key()
	s.expanded = make(map[string]bool, f.Len())
	search := mode.Search()
	for _, n := range f.Nodes() {
		s.expanded[n.ID] = defaultExpanded(search, n)
	}
}

// Seed applies the defaults for mode to ids not yet in the map. If the mode
// key differs from the last seed it falls back to Reseed.
//
// Seed reports whether a full reseed happened.
func (s *State) Seed(mode Mode, f *forest.Forest) bool {
	if s.expanded == nil || mode.Key() != s.mode {
		s.Reseed(mode, f)
		return true
	}
	search := mode.Search()
	for _, n := range f.Nodes() {
		if _, ok := s.expanded[n.ID]; !ok {
			s.expanded[n.ID] = defaultExpanded(search, n)
		}
	}
	return false
}

// Activate selects id and, if it has children in f, toggles its
// expansion. Activating a leaf only changes the selection.
func (s *State) Activate(f *forest.Forest, id string) {
	s.selected = id
	if !f.HasChildren(id) {
		return
	}
	if s.expanded == nil {
		s.expanded = make(map[string]bool)
	}
	s.expanded[id] = !s.expanded[id]
}

// Select changes the selection without touching expansion.
func (s *State) Select(id string) {
	s.selected = id
}

// Selected returns the stored selection, even if it is not in the current
// forest.
func (s *State) Selected() string {
	return s.selected
}

// Highlighted returns the selected id if f contains it, else "".
func (s *State) Highlighted(f *forest.Forest) string {
	if s.selected == "" || !f.Has(s.selected) {
		return ""
	}
	return s.selected
}

// IsExpanded reports the stored expansion for id.
func (s *State) IsExpanded(id string) bool {
	return s.expanded[id]
}

// SetExpanded forces the expansion of one node.
func (s *State) SetExpanded(id string, v bool) {
	if s.expanded == nil {
		s.expanded = make(map[string]bool)
	}
	s.expanded[id] = v
}

// ExpandAll expands every node in f that has children.
func (s *State) ExpandAll(f *forest.Forest) {
	for _, n := range f.Nodes() {
		if f.HasChildren(n.ID) {
			s.SetExpanded(n.ID, true)
		}
	}
}

// CollapseAll collapses every node in f.
func (s *State) CollapseAll(f *forest.Forest) {
	for _, n := range f.Nodes() {
		s.SetExpanded(n.ID, false)
	}
}

// Row is one visible line of the tree.
type Row struct {
	Node        model.TaxonomyNode
	Depth       int // walk depth below the top level
	Indent      int // level-1, clamped at zero
	HasChildren bool
	Expanded    bool
	Highlighted bool
	Orphan      bool
}

// Visible returns the rows to render: TopLevel entries and the descendants
// of expanded nodes, in forest order.
func (s *State) Visible(f *forest.Forest) []Row {
	hl := s.Highlighted(f)
	rows := make([]Row, 0, f.Len())
	f.Walk(func(n model.TaxonomyNode, depth int) bool {
		hasKids := f.HasChildren(n.ID)
		exp := hasKids && s.expanded[n.ID]
		indent := n.Level - 1
		if indent < 0 {
			indent = 0
		}
		rows = append(rows, Row{
			Node:        n,
			Depth:       depth,
			Indent:      indent,
			HasChildren: hasKids,
			Expanded:    exp,
			Highlighted: hl != "" && n.ID == hl,
			Orphan:      depth == 0 && n.ParentID != nil,
		})
		return exp
	})
	return rows
}

// IndexOf returns the row index of id in rows, or -1.
func IndexOf(rows []Row, id string) int {
	for i, r := range rows {
		if r.Node.ID == id {
			return i
		}
	}
	return -1
}
