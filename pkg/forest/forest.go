// Package forest groups a flat taxonomy node list into parent-keyed trees.
//
// A Forest is built once per result set and never mutated. Nodes whose
// parent is not part of the result set (search results come back without
// their ancestors) are orphans: they stay in the bucket of their missing
// parent and are surfaced as top-level entries next to the true roots.
package forest

import (
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// rootKey is the bucket for nodes with a nil parent. It cannot collide with
// a real id because ids never contain NUL.
const rootKey = "\x00root"

// Forest is the adjacency derived from one node list.
type Forest struct {
	nodes    []model.TaxonomyNode
	byID     map[string]int   // last occurrence wins
	children map[string][]int // parent key -> indices, input order
	topLevel []int
}

// Build groups nodes by parent in O(n). Duplicate ids are not
// deduplicated; the result for such input is unspecified.
func Build(nodes []model.TaxonomyNode) *Forest {
	defer metrics.Timer(metrics.ForestBuild)()

	f := &Forest{
		nodes:    nodes,
		byID:     make(map[string]int, len(nodes)),
		children: make(map[string][]int),
	}
	for i, n := range nodes {
		f.byID[n.ID] = i
		key := parentKey(n)
		f.children[key] = append(f.children[key], i)
	}
	for i, n := range nodes {
		if n.ParentID == nil {
			f.topLevel = append(f.topLevel, i)
			continue
		}
		if _, ok := f.byID[*n.ParentID]; !ok {
			f.topLevel = append(f.topLevel, i)
		}
	}
	return f
}

func parentKey(n model.TaxonomyNode) string {
	if n.ParentID == nil {
		return rootKey
	}
	return *n.ParentID
}

// Len returns the number of input nodes, duplicates included.
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.nodes)
}

// Empty reports whether the forest has no nodes.
func (f *Forest) Empty() bool {
	return f.Len() == 0
}

// Nodes returns the input list in its original order.
func (f *Forest) Nodes() []model.TaxonomyNode {
	if f == nil {
		return nil
	}
	return f.nodes
}

// Node looks up a node by id.
func (f *Forest) Node(id string) (model.TaxonomyNode, bool) {
	if f == nil {
		return model.TaxonomyNode{}, false
	}
	i, ok := f.byID[id]
	if !ok {
		return model.TaxonomyNode{}, false
	}
	return f.nodes[i], true
}

// Has reports whether id is part of the forest.
func (f *Forest) Has(id string) bool {
	if f == nil {
		return false
	}
	_, ok := f.byID[id]
	return ok
}

// Roots returns the nodes with a nil parent, in input order.
func (f *Forest) Roots() []model.TaxonomyNode {
	if f == nil {
		return nil
	}
	return f.pick(f.children[rootKey])
}

// TopLevel returns the true roots and the orphans, in input order. This is
// what the tree renders at depth zero.
func (f *Forest) TopLevel() []model.TaxonomyNode {
	if f == nil {
		return nil
	}
	return f.pick(f.topLevel)
}

// Children returns the direct children of id, in input order.
func (f *Forest) Children(id string) []model.TaxonomyNode {
	if f == nil {
		return nil
	}
	return f.pick(f.children[id])
}

// HasChildren reports whether id has at least one child in the forest.
func (f *Forest) HasChildren(id string) bool {
	if f == nil {
		return false
	}
	return len(f.children[id]) > 0
}

// IsOrphan reports whether id references a parent that is not present.
func (f *Forest) IsOrphan(id string) bool {
	n, ok := f.Node(id)
	if !ok || n.ParentID == nil {
		return false
	}
	return !f.Has(*n.ParentID)
}

// MissingParents returns the distinct absent parent ids, in order of first
// reference.
func (f *Forest) MissingParents() []string {
	if f == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, i := range f.topLevel {
		n := f.nodes[i]
		if n.ParentID == nil || seen[*n.ParentID] {
			continue
		}
		seen[*n.ParentID] = true
		out = append(out, *n.ParentID)
	}
	return out
}

func (f *Forest) pick(idx []int) []model.TaxonomyNode {
	if len(idx) == 0 {
		return nil
	}
	out := make([]model.TaxonomyNode, len(idx))
	for j, i := range idx {
		out[j] = f.nodes[i]
	}
	return out
}

// WalkFunc is called for each visited node with its depth below the
// top level. Returning false skips the node's children.
type WalkFunc func(n model.TaxonomyNode, depth int) bool

// Walk visits the forest depth-first in pre-order, starting from TopLevel.
// Every input position is visited at most once, so malformed cyclic input
// cannot loop forever.
func (f *Forest) Walk(fn WalkFunc) {
	if f == nil {
		return
	}
	visited := make([]bool, len(f.nodes))
	var visit func(i, depth int)
	visit = func(i, depth int) {
		if visited[i] {
			return
		}
		visited[i] = true
		n := f.nodes[i]
		if !fn(n, depth) {
			return
		}
		for _, c := range f.children[n.ID] {
			visit(c, depth+1)
		}
	}
	for _, i := range f.topLevel {
		visit(i, 0)
	}
}

// Flatten returns every reachable node in Walk order.
func (f *Forest) Flatten() []model.TaxonomyNode {
	out := make([]model.TaxonomyNode, 0, f.Len())
	f.Walk(func(n model.TaxonomyNode, _ int) bool {
		out = append(out, n)
		return true
	})
	return out
}
