package testutil

import (
	"testing"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// AssertNodeCount verifies the expected number of nodes.
func AssertNodeCount(t *testing.T, nodes []model.TaxonomyNode, expected int) {
	t.Helper()
	if len(nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(nodes))
	}
}

// AssertNoDuplicateIDs verifies all node IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, nodes []model.TaxonomyNode) {
	t.Helper()
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertLevels verifies roots sit at level 1 and each child is one level
// below a parent present in the set. Children of absent parents are skipped.
func AssertLevels(t *testing.T, nodes []model.TaxonomyNode) {
	t.Helper()
	byID := IndexByID(nodes)
	for _, n := range nodes {
		if n.IsRoot() {
			if n.Level != 1 {
				t.Errorf("root %s at level %d", n.ID, n.Level)
			}
			continue
		}
		if p, ok := byID[n.Parent()]; ok && n.Level != p.Level+1 {
			t.Errorf("%s at level %d under %s at level %d", n.ID, n.Level, p.ID, p.Level)
		}
	}
}

// AssertParentsFirst verifies every parent in the set appears before its
// children.
func AssertParentsFirst(t *testing.T, nodes []model.TaxonomyNode) {
	t.Helper()
	pos := make(map[string]int, len(nodes))
	for i, n := range nodes {
		pos[n.ID] = i
	}
	for i, n := range nodes {
		if p, ok := pos[n.Parent()]; ok && p > i {
			t.Errorf("parent %s at %d after child %s at %d", n.Parent(), p, n.ID, i)
		}
	}
}

// IndexByID maps node IDs to nodes. Later duplicates win.
func IndexByID(nodes []model.TaxonomyNode) map[string]model.TaxonomyNode {
	m := make(map[string]model.TaxonomyNode, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

// IDs returns node IDs in order.
func IDs(nodes []model.TaxonomyNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// CountByLevel tallies nodes per level.
func CountByLevel(nodes []model.TaxonomyNode) map[int]int {
	m := make(map[int]int)
	for _, n := range nodes {
		m[n.Level]++
	}
	return m
}
