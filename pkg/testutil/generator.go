// Package testutil builds deterministic taxonomy fixtures for tests and
// benchmarks.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// GeneratorConfig controls the shape of generated nodes.
type GeneratorConfig struct {
	Seed        int64
	Branch      model.Branch
	GroupIDs    []string // assigned round-robin to roots; children inherit
	Definitions bool     // fill Definition and the inclusion fields
}

// DefaultConfig returns a software-branch config with a fixed seed.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42,
		Branch:   model.BranchSoftware,
		GroupIDs: []string{"g-apps", "g-data"},
	}
}

// Generator produces taxonomy node slices. IDs are stable for a given call
// sequence, so tests can refer to them by name.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Branch == "" {
		cfg.Branch = model.BranchSoftware
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) group(root int) string {
	if len(g.cfg.GroupIDs) == 0 {
		return ""
	}
	return g.cfg.GroupIDs[root%len(g.cfg.GroupIDs)]
}

// node creates one node under parent (nil for a root).
func (g *Generator) node(parent *model.TaxonomyNode, sort int) model.TaxonomyNode {
	id := fmt.Sprintf("n%d", g.next)
	g.next++
	name := fmt.Sprintf("Node %s", strings.TrimPrefix(id, "n"))
	n := model.TaxonomyNode{
		ID:        id,
		Name:      name,
		Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Level:     1,
		Branch:    g.cfg.Branch,
		Path:      "/" + name,
		SortOrder: sort,
	}
	if parent != nil {
		n.ParentID = model.StringPtr(parent.ID)
		n.Level = parent.Level + 1
		n.Path = parent.Path + "/" + name
		n.GovernanceGroupID = parent.GovernanceGroupID
	} else {
		n.GovernanceGroupID = g.group(sort)
	}
	if g.cfg.Definitions {
		n.Definition = fmt.Sprintf("Everything filed under %s.", name)
		n.Inclusions = name + " tooling"
		n.Exclusions = "Anything outside " + name
	}
	return n
}

// Chain creates a single path root -> ... of the given depth.
func (g *Generator) Chain(depth int) []model.TaxonomyNode {
	out := make([]model.TaxonomyNode, 0, depth)
	for i := 0; i < depth; i++ {
		var parent *model.TaxonomyNode
		if i > 0 {
			parent = &out[i-1]
		}
		out = append(out, g.node(parent, 0))
	}
	return out
}

// Flat creates n roots with no children.
func (g *Generator) Flat(n int) []model.TaxonomyNode {
	out := make([]model.TaxonomyNode, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.node(nil, i))
	}
	return out
}

// Tree creates roots full trees of the given depth where every interior
// node has breadth children. Nodes are emitted parent-first.
func (g *Generator) Tree(roots, depth, breadth int) []model.TaxonomyNode {
	var out []model.TaxonomyNode
	var grow func(parent model.TaxonomyNode, remaining int)
	grow = func(parent model.TaxonomyNode, remaining int) {
		if remaining == 0 {
			return
		}
		for i := 0; i < breadth; i++ {
			child := g.node(&parent, i)
			out = append(out, child)
			grow(child, remaining-1)
		}
	}
	for r := 0; r < roots; r++ {
		root := g.node(nil, r)
		out = append(out, root)
		grow(root, depth-1)
	}
	return out
}

// Random creates size nodes where each non-first node picks a random
// earlier node as parent with probability attach, and is a root otherwise.
func (g *Generator) Random(size int, attach float64) []model.TaxonomyNode {
	out := make([]model.TaxonomyNode, 0, size)
	roots := 0
	for i := 0; i < size; i++ {
		if i == 0 || g.rng.Float64() >= attach {
			out = append(out, g.node(nil, roots))
			roots++
			continue
		}
		p := out[g.rng.Intn(len(out))]
		out = append(out, g.node(&p, i))
	}
	return out
}

// Orphans creates n nodes at the given level whose parents are not part of
// any generated set, the shape search results take.
func (g *Generator) Orphans(n, level int) []model.TaxonomyNode {
	if level < 2 {
		level = 2
	}
	out := make([]model.TaxonomyNode, 0, n)
	for i := 0; i < n; i++ {
		ghost := model.TaxonomyNode{
			ID:    fmt.Sprintf("missing-%d", i),
			Level: level - 1,
			Path:  fmt.Sprintf("/Missing %d", i),
		}
		out = append(out, g.node(&ghost, i))
	}
	return out
}

// Shuffle returns a copy of nodes in random order.
func (g *Generator) Shuffle(nodes []model.TaxonomyNode) []model.TaxonomyNode {
	out := append([]model.TaxonomyNode(nil), nodes...)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// QuickTree is Tree on a fresh default generator.
func QuickTree(roots, depth, breadth int) []model.TaxonomyNode {
	return NewDefault().Tree(roots, depth, breadth)
}

// QuickChain is Chain on a fresh default generator.
func QuickChain(depth int) []model.TaxonomyNode {
	return NewDefault().Chain(depth)
}

// QuickRandom is Random on a fresh default generator.
func QuickRandom(size int, attach float64) []model.TaxonomyNode {
	return NewDefault().Random(size, attach)
}

// TreeSize is the node count Tree(roots, depth, breadth) produces.
func TreeSize(roots, depth, breadth int) int {
	per, layer := 0, 1
	for d := 0; d < depth; d++ {
		per += layer
		layer *= breadth
	}
	return roots * per
}
