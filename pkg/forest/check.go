package forest

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// ProblemKind classifies a data contract violation.
type ProblemKind string

const (
	DuplicateID   ProblemKind = "duplicate_id"
	LevelMismatch ProblemKind = "level_mismatch"
	SelfParent    ProblemKind = "self_parent"
	Cycle         ProblemKind = "cycle"
	Orphan        ProblemKind = "orphan"
)

// Problem is one diagnostic reported by Check.
type Problem struct {
	Kind    ProblemKind `json:"kind"`
	NodeIDs []string    `json:"node_ids"`
	Message string      `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Kind, p.Message)
}

// Check reports upstream violations of the node list contract. Orphans are
// only reported when strict is set, since search results legitimately
// contain them. Check is diagnostic; Build never calls it.
func Check(nodes []model.TaxonomyNode, strict bool) []Problem {
	var problems []Problem

	seen := make(map[string]int, len(nodes))
	for _, n := range nodes {
		seen[n.ID]++
	}
	var dups []string
	for id, c := range seen {
		if c > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	for _, id := range dups {
		problems = append(problems, Problem{
			Kind:    DuplicateID,
			NodeIDs: []string{id},
			Message: fmt.Sprintf("id %s appears %d times", id, seen[id]),
		})
	}

	f := Build(nodes)
	for _, n := range nodes {
		if n.ParentID == nil {
			if n.Level != 1 {
				problems = append(problems, Problem{
					Kind:    LevelMismatch,
					NodeIDs: []string{n.ID},
					Message: fmt.Sprintf("root %s has level %d, want 1", n.ID, n.Level),
				})
			}
			continue
		}
		pid := *n.ParentID
		if pid == n.ID {
			problems = append(problems, Problem{
				Kind:    SelfParent,
				NodeIDs: []string{n.ID},
				Message: fmt.Sprintf("node %s is its own parent", n.ID),
			})
			continue
		}
		parent, ok := f.Node(pid)
		if !ok {
			if strict {
				problems = append(problems, Problem{
					Kind:    Orphan,
					NodeIDs: []string{n.ID},
					Message: fmt.Sprintf("node %s references missing parent %s", n.ID, pid),
				})
			}
			continue
		}
		if n.Level != parent.Level+1 {
			problems = append(problems, Problem{
				Kind:    LevelMismatch,
				NodeIDs: []string{n.ID, pid},
				Message: fmt.Sprintf("node %s has level %d under %s at level %d", n.ID, n.Level, pid, parent.Level),
			})
		}
	}

	problems = append(problems, cycles(nodes)...)
	return problems
}

// cycles finds parent loops by topologically sorting the parent->child
// graph and reporting each strongly connected component with more than one
// member.
func cycles(nodes []model.TaxonomyNode) []Problem {
	g := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(nodes))
	names := make(map[int64]string, len(nodes))
	for _, n := range nodes {
		if _, ok := ids[n.ID]; ok {
			continue
		}
		gn := g.NewNode()
		g.AddNode(gn)
		ids[n.ID] = gn.ID()
		names[gn.ID()] = n.ID
	}
	for _, n := range nodes {
		if n.ParentID == nil || *n.ParentID == n.ID {
			continue
		}
		from, ok := ids[*n.ParentID]
		if !ok {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(from), g.Node(ids[n.ID])))
	}

	if _, err := topo.Sort(g); err == nil {
		return nil
	}

	var problems []Problem
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		members := memberIDs(scc, names)
		problems = append(problems, Problem{
			Kind:    Cycle,
			NodeIDs: members,
			Message: "parent cycle through " + strings.Join(members, " -> "),
		})
	}
	sort.Slice(problems, func(i, j int) bool {
		return problems[i].NodeIDs[0] < problems[j].NodeIDs[0]
	})
	return problems
}

func memberIDs(scc []graph.Node, names map[int64]string) []string {
	out := make([]string, 0, len(scc))
	for _, n := range scc {
		out = append(out, names[n.ID()])
	}
	sort.Strings(out)
	return out
}
