// Package model defines the records exchanged with the sorting hat backend.
package model

import (
	"fmt"
	"strings"
)

// Branch is the top-level taxonomy partition.
type Branch string

const (
	BranchSoftware Branch = "software"
	BranchHardware Branch = "hardware"
)

// Branches lists every branch in display order.
var Branches = []Branch{BranchSoftware, BranchHardware}

// ParseBranch validates a user-supplied branch name.
func ParseBranch(s string) (Branch, error) {
	switch Branch(strings.ToLower(strings.TrimSpace(s))) {
	case BranchSoftware:
		return BranchSoftware, nil
	case BranchHardware:
		return BranchHardware, nil
	default:
		return "", fmt.Errorf("invalid branch %q (want software or hardware)", s)
	}
}

// Next returns the other branch. Used by the TUI tab toggle.
func (b Branch) Next() Branch {
	if b == BranchSoftware {
		return BranchHardware
	}
	return BranchSoftware
}

// Title returns the branch name capitalised for tab labels.
func (b Branch) Title() string {
	if b == "" {
		return ""
	}
	return strings.ToUpper(string(b[:1])) + string(b[1:])
}

// GovernanceGroup owns a slice of the taxonomy.
type GovernanceGroup struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	CoversSoftware bool   `json:"covers_software"`
	CoversHardware bool   `json:"covers_hardware"`
	SortOrder      int    `json:"sort_order"`
}

// Covers reports whether the group owns nodes in the given branch.
func (g GovernanceGroup) Covers(b Branch) bool {
	switch b {
	case BranchSoftware:
		return g.CoversSoftware
	case BranchHardware:
		return g.CoversHardware
	}
	return false
}

// TaxonomyNode is one node as returned by the flat listing and search
// endpoints. ParentID is nil for roots.
type TaxonomyNode struct {
	ID                            string  `json:"id"`
	GovernanceGroupID             string  `json:"governance_group_id"`
	ParentID                      *string `json:"parent_id"`
	Path                          string  `json:"path"`
	Name                          string  `json:"name"`
	Slug                          string  `json:"slug"`
	Level                         int     `json:"level"`
	Branch                        Branch  `json:"branch"`
	Definition                    string  `json:"definition"`
	DistinguishingCharacteristics string  `json:"distinguishing_characteristics"`
	Inclusions                    string  `json:"inclusions"`
	Exclusions                    string  `json:"exclusions"`
	SortOrder                     int     `json:"sort_order"`
}

// IsRoot reports whether the node has no parent reference at all.
func (n TaxonomyNode) IsRoot() bool {
	return n.ParentID == nil
}

// Parent returns the parent id, or "" for roots.
func (n TaxonomyNode) Parent() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// TaxonomyNodeDetail is a node with its direct children and its ancestors,
// ordered root-first.
type TaxonomyNodeDetail struct {
	TaxonomyNode
	Children    []TaxonomyNode `json:"children"`
	ParentChain []TaxonomyNode `json:"parent_chain"`
}

// Breadcrumb joins the ancestor names with " > ".
func (d TaxonomyNodeDetail) Breadcrumb() string {
	names := make([]string, 0, len(d.ParentChain))
	for _, p := range d.ParentChain {
		names = append(names, p.Name)
	}
	return strings.Join(names, " > ")
}

// StringPtr is a small helper for building nodes in tests and fixtures.
func StringPtr(s string) *string {
	return &s
}
