// Package browse orchestrates taxonomy queries for one tree view: which
// request to issue for the current branch, group and search text, and how
// to fold completions back into the forest and expansion state.
//
// Browser is not safe for concurrent use. The TUI drives it from its
// Update loop; jobs run elsewhere and come back through Complete*.
package browse

import (
	"context"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/debug"
	"github.com/vanderheijden86/sortinghat/pkg/expansion"
	"github.com/vanderheijden86/sortinghat/pkg/forest"
	"github.com/vanderheijden86/sortinghat/pkg/latest"
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// Repository is the subset of the API client the browser needs.
type Repository interface {
	ListGroups(ctx context.Context) ([]model.GovernanceGroup, error)
	ListNodes(ctx context.Context, p api.ListNodesParams) ([]model.TaxonomyNode, error)
	SearchNodes(ctx context.Context, query string) ([]model.TaxonomyNode, error)
	GetNode(ctx context.Context, id string) (*model.TaxonomyNodeDetail, error)
}

// Browser holds the state behind the taxonomy tree and detail pane.
type Browser struct {
	repo Repository

	branch model.Branch
	group  string
	query  string

	issued  string // request key of the newest query job
	modeKey string // mode key of the newest query job
	reseed  bool   // mode changed since the expansion map was last seeded
	shown   expansion.Mode

	forest  *forest.Forest
	state   expansion.State
	loading bool
	err     error

	queries latest.Guard
	details latest.Guard

	detail        *model.TaxonomyNodeDetail
	detailLoading bool
	detailErr     error

	groups []model.GovernanceGroup
}

// New creates a Browser on the given branch. No request is issued until
// Refresh or one of the setters is called.
func New(repo Repository, branch model.Branch) *Browser {
	if branch == "" {
		branch = model.BranchSoftware
	}
	return &Browser{
		repo:   repo,
		branch: branch,
		forest: forest.Build(nil),
	}
}

// Mode returns the mode implied by the current inputs.
func (b *Browser) Mode() expansion.Mode {
	m := expansion.Mode{Branch: b.branch, Query: b.query}
	if !m.Search() {
		m.Group = b.group
	}
	return m
}

func requestKey(m expansion.Mode) string {
	if m.Search() {
		return "q:" + m.Query
	}
	return m.Key()
}

// Branch returns the selected branch.
func (b *Browser) Branch() model.Branch { return b.branch }

// Group returns the governance group filter slug, or "".
func (b *Browser) Group() string { return b.group }

// Query returns the raw search text.
func (b *Browser) Query() string { return b.query }

// Searching reports whether the current inputs select search mode.
func (b *Browser) Searching() bool { return b.Mode().Search() }

// Forest returns the forest of the last applied result set.
func (b *Browser) Forest() *forest.Forest { return b.forest }

// State exposes the expansion state for rendering.
func (b *Browser) State() *expansion.State { return &b.state }

// Rows returns the visible tree rows.
func (b *Browser) Rows() []expansion.Row { return b.state.Visible(b.forest) }

// Loading reports whether a query is in flight.
func (b *Browser) Loading() bool { return b.loading }

// Err returns the error of the last applied query.
func (b *Browser) Err() error { return b.err }

// Detail returns the last successfully loaded node detail.
func (b *Browser) Detail() *model.TaxonomyNodeDetail { return b.detail }

// DetailLoading reports whether a detail request is in flight.
func (b *Browser) DetailLoading() bool { return b.detailLoading }

// DetailErr returns the error of the last applied detail request.
func (b *Browser) DetailErr() error { return b.detailErr }

// Groups returns the loaded governance groups.
func (b *Browser) Groups() []model.GovernanceGroup { return b.groups }

// SetBranch switches branch. A group that does not cover the new branch is
// dropped. Returns nil if the effective request did not change.
func (b *Browser) SetBranch(branch model.Branch) *QueryJob {
	if branch == b.branch {
		return nil
	}
	b.branch = branch
	if b.group != "" && !b.groupCovers(b.group, branch) {
		b.group = ""
	}
	return b.maybeIssue()
}

// SetQuery updates the search text. Returns nil if the effective request
// did not change (e.g. typing the first character while browsing).
func (b *Browser) SetQuery(q string) *QueryJob {
	if q == b.query {
		return nil
	}
	b.query = q
	return b.maybeIssue()
}

// SetGroup sets the governance group filter; "" removes it.
func (b *Browser) SetGroup(slug string) *QueryJob {
	if slug == b.group {
		return nil
	}
	b.group = slug
	return b.maybeIssue()
}

// CycleGroup moves the filter to the next group covering the current
// branch, wrapping through "no filter".
func (b *Browser) CycleGroup() *QueryJob {
	candidates := b.GroupsFor(b.branch)
	if len(candidates) == 0 {
		return b.SetGroup("")
	}
	next := candidates[0].Slug
	for i, g := range candidates {
		if g.Slug == b.group {
			if i+1 < len(candidates) {
				next = candidates[i+1].Slug
			} else {
				next = ""
			}
			break
		}
	}
	return b.SetGroup(next)
}

// GroupName returns the display name of the active group filter.
func (b *Browser) GroupName() string {
	for _, g := range b.groups {
		if g.Slug == b.group {
			return g.Name
		}
	}
	return b.group
}

// GroupsFor returns the groups that cover branch, in load order.
func (b *Browser) GroupsFor(branch model.Branch) []model.GovernanceGroup {
	var out []model.GovernanceGroup
	for _, g := range b.groups {
		if g.Covers(branch) {
			out = append(out, g)
		}
	}
	return out
}

func (b *Browser) groupCovers(slug string, branch model.Branch) bool {
	for _, g := range b.groups {
		if g.Slug == slug {
			return g.Covers(branch)
		}
	}
	// unknown until groups load; keep the filter
	return true
}

// Refresh issues the current request unconditionally.
func (b *Browser) Refresh() *QueryJob {
	return b.issue(b.Mode())
}

func (b *Browser) maybeIssue() *QueryJob {
	m := b.Mode()
	if requestKey(m) == b.issued {
		return nil
	}
	return b.issue(m)
}

func (b *Browser) issue(m expansion.Mode) *QueryJob {
	tk, ctx := b.queries.Begin(context.Background())
	b.issued = requestKey(m)
	if m.Key() != b.modeKey {
		b.modeKey = m.Key()
		b.reseed = true
	}
	b.loading = true
	debug.Log("browse: issue query %d (%s)", tk, b.issued)
	return &QueryJob{Ticket: tk, Mode: m, repo: b.repo, issued: ctx}
}

// CompleteQuery applies a finished query. Stale results are dropped and
// reported as false.
func (b *Browser) CompleteQuery(res QueryResult) bool {
	if !b.queries.IsCurrent(res.Ticket) {
		metrics.RecordStale("query")
		debug.Log("browse: drop stale query %d", res.Ticket)
		return false
	}
	b.queries.Finish(res.Ticket)
	b.loading = false

	if res.Err != nil {
		b.err = res.Err
		b.forest = forest.Build(nil)
		b.shown = res.Mode
		return true
	}

	b.err = nil
	debug.LogIf(len(res.Nodes) == 0, "browse: %s returned no nodes", res.Mode.Key())
	b.forest = forest.Build(res.Nodes)
	// A mode change reseeds even when an intermediate result was dropped
	// and the applied mode key matches the old one.
	if b.reseed {
		b.state.Reseed(res.Mode, b.forest)
		b.reseed = false
		debug.Log("browse: reseeded expansion for %s", res.Mode.Key())
	} else if b.state.Seed(res.Mode, b.forest) {
		debug.Log("browse: reseeded expansion for %s", res.Mode.Key())
	}
	b.shown = res.Mode
	return true
}

// Shown returns the mode of the result set currently displayed.
func (b *Browser) Shown() expansion.Mode { return b.shown }

// Select moves the selection without changing expansion and loads the
// node's detail.
func (b *Browser) Select(id string) *DetailJob {
	if id == "" {
		return nil
	}
	b.state.Select(id)
	return b.issueDetail(id)
}

// Activate selects id, toggles its expansion when it has children, and
// loads its detail.
func (b *Browser) Activate(id string) *DetailJob {
	if id == "" {
		return nil
	}
	b.state.Activate(b.forest, id)
	return b.issueDetail(id)
}

// Toggle flips expansion of id without changing the selection or issuing
// a request. Leaves are ignored.
func (b *Browser) Toggle(id string) {
	if !b.forest.HasChildren(id) {
		return
	}
	b.state.SetExpanded(id, !b.state.IsExpanded(id))
}

func (b *Browser) issueDetail(id string) *DetailJob {
	if b.detail != nil && b.detail.ID == id && !b.detailLoading && b.detailErr == nil {
		// already showing it; invalidate any older in-flight request
		b.details.Cancel()
		return nil
	}
	tk, ctx := b.details.Begin(context.Background())
	b.detailLoading = true
	return &DetailJob{Ticket: tk, ID: id, repo: b.repo, issued: ctx}
}

// CompleteDetail applies a finished detail request. Stale results are
// dropped and reported as false.
func (b *Browser) CompleteDetail(res DetailResult) bool {
	if !b.details.IsCurrent(res.Ticket) {
		metrics.RecordStale("detail")
		debug.Log("browse: drop stale detail %d (%s)", res.Ticket, res.ID)
		return false
	}
	b.details.Finish(res.Ticket)
	b.detailLoading = false
	if res.Err != nil {
		b.detailErr = res.Err
		b.detail = nil
		return true
	}
	b.detailErr = nil
	b.detail = res.Detail
	return true
}

// LoadGroups returns a job fetching the governance groups.
func (b *Browser) LoadGroups() *GroupsJob {
	return &GroupsJob{repo: b.repo}
}

// CompleteGroups stores the loaded groups. Errors are logged and otherwise
// ignored; group filtering is optional.
func (b *Browser) CompleteGroups(res GroupsResult) {
	if res.Err != nil {
		debug.Warn("browse: loading governance groups: %v", res.Err)
		return
	}
	b.groups = res.Groups
}
