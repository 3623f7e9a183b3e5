package browse

import (
	"context"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/expansion"
	"github.com/vanderheijden86/sortinghat/pkg/latest"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// QueryJob fetches one result set. Run may be called from any goroutine.
type QueryJob struct {
	Ticket latest.Ticket
	Mode   expansion.Mode

	repo   Repository
	issued context.Context
}

// QueryResult is the outcome of a QueryJob.
type QueryResult struct {
	Ticket latest.Ticket
	Mode   expansion.Mode
	Nodes  []model.TaxonomyNode
	Err    error
}

// Run performs the request. It is cancelled when ctx is done or a newer
// query is issued.
func (j *QueryJob) Run(ctx context.Context) QueryResult {
	ctx, cancel := latest.Join(ctx, j.issued)
	defer cancel()

	res := QueryResult{Ticket: j.Ticket, Mode: j.Mode}
	if j.Mode.Search() {
		res.Nodes, res.Err = j.repo.SearchNodes(ctx, j.Mode.Query)
	} else {
		res.Nodes, res.Err = j.repo.ListNodes(ctx, api.ListNodesParams{
			Branch:          j.Mode.Branch,
			GovernanceGroup: j.Mode.Group,
		})
	}
	return res
}

// DetailJob fetches one node detail.
type DetailJob struct {
	Ticket latest.Ticket
	ID     string

	repo   Repository
	issued context.Context
}

// DetailResult is the outcome of a DetailJob.
type DetailResult struct {
	Ticket latest.Ticket
	ID     string
	Detail *model.TaxonomyNodeDetail
	Err    error
}

// Run performs the request.
func (j *DetailJob) Run(ctx context.Context) DetailResult {
	ctx, cancel := latest.Join(ctx, j.issued)
	defer cancel()

	d, err := j.repo.GetNode(ctx, j.ID)
	return DetailResult{Ticket: j.Ticket, ID: j.ID, Detail: d, Err: err}
}

// GroupsJob fetches the governance groups.
type GroupsJob struct {
	repo Repository
}

// GroupsResult is the outcome of a GroupsJob.
type GroupsResult struct {
	Groups []model.GovernanceGroup
	Err    error
}

// Run performs the request.
func (j *GroupsJob) Run(ctx context.Context) GroupsResult {
	g, err := j.repo.ListGroups(ctx)
	return GroupsResult{Groups: g, Err: err}
}
