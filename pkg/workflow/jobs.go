package workflow

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/latest"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// Job performs one submission (URL set) or one lookup (ID set).
type Job struct {
	Ticket latest.Ticket
	URL    string
	ID     string

	model  string
	client Classifier
	issued context.Context
}

// Outcome is the result of a Job. Detail is nil whenever Err is set.
type Outcome struct {
	Ticket latest.Ticket
	Detail *model.ClassificationDetail
	Err    error
}

// Run submits the URL (if any) and then fetches the full record.
func (j *Job) Run(ctx context.Context) Outcome {
	ctx, cancel := latest.Join(ctx, j.issued)
	defer cancel()

	out := Outcome{Ticket: j.Ticket}
	id := j.ID
	if j.URL != "" {
		res, err := j.client.SubmitClassification(ctx, j.URL, j.model)
		if err != nil {
			out.Err = err
			return out
		}
		if res == nil || res.ID == "" {
			out.Err = fmt.Errorf("classification of %s returned no id", j.URL)
			return out
		}
		id = res.ID
	}
	d, err := j.client.GetClassification(ctx, id)
	if err != nil {
		out.Err = err
		return out
	}
	out.Detail = d
	return out
}

// HistoryJob lists stored classifications.
type HistoryJob struct {
	params api.ListClassificationsParams
	client Classifier
}

// HistoryResult is the outcome of a HistoryJob.
type HistoryResult struct {
	Items []model.ClassificationResult
	Err   error
}

// Run performs the listing.
func (j *HistoryJob) Run(ctx context.Context) HistoryResult {
	items, err := j.client.ListClassifications(ctx, j.params)
	return HistoryResult{Items: items, Err: err}
}
