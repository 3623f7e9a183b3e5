// Package workflow drives the "classify a URL" flow: submit, then fetch the
// full record with its pipeline steps, and expose the outcome to the view.
//
// Every submission supersedes the previous one; late completions of older
// submissions are dropped. A failure at any stage leaves no partial record
// behind.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/debug"
	"github.com/vanderheijden86/sortinghat/pkg/latest"
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// Status is the lifecycle state of the current submission.
type Status int

const (
	Idle Status = iota
	Submitting
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Classifier is the subset of the API client the controller needs.
type Classifier interface {
	SubmitClassification(ctx context.Context, url, modelName string) (*model.ClassificationResult, error)
	GetClassification(ctx context.Context, id string) (*model.ClassificationDetail, error)
	ListClassifications(ctx context.Context, p api.ListClassificationsParams) ([]model.ClassificationResult, error)
}

// Controller is not safe for concurrent use; jobs run elsewhere and report
// back through Complete.
type Controller struct {
	client Classifier
	model  string

	status    Status
	url       string
	result    *model.ClassificationDetail
	err       error
	showSteps bool

	runs    latest.Guard
	history []model.ClassificationResult
	histErr error
}

// New creates a Controller. modelName is passed with each submission; ""
// lets the backend choose.
func New(client Classifier, modelName string) *Controller {
	return &Controller{client: client, model: modelName}
}

// SetModel changes the model override for later submissions.
func (c *Controller) SetModel(name string) { c.model = strings.TrimSpace(name) }

// Model returns the model override.
func (c *Controller) Model() string { return c.model }

// Status returns the lifecycle state.
func (c *Controller) Status() Status { return c.status }

// URL returns the URL of the current submission.
func (c *Controller) URL() string { return c.url }

// Result returns the full record once Ready, else nil.
func (c *Controller) Result() *model.ClassificationDetail { return c.result }

// Err returns the failure of the current submission.
func (c *Controller) Err() error { return c.err }

// ShowSteps reports whether the pipeline steps are expanded.
func (c *Controller) ShowSteps() bool { return c.showSteps }

// ToggleSteps flips the pipeline step visibility.
func (c *Controller) ToggleSteps() { c.showSteps = !c.showSteps }

// Submit starts a new classification for rawURL. A blank URL fails
// immediately and returns nil.
func (c *Controller) Submit(rawURL string) *Job {
	u := strings.TrimSpace(rawURL)
	c.result = nil
	c.showSteps = false
	if u == "" {
		c.runs.Cancel()
		c.status = Failed
		c.url = ""
		c.err = &ValidationError{Field: "url", Message: "URL is required"}
		return nil
	}
	tk, ctx := c.runs.Begin(context.Background())
	c.status = Submitting
	c.url = u
	c.err = nil
	debug.Log("workflow: submit %d %s", tk, u)
	return &Job{Ticket: tk, URL: u, model: c.model, client: c.client, issued: ctx}
}

// Open loads a stored classification by id, as if it had just been
// submitted.
func (c *Controller) Open(id string) *Job {
	tk, ctx := c.runs.Begin(context.Background())
	c.status = Submitting
	c.result = nil
	c.err = nil
	c.showSteps = false
	c.url = ""
	for _, h := range c.history {
		if h.ID == id {
			c.url = h.URL
			break
		}
	}
	return &Job{Ticket: tk, ID: id, client: c.client, issued: ctx}
}

// Complete applies a finished job. Stale outcomes are dropped and reported
// as false.
func (c *Controller) Complete(o Outcome) bool {
	if !c.runs.IsCurrent(o.Ticket) {
		metrics.RecordStale("classify")
		debug.Log("workflow: drop stale outcome %d", o.Ticket)
		return false
	}
	c.runs.Finish(o.Ticket)
	if o.Err != nil {
		c.status = Failed
		c.result = nil
		c.err = o.Err
		return true
	}
	c.status = Ready
	c.result = o.Detail
	c.err = nil
	if o.Detail != nil && c.url == "" {
		c.url = o.Detail.URL
	}
	c.remember(o.Detail)
	return true
}

// Reset returns to Idle and abandons any in-flight submission.
func (c *Controller) Reset() {
	c.runs.Cancel()
	c.status = Idle
	c.url = ""
	c.result = nil
	c.err = nil
	c.showSteps = false
}

func (c *Controller) remember(d *model.ClassificationDetail) {
	if d == nil {
		return
	}
	for _, h := range c.history {
		if h.ID == d.ID {
			return
		}
	}
	c.history = append([]model.ClassificationResult{d.ClassificationResult}, c.history...)
}

// History returns the recent classifications, newest first.
func (c *Controller) History() []model.ClassificationResult { return c.history }

// HistoryErr returns the error of the last history load.
func (c *Controller) HistoryErr() error { return c.histErr }

// LoadHistory returns a job listing recent classifications.
func (c *Controller) LoadHistory(p api.ListClassificationsParams) *HistoryJob {
	return &HistoryJob{params: p, client: c.client}
}

// CompleteHistory stores a finished history listing.
func (c *Controller) CompleteHistory(res HistoryResult) {
	if res.Err != nil {
		c.histErr = res.Err
		return
	}
	c.histErr = nil
	c.history = res.Items
}
