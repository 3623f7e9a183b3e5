package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

type fakeClassifier struct {
	submits   atomic.Int32
	gets      atomic.Int32
	lastModel string

	submitErr error
	getErr    error
	items     []model.ClassificationResult
}

func (f *fakeClassifier) SubmitClassification(ctx context.Context, url, modelName string) (*model.ClassificationResult, error) {
	f.submits.Add(1)
	f.lastModel = modelName
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &model.ClassificationResult{ID: "id-" + url, URL: url}, nil
}

func (f *fakeClassifier) GetClassification(ctx context.Context, id string) (*model.ClassificationDetail, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.ClassificationDetail{
		ClassificationResult: model.ClassificationResult{ID: id, URL: id[len("id-"):]},
		Steps: []model.PipelineStep{
			{ID: "s1", StepType: model.StepScrape},
			{ID: "s2", StepType: model.StepSummarize},
			{ID: "s3", StepType: model.StepClassify},
		},
	}, nil
}

func (f *fakeClassifier) ListClassifications(ctx context.Context, p api.ListClassificationsParams) ([]model.ClassificationResult, error) {
	return f.items, nil
}

func TestEmptyURLMakesNoCall(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		fc := &fakeClassifier{}
		c := New(fc, "")
		if j := c.Submit(in); j != nil {
			t.Fatalf("Submit(%q) returned a job", in)
		}
		if c.Status() != Failed {
			t.Errorf("Status = %v, want failed", c.Status())
		}
		var ve *ValidationError
		if !errors.As(c.Err(), &ve) {
			t.Errorf("Err = %v, want *ValidationError", c.Err())
		}
		if fc.submits.Load() != 0 || fc.gets.Load() != 0 {
			t.Error("validation failure must not reach the network")
		}
	}
}

func TestSubmitThenReady(t *testing.T) {
	fc := &fakeClassifier{}
	c := New(fc, "")
	j := c.Submit("  https://example.com  ")
	if c.Status() != Submitting {
		t.Fatalf("Status = %v, want submitting", c.Status())
	}
	if j.URL != "https://example.com" {
		t.Errorf("URL not trimmed: %q", j.URL)
	}
	if !c.Complete(j.Run(context.Background())) {
		t.Fatal("current outcome dropped")
	}
	if c.Status() != Ready || c.Result() == nil || len(c.Result().Steps) != 3 {
		t.Fatalf("unexpected state %v %+v", c.Status(), c.Result())
	}
	if fc.submits.Load() != 1 || fc.gets.Load() != 1 {
		t.Errorf("calls submit=%d get=%d", fc.submits.Load(), fc.gets.Load())
	}
	if len(c.History()) != 1 || c.History()[0].URL != "https://example.com" {
		t.Errorf("history = %+v", c.History())
	}
}

func TestFailedDetailShowsNoPartialRecord(t *testing.T) {
	fc := &fakeClassifier{getErr: &api.TransportError{StatusCode: 500, StatusText: "Internal Server Error"}}
	c := New(fc, "")
	c.Complete(c.Submit("https://example.com").Run(context.Background()))

	if c.Status() != Failed {
		t.Fatalf("Status = %v, want failed", c.Status())
	}
	if c.Result() != nil {
		t.Error("no partial record may be exposed")
	}
	if c.Err().Error() != "API error: 500 Internal Server Error" {
		t.Errorf("Err = %q", c.Err())
	}
	if len(c.History()) != 0 {
		t.Error("failed runs are not remembered")
	}
}

func TestSubmitErrorSkipsDetail(t *testing.T) {
	fc := &fakeClassifier{submitErr: errors.New("dial tcp: refused")}
	c := New(fc, "")
	c.Complete(c.Submit("https://example.com").Run(context.Background()))
	if c.Status() != Failed || fc.gets.Load() != 0 {
		t.Errorf("status=%v gets=%d", c.Status(), fc.gets.Load())
	}
}

func TestStaleSubmissionDiscarded(t *testing.T) {
	fc := &fakeClassifier{}
	c := New(fc, "")
	first := c.Submit("https://one.example")
	second := c.Submit("https://two.example")

	o2 := second.Run(context.Background())
	o1 := first.Run(context.Background())
	if !c.Complete(o2) {
		t.Fatal("newest outcome dropped")
	}
	if c.Complete(o1) {
		t.Fatal("stale outcome applied")
	}
	if c.Result().URL != "https://two.example" {
		t.Errorf("result URL = %q", c.Result().URL)
	}
}

func TestNewSubmissionClearsPrevious(t *testing.T) {
	fc := &fakeClassifier{}
	c := New(fc, "")
	c.Complete(c.Submit("https://one.example").Run(context.Background()))
	c.ToggleSteps()
	if !c.ShowSteps() {
		t.Fatal("ToggleSteps should expand")
	}

	c.Submit("https://two.example")
	if c.Result() != nil || c.Err() != nil {
		t.Error("prior result and error must clear on submit")
	}
	if c.ShowSteps() {
		t.Error("steps collapse on a new submission")
	}
}

func TestShowStepsDefault(t *testing.T) {
	c := New(&fakeClassifier{}, "")
	if c.ShowSteps() {
		t.Error("steps should start collapsed")
	}
	c.ToggleSteps()
	c.ToggleSteps()
	if c.ShowSteps() {
		t.Error("double toggle should collapse again")
	}
}

func TestModelOverride(t *testing.T) {
	fc := &fakeClassifier{}
	c := New(fc, "gpt-4o-mini")
	c.Complete(c.Submit("https://example.com").Run(context.Background()))
	if fc.lastModel != "gpt-4o-mini" {
		t.Errorf("model = %q", fc.lastModel)
	}
	c.SetModel(" ")
	c.Complete(c.Submit("https://example.com").Run(context.Background()))
	if fc.lastModel != "" {
		t.Errorf("blank override should be empty, got %q", fc.lastModel)
	}
}

func TestOpenFetchesDetailOnly(t *testing.T) {
	fc := &fakeClassifier{items: []model.ClassificationResult{{ID: "id-https://old.example", URL: "https://old.example"}}}
	c := New(fc, "")
	c.CompleteHistory(c.LoadHistory(api.ListClassificationsParams{Limit: 10}).Run(context.Background()))
	if len(c.History()) != 1 {
		t.Fatalf("history = %+v", c.History())
	}

	j := c.Open("id-https://old.example")
	if c.URL() != "https://old.example" {
		t.Errorf("URL = %q", c.URL())
	}
	c.Complete(j.Run(context.Background()))
	if fc.submits.Load() != 0 || fc.gets.Load() != 1 {
		t.Errorf("submit=%d get=%d", fc.submits.Load(), fc.gets.Load())
	}
	if c.Status() != Ready {
		t.Errorf("Status = %v", c.Status())
	}
	if len(c.History()) != 1 {
		t.Error("reopening should not duplicate history")
	}
}

func TestResetAbandonsInFlight(t *testing.T) {
	c := New(&fakeClassifier{}, "")
	j := c.Submit("https://example.com")
	c.Reset()
	if c.Complete(j.Run(context.Background())) {
		t.Error("outcome after Reset should be stale")
	}
	if c.Status() != Idle {
		t.Errorf("Status = %v", c.Status())
	}
}

func TestEmptySubmitSupersedesInFlight(t *testing.T) {
	c := New(&fakeClassifier{}, "")
	j := c.Submit("https://example.com")
	c.Submit("")
	if c.Complete(j.Run(context.Background())) {
		t.Error("validation failure should supersede the earlier run")
	}
	if c.Status() != Failed {
		t.Errorf("Status = %v", c.Status())
	}
}
