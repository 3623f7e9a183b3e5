package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/config"
	"github.com/vanderheijden86/sortinghat/pkg/model"
	"github.com/vanderheijden86/sortinghat/pkg/workflow"
)

type fakeBackend struct {
	mu       sync.Mutex
	searches []string
	gets     []string
	submits  []string

	nodes     map[model.Branch][]model.TaxonomyNode
	results   map[string][]model.TaxonomyNode
	details   map[string]*model.TaxonomyNodeDetail
	classes   map[string]*model.ClassificationDetail
	submitErr error
}

func (f *fakeBackend) ListGroups(ctx context.Context) ([]model.GovernanceGroup, error) {
	return []model.GovernanceGroup{
		{Slug: "apps", Name: "Applications", CoversSoftware: true},
		{Slug: "devices", Name: "Devices", CoversHardware: true},
	}, nil
}

func (f *fakeBackend) ListNodes(ctx context.Context, p api.ListNodesParams) ([]model.TaxonomyNode, error) {
	return f.nodes[p.Branch], nil
}

func (f *fakeBackend) SearchNodes(ctx context.Context, q string) ([]model.TaxonomyNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	return f.results[q], nil
}

func (f *fakeBackend) GetNode(ctx context.Context, id string) (*model.TaxonomyNodeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, id)
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, &api.TransportError{Op: "get_node", StatusCode: 404, StatusText: "Not Found"}
}

func (f *fakeBackend) SubmitClassification(ctx context.Context, url, modelName string) (*model.ClassificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, url)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &model.ClassificationResult{ID: "c-" + url, URL: url}, nil
}

func (f *fakeBackend) GetClassification(ctx context.Context, id string) (*model.ClassificationDetail, error) {
	if d, ok := f.classes[id]; ok {
		return d, nil
	}
	return nil, &api.TransportError{Op: "get_classification", StatusCode: 404, StatusText: "Not Found"}
}

func (f *fakeBackend) ListClassifications(ctx context.Context, p api.ListClassificationsParams) ([]model.ClassificationResult, error) {
	return nil, nil
}

func newFakeBackend() *fakeBackend {
	path := "/Software/Data/Databases"
	score := 0.87
	return &fakeBackend{
		nodes: map[model.Branch][]model.TaxonomyNode{
			model.BranchSoftware: {
				tnode("A", "", 1), tnode("A1", "A", 2), tnode("A1a", "A1", 3), tnode("A1a-x", "A1a", 4), tnode("B", "", 1),
			},
			model.BranchHardware: {tnode("H", "", 1), tnode("H1", "H", 2)},
		},
		results: map[string][]model.TaxonomyNode{
			"da":  {tnode("A1a", "A1", 3), tnode("A1a-x", "A1a", 4)},
			"dat": {tnode("A1a-x", "A1a", 4)},
		},
		details: map[string]*model.TaxonomyNodeDetail{
			"A":  {TaxonomyNode: tnode("A", "", 1), Children: []model.TaxonomyNode{tnode("A1", "A", 2)}},
			"A1": {TaxonomyNode: tnode("A1", "A", 2), ParentChain: []model.TaxonomyNode{tnode("A", "", 1)}},
			"B":  {TaxonomyNode: tnode("B", "", 1)},
		},
		classes: map[string]*model.ClassificationDetail{
			"c-https://example.com": {
				ClassificationResult: model.ClassificationResult{
					ID: "c-https://example.com", URL: "https://example.com",
					PrimaryNodePath: &path, ConfidenceScore: &score,
				},
				Steps: []model.PipelineStep{{StepType: model.StepFetch}, {StepType: model.StepClassify}},
			},
		},
	}
}

// collect runs cmd and returns the job messages it produces. Commands that
// block (cursor blink, status timers) are abandoned after a short wait.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(100 * time.Millisecond):
		return nil
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case queryDoneMsg, detailDoneMsg, groupsDoneMsg, classifyMsg, historyDoneMsg:
		return []tea.Msg{msg}
	}
	return nil
}

// drain feeds every job message produced by cmd back into m until quiet.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		updated, next := m.Update(msg)
		m = updated.(Model)
		m = drain(t, m, next)
	}
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, fb *fakeBackend) Model {
	t.Helper()
	m := NewModel(fb, Options{Config: config.DefaultConfig()})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return drain(t, m, m.Init())
}

func rowIDs(m Model) []string {
	var ids []string
	for _, r := range m.tree.Rows() {
		ids = append(ids, r.Node.ID)
	}
	return ids
}

func TestModelInitialBrowse(t *testing.T) {
	m := newTestModel(t, newFakeBackend())

	if got := strings.Join(rowIDs(m), ","); got != "A,A1,A1a,B" {
		t.Fatalf("rows = %s, want A,A1,A1a,B", got)
	}
	if len(m.browser.Groups()) != 2 {
		t.Errorf("expected groups to load, got %d", len(m.browser.Groups()))
	}
	view := stripANSI(m.View())
	for _, want := range []string{"Taxonomy", "Classify", "Software", "Node A1a"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelMoveSelectsAndLoadsDetail(t *testing.T) {
	fb := newFakeBackend()
	m := newTestModel(t, fb)

	m, cmd := send(t, m, keyRunes("j"))
	m = drain(t, m, cmd)

	if m.browser.State().Selected() != "A1" {
		t.Fatalf("selected = %q, want A1", m.browser.State().Selected())
	}
	if d := m.browser.Detail(); d == nil || d.ID != "A1" {
		t.Fatalf("expected A1 detail, got %+v", d)
	}
	// moving does not change expansion
	if got := strings.Join(rowIDs(m), ","); got != "A,A1,A1a,B" {
		t.Errorf("rows changed on move: %s", got)
	}
	if !strings.Contains(stripANSI(m.detail.View()), "Node A1") {
		t.Errorf("detail pane missing node name: %q", stripANSI(m.detail.View()))
	}
}

func TestModelActivateTogglesExpansion(t *testing.T) {
	m := newTestModel(t, newFakeBackend())

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)
	if got := strings.Join(rowIDs(m), ","); got != "A,B" {
		t.Fatalf("after collapsing A rows = %s", got)
	}
	if d := m.browser.Detail(); d == nil || d.ID != "A" {
		t.Errorf("expected A detail after activate")
	}

	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)
	if got := strings.Join(rowIDs(m), ","); got != "A,A1,A1a,B" {
		t.Errorf("after expanding A rows = %s", got)
	}
}

func TestModelSearchThreshold(t *testing.T) {
	fb := newFakeBackend()
	m := newTestModel(t, fb)

	m, _ = send(t, m, keyRunes("/"))
	if m.focus != focusSearch {
		t.Fatalf("expected search focus")
	}

	m, cmd := send(t, m, keyRunes("d"))
	m = drain(t, m, cmd)
	if len(fb.searches) != 0 {
		t.Fatalf("one character must not search, got %v", fb.searches)
	}

	m, cmd = send(t, m, keyRunes("a"))
	m = drain(t, m, cmd)
	if got := strings.Join(rowIDs(m), ","); got != "A1a,A1a-x" {
		t.Fatalf("search rows = %s, want A1a,A1a-x", got)
	}
	if !strings.Contains(stripANSI(m.View()), "search spans both branches") {
		t.Errorf("expected search hint in branch bar")
	}

	// q is typed into the input, not treated as quit
	m, cmd = send(t, m, keyRunes("q"))
	m = drain(t, m, cmd)
	if m.search.Value() != "daq" {
		t.Fatalf("search value = %q, want daq", m.search.Value())
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m = drain(t, m, cmd)
	if m.browser.Searching() {
		t.Fatal("esc should clear the search")
	}
	if got := strings.Join(rowIDs(m), ","); got != "A,A1,A1a,B" {
		t.Errorf("rows after clearing search = %s", got)
	}
}

func TestModelOutOfOrderSearchResults(t *testing.T) {
	m := newTestModel(t, newFakeBackend())
	m, _ = send(t, m, keyRunes("/"))
	m, _ = send(t, m, keyRunes("d"))

	m, first := send(t, m, keyRunes("a"))
	m, second := send(t, m, keyRunes("t"))

	// newer result lands first, then the older one
	newer := collect(second)
	older := collect(first)
	for _, msg := range append(newer, older...) {
		m, _ = send(t, m, msg)
	}
	if got := strings.Join(rowIDs(m), ","); got != "A1a-x" {
		t.Errorf("rows = %s, want the dat results only", got)
	}
}

func TestModelBranchAndGroup(t *testing.T) {
	m := newTestModel(t, newFakeBackend())

	m, cmd := send(t, m, keyRunes("b"))
	m = drain(t, m, cmd)
	if m.browser.Branch() != model.BranchHardware {
		t.Fatalf("branch = %s", m.browser.Branch())
	}
	if got := strings.Join(rowIDs(m), ","); got != "H,H1" {
		t.Errorf("hardware rows = %s", got)
	}

	m, cmd = send(t, m, keyRunes("o"))
	m = drain(t, m, cmd)
	if m.browser.Group() != "devices" {
		t.Errorf("group = %q, want devices", m.browser.Group())
	}
	if !strings.Contains(stripANSI(m.View()), "Devices") {
		t.Errorf("group name not shown")
	}
}

func TestModelDetailErrorShown(t *testing.T) {
	fb := newFakeBackend()
	m := newTestModel(t, fb)

	// A1a has no detail in the fake: 404
	m, _ = send(t, m, keyRunes("G"))
	m, cmd := send(t, m, keyRunes("k"))
	m = drain(t, m, cmd)
	if m.browser.State().Selected() != "A1a" {
		t.Fatalf("selected = %q", m.browser.State().Selected())
	}
	if !strings.Contains(stripANSI(m.detail.View()), "API error: 404 Not Found") {
		t.Errorf("detail pane = %q", stripANSI(m.detail.View()))
	}
}

func TestModelCopyPath(t *testing.T) {
	m := newTestModel(t, newFakeBackend())
	var copied string
	m.copyFn = func(s string) error { copied = s; return nil }

	m, _ = send(t, m, keyRunes("y"))
	if copied != "/A" {
		t.Errorf("copied %q, want /A", copied)
	}
	if msg, isErr := m.Status(); isErr || !strings.Contains(msg, "/A") {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}

	m.copyFn = func(string) error { return errors.New("no clipboard") }
	m, _ = send(t, m, keyRunes("y"))
	if _, isErr := m.Status(); !isErr {
		t.Error("expected clipboard failure in status")
	}
}

func TestModelClassifyFlow(t *testing.T) {
	fb := newFakeBackend()
	m := newTestModel(t, fb)

	m, _ = send(t, m, keyRunes("2"))
	if m.Tab() != TabClassify {
		t.Fatalf("tab = %v", m.Tab())
	}

	// empty submit fails without a call
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)
	ctl := m.classify.Controller()
	if ctl.Status() != workflow.Failed || len(fb.submits) != 0 {
		t.Fatalf("status = %v submits = %v", ctl.Status(), fb.submits)
	}
	if !strings.Contains(stripANSI(m.View()), "URL is required") {
		t.Errorf("validation message not shown")
	}

	for _, r := range "https://example.com" {
		m, _ = send(t, m, keyRunes(string(r)))
	}
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if ctl.Status() != workflow.Submitting {
		t.Fatalf("status = %v, want submitting", ctl.Status())
	}
	m = drain(t, m, cmd)
	if ctl.Status() != workflow.Ready {
		t.Fatalf("status = %v err = %v", ctl.Status(), ctl.Err())
	}

	view := stripANSI(m.View())
	for _, want := range []string{"/Software/Data/Databases", "87%", "Show pipeline details (2 steps)"} {
		if !strings.Contains(view, want) {
			t.Errorf("result view missing %q", want)
		}
	}

	m, _ = send(t, m, keyRunes("s"))
	if !ctl.ShowSteps() {
		t.Fatal("s should show pipeline steps")
	}
	if !strings.Contains(stripANSI(m.View()), "Hide pipeline details") {
		t.Errorf("expected hide label after toggle")
	}

	var copied string
	m.copyFn = func(s string) error { copied = s; return nil }
	m, _ = send(t, m, keyRunes("y"))
	if copied != "/Software/Data/Databases" {
		t.Errorf("copied %q", copied)
	}

	if len(ctl.History()) != 1 {
		t.Errorf("expected result in history, got %d", len(ctl.History()))
	}
}

func TestModelClassifySubmitError(t *testing.T) {
	fb := newFakeBackend()
	fb.submitErr = &api.TransportError{Op: "submit_classification", StatusCode: 502, StatusText: "Bad Gateway"}
	m := newTestModel(t, fb)
	m, _ = send(t, m, keyRunes("2"))
	for _, r := range "https://bad.example" {
		m, _ = send(t, m, keyRunes(string(r)))
	}
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	if m.classify.Controller().Status() != workflow.Failed {
		t.Fatalf("status = %v", m.classify.Controller().Status())
	}
	view := stripANSI(m.View())
	if !strings.Contains(view, "API error: 502 Bad Gateway") {
		t.Errorf("error not shown: %q", view)
	}
	if !strings.Contains(view, "✗ failed: API error: 502 Bad Gateway") {
		t.Errorf("status line should carry the error: %q", view)
	}
}

func TestModelQuitAndTabs(t *testing.T) {
	m := newTestModel(t, newFakeBackend())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Tab() != TabClassify {
		t.Fatalf("shift+tab should switch to classify")
	}
	// the URL input has focus; shift+tab still switches
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Tab() != TabTaxonomy {
		t.Fatalf("shift+tab should switch back to taxonomy")
	}
	m, _ = send(t, m, keyRunes("2"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = send(t, m, keyRunes("1"))
	if m.Tab() != TabTaxonomy {
		t.Fatalf("1 should switch to taxonomy once the input is left")
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusDetail {
		t.Errorf("tab should focus the detail pane")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusTree {
		t.Errorf("second tab should return to the tree")
	}

	_, cmd := send(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
