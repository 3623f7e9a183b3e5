package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

func TestListNodes_QueryParams(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"n1","parent_id":null,"name":"Applications","level":1,"branch":"software"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	nodes, err := c.ListNodes(context.Background(), ListNodesParams{Branch: model.BranchSoftware, GovernanceGroup: "infra"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/taxonomy/nodes" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	// url.Values.Encode sorts keys alphabetically
	if gotQuery != "branch=software&governance_group=infra" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if len(nodes) != 1 || nodes[0].ID != "n1" || !nodes[0].IsRoot() {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestListNodes_NoFilters(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	nodes, err := New(srv.URL).ListNodes(context.Background(), ListNodesParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "" {
		t.Fatalf("expected empty query, got %q", gotQuery)
	}
	if len(nodes) != 0 {
		t.Fatalf("expected no nodes, got %d", len(nodes))
	}
}

func TestSearchNodes_EscapesQuery(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/taxonomy/nodes/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`[{"id":"x","parent_id":"gone","level":3}]`))
	}))
	defer srv.Close()

	nodes, err := New(srv.URL).SearchNodes(context.Background(), "data & ai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQ != "data & ai" {
		t.Fatalf("query not round-tripped: %q", gotQ)
	}
	if nodes[0].Parent() != "gone" {
		t.Fatalf("parent not decoded: %+v", nodes[0])
	}
}

func TestGetNode_Detail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/taxonomy/nodes/n2" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"n2","name":"Databases","level":2,"parent_id":"n1",
			"children":[{"id":"n3","name":"Relational","level":3,"parent_id":"n2"}],
			"parent_chain":[{"id":"n1","name":"Data","level":1,"parent_id":null}]}`))
	}))
	defer srv.Close()

	d, err := New(srv.URL).GetNode(context.Background(), "n2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Databases" || len(d.Children) != 1 || d.Breadcrumb() != "Data" {
		t.Fatalf("unexpected detail: %+v", d)
	}
}

func TestSubmitClassification_Body(t *testing.T) {
	var got map[string]any
	var gotMethod, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotRequestID = r.Header.Get("X-Request-ID")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.Write([]byte(`{"id":"c1","url":"https://example.com","confidence_score":0.87,"secondary_node_ids":[],"secondary_node_paths":[],"created_at":"2025-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.SubmitClassification(context.Background(), "https://example.com", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotRequestID == "" {
		t.Fatal("expected X-Request-ID header")
	}
	if got["url"] != "https://example.com" {
		t.Fatalf("unexpected url in body: %v", got)
	}
	if m, ok := got["model"]; !ok || m != nil {
		t.Fatalf("expected explicit null model, got %v", got)
	}
	if pct, ok := res.Confidence(); !ok || pct != 87 {
		t.Fatalf("expected 87%%, got %d %v", pct, ok)
	}

	if _, err := c.SubmitClassification(context.Background(), "https://example.com", "gpt-4o"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["model"] != "gpt-4o" {
		t.Fatalf("model override not sent: %v", got)
	}
}

func TestGetClassification_Steps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"c1","url":"u","raw_content":"raw","created_at":"2025-01-02T03:04:05Z",
			"steps":[{"id":"s1","step_type":"fetch","latency_ms":12},{"id":"s2","step_type":"classify","tokens_used":300}]}`))
	}))
	defer srv.Close()

	d, err := New(srv.URL).GetClassification(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Steps) != 2 || d.Steps[0].StepType != "fetch" || d.Steps[1].TokensUsed != 300 {
		t.Fatalf("unexpected steps: %+v", d.Steps)
	}
}

func TestListClassifications_Validation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.RawQuery != "limit=10&offset=20&url=https%3A%2F%2Fa.b" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	for _, p := range []ListClassificationsParams{{Limit: 101}, {Limit: -1}, {Offset: -5}} {
		if _, err := c.ListClassifications(context.Background(), p); err == nil {
			t.Errorf("expected validation error for %+v", p)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("invalid params reached the server %d times", calls.Load())
	}

	if _, err := c.ListClassifications(context.Background(), ListClassificationsParams{URL: "https://a.b", Limit: 10, Offset: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestListClassificationsParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       ListClassificationsParams
		wantErr string
	}{
		{"zero limit uses server default", ListClassificationsParams{}, ""},
		{"max limit", ListClassificationsParams{Limit: MaxListLimit}, ""},
		{"over max", ListClassificationsParams{Limit: MaxListLimit + 1}, "limit must be between 0 and 100 (0 uses the server default)"},
		{"negative limit", ListClassificationsParams{Limit: -1}, "limit must be between 0 and 100 (0 uses the server default)"},
		{"negative offset", ListClassificationsParams{Offset: -1}, "offset must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestTransportError_Status(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Node not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetNode(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if te.StatusCode != 404 || te.Op != "get_node" {
		t.Fatalf("unexpected error fields: %+v", te)
	}
	if err.Error() != "API error: 404 Not Found" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !strings.Contains(te.Detail, "Node not found") {
		t.Fatalf("detail not kept: %q", te.Detail)
	}
	if !IsNotFound(err) || StatusCode(err) != 404 {
		t.Fatal("helpers disagree with error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries, got %d calls", calls.Load())
	}
}

func TestTransportError_Network(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := New(base).ListGroups(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T (%v)", err, err)
	}
	if te.StatusCode != 0 || te.Err == nil {
		t.Fatalf("expected network failure with code 0, got %+v", te)
	}
	if !strings.HasPrefix(err.Error(), "API error: ") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListGroups(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decoding list_groups response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL).ListGroups(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://host/api/v1/", WithTimeout(time.Second))
	if c.BaseURL() != "http://host/api/v1" {
		t.Fatalf("unexpected base: %q", c.BaseURL())
	}
	if New("").BaseURL() != DefaultBaseURL {
		t.Fatal("empty base should use default")
	}
}

func TestListAllBranches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := r.URL.Query().Get("branch")
		w.Write([]byte(`[{"id":"` + b + `-root","level":1,"branch":"` + b + `"}]`))
	}))
	defer srv.Close()

	got, err := New(srv.URL).ListAllBranches(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[model.BranchSoftware][0].ID != "software-root" || got[model.BranchHardware][0].ID != "hardware-root" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestListAllBranches_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("branch") == "hardware" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListAllBranches(context.Background(), "")
	if StatusCode(err) != 500 {
		t.Fatalf("expected 500, got %v", err)
	}
}
