// Package api is the HTTP+JSON client for the sorting hat backend.
//
// Every call is a single request/response; nothing is retried. Non-2xx
// responses and network failures come back as *TransportError.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vanderheijden86/sortinghat/pkg/debug"
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// DefaultBaseURL matches the backend's default mount point.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// MaxListLimit is the largest page the classification listing accepts.
const MaxListLimit = 100

// Client talks to the backend. The zero value is not usable; use New.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a Client for baseURL. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListNodesParams filters the flat node listing.
type ListNodesParams struct {
	Branch          model.Branch
	GovernanceGroup string // group slug
}

// ListClassificationsParams pages through stored classifications.
type ListClassificationsParams struct {
	URL    string
	Limit  int
	Offset int
}

// Validate mirrors the server-side bounds so bad input fails locally.
func (p ListClassificationsParams) Validate() error {
	if p.Limit < 0 || p.Limit > MaxListLimit {
		return fmt.Errorf("limit must be between 0 and %d (0 uses the server default)", MaxListLimit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	return nil
}

type classifyRequest struct {
	URL   string  `json:"url"`
	Model *string `json:"model"`
}

// ListGroups returns every governance group.
func (c *Client) ListGroups(ctx context.Context) ([]model.GovernanceGroup, error) {
	var out []model.GovernanceGroup
	err := c.do(ctx, metrics.ListGroups, http.MethodGet, "/taxonomy/governance-groups", nil, nil, &out)
	return out, err
}

// ListNodes returns the flat node list, optionally filtered.
func (c *Client) ListNodes(ctx context.Context, p ListNodesParams) ([]model.TaxonomyNode, error) {
	q := url.Values{}
	if p.Branch != "" {
		q.Set("branch", string(p.Branch))
	}
	if p.GovernanceGroup != "" {
		q.Set("governance_group", p.GovernanceGroup)
	}
	var out []model.TaxonomyNode
	err := c.do(ctx, metrics.ListNodes, http.MethodGet, "/taxonomy/nodes", q, nil, &out)
	return out, err
}

// GetNode returns one node with its children and root-first ancestors.
func (c *Client) GetNode(ctx context.Context, id string) (*model.TaxonomyNodeDetail, error) {
	var out model.TaxonomyNodeDetail
	path := "/taxonomy/nodes/" + url.PathEscape(id)
	if err := c.do(ctx, metrics.GetNode, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchNodes runs a name search. Results are flat; ancestors are not
// guaranteed to be present.
func (c *Client) SearchNodes(ctx context.Context, query string) ([]model.TaxonomyNode, error) {
	q := url.Values{}
	q.Set("q", query)
	var out []model.TaxonomyNode
	err := c.do(ctx, metrics.SearchNodes, http.MethodGet, "/taxonomy/nodes/search", q, nil, &out)
	return out, err
}

// SubmitClassification asks the backend to classify rawURL. modelName may be
// empty to use the server default.
func (c *Client) SubmitClassification(ctx context.Context, rawURL, modelName string) (*model.ClassificationResult, error) {
	body := classifyRequest{URL: rawURL}
	if modelName != "" {
		body.Model = &modelName
	}
	var out model.ClassificationResult
	if err := c.do(ctx, metrics.SubmitClassify, http.MethodPost, "/classify", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClassification returns the full record including pipeline steps.
func (c *Client) GetClassification(ctx context.Context, id string) (*model.ClassificationDetail, error) {
	var out model.ClassificationDetail
	path := "/classify/" + url.PathEscape(id)
	if err := c.do(ctx, metrics.GetClassification, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClassifications returns stored results, newest first.
func (c *Client) ListClassifications(ctx context.Context, p ListClassificationsParams) ([]model.ClassificationResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	if p.URL != "" {
		q.Set("url", p.URL)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	var out []model.ClassificationResult
	err := c.do(ctx, metrics.ListClassifications, http.MethodGet, "/classify", q, nil, &out)
	return out, err
}

// do performs one request and decodes a 2xx body into dest.
func (c *Client) do(ctx context.Context, m *metrics.TimingMetric, method, path string, query url.Values, body, dest any) (err error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", m.Name(), err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", m.Name(), err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	status := 0
	defer func() {
		elapsed := time.Since(start)
		metrics.ObserveRequest(m, elapsed, status, err)
		debug.With("api call", "op", m.Name(), "method", method, "url", fullURL,
			"request_id", requestID, "status", status, "err", err)
		debug.LogTiming(m.Name(), elapsed)
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: m.Name(), Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: m.Name(), StatusCode: resp.StatusCode, StatusText: statusText(resp), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(data)
		if len(detail) > 512 {
			detail = detail[:512]
		}
		return &TransportError{
			Op:         m.Name(),
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Detail:     detail,
		}
	}

	if dest == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decoding %s response: %w", m.Name(), err)
	}
	return nil
}

// statusText returns the reason phrase of resp.Status ("404 Not Found" ->
// "Not Found"), falling back to the canonical text for the code.
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text := strings.TrimPrefix(resp.Status, prefix); text != resp.Status && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
