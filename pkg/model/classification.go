package model

import (
	"strings"
	"time"
)

// StepType names a stage of the backend classification pipeline.
type StepType string

const (
	StepScrape    StepType = "scrape"
	StepFetch     StepType = "fetch" // emitted by the backend for the scrape stage
	StepSummarize StepType = "summarize"
	StepClassify  StepType = "classify"
)

// MaxStepOutput caps how much of a step's output the client displays.
const MaxStepOutput = 2000

// ClassificationResult is the record returned by submit and list.
type ClassificationResult struct {
	ID                 string    `json:"id"`
	URL                string    `json:"url"`
	ProductSummary     string    `json:"product_summary"`
	PrimaryNodeID      *string   `json:"primary_node_id"`
	PrimaryNodePath    *string   `json:"primary_node_path"`
	SecondaryNodeIDs   []string  `json:"secondary_node_ids"`
	SecondaryNodePaths []string  `json:"secondary_node_paths"`
	ConfidenceScore    *float64  `json:"confidence_score"`
	ModelUsed          string    `json:"model_used"`
	Reasoning          string    `json:"reasoning"`
	CreatedAt          Timestamp `json:"created_at"`
}

// Confidence returns the score as a whole percentage and whether one exists.
func (r ClassificationResult) Confidence() (int, bool) {
	if r.ConfidenceScore == nil {
		return 0, false
	}
	return int(*r.ConfidenceScore*100 + 0.5), true
}

// PipelineStep is one recorded stage of a classification run.
type PipelineStep struct {
	ID         string   `json:"id"`
	StepType   StepType `json:"step_type"`
	InputText  string   `json:"input_text"`
	OutputText string   `json:"output_text"`
	ModelUsed  string   `json:"model_used"`
	TokensUsed int      `json:"tokens_used"`
	LatencyMs  int      `json:"latency_ms"`
}

// DisplayOutput returns the output truncated to MaxStepOutput runes.
func (s PipelineStep) DisplayOutput() string {
	runes := []rune(s.OutputText)
	if len(runes) <= MaxStepOutput {
		return s.OutputText
	}
	return string(runes[:MaxStepOutput])
}

// ClassificationDetail is a result plus the scraped content and the ordered
// pipeline steps.
type ClassificationDetail struct {
	ClassificationResult
	RawContent string         `json:"raw_content"`
	Steps      []PipelineStep `json:"steps"`
}

// Timestamp decodes backend datetimes, which may or may not carry a zone.
// Naive values are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	for _, layout := range timestampLayouts {
		var parsed time.Time
		if parsed, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return err
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}
