package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders detail markdown with glamour, rebuilding the
// underlying renderer only when the wrap width changes.
type MarkdownRenderer struct {
	width int
	tr    *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer wrapping at width columns.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	r := &MarkdownRenderer{}
	r.SetWidth(width)
	return r
}

// SetWidth changes the wrap width.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width && r.tr != nil {
		return
	}
	r.width = width
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.tr = nil
		return
	}
	r.tr = tr
}

// Width returns the wrap width.
func (r *MarkdownRenderer) Width() int { return r.width }

// Render renders md. Without a working renderer the raw markdown is
// returned so the pane is never blank.
func (r *MarkdownRenderer) Render(md string) (string, error) {
	if r == nil || r.tr == nil {
		return md, nil
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md, err
	}
	return strings.TrimRight(out, "\n"), nil
}
