package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/sortinghat/pkg/expansion"
)

// DefaultIndent is the number of columns per taxonomy level.
const DefaultIndent = 2

// TreeModel renders the visible rows of the taxonomy and owns the cursor.
// Expansion itself lives in expansion.State; the tree only draws what it is
// given and reports which row the cursor is on.
type TreeModel struct {
	rows           []expansion.Row
	cursor         int
	viewportOffset int // index of the first visible row
	width          int
	height         int
	indent         int
	theme          Theme

	loading bool
	err     error
	empty   string
}

// NewTreeModel creates an empty tree.
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{
		theme:  theme,
		indent: DefaultIndent,
		empty:  "No nodes to display.",
	}
}

// SetSize updates the panel dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// SetIndent sets the columns per level. Values below 1 are ignored.
func (t *TreeModel) SetIndent(n int) {
	if n >= 1 {
		t.indent = n
	}
}

// SetStatus sets what the empty panel says.
func (t *TreeModel) SetStatus(loading bool, err error, empty string) {
	t.loading = loading
	t.err = err
	if empty != "" {
		t.empty = empty
	}
}

// SetRows replaces the rows. The cursor follows keepID when it is still
// visible and is clamped otherwise.
func (t *TreeModel) SetRows(rows []expansion.Row, keepID string) {
	t.rows = rows
	if keepID != "" {
		if i := expansion.IndexOf(rows, keepID); i >= 0 {
			t.cursor = i
			t.ensureCursorVisible()
			return
		}
	}
	if t.cursor >= len(rows) {
		t.cursor = len(rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// Rows returns the rows currently shown.
func (t *TreeModel) Rows() []expansion.Row { return t.rows }

// Cursor returns the cursor index.
func (t *TreeModel) Cursor() int { return t.cursor }

// CurrentRow returns the row under the cursor.
func (t *TreeModel) CurrentRow() (expansion.Row, bool) {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return expansion.Row{}, false
	}
	return t.rows[t.cursor], true
}

// CurrentID returns the node id under the cursor, or "".
func (t *TreeModel) CurrentID() string {
	if r, ok := t.CurrentRow(); ok {
		return r.Node.ID
	}
	return ""
}

func (t *TreeModel) View() string {
	if len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		row := t.rows[i]
		line := t.renderRow(row)
		switch {
		case i == t.cursor:
			if t.width > 0 {
				// the border takes one cell
				line = padRight(line, t.width-1)
			}
			line = t.theme.Selected.Render(line)
		case row.Highlighted:
			line = t.theme.PrimaryBold.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(t.rows) > t.effectiveVisibleCount() && t.height > 0 {
		sb.WriteString(t.renderPositionIndicator(start, end))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// renderRow lays out one row: [indent][indicator] [name] [level] [orphan].
// Indentation is proportional to the node level, not the walk depth.
func (t *TreeModel) renderRow(row expansion.Row) string {
	prefix := strings.Repeat(" ", row.Indent*t.indent) + t.getExpandIndicator(row) + " "

	suffix := " " + RenderLevelBadge(row.Node.Level, t.theme)
	if row.Orphan {
		suffix += " " + t.theme.MutedText.Render("(orphan)")
	}

	name := row.Node.Name
	if t.width > 0 {
		avail := t.width - lipgloss.Width(prefix) - lipgloss.Width(suffix) - 1
		name = truncate(name, max(avail, 1))
	}
	return prefix + name + suffix
}

func (t *TreeModel) getExpandIndicator(row expansion.Row) string {
	switch {
	case !row.HasChildren:
		return t.theme.Indicator.Render("•")
	case row.Expanded:
		return t.theme.Indicator.Render("▾")
	default:
		return t.theme.Indicator.Render("▸")
	}
}

// renderEmptyState explains why the panel is empty: loading, an error, or
// simply no matches.
func (t *TreeModel) renderEmptyState() string {
	switch {
	case t.loading:
		return t.theme.MutedText.Render("Loading…")
	case t.err != nil:
		return t.theme.ErrorText.Render(t.err.Error())
	default:
		return t.theme.MutedText.Render(t.empty)
	}
}

func (t *TreeModel) renderPositionIndicator(start, end int) string {
	pageSize := t.effectiveVisibleCount()
	currentPage, totalPages := t.pageInfo(pageSize)
	indicator := fmt.Sprintf(" Page %d/%d (%d-%d of %d)", currentPage, totalPages, start+1, end, len(t.rows))
	return t.theme.MutedText.Render(indicator)
}

// pageInfo returns the current page number and total pages based on visible count.
func (t *TreeModel) pageInfo(pageSize int) (currentPage, totalPages int) {
	total := len(t.rows)
	if pageSize <= 0 {
		pageSize = 1
	}
	totalPages = (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	currentPage = (t.viewportOffset / pageSize) + 1
	if currentPage > totalPages {
		currentPage = totalPages
	}
	return currentPage, totalPages
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
		t.ensureCursorVisible()
	}
}

// JumpToParent moves the cursor to the parent of the current row when the
// parent is visible. Returns false if it is not.
func (t *TreeModel) JumpToParent() bool {
	row, ok := t.CurrentRow()
	if !ok || row.Node.ParentID == nil {
		return false
	}
	i := expansion.IndexOf(t.rows, *row.Node.ParentID)
	if i < 0 {
		return false
	}
	t.cursor = i
	t.ensureCursorVisible()
	return true
}

// PageDown moves cursor down by half a viewport.
func (t *TreeModel) PageDown() {
	pageSize := t.height / 2
	if pageSize < 1 {
		pageSize = 5
	}
	t.cursor += pageSize
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// PageUp moves cursor up by half a viewport.
func (t *TreeModel) PageUp() {
	pageSize := t.height / 2
	if pageSize < 1 {
		pageSize = 5
	}
	t.cursor -= pageSize
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// visibleRange returns the [start, end) slice of rows that fits the panel.
func (t *TreeModel) visibleRange() (start, end int) {
	if len(t.rows) == 0 {
		return 0, 0
	}
	visibleCount := t.effectiveVisibleCount()
	start = max(t.viewportOffset, 0)
	end = start + visibleCount
	if end > len(t.rows) {
		end = len(t.rows)
		start = max(end-visibleCount, 0)
	}
	return start, end
}

// effectiveVisibleCount is the number of rows that fit, reserving one line
// for the position indicator when scrolling is needed.
func (t *TreeModel) effectiveVisibleCount() int {
	visibleCount := t.height
	if visibleCount <= 0 {
		visibleCount = 20
	}
	if len(t.rows) > visibleCount {
		visibleCount--
	}
	if visibleCount < 1 {
		visibleCount = 1
	}
	return visibleCount
}

// ensureCursorVisible scrolls just enough to keep the cursor on screen.
func (t *TreeModel) ensureCursorVisible() {
	if len(t.rows) == 0 {
		t.viewportOffset = 0
		return
	}
	visibleCount := t.effectiveVisibleCount()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+visibleCount {
		t.viewportOffset = t.cursor - visibleCount + 1
	}
	maxOffset := max(len(t.rows)-visibleCount, 0)
	if t.viewportOffset > maxOffset {
		t.viewportOffset = maxOffset
	}
	if t.viewportOffset < 0 {
		t.viewportOffset = 0
	}
}
