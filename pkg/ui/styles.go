package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Consistent spacing, colors, and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

var (
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	ColorBadgeText = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}

	// Pipeline step badges
	ColorStepScrapeBg    = lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"}
	ColorStepSummarizeBg = lipgloss.AdaptiveColor{Light: "#36B37E", Dark: "#57D9A3"}
	ColorStepClassifyBg  = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For split view layouts
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedPanelStyle is the style for focused panels
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// ══════════════════════════════════════════════════════════════════════════════

// RenderBranchBadge returns "SW" or "HW" on the branch color.
func RenderBranchBadge(b model.Branch, t Theme) string {
	label := "??"
	switch b {
	case model.BranchSoftware:
		label = "SW"
	case model.BranchHardware:
		label = "HW"
	}
	return t.Renderer.NewStyle().
		Foreground(ColorBadgeText).
		Background(t.BranchColor(b)).
		Bold(true).
		Render(label)
}

// RenderLevelBadge returns a compact "L3" marker.
func RenderLevelBadge(level int, t Theme) string {
	return t.Renderer.NewStyle().
		Foreground(t.Subtext).
		Background(ColorBgSubtle).
		Render(fmt.Sprintf("L%d", level))
}

// RenderStepBadge returns a fixed-width badge for a pipeline step type.
// Unknown step types are shown verbatim.
func RenderStepBadge(step model.StepType) string {
	bg := ColorBgSubtle
	switch step {
	case model.StepScrape, model.StepFetch:
		bg = ColorStepScrapeBg
	case model.StepSummarize:
		bg = ColorStepSummarizeBg
	case model.StepClassify:
		bg = ColorStepClassifyBg
	}
	return lipgloss.NewStyle().
		Foreground(ColorBadgeText).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(strings.ToUpper(string(step)))
}

// RenderConfidenceBar renders a mini horizontal bar for a 0-100 percentage.
func RenderConfidenceBar(pct, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100

	var barColor lipgloss.AdaptiveColor
	switch {
	case pct >= 75:
		barColor = t.Success
	case pct >= 50:
		barColor = t.Warning
	default:
		barColor = t.Danger
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(barColor).Render(bar)
}

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
