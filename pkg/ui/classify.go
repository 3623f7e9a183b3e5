package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/model"
	"github.com/vanderheijden86/sortinghat/pkg/workflow"
)

// historyLimit is how many recent classifications the panel lists.
const historyLimit = 20

type classifyFocus int

const (
	focusURL classifyFocus = iota
	focusModel
	focusResult
	focusHistory
)

// historyItem wraps a stored classification for the history list.
type historyItem struct {
	res model.ClassificationResult
}

func (i historyItem) Title() string {
	if i.res.PrimaryNodePath != nil && *i.res.PrimaryNodePath != "" {
		return *i.res.PrimaryNodePath
	}
	return "No classification"
}

func (i historyItem) Description() string {
	return fmt.Sprintf("%s • %s", i.res.URL, FormatTimeRel(i.res.CreatedAt.Time))
}

func (i historyItem) FilterValue() string { return i.res.URL }

// ClassifyModel is the classify tab: URL input, optional model override,
// the result pane and the recent history list.
type ClassifyModel struct {
	ctx      context.Context
	ctl      *workflow.Controller
	url      textinput.Model
	llm      textinput.Model
	spinner  spinner.Model
	result   viewport.Model
	history  list.Model
	renderer *MarkdownRenderer
	theme    Theme
	keys     KeyMap
	focus    classifyFocus
	width    int
	height   int
}

// NewClassifyModel builds the classify tab around ctl.
func NewClassifyModel(ctx context.Context, ctl *workflow.Controller, theme Theme, keys KeyMap) ClassifyModel {
	url := textinput.New()
	url.Prompt = "URL › "
	url.Placeholder = "https://example.com/product"
	url.CharLimit = 2048
	url.Focus()

	llm := textinput.New()
	llm.Prompt = "Model › "
	llm.Placeholder = "server default"
	llm.CharLimit = 128
	llm.SetValue(ctl.Model())

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)

	delegate := list.NewDefaultDelegate()
	hist := list.New(nil, delegate, 0, 0)
	hist.Title = "Recent"
	hist.SetShowHelp(false)
	hist.SetShowStatusBar(false)
	hist.SetFilteringEnabled(false)

	m := ClassifyModel{
		ctx:      ctx,
		ctl:      ctl,
		url:      url,
		llm:      llm,
		spinner:  sp,
		result:   viewport.New(60, 10),
		history:  hist,
		renderer: NewMarkdownRenderer(60),
		theme:    theme,
		keys:     keys,
	}
	m.refresh()
	return m
}

// Init loads the history and starts the cursor blinking.
func (m ClassifyModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadHistory())
}

func (m ClassifyModel) loadHistory() tea.Cmd {
	return historyCmd(m.ctx, m.ctl.LoadHistory(api.ListClassificationsParams{Limit: historyLimit}))
}

// Controller returns the underlying workflow.
func (m ClassifyModel) Controller() *workflow.Controller { return m.ctl }

// InputFocused reports whether keystrokes go to a text input.
func (m ClassifyModel) InputFocused() bool {
	return m.focus == focusURL || m.focus == focusModel
}

// SetSize lays out the panel: inputs and result on the left, history on
// the right when there is room.
func (m *ClassifyModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	leftWidth := width
	if width >= 100 {
		leftWidth = width * 2 / 3
		m.history.SetSize(width-leftWidth-SpaceSM, max(height, 3))
	} else {
		m.history.SetSize(0, 0)
	}
	m.url.Width = max(leftWidth-lipgloss.Width(m.url.Prompt)-2, 10)
	m.llm.Width = max(leftWidth-lipgloss.Width(m.llm.Prompt)-2, 10)

	// inputs, status line, divider
	m.result.Width = max(leftWidth, 20)
	m.result.Height = max(height-4, 3)
	m.renderer.SetWidth(m.result.Width - 2)
	m.refresh()
}

func (m *ClassifyModel) setFocus(f classifyFocus) tea.Cmd {
	m.focus = f
	m.url.Blur()
	m.llm.Blur()
	switch f {
	case focusURL:
		return m.url.Focus()
	case focusModel:
		return m.llm.Focus()
	}
	return nil
}

func (m *ClassifyModel) submit() tea.Cmd {
	m.ctl.SetModel(m.llm.Value())
	job := m.ctl.Submit(m.url.Value())
	m.refresh()
	if job == nil {
		return nil
	}
	return tea.Batch(classifyCmd(m.ctx, job), m.spinner.Tick)
}

func (m *ClassifyModel) openSelected() tea.Cmd {
	it, ok := m.history.SelectedItem().(historyItem)
	if !ok {
		return nil
	}
	job := m.ctl.Open(it.res.ID)
	m.url.SetValue(it.res.URL)
	m.refresh()
	return tea.Batch(classifyCmd(m.ctx, job), m.spinner.Tick)
}

func (m *ClassifyModel) syncHistory() {
	items := make([]list.Item, 0, len(m.ctl.History()))
	for _, r := range m.ctl.History() {
		items = append(items, historyItem{res: r})
	}
	m.history.SetItems(items)
}

// refresh re-renders the result pane from the controller state.
func (m *ClassifyModel) refresh() {
	var content string
	switch m.ctl.Status() {
	case workflow.Idle:
		content = m.theme.MutedText.Render("Enter a product URL and press enter to classify.")
	case workflow.Submitting:
		content = m.theme.MutedText.Render("Classifying " + m.ctl.URL() + "…")
	case workflow.Failed:
		content = m.theme.ErrorText.Render(errorText(m.ctl.Err()))
	case workflow.Ready:
		if d := m.ctl.Result(); d != nil {
			rendered, err := m.renderer.Render(classificationMarkdown(d, m.ctl.ShowSteps()))
			if err != nil {
				rendered = classificationMarkdown(d, m.ctl.ShowSteps())
			}
			content = rendered
		}
	}
	m.result.SetContent(content)
}

// errorText gives the one human-readable line shown for a failure.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return te.Error()
	}
	return err.Error()
}

// CopyText returns what y copies: the primary path when classified,
// otherwise the submitted URL.
func (m ClassifyModel) CopyText() string {
	if d := m.ctl.Result(); d != nil {
		if d.PrimaryNodePath != nil && *d.PrimaryNodePath != "" {
			return *d.PrimaryNodePath
		}
		return d.URL
	}
	return m.ctl.URL()
}

// Update handles classify-tab messages and keys.
func (m ClassifyModel) Update(msg tea.Msg) (ClassifyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case classifyMsg:
		if m.ctl.Complete(msg.Outcome) {
			m.syncHistory()
			if m.ctl.Status() == workflow.Ready {
				m.result.GotoTop()
				m.setFocus(focusResult)
			}
			m.refresh()
		}
		return m, nil

	case historyDoneMsg:
		m.ctl.CompleteHistory(msg.HistoryResult)
		m.syncHistory()
		return m, nil

	case spinner.TickMsg:
		if m.ctl.Status() != workflow.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m ClassifyModel) handleKey(msg tea.KeyMsg) (ClassifyModel, tea.Cmd) {
	switch m.focus {
	case focusURL, focusModel:
		switch {
		case msg.Type == tea.KeyEnter:
			return m, m.submit()
		case msg.Type == tea.KeyTab:
			if m.focus == focusURL {
				return m, m.setFocus(focusModel)
			}
			return m, m.setFocus(focusResult)
		case key.Matches(msg, m.keys.Back):
			return m, m.setFocus(focusResult)
		}
		var cmd tea.Cmd
		if m.focus == focusURL {
			m.url, cmd = m.url.Update(msg)
		} else {
			m.llm, cmd = m.llm.Update(msg)
		}
		return m, cmd

	case focusHistory:
		switch {
		case key.Matches(msg, m.keys.Activate):
			return m, m.openSelected()
		case key.Matches(msg, m.keys.Focus):
			return m, m.setFocus(focusURL)
		case key.Matches(msg, m.keys.Back):
			return m, m.setFocus(focusResult)
		}
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		return m, m.setFocus(focusURL)
	case key.Matches(msg, m.keys.Steps):
		if m.ctl.Result() != nil {
			m.ctl.ToggleSteps()
			m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.ctl.Reset()
		m.url.SetValue("")
		m.refresh()
		return m, m.setFocus(focusURL)
	case key.Matches(msg, m.keys.History):
		return m, m.loadHistory()
	case key.Matches(msg, m.keys.Focus):
		if len(m.history.Items()) > 0 && m.history.Width() > 0 {
			return m, m.setFocus(focusHistory)
		}
		return m, m.setFocus(focusURL)
	}
	var cmd tea.Cmd
	m.result, cmd = m.result.Update(msg)
	return m, cmd
}

func (m ClassifyModel) View() string {
	var left strings.Builder
	left.WriteString(m.url.View())
	left.WriteString("\n")
	left.WriteString(m.llm.View())
	left.WriteString("\n")
	left.WriteString(m.statusLine())
	left.WriteString("\n")
	left.WriteString(RenderDivider(m.result.Width))
	left.WriteString("\n")
	left.WriteString(m.result.View())

	if m.history.Width() == 0 {
		return left.String()
	}

	histStyle := PanelStyle
	if m.focus == focusHistory {
		histStyle = FocusedPanelStyle
	}
	right := histStyle.Render(m.historyView())
	return lipgloss.JoinHorizontal(lipgloss.Top, left.String(), strings.Repeat(" ", SpaceXS), right)
}

func (m ClassifyModel) historyView() string {
	if err := m.ctl.HistoryErr(); err != nil && len(m.history.Items()) == 0 {
		return m.theme.ErrorText.Render(truncate(errorText(err), m.history.Width()))
	}
	if len(m.history.Items()) == 0 {
		return m.theme.MutedText.Render("No classifications yet.")
	}
	return m.history.View()
}

// statusLine shows the workflow status, with confidence and pipeline
// badges once a result is in.
func (m ClassifyModel) statusLine() string {
	switch m.ctl.Status() {
	case workflow.Submitting:
		return m.spinner.View() + " " + m.theme.MutedText.Render("submitting")
	case workflow.Failed:
		return m.theme.ErrorText.Render("✗ failed: " + firstLine(errorText(m.ctl.Err())))
	case workflow.Ready:
		d := m.ctl.Result()
		if d == nil {
			return ""
		}
		parts := []string{m.theme.SuccessText.Render("✓ ready")}
		if pct, ok := d.Confidence(); ok {
			parts = append(parts, RenderConfidenceBar(pct, 10, m.theme)+fmt.Sprintf(" %d%%", pct))
		}
		for _, st := range d.Steps {
			parts = append(parts, RenderStepBadge(st.StepType))
		}
		return strings.Join(parts, " ")
	}
	return m.theme.MutedText.Render("idle")
}
