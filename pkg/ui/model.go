package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/sortinghat/pkg/browse"
	"github.com/vanderheijden86/sortinghat/pkg/config"
	"github.com/vanderheijden86/sortinghat/pkg/debug"
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/model"
	"github.com/vanderheijden86/sortinghat/pkg/watcher"
	"github.com/vanderheijden86/sortinghat/pkg/workflow"
)

// Tab is one of the top-level views.
type Tab int

const (
	TabTaxonomy Tab = iota
	TabClassify
)

func (t Tab) String() string {
	if t == TabClassify {
		return "Classify"
	}
	return "Taxonomy"
}

type focus int

const (
	focusTree focus = iota
	focusDetail
	focusSearch
)

// narrowWidth is the width below which only the focused panel is drawn.
const narrowWidth = 80

// Backend is everything the TUI needs from the API.
type Backend interface {
	browse.Repository
	workflow.Classifier
}

// Options configures NewModel.
type Options struct {
	Config     config.Config
	ConfigPath string           // reloaded on change when Watcher is set
	Watcher    *watcher.Watcher // optional
	Context    context.Context  // parent for every request; defaults to Background
}

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	cfg     config.Config
	cfgPath string
	watcher *watcher.Watcher

	browser  *browse.Browser
	tree     TreeModel
	search   textinput.Model
	detail   viewport.Model
	renderer *MarkdownRenderer
	classify ClassifyModel
	help     help.Model
	keys     KeyMap
	theme    Theme

	tab    Tab
	focus  focus
	width  int
	height int
	ready  bool

	splitRatio float64

	statusMsg     string
	statusIsError bool
	statusSeq     int

	copyFn  func(string) error
	initial *browse.QueryJob
}

// NewModel builds the TUI on top of backend.
func NewModel(backend Backend, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	keys := DefaultKeyMap()

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search the taxonomy (2+ characters)"
	search.CharLimit = 200

	tree := NewTreeModel(theme)
	tree.SetIndent(opts.Config.UI.Indent)

	ctl := workflow.New(backend, opts.Config.API.Model)

	m := Model{
		ctx:        ctx,
		cfg:        opts.Config,
		cfgPath:    opts.ConfigPath,
		watcher:    opts.Watcher,
		browser:    browse.New(backend, opts.Config.Branch()),
		tree:       tree,
		search:     search,
		detail:     viewport.New(40, 10),
		renderer:   NewMarkdownRenderer(40),
		classify:   NewClassifyModel(ctx, ctl, theme, keys),
		help:       help.New(),
		keys:       keys,
		theme:      theme,
		splitRatio: opts.Config.UI.SplitRatio,
		copyFn:     clipboard.WriteAll,
	}
	if m.splitRatio <= 0 || m.splitRatio >= 1 {
		m.splitRatio = config.DefaultConfig().UI.SplitRatio
	}
	m.initial = m.browser.Refresh()
	m.syncTree()
	m.updateViewportContent()
	return m
}

// Browser exposes the taxonomy browser state.
func (m Model) Browser() *browse.Browser { return m.browser }

// Tab returns the active tab.
func (m Model) Tab() Tab { return m.tab }

// Status returns the transient status line and whether it is an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		queryCmd(m.ctx, m.initial),
		groupsCmd(m.ctx, m.browser.LoadGroups()),
		m.classify.Init(),
		WatchConfigCmd(m.watcher),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.recalculateSplitPaneSizes()
		return m, nil

	case queryDoneMsg:
		if m.browser.CompleteQuery(msg.QueryResult) {
			m.syncTree()
		}
		return m, nil

	case detailDoneMsg:
		if m.browser.CompleteDetail(msg.DetailResult) {
			m.updateViewportContent()
		}
		return m, nil

	case groupsDoneMsg:
		m.browser.CompleteGroups(msg.GroupsResult)
		return m, nil

	case classifyMsg, historyDoneMsg, spinner.TickMsg:
		var cmd tea.Cmd
		m.classify, cmd = m.classify.Update(msg)
		return m, cmd

	case ConfigChangedMsg:
		cmd := m.reloadConfig()
		return m, tea.Batch(cmd, WatchConfigCmd(m.watcher))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
			m.statusIsError = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.NextTab) {
		return m, m.switchTab(1 - m.tab)
	}

	// Text inputs swallow everything else.
	if m.tab == TabTaxonomy && m.focus == focusSearch {
		return m.handleSearchKey(msg)
	}
	if m.tab == TabClassify && m.classify.InputFocused() {
		var cmd tea.Cmd
		m.classify, cmd = m.classify.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.recalculateSplitPaneSizes()
		return m, nil
	case key.Matches(msg, m.keys.TaxonomyTab):
		return m, m.switchTab(TabTaxonomy)
	case key.Matches(msg, m.keys.ClassifyTab):
		return m, m.switchTab(TabClassify)
	}

	if m.tab == TabClassify {
		if key.Matches(msg, m.keys.Copy) {
			return m, m.copy(m.classify.CopyText(), "URL")
		}
		var cmd tea.Cmd
		m.classify, cmd = m.classify.Update(msg)
		return m, cmd
	}
	return m.handleTaxonomyKey(msg)
}

func (m *Model) switchTab(t Tab) tea.Cmd {
	if m.tab == t {
		return nil
	}
	m.tab = t
	m.recalculateSplitPaneSizes()
	return nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter, tea.KeyTab:
		m.search.Blur()
		m.focus = focusTree
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	job := m.browser.SetQuery(m.search.Value())
	m.syncTree()
	return m, tea.Batch(cmd, queryCmd(m.ctx, job))
}

func (m Model) handleTaxonomyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusDetail {
		switch {
		case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Back):
			m.focus = focusTree
			m.recalculateSplitPaneSizes()
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			return m, m.copy(m.selectedPath(), "path")
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
		return m, m.selectCurrent()
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
		return m, m.selectCurrent()
	case key.Matches(msg, m.keys.PageUp):
		m.tree.PageUp()
		return m, m.selectCurrent()
	case key.Matches(msg, m.keys.PageDown):
		m.tree.PageDown()
		return m, m.selectCurrent()
	case key.Matches(msg, m.keys.Top):
		m.tree.JumpToTop()
		return m, m.selectCurrent()
	case key.Matches(msg, m.keys.Bottom):
		m.tree.JumpToBottom()
		return m, m.selectCurrent()

	case key.Matches(msg, m.keys.Activate):
		job := m.browser.Activate(m.tree.CurrentID())
		m.syncTree()
		m.updateViewportContent()
		return m, detailCmd(m.ctx, job)

	case key.Matches(msg, m.keys.Expand):
		row, ok := m.tree.CurrentRow()
		if !ok || !row.HasChildren {
			return m, nil
		}
		if !row.Expanded {
			m.browser.Toggle(row.Node.ID)
			m.syncTree()
			return m, nil
		}
		m.tree.MoveDown()
		return m, m.selectCurrent()

	case key.Matches(msg, m.keys.Collapse):
		row, ok := m.tree.CurrentRow()
		if !ok {
			return m, nil
		}
		if row.Expanded {
			m.browser.Toggle(row.Node.ID)
			m.syncTree()
			return m, nil
		}
		if m.tree.JumpToParent() {
			return m, m.selectCurrent()
		}
		return m, nil

	case key.Matches(msg, m.keys.ExpandAll):
		m.browser.State().ExpandAll(m.browser.Forest())
		m.syncTree()
		return m, nil
	case key.Matches(msg, m.keys.CollapseAll):
		m.browser.State().CollapseAll(m.browser.Forest())
		m.syncTree()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.focus = focusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Back):
		if m.search.Value() == "" {
			return m, nil
		}
		m.search.SetValue("")
		job := m.browser.SetQuery("")
		m.syncTree()
		return m, queryCmd(m.ctx, job)

	case key.Matches(msg, m.keys.Branch):
		job := m.browser.SetBranch(m.browser.Branch().Next())
		m.syncTree()
		return m, queryCmd(m.ctx, job)

	case key.Matches(msg, m.keys.Group):
		job := m.browser.CycleGroup()
		m.syncTree()
		return m, queryCmd(m.ctx, job)

	case key.Matches(msg, m.keys.Refresh):
		job := m.browser.Refresh()
		m.syncTree()
		return m, tea.Batch(queryCmd(m.ctx, job), groupsCmd(m.ctx, m.browser.LoadGroups()))

	case key.Matches(msg, m.keys.Copy):
		return m, m.copy(m.selectedPath(), "path")

	case key.Matches(msg, m.keys.Focus):
		m.focus = focusDetail
		m.recalculateSplitPaneSizes()
		return m, nil
	}
	return m, nil
}

// selectCurrent selects the row under the cursor and loads its detail.
func (m *Model) selectCurrent() tea.Cmd {
	id := m.tree.CurrentID()
	if id == "" {
		return nil
	}
	job := m.browser.Select(id)
	m.syncTree()
	m.updateViewportContent()
	return detailCmd(m.ctx, job)
}

// selectedPath is the path of the loaded detail, falling back to the row
// under the cursor.
func (m Model) selectedPath() string {
	if d := m.browser.Detail(); d != nil && d.ID == m.browser.State().Selected() {
		return d.Path
	}
	if r, ok := m.tree.CurrentRow(); ok {
		return r.Node.Path
	}
	return ""
}

func (m *Model) copy(text, what string) tea.Cmd {
	if text == "" {
		return m.setStatus("Nothing to copy", true)
	}
	if err := m.copyFn(text); err != nil {
		debug.Warn("clipboard: %v", err)
		return m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
	}
	return m.setStatus(fmt.Sprintf("Copied %s: %s", what, text), false)
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.statusMsg = msg
	m.statusIsError = isErr
	return clearStatusCmd(m.statusSeq)
}

// syncTree pushes the browser rows into the tree, keeping the cursor on the
// highlighted node when it is still visible.
func (m *Model) syncTree() {
	keep := m.browser.State().Highlighted(m.browser.Forest())
	if keep == "" {
		keep = m.tree.CurrentID()
	}
	empty := "No nodes in this branch."
	if m.browser.Shown().Search() {
		empty = "No results"
	}
	m.tree.SetStatus(m.browser.Loading(), m.browser.Err(), empty)
	m.tree.SetRows(m.browser.Rows(), keep)
}

// reloadConfig applies UI settings from the config file.
func (m *Model) reloadConfig() tea.Cmd {
	if m.cfgPath == "" {
		return nil
	}
	cfg, err := config.LoadFrom(m.cfgPath)
	if err != nil {
		debug.Warn("config reload: %v", err)
		return m.setStatus(fmt.Sprintf("Config error: %v", err), true)
	}
	cfg.ApplyEnv()
	m.cfg = cfg
	m.splitRatio = cfg.UI.SplitRatio
	m.tree.SetIndent(cfg.UI.Indent)
	m.classify.Controller().SetModel(cfg.API.Model)
	m.recalculateSplitPaneSizes()
	m.syncTree()
	debug.Log("config reloaded from %s", m.cfgPath)
	return m.setStatus("Config reloaded", false)
}

// recalculateSplitPaneSizes sizes the tree, detail and classify panels
// from the window and the split ratio.
func (m *Model) recalculateSplitPaneSizes() {
	if !m.ready {
		return
	}
	m.help.Width = m.width

	// tabs + branch line, search line, footer, panel borders
	bodyHeight := m.height - 2 - 1 - m.footerHeight() - 2
	bodyHeight = max(bodyHeight, 3)

	if m.width < narrowWidth {
		inner := max(m.width-2, 10)
		m.tree.SetSize(inner, bodyHeight)
		m.detail.Width = inner
		m.detail.Height = max(bodyHeight-1, 1)
		m.renderer.SetWidth(inner - 2)
	} else {
		treeWidth := int(float64(m.width)*m.splitRatio) - 2
		detailWidth := m.width - treeWidth - 4
		m.tree.SetSize(treeWidth, bodyHeight)
		m.detail.Width = detailWidth
		m.detail.Height = max(bodyHeight-1, 1)
		m.renderer.SetWidth(detailWidth - 2)
	}
	m.classify.SetSize(m.width, m.height-2-m.footerHeight())
	m.updateViewportContent()
}

func (m Model) footerHeight() int {
	if m.help.ShowAll {
		return 5
	}
	return 1
}

// updateViewportContent renders the selected node into the detail pane.
func (m *Model) updateViewportContent() {
	d := m.browser.Detail()
	switch {
	case m.browser.DetailErr() != nil:
		m.detail.SetContent(m.theme.ErrorText.Render(errorText(m.browser.DetailErr())))
		return
	case d == nil && m.browser.DetailLoading():
		m.detail.SetContent(m.theme.MutedText.Render("Loading…"))
		return
	case d == nil:
		m.detail.SetContent(m.theme.MutedText.Render("Select a node to see its definition."))
		return
	}

	md := nodeDetailMarkdown(d)
	rendered, err := m.renderer.Render(md)
	if err != nil {
		debug.Warn("render detail: %v", err)
	}
	m.detail.SetContent(rendered)
	m.detail.GotoTop()
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if !m.ready {
		return "Loading…"
	}

	var body string
	if m.tab == TabClassify {
		body = m.classify.View()
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.renderBranchBar(),
			m.renderSearchLine(),
			m.renderTreeSplitView(),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.renderFooter())
}

func (m Model) renderTabs() string {
	tabs := []string{}
	for _, t := range []Tab{TabTaxonomy, TabClassify} {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == m.tab {
			tabs = append(tabs, m.theme.TabOn.Render(label))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(label))
		}
	}
	title := m.theme.PrimaryBold.Render("🎩 sortinghat")
	return title + "  " + strings.Join(tabs, " ")
}

func (m Model) renderBranchBar() string {
	var parts []string
	for _, b := range model.Branches {
		label := b.Title()
		if b == m.browser.Branch() {
			parts = append(parts, m.theme.Renderer.NewStyle().
				Foreground(m.theme.BranchColor(b)).Bold(true).Underline(true).Render(label))
		} else {
			parts = append(parts, m.theme.MutedText.Render(label))
		}
	}
	bar := strings.Join(parts, " │ ")
	if g := m.browser.GroupName(); g != "" {
		bar += "  " + m.theme.MutedText.Render("group:") + " " + g
	}
	if m.browser.Searching() {
		bar += "  " + m.theme.MutedText.Render("(search spans both branches)")
	}
	return bar
}

func (m Model) renderSearchLine() string {
	if m.focus == focusSearch || m.search.Value() != "" {
		return m.search.View()
	}
	return m.theme.MutedText.Render("/ to search")
}

// renderTreeSplitView draws the tree and detail panels side by side, or
// only the focused one on narrow terminals.
func (m Model) renderTreeSplitView() string {
	treeStyle, detailStyle := PanelStyle, PanelStyle
	if m.focus == focusDetail {
		detailStyle = FocusedPanelStyle
	} else {
		treeStyle = FocusedPanelStyle
	}

	treePanel := treeStyle.
		Width(m.tree.width).
		Height(m.tree.height).
		Render(m.tree.View())

	detailBody := lipgloss.JoinVertical(lipgloss.Left, m.renderDetailHeader(), m.detail.View())
	detailPanel := detailStyle.
		Width(m.detail.Width).
		Height(m.detail.Height + 1).
		Render(detailBody)

	if m.width < narrowWidth {
		if m.focus == focusDetail {
			return detailPanel
		}
		return treePanel
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, treePanel, detailPanel)
}

func (m Model) renderDetailHeader() string {
	d := m.browser.Detail()
	if d == nil {
		return ""
	}
	header := RenderBranchBadge(d.Branch, m.theme) + " " + RenderLevelBadge(d.Level, m.theme)
	if m.browser.DetailLoading() {
		header += " " + m.theme.MutedText.Render("loading…")
	}
	return header
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		if m.statusIsError {
			return m.theme.ErrorText.Render(m.statusMsg)
		}
		return m.theme.SuccessText.Render(m.statusMsg)
	}
	if m.tab == TabClassify {
		return m.help.View(classifyKeys{m.keys})
	}
	return m.help.View(taxonomyKeys{m.keys})
}
