package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding shown in the help bar.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Activate    key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Search      key.Binding
	Branch      key.Binding
	Group       key.Binding
	Refresh     key.Binding
	Copy        key.Binding
	Focus       key.Binding
	NextTab     key.Binding
	TaxonomyTab key.Binding
	ClassifyTab key.Binding
	Edit        key.Binding
	Steps       key.Binding
	History     key.Binding
	Reset       key.Binding
	Back        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Activate:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open/toggle")),
		Expand:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Collapse:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Branch:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "branch")),
		Group:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "group filter")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		NextTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "switch tab")),
		TaxonomyTab: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "taxonomy")),
		ClassifyTab: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "classify")),
		Edit:        key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "edit url")),
		Steps:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "pipeline steps")),
		History:     key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "reload history")),
		Reset:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// taxonomyKeys adapts KeyMap to help.KeyMap for the taxonomy tab.
type taxonomyKeys struct{ KeyMap }

func (k taxonomyKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Activate, k.Branch, k.Group, k.Copy, k.ClassifyTab, k.Help, k.Quit}
}

func (k taxonomyKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Activate, k.Expand, k.Collapse, k.ExpandAll, k.CollapseAll},
		{k.Search, k.Branch, k.Group, k.Refresh, k.Copy},
		{k.Focus, k.NextTab, k.TaxonomyTab, k.ClassifyTab, k.Help, k.Quit},
	}
}

// classifyKeys adapts KeyMap to help.KeyMap for the classify tab.
type classifyKeys struct{ KeyMap }

func (k classifyKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Steps, k.Focus, k.Copy, k.TaxonomyTab, k.Help, k.Quit}
}

func (k classifyKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Edit, k.Activate, k.Back, k.Reset},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Steps, k.History, k.Copy, k.Focus},
		{k.NextTab, k.TaxonomyTab, k.ClassifyTab, k.Help, k.Quit},
	}
}
