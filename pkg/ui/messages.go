package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/sortinghat/pkg/browse"
	"github.com/vanderheijden86/sortinghat/pkg/watcher"
	"github.com/vanderheijden86/sortinghat/pkg/workflow"
)

// Messages carrying finished jobs back into Update. Each wraps the job's
// result untouched; staleness is decided by the owning controller.
type (
	queryDoneMsg   struct{ browse.QueryResult }
	detailDoneMsg  struct{ browse.DetailResult }
	groupsDoneMsg  struct{ browse.GroupsResult }
	classifyMsg    struct{ workflow.Outcome }
	historyDoneMsg struct{ workflow.HistoryResult }

	// ConfigChangedMsg is sent when the watched config file changes.
	ConfigChangedMsg struct{}

	clearStatusMsg struct{ seq int }
)

const statusTTL = 3 * time.Second

func queryCmd(ctx context.Context, j *browse.QueryJob) tea.Cmd {
	if j == nil {
		return nil
	}
	return func() tea.Msg { return queryDoneMsg{j.Run(ctx)} }
}

func detailCmd(ctx context.Context, j *browse.DetailJob) tea.Cmd {
	if j == nil {
		return nil
	}
	return func() tea.Msg { return detailDoneMsg{j.Run(ctx)} }
}

func groupsCmd(ctx context.Context, j *browse.GroupsJob) tea.Cmd {
	if j == nil {
		return nil
	}
	return func() tea.Msg { return groupsDoneMsg{j.Run(ctx)} }
}

func classifyCmd(ctx context.Context, j *workflow.Job) tea.Cmd {
	if j == nil {
		return nil
	}
	return func() tea.Msg { return classifyMsg{j.Run(ctx)} }
}

func historyCmd(ctx context.Context, j *workflow.HistoryJob) tea.Cmd {
	if j == nil {
		return nil
	}
	return func() tea.Msg { return historyDoneMsg{j.Run(ctx)} }
}

// WatchConfigCmd blocks until the watcher reports a change.
func WatchConfigCmd(w *watcher.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		<-w.Changed()
		return ConfigChangedMsg{}
	}
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
