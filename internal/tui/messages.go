package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/magic-installer/magic-installer/internal/download"
	"github.com/magic-installer/magic-installer/internal/remover"
)

// Every message produced by an action carries the run id of that action so
// late messages from an aborted run are dropped.

type removalDoneMsg struct {
	run      string
	outcomes []remover.Outcome
}

type progressMsg struct {
	run      string
	progress download.Progress
	closed   bool
}

type extractDoneMsg struct {
	run string
	err error
}

type launchDoneMsg struct {
	run string
	err error
}

// noticeMsg replaces the page headline for hold, then delivers next.
type noticeMsg struct {
	run  string
	text string
	hold time.Duration
	next tea.Msg
}

// stepDoneMsg advances to the next step of the running action.
type stepDoneMsg struct {
	run string
}

// statusMsg carries the main menu status line.
type statusMsg struct {
	text string
}

// menuMsg ends the error display and returns to the main menu.
type menuMsg struct {
	run string
}

func waitForProgress(run string, ch <-chan download.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return progressMsg{run: run, closed: true}
		}
		return progressMsg{run: run, progress: p}
	}
}

// after delivers msg once d has elapsed, or right away when d is zero.
func after(d time.Duration, msg tea.Msg) tea.Cmd {
	if d <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}
