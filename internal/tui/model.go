package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/magic-installer/magic-installer/internal/config"
	"github.com/magic-installer/magic-installer/internal/download"
	"github.com/magic-installer/magic-installer/internal/install"
	"github.com/magic-installer/magic-installer/internal/remover"
	"github.com/magic-installer/magic-installer/internal/resources"
)

// State is the page currently shown.
type State int

const (
	StateMainMenu State = iota
	StateRemovingFiles
	StateDownloading
	StateExtracting
	StateLaunching
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "main-menu"
	case StateRemovingFiles:
		return "removing-files"
	case StateDownloading:
		return "downloading"
	case StateExtracting:
		return "extracting"
	case StateLaunching:
		return "launching"
	case StateExiting:
		return "exiting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transferer starts a download and reports its progress.
type Transferer interface {
	Transfer(ctx context.Context, t download.Target) <-chan download.Progress
}

// Cues plays feedback sounds.
type Cues interface {
	Select()
	Success()
	Failure()
}

type silentCues struct{}

func (silentCues) Select()  {}
func (silentCues) Success() {}
func (silentCues) Failure() {}

// Delays controls how long messages stay on screen.
type Delays struct {
	Error  time.Duration
	Notice time.Duration
	Absent time.Duration
}

// DefaultDelays are the on-screen durations used by the installer.
var DefaultDelays = Delays{
	Error:  2 * time.Second,
	Notice: time.Second,
	Absent: 250 * time.Millisecond,
}

// Options wires the model to its components.
type Options struct {
	Config  *config.Installation
	Text    *resources.Bundle
	Version string

	Transfer  Transferer
	Extract   func(ctx context.Context, archivePath, destDir string) error
	Launch    func(path string) error
	Remove    func(baseDir string, subpaths []string) []remover.Outcome
	FreeSpace func(dir string) (uint64, error)

	Cues   Cues
	Logf   func(format string, args ...interface{})
	Delays Delays
}

// Model is the installer's bubbletea model. It runs one action at a time,
// one step at a time.
type Model struct {
	opts Options

	state    State
	selected int
	width    int
	height   int

	action install.Action
	runID  string
	steps  []install.Step
	step   int

	headline    string
	busy        bool
	err         error
	progress    download.Progress
	hasProgress bool
	progressCh  <-chan download.Progress

	status string

	bar  progress.Model
	spin spinner.Model
}

// New returns a model on the main menu.
func New(opts Options) Model {
	if opts.Cues == nil {
		opts.Cues = silentCues{}
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...interface{}) {}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		opts:  opts,
		state: StateMainMenu,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(50), progress.WithoutPercentage()),
		spin:  sp,
	}
	return m
}

// State returns the page currently shown.
func (m Model) State() State { return m.state }

// Selected returns the highlighted menu entry.
func (m Model) Selected() int { return m.selected }

// Err returns the error on screen, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle(m.opts.Text.WindowTitle), m.checkStatus())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		if m.state != StateExtracting || !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case removalDoneMsg:
		if msg.run != m.runID {
			return m, nil
		}
		return m.removalDone(msg.outcomes)

	case progressMsg:
		if msg.run != m.runID || m.state != StateDownloading {
			return m, nil
		}
		return m.transferProgress(msg)

	case extractDoneMsg:
		if msg.run != m.runID {
			return m, nil
		}
		if msg.err != nil {
			return m.fail(msg.err)
		}
		return m.notice(m.opts.Text.Messages.Installed)

	case launchDoneMsg:
		if msg.run != m.runID {
			return m, nil
		}
		if msg.err != nil {
			return m.fail(msg.err)
		}
		return m.notice(m.opts.Text.Messages.Launched)

	case noticeMsg:
		if msg.run != m.runID {
			return m, nil
		}
		m.headline = msg.text
		m.busy = false
		return m, after(msg.hold, msg.next)

	case stepDoneMsg:
		if msg.run != m.runID {
			return m, nil
		}
		m.step++
		return m.runStep()

	case menuMsg:
		if msg.run != m.runID {
			return m, nil
		}
		return m.backToMenu()

	case statusMsg:
		m.status = msg.text
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.exit()
	}
	if m.state != StateMainMenu {
		return m, nil
	}

	count := len(m.opts.Text.Menu)
	switch msg.String() {
	case "up", "k":
		m.selected = Wrap(m.selected, -1, count)
		m.opts.Cues.Select()
	case "down", "j":
		m.selected = Wrap(m.selected, 1, count)
		m.opts.Cues.Select()
	case "enter":
		return m.start(install.Actions[m.selected])
	case "esc", "q":
		return m.exit()
	}
	return m, nil
}

func (m Model) exit() (tea.Model, tea.Cmd) {
	if m.runID != "" {
		m.opts.Logf("[%s] %s interrupted in %s", m.runID, m.action, m.state)
	}
	m.state = StateExiting
	return m, tea.Quit
}

func (m Model) start(action install.Action) (tea.Model, tea.Cmd) {
	if action == install.Quit {
		return m.exit()
	}

	m.action = action
	m.runID = uuid.NewString()[:8]
	m.steps = install.Plan(action, m.opts.Config)
	m.step = 0
	m.err = nil
	m.opts.Logf("[%s] %s started (%d steps)", m.runID, action, len(m.steps))
	return m.runStep()
}

func (m Model) runStep() (tea.Model, tea.Cmd) {
	if m.step >= len(m.steps) {
		m.opts.Logf("[%s] %s finished", m.runID, m.action)
		m.opts.Cues.Success()
		return m.backToMenu()
	}

	step := m.steps[m.step]
	run := m.runID
	text := m.opts.Text.Messages
	m.busy = true
	m.opts.Logf("[%s] step %d/%d: %s", run, m.step+1, len(m.steps), step.Kind)

	switch step.Kind {
	case install.StepRemove:
		m.state = StateRemovingFiles
		m.headline = text.Removing
		remove := m.opts.Remove
		return m, func() tea.Msg {
			return removalDoneMsg{run: run, outcomes: remove(step.BaseDir, step.Subpaths)}
		}

	case install.StepDownload:
		m.state = StateDownloading
		m.headline = text.Downloading
		m.progress = download.Progress{}
		m.hasProgress = false
		m.opts.Logf("[%s] downloading %s to %s", run, step.Target.URL, step.Target.Destination)
		m.progressCh = m.opts.Transfer.Transfer(context.Background(), step.Target)
		return m, waitForProgress(run, m.progressCh)

	case install.StepExtract:
		m.state = StateExtracting
		m.headline = text.Installing
		extract := m.opts.Extract
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			return extractDoneMsg{run: run, err: extract(context.Background(), step.Archive, step.DestDir)}
		})

	case install.StepLaunch:
		m.state = StateLaunching
		m.headline = text.Launching
		launch := m.opts.Launch
		return m, func() tea.Msg {
			return launchDoneMsg{run: run, err: launch(step.Executable)}
		}
	}

	return m.fail(fmt.Errorf("unknown step %v", step.Kind))
}

func (m Model) removalDone(outcomes []remover.Outcome) (tea.Model, tea.Cmd) {
	for _, o := range outcomes {
		if o.Err != nil {
			m.opts.Logf("[%s] %s: %s (%v)", m.runID, o.Path, o.Status, o.Err)
		} else {
			m.opts.Logf("[%s] %s: %s", m.runID, o.Path, o.Status)
		}
	}

	sum := remover.Summarize(outcomes)
	if err := sum.Err(); err != nil {
		return m.fail(err)
	}

	text := m.opts.Text.Messages
	var next tea.Msg = noticeMsg{run: m.runID, text: text.Removed, hold: m.opts.Delays.Notice, next: stepDoneMsg{run: m.runID}}
	for i := len(outcomes) - 1; i >= 0; i-- {
		if outcomes[i].Status == remover.Absent {
			next = noticeMsg{
				run:  m.runID,
				text: fmt.Sprintf(text.AlreadyRemoved, outcomes[i].Subpath),
				hold: m.opts.Delays.Absent,
				next: next,
			}
		}
	}
	return m, after(0, next)
}

func (m Model) transferProgress(msg progressMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		m.progressCh = nil
		return m.fail(errors.New("transfer ended without a result"))
	}

	p := msg.progress
	switch p.State {
	case download.InProgress:
		m.progress = p
		m.hasProgress = true
		return m, waitForProgress(m.runID, m.progressCh)
	case download.Completed:
		m.progress = p
		m.hasProgress = true
		m.progressCh = nil
		m.opts.Logf("[%s] downloaded %d bytes", m.runID, p.BytesComplete)
		return m.notice(m.opts.Text.Messages.Downloaded)
	default:
		m.progressCh = nil
		return m.fail(p.Err)
	}
}

// notice shows a success message for the notice delay, then moves on.
func (m Model) notice(text string) (tea.Model, tea.Cmd) {
	m.headline = text
	m.busy = false
	return m, after(m.opts.Delays.Notice, stepDoneMsg{run: m.runID})
}

// fail shows err on the current page, then returns to the menu. The rest
// of the action is dropped.
func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	if err == nil {
		err = errors.New("unknown error")
	}
	m.err = err
	m.busy = false
	m.opts.Logf("[%s] %s failed during %s: %v", m.runID, m.action, m.state, err)
	m.opts.Cues.Failure()
	return m, after(m.opts.Delays.Error, menuMsg{run: m.runID})
}

func (m Model) backToMenu() (tea.Model, tea.Cmd) {
	m.state = StateMainMenu
	m.runID = ""
	m.steps = nil
	m.step = 0
	m.err = nil
	m.busy = false
	m.headline = ""
	m.progressCh = nil
	m.hasProgress = false
	return m, m.checkStatus()
}

// checkStatus looks for an installed modpack and the free space off the
// update loop.
func (m Model) checkStatus() tea.Cmd {
	text := m.opts.Text.Messages
	dir := m.opts.Config.TargetDir
	freeSpace := m.opts.FreeSpace
	logf := m.opts.Logf

	return func() tea.Msg {
		status := text.ModpackAbsent
		if install.HasModpack(dir) {
			status = text.ModpackPresent
		}

		if freeSpace != nil {
			free, err := freeSpace(dir)
			if err != nil {
				logf("free space unavailable: %v", err)
			} else {
				status += "  ·  " + fmt.Sprintf(text.FreeSpace, HumanizeBytes(int64(free)))
			}
		}
		return statusMsg{text: status}
	}
}
