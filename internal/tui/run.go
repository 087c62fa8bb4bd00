package tui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/magic-installer/magic-installer/internal/archive"
	"github.com/magic-installer/magic-installer/internal/config"
	"github.com/magic-installer/magic-installer/internal/download"
	"github.com/magic-installer/magic-installer/internal/paths"
	"github.com/magic-installer/magic-installer/internal/process"
	"github.com/magic-installer/magic-installer/internal/remover"
	"github.com/magic-installer/magic-installer/internal/resources"
	"github.com/magic-installer/magic-installer/internal/version"
)

// DefaultOptions wires the real components.
func DefaultOptions(cfg *config.Installation, text *resources.Bundle) Options {
	return Options{
		Config:    cfg,
		Text:      text,
		Version:   version.Display(),
		Transfer:  download.NewEngine(nil),
		Extract:   archive.Extract,
		Launch:    process.Launch,
		Remove:    remover.RemoveAll,
		FreeSpace: paths.FreeBytes,
		Logf:      log.Printf,
		Delays:    DefaultDelays,
	}
}

// Run shows the installer in the alternate screen until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
