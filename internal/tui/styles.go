package tui

import "github.com/charmbracelet/lipgloss"

var (
	bannerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // blue
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true) // green
	optionStyle   = lipgloss.NewStyle()
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("45")) // cyan
	headlineStyle = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true) // red
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)
