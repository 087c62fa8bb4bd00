package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	switch m.state {
	case StateExiting:
		return ""
	case StateMainMenu:
		return m.place(m.menuView())
	default:
		return m.place(m.pageView())
	}
}

func (m Model) menuView() string {
	text := m.opts.Text

	lines := []string{
		bannerStyle.Render(text.Title),
		"",
		dimStyle.Render(text.Author + "  " + m.opts.Version),
		dimStyle.Render(text.Controls),
		"",
	}

	for i, option := range text.Menu {
		if i == m.selected {
			lines = append(lines, selectedStyle.Render("> "+option))
		} else {
			lines = append(lines, optionStyle.Render("  "+option))
		}
	}

	lines = append(lines, "", statusStyle.Render(m.status), "", dimStyle.Render(text.Bottom))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m Model) pageView() string {
	headline := headlineStyle.Render(m.headline)
	if m.state == StateExtracting && m.busy {
		headline = m.spin.View() + " " + headline
	}
	lines := []string{headline, ""}

	switch {
	case m.err != nil:
		lines = append(lines, errorStyle.Render(fmt.Sprintf(m.opts.Text.Messages.Error, m.err.Error())))
	case m.state == StateDownloading && m.busy && !m.hasProgress:
		lines = append(lines, dimStyle.Render(m.opts.Text.Messages.Preparing))
	case m.state == StateDownloading && m.hasProgress:
		pct := m.progress.Percent()
		lines = append(lines,
			m.bar.ViewAs(float64(pct)/100)+fmt.Sprintf(" %3d%%", pct),
			dimStyle.Render(HumanizeBytes(m.progress.BytesComplete)+" / "+HumanizeBytes(m.progress.BytesTotal)),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

// place centers content in the terminal once its size is known.
func (m Model) place(content string) string {
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
