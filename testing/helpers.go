package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// WriteFile creates a test file with content
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	err = os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist: %s", path)
	}
}

// AssertFileContent checks file content matches expected
func AssertFileContent(t *testing.T, path, expected string) {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	if string(content) != expected {
		t.Errorf("file content mismatch for %s:\nwant: %q\ngot:  %q", path, expected, string(content))
	}
}

// AssertDirEmpty checks that dir has no entries
func AssertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory %s should be empty, has %v", dir, names)
	}
}

// AssertContains checks if a string contains a substring
func AssertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: string %q does not contain %q", msg, s, substr)
	}
}

// maxDriveSteps bounds Drive so a model stuck in a loop fails instead of hanging.
const maxDriveSteps = 10000

// Drive runs cmd and feeds every resulting message back into m, executing
// the commands Update returns, until done reports true or no work is left.
// Commands run synchronously in FIFO order; spinner ticks are dropped.
func Drive(t *testing.T, m tea.Model, cmd tea.Cmd, done func(tea.Model) bool) tea.Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > maxDriveSteps {
			t.Fatalf("model did not settle after %d steps", maxDriveSteps)
		}

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg:
		case tea.QuitMsg:
			return m
		default:
			var c tea.Cmd
			m, c = m.Update(msg)
			if done != nil && done(m) {
				return m
			}
			queue = append(queue, c)
		}
	}
	return m
}

// Send delivers msg to m and drives the returned command to completion.
func Send(t *testing.T, m tea.Model, msg tea.Msg, done func(tea.Model) bool) tea.Model {
	t.Helper()
	m, cmd := m.Update(msg)
	if done != nil && done(m) {
		return m
	}
	return Drive(t, m, cmd, done)
}
