package integration

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/magic-installer/magic-installer/internal/config"
	"github.com/magic-installer/magic-installer/internal/resources"
	"github.com/magic-installer/magic-installer/internal/tui"
	th "github.com/magic-installer/magic-installer/testing"
)

// TestEnvironment is a game directory wired to a payload server
type TestEnvironment struct {
	T         *testing.T
	TargetDir string
	Server    *th.MockPayloadServer
	Config    *config.Installation
}

// SetupTestEnvironment creates a game directory and a payload server
// serving the modpack and modloader archives.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	server := th.NewMockPayloadServer(t)
	target := t.TempDir()

	data := []byte(strings.Join([]string{
		config.KeyModpackURL + "=" + server.URL("/modpack.zip"),
		config.KeyModloaderURL + "=" + server.URL("/modloader.zip"),
		config.KeyExecName + "=fabric-installer.sh",
		config.KeyTargetDir + "=" + filepath.ToSlash(target),
		config.KeyRemove + "=mods, config",
	}, "\n"))

	cfg, err := config.Load(data)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if err := cfg.EnsureStaging(); err != nil {
		t.Fatalf("EnsureStaging() error = %v", err)
	}

	return &TestEnvironment{
		T:         t,
		TargetDir: cfg.TargetDir,
		Server:    server,
		Config:    cfg,
	}
}

// Model returns the installer UI wired to the real components, with no
// on-screen delays.
func (env *TestEnvironment) Model() tui.Model {
	env.T.Helper()

	text, err := resources.Load(env.Config.Language)
	if err != nil {
		env.T.Fatalf("resources.Load() error = %v", err)
	}

	opts := tui.DefaultOptions(env.Config, text)
	opts.Delays = tui.Delays{}
	opts.Logf = env.T.Logf
	return tui.New(opts)
}

// Path returns the platform path for a slash-separated name in the game directory
func (env *TestEnvironment) Path(name string) string {
	return th.Join(env.TargetDir, name)
}

// Staged returns the platform path for name in the staging directory
func (env *TestEnvironment) Staged(name string) string {
	return th.Join(env.Config.StagingDir, name)
}
