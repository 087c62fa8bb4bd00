package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/magic-installer/magic-installer/internal/audio"
	"github.com/magic-installer/magic-installer/internal/config"
	"github.com/magic-installer/magic-installer/internal/resources"
	"github.com/magic-installer/magic-installer/internal/tui"
	"github.com/magic-installer/magic-installer/internal/version"
)

const debugArg = "debug"

var errNoTerminal = errors.New("magic-installer needs an interactive terminal")

func main() {
	// Global panic handler to keep stack traces off the user's screen
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\nOops, something broke: %v\n", r)
			fmt.Fprintln(os.Stderr, "Run with 'debug' and send the debug.txt file to the developers.")
			os.Exit(1)
		}
	}()

	log.SetFlags(0)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "magic-installer [debug]",
		Short:         "Install the Minecraft modpack and its mod loader",
		Version:       version.Display(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(hasArg(args, debugArg))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}
}

func run(debug bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	text, err := resources.Load(cfg.Language)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}

	if debug {
		f, err := tea.LogToFile(cfg.DebugLogPath(), "")
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer f.Close()
		log.Printf("magic-installer %s", version.Display())
	} else {
		log.SetOutput(io.Discard)
	}

	player := audio.NewPlayer(cfg.Sounds, log.Printf)
	defer player.Stop()

	opts := tui.DefaultOptions(cfg, text)
	opts.Cues = player
	return tui.Run(opts)
}

// loadConfig reads the override file next to the executable, or the
// embedded configuration, and prepares the staging directory.
func loadConfig() (*config.Installation, error) {
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}

	data, source, err := config.Resolve(exeDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	if err := cfg.EnsureStaging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
