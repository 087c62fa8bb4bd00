package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magic-installer/magic-installer/internal/config"
	"github.com/magic-installer/magic-installer/internal/download"
)

// Staged archive names inside the staging folder
const (
	ModpackArchive   = "modpack.zip"
	ModloaderArchive = "modloader.zip"
)

// Action is a main menu entry, in menu order.
type Action int

const (
	InstallModpack Action = iota
	InstallModloader
	RemoveFiles
	Quit
)

// Actions lists every action in menu order.
var Actions = []Action{InstallModpack, InstallModloader, RemoveFiles, Quit}

func (a Action) String() string {
	switch a {
	case InstallModpack:
		return "install-modpack"
	case InstallModloader:
		return "install-modloader"
	case RemoveFiles:
		return "remove-files"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// StepKind selects the component that runs a step.
type StepKind int

const (
	StepRemove StepKind = iota
	StepDownload
	StepExtract
	StepLaunch
)

func (k StepKind) String() string {
	switch k {
	case StepRemove:
		return "remove"
	case StepDownload:
		return "download"
	case StepExtract:
		return "extract"
	case StepLaunch:
		return "launch"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// Step is one unit of work. Only the fields for its Kind are set.
type Step struct {
	Kind StepKind

	// StepRemove
	BaseDir  string
	Subpaths []string

	// StepDownload
	Target download.Target

	// StepExtract
	Archive string
	DestDir string

	// StepLaunch
	Executable string
}

// Plan returns the steps an action runs, in order. Quit has none.
func Plan(a Action, cfg *config.Installation) []Step {
	switch a {
	case InstallModpack:
		archive := filepath.Join(cfg.StagingDir, ModpackArchive)
		return []Step{
			{Kind: StepRemove, BaseDir: cfg.TargetDir, Subpaths: cfg.Remove},
			{Kind: StepDownload, Target: download.Target{Destination: archive, URL: cfg.ModpackURL}},
			{Kind: StepExtract, Archive: archive, DestDir: cfg.TargetDir},
		}
	case InstallModloader:
		archive := filepath.Join(cfg.StagingDir, ModloaderArchive)
		return []Step{
			{Kind: StepDownload, Target: download.Target{Destination: archive, URL: cfg.ModloaderURL}},
			{Kind: StepExtract, Archive: archive, DestDir: cfg.StagingDir},
			{Kind: StepLaunch, Executable: filepath.Join(cfg.StagingDir, filepath.FromSlash(cfg.ModloaderExecName))},
		}
	case RemoveFiles:
		return []Step{
			{Kind: StepRemove, BaseDir: cfg.TargetDir, Subpaths: cfg.Remove},
		}
	default:
		return nil
	}
}

// HasModpack checks if the game directory holds installed mods
func HasModpack(targetDir string) bool {
	modsDir := filepath.Join(targetDir, "mods")
	if info, err := os.Stat(modsDir); err != nil || !info.IsDir() {
		return false
	}

	entries, err := os.ReadDir(modsDir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), ".jar") {
			return true
		}
	}

	return false
}
