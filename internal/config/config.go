package config

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/magic-installer/magic-installer/internal/paths"
)

const (
	// OverrideFile is read instead of the embedded configuration when it
	// sits next to the executable.
	OverrideFile = "magic_installer.txt"

	// StagingFolder holds downloaded archives and the debug log.
	StagingFolder = "magic_installer"

	// DebugLogFile is the debug log name inside the staging folder.
	DebugLogFile = "debug.txt"
)

// Configuration keys
const (
	KeyModpackURL   = "modpack_url"
	KeyModloaderURL = "modloader_url"
	KeyExecName     = "modloader_execname"
	KeyTargetDir    = "minecraft_folder"
	KeyRemove       = "remove"
	KeySounds       = "sounds"
	KeyLanguage     = "language"
)

// ErrConfig is returned when the configuration is missing a key or holds an invalid value.
var ErrConfig = errors.New("invalid configuration")

//go:embed config.txt
var embedded []byte

// Installation is the resolved configuration for one run. It is read-only
// once loaded.
type Installation struct {
	ModpackURL        string
	ModloaderURL      string
	ModloaderExecName string
	TargetDir         string
	StagingDir        string
	Remove            []string
	Sounds            bool
	Language          string
}

// DefaultRemove is the removal set used when the remove key is absent.
var DefaultRemove = []string{"mods", "config"}

// DefaultTargetDir returns the unexpanded game directory for the current platform.
func DefaultTargetDir() string {
	if runtime.GOOS == "windows" {
		return "%APPDATA%/.minecraft"
	}
	return "%HOME%/.minecraft"
}

// Resolve returns the configuration text and where it came from: the
// override file in exeDir when present, the embedded copy otherwise.
func Resolve(exeDir string) ([]byte, string, error) {
	if exeDir != "" {
		override := filepath.Join(exeDir, OverrideFile)
		data, err := os.ReadFile(override)
		if err == nil {
			return data, override, nil
		}
		if !os.IsNotExist(err) {
			return nil, override, fmt.Errorf("failed to read %s: %w", override, err)
		}
	}
	return embedded, "embedded", nil
}

// Parse reads key=value lines. Keys and values are trimmed; blank lines,
// # comments and lines without '=' are ignored. Later keys win.
func Parse(data []byte) map[string]string {
	values := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return values
}

// Load parses data, validates required keys and resolves paths.
func Load(data []byte) (*Installation, error) {
	values := Parse(data)

	cfg := &Installation{
		Remove:   DefaultRemove,
		Language: "fr",
	}

	var err error
	if cfg.ModpackURL, err = requireURL(values, KeyModpackURL); err != nil {
		return nil, err
	}
	if cfg.ModloaderURL, err = requireURL(values, KeyModloaderURL); err != nil {
		return nil, err
	}
	if cfg.ModloaderExecName, err = require(values, KeyExecName); err != nil {
		return nil, err
	}
	if exec := paths.Normalize(cfg.ModloaderExecName); filepath.IsAbs(cfg.ModloaderExecName) || exec == ".." || strings.HasPrefix(exec, "../") {
		return nil, fmt.Errorf("%w: %s must be a file name inside the staging folder", ErrConfig, KeyExecName)
	}

	target := values[KeyTargetDir]
	if target == "" {
		target = DefaultTargetDir()
	}
	cfg.TargetDir, err = paths.Expand(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", KeyTargetDir, err)
	}
	cfg.StagingDir = filepath.Join(cfg.TargetDir, StagingFolder)

	if raw, ok := values[KeyRemove]; ok {
		cfg.Remove = splitList(raw)
	}

	if raw, ok := values[KeySounds]; ok && raw != "" {
		cfg.Sounds, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a boolean", ErrConfig, KeySounds, raw)
		}
	}

	if lang := values[KeyLanguage]; lang != "" {
		cfg.Language = strings.ToLower(lang)
	}

	return cfg, nil
}

// EnsureStaging creates the staging directory.
func (c *Installation) EnsureStaging() error {
	if err := os.MkdirAll(c.StagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	return nil
}

// DebugLogPath returns the debug log location.
func (c *Installation) DebugLogPath() string {
	return filepath.Join(c.StagingDir, DebugLogFile)
}

func require(values map[string]string, key string) (string, error) {
	v := values[key]
	if v == "" {
		return "", fmt.Errorf("%w: missing key %s", ErrConfig, key)
	}
	return v, nil
}

func requireURL(values map[string]string, key string) (string, error) {
	v, err := require(values, key)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s=%q is not an http(s) URL", ErrConfig, key, v)
	}
	return v, nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		items = append(items, paths.Normalize(item))
	}
	return items
}
