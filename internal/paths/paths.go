package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// ErrEnvironment is returned when a path references an undefined environment variable.
var ErrEnvironment = errors.New("environment variable not defined")

// ErrTraversal is returned when a target path escapes its base directory.
var ErrTraversal = errors.New("path traversal attempt detected")

// Normalize converts a path to use forward slashes
func Normalize(p string) string {
	return strings.ReplaceAll(filepath.Clean(p), string(filepath.Separator), "/")
}

// Denormalize converts a path from forward slashes to platform-specific separators
func Denormalize(p string) string {
	return strings.ReplaceAll(p, "/", string(filepath.Separator))
}

// Expand substitutes %NAME% references and a leading ~ in p, then returns
// the cleaned absolute path.
func Expand(p string) (string, error) {
	return expand(p, lookupEnv, os.UserHomeDir)
}

// lookupEnv tries the name as written, then upper-cased.
func lookupEnv(name string) (string, bool) {
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}
	return os.LookupEnv(strings.ToUpper(name))
}

func expand(p string, lookup func(string) (string, bool), home func() (string, error)) (string, error) {
	var b strings.Builder
	rest := p
	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start + 1

		name := rest[start+1 : end]
		b.WriteString(rest[:start])
		if name == "" {
			b.WriteByte('%')
		} else {
			value, ok := lookup(name)
			if !ok {
				return "", fmt.Errorf("%w: %%%s%% in %q", ErrEnvironment, name, p)
			}
			b.WriteString(value)
		}
		rest = rest[end+1:]
	}

	expanded := b.String()
	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, `~\`) {
		dir, err := home()
		if err != nil {
			return "", fmt.Errorf("%w: home directory: %v", ErrEnvironment, err)
		}
		expanded = dir + expanded[1:]
	}

	abs, err := filepath.Abs(filepath.Clean(Denormalize(expanded)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", p, err)
	}
	return abs, nil
}

// ValidatePath ensures targetPath stays within basePath and returns its absolute form.
func ValidatePath(basePath, targetPath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("invalid target path: %w", err)
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrTraversal, targetPath)
	}

	return absTarget, nil
}

// FreeBytes reports the space available to the current user on the volume
// holding dir. Missing directories are resolved against their nearest
// existing parent.
func FreeBytes(dir string) (uint64, error) {
	existing := dir
	for {
		if _, err := os.Stat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}

	usage, err := disk.Usage(existing)
	if err != nil {
		return 0, fmt.Errorf("failed to query disk usage for %s: %w", dir, err)
	}
	return usage.Free, nil
}
