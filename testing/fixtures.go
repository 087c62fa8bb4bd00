package testing

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// BuildZip returns a zip archive holding files, keyed by slash-separated
// entry name. Names ending in "/" become directory entries and ".sh"
// entries are marked executable.
func BuildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		switch {
		case strings.HasSuffix(name, "/"):
			header.SetMode(fs.ModeDir | 0o755)
		case strings.HasSuffix(name, ".sh"):
			header.SetMode(0o755)
		default:
			header.SetMode(0o644)
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to add %s to zip: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("failed to write %s to zip: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip builds a zip archive from files and writes it to path
func WriteZip(t *testing.T, path string, files map[string]string) string {
	t.Helper()
	WriteFile(t, path, string(BuildZip(t, files)))
	return path
}

// ModpackFiles is a small modpack layout used across tests
func ModpackFiles() map[string]string {
	return map[string]string{
		"mods/sodium.jar":        "sodium",
		"mods/lithium.jar":       "lithium",
		"config/sodium.json":     `{"quality":"fancy"}`,
		"options.txt":            "renderDistance:12",
		"resourcepacks/pack.zip": "pack",
	}
}

// Join returns the platform path for a slash-separated name under base
func Join(base, name string) string {
	return filepath.Join(base, filepath.FromSlash(name))
}
