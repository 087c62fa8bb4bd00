package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/magic-installer/magic-installer/internal/paths"
	th "github.com/magic-installer/magic-installer/testing"
)

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	files := th.ModpackFiles()
	archivePath := th.WriteZip(t, filepath.Join(dir, "staging", "modpack.zip"), files)
	dest := filepath.Join(dir, "minecraft")

	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}

	for name, content := range files {
		th.AssertFileContent(t, th.Join(dest, name), content)
	}
}

func TestExtractOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "minecraft")
	th.WriteFile(t, filepath.Join(dest, "options.txt"), "renderDistance:2")
	th.WriteFile(t, filepath.Join(dest, "saves", "world", "level.dat"), "keep me")

	archivePath := th.WriteZip(t, filepath.Join(dir, "modpack.zip"), map[string]string{
		"options.txt": "renderDistance:12",
	})

	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}

	th.AssertFileContent(t, filepath.Join(dest, "options.txt"), "renderDistance:12")
	th.AssertFileContent(t, filepath.Join(dest, "saves", "world", "level.dat"), "keep me")
}

func TestExtractTarGz(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	content := []byte("fabric-installer")
	if err := tw.WriteHeader(&tar.Header{Name: "installer/fabric.jar", Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "modloader.tar.gz")
	th.WriteFile(t, archivePath, buf.String())

	dest := filepath.Join(dir, "out")
	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	th.AssertFileContent(t, filepath.Join(dest, "installer", "fabric.jar"), "fabric-installer")
}

func TestExtractOpenErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.zip")
	th.WriteFile(t, garbage, "this is not an archive at all")

	tests := []struct {
		name    string
		archive string
	}{
		{"missing file", filepath.Join(dir, "nope.zip")},
		{"directory", dir},
		{"not an archive", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "dest")

			err := Extract(context.Background(), tt.archive, dest)
			if !errors.Is(err, ErrOpen) {
				t.Fatalf("Extract() error = %v, want ErrOpen", err)
			}
			if errors.Is(err, ErrExtract) {
				t.Error("open failure also matches ErrExtract")
			}

			var archiveErr *Error
			if !errors.As(err, &archiveErr) || archiveErr.Kind != OpenError {
				t.Errorf("Extract() error = %#v, want *Error with OpenError", err)
			}
		})
	}
}

func TestExtractCorruptLeavesDestinationUnchanged(t *testing.T) {
	dir := t.TempDir()
	full := th.BuildZip(t, th.ModpackFiles())
	corrupt := filepath.Join(dir, "modpack.zip")
	th.WriteFile(t, corrupt, string(full[:len(full)/2]))

	dest := filepath.Join(dir, "minecraft")
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}

	err := Extract(context.Background(), corrupt, dest)
	if !errors.Is(err, ErrOpen) && !errors.Is(err, ErrExtract) {
		t.Fatalf("Extract() error = %v, want ErrOpen or ErrExtract", err)
	}
	th.AssertDirEmpty(t, dest)
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := th.WriteZip(t, filepath.Join(dir, "evil.zip"), map[string]string{
		"../escaped.txt": "gotcha",
	})
	dest := filepath.Join(dir, "minecraft")

	err := Extract(context.Background(), archivePath, dest)
	assertTraversal(t, err)
	th.AssertFileNotExists(t, filepath.Join(dir, "escaped.txt"))
}

// symlinkZip writes a zip holding regular files and symlink entries, the
// latter keyed by link name with their target as value.
func symlinkZip(t *testing.T, path string, files, links map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name, body string, mode fs.FileMode) {
		header := &zip.FileHeader{Name: name, Method: zip.Store}
		header.SetMode(mode)
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	for name, body := range files {
		add(name, body, 0o644)
	}
	for name, target := range links {
		add(name, target, fs.ModeSymlink|0o777)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}

	th.WriteFile(t, path, buf.String())
	return path
}

func assertTraversal(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, ErrExtract) || !errors.Is(err, paths.ErrTraversal) {
		t.Fatalf("Extract() error = %v, want ErrExtract wrapping ErrTraversal", err)
	}
	if errors.Is(err, ErrOpen) {
		t.Errorf("traversal also matches ErrOpen: %v", err)
	}
}

func TestExtractRejectsEscapingSymlink(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"relative parent", "../outside"},
		{"nested parent", "config/../../outside"},
		{"absolute", filepath.Join(os.TempDir(), "outside")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			dest := filepath.Join(dir, "minecraft")
			archivePath := symlinkZip(t, filepath.Join(dir, "links.zip"),
				map[string]string{"options.txt": "renderDistance:12"},
				map[string]string{"resourcepacks": tt.target},
			)

			err := Extract(context.Background(), archivePath, dest)
			assertTraversal(t, err)

			var archiveErr *Error
			if errors.As(err, &archiveErr) && archiveErr.Entry != "resourcepacks" {
				t.Errorf("Entry = %q, want resourcepacks", archiveErr.Entry)
			}
			if _, err := os.Lstat(filepath.Join(dest, "resourcepacks")); err == nil {
				t.Error("escaping symlink was created")
			}
		})
	}
}

func TestExtractRejectsWritesThroughExistingLink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("creating symlinks needs extra privileges on Windows")
	}

	dir := t.TempDir()
	dest := filepath.Join(dir, "minecraft")
	outside := filepath.Join(dir, "outside")
	if err := os.MkdirAll(outside, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("../outside", filepath.Join(dest, "resourcepacks")); err != nil {
		t.Fatal(err)
	}

	archivePath := th.WriteZip(t, filepath.Join(dir, "modpack.zip"), map[string]string{
		"resourcepacks/pwned.txt": "gotcha",
	})

	err := Extract(context.Background(), archivePath, dest)
	assertTraversal(t, err)
	th.AssertFileNotExists(t, filepath.Join(outside, "pwned.txt"))
}

func TestExtractKeepsInternalSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("creating symlinks needs extra privileges on Windows")
	}

	dir := t.TempDir()
	dest := filepath.Join(dir, "minecraft")
	archivePath := symlinkZip(t, filepath.Join(dir, "links.zip"),
		map[string]string{"mods/sodium.jar": "sodium", "config/sodium.json": "{}"},
		map[string]string{"config/latest.jar": "../mods/sodium.jar"},
	)

	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}

	target, err := os.Readlink(filepath.Join(dest, "config", "latest.jar"))
	if err != nil {
		t.Fatalf("symlink not created: %v", err)
	}
	if target != "../mods/sodium.jar" {
		t.Errorf("symlink target = %q", target)
	}
	th.AssertFileContent(t, filepath.Join(dest, "config", "latest.jar"), "sodium")
}
