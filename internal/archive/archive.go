package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeclysm/extract/v4"

	"github.com/magic-installer/magic-installer/internal/paths"
)

var (
	// ErrOpen reports an archive that is missing, unreadable or not an archive.
	ErrOpen = errors.New("cannot open archive")

	// ErrExtract reports an entry that could not be written or escapes the destination.
	ErrExtract = errors.New("cannot extract archive")
)

// Kind tells an open failure from an extraction failure.
type Kind int

const (
	OpenError Kind = iota
	ExtractError
)

// Error is returned by Extract. It matches ErrOpen or ErrExtract with errors.Is.
type Error struct {
	Kind    Kind
	Archive string
	Entry   string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == OpenError:
		return fmt.Sprintf("cannot open archive %s: %v", e.Archive, e.Err)
	case e.Entry != "":
		return fmt.Sprintf("cannot extract %s from %s: %v", e.Entry, e.Archive, e.Err)
	default:
		return fmt.Sprintf("cannot extract %s: %v", e.Archive, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrOpen:
		return e.Kind == OpenError
	case ErrExtract:
		return e.Kind == ExtractError
	}
	return false
}

// Extract unpacks archivePath into destDir, creating intermediate
// directories. The format (zip, tar, tar.gz, tar.bz2, tar.xz) is detected
// from the content. Entries or symlink targets that would land outside
// destDir abort the extraction.
func Extract(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return &Error{Kind: OpenError, Archive: archivePath, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &Error{Kind: OpenError, Archive: archivePath, Err: err}
	}
	if info.IsDir() {
		return &Error{Kind: OpenError, Archive: archivePath, Err: errors.New("is a directory")}
	}

	dest, err := filepath.Abs(destDir)
	if err != nil {
		return &Error{Kind: ExtractError, Archive: archivePath, Err: err}
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &Error{Kind: ExtractError, Archive: archivePath, Err: fmt.Errorf("failed to create destination: %w", err)}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fsys := newGuardedFS(dest, cancel)
	entries := 0
	guard := func(name string) string {
		entries++
		if _, err := paths.ValidatePath(dest, filepath.Join(dest, name)); err != nil {
			fsys.reject(name)
			return ""
		}
		return name
	}

	x := extract.Extractor{FS: fsys}
	err = x.Archive(ctx, f, dest, guard)
	switch {
	case fsys.escaped != "":
		return &Error{Kind: ExtractError, Archive: archivePath, Entry: fsys.escaped, Err: paths.ErrTraversal}
	case err == nil:
		return nil
	case entries == 0:
		return &Error{Kind: OpenError, Archive: archivePath, Err: err}
	default:
		return &Error{Kind: ExtractError, Archive: archivePath, Err: err}
	}
}

// guardedFS writes to disk only inside dest. Symlink targets are resolved
// against the link's directory, and files or directories reached through an
// existing link must still resolve inside dest.
type guardedFS struct {
	dest    string
	root    string
	cancel  context.CancelFunc
	escaped string
}

func newGuardedFS(dest string, cancel context.CancelFunc) *guardedFS {
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		root = dest
	}
	return &guardedFS{dest: dest, root: root, cancel: cancel}
}

func (g *guardedFS) reject(entry string) error {
	if g.escaped == "" {
		g.escaped = entry
	}
	g.cancel()
	return fmt.Errorf("%w: %s", paths.ErrTraversal, entry)
}

func (g *guardedFS) entry(path string) string {
	if rel, err := filepath.Rel(g.dest, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// check rejects path when it, or the deepest part of it that exists,
// resolves outside dest.
func (g *guardedFS) check(path string) error {
	if _, err := paths.ValidatePath(g.dest, path); err != nil {
		return g.reject(g.entry(path))
	}

	existing := path
	var rest []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		// dangling link: judge where it points
		link, lerr := os.Readlink(existing)
		if lerr != nil {
			return nil
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(filepath.Dir(existing), link)
		}
		if _, err := paths.ValidatePath(g.dest, filepath.Join(append([]string{link}, rest...)...)); err != nil {
			return g.reject(g.entry(path))
		}
		return nil
	}
	resolved = filepath.Join(append([]string{resolved}, rest...)...)
	if _, err := paths.ValidatePath(g.root, resolved); err != nil {
		return g.reject(g.entry(path))
	}
	return nil
}

// checkParent is check for the directory holding path. The last element
// itself is not followed.
func (g *guardedFS) checkParent(path string) error {
	if _, err := paths.ValidatePath(g.dest, path); err != nil {
		return g.reject(g.entry(path))
	}
	if path == g.dest {
		return nil
	}
	return g.check(filepath.Dir(path))
}

func (g *guardedFS) Link(oldname, newname string) error {
	if err := g.check(oldname); err != nil {
		return err
	}
	if err := g.checkParent(newname); err != nil {
		return err
	}
	return os.Link(oldname, newname)
}

func (g *guardedFS) Symlink(oldname, newname string) error {
	target := oldname
	if !filepath.IsAbs(target) && !strings.HasPrefix(target, "/") && !strings.HasPrefix(target, `\`) {
		target = filepath.Join(filepath.Dir(newname), target)
	}
	if _, err := paths.ValidatePath(g.dest, target); err != nil {
		return g.reject(g.entry(newname))
	}
	if err := g.checkParent(newname); err != nil {
		return err
	}
	return os.Symlink(oldname, newname)
}

func (g *guardedFS) MkdirAll(path string, perm os.FileMode) error {
	if err := g.check(path); err != nil {
		return err
	}
	return os.MkdirAll(path, perm)
}

func (g *guardedFS) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	if err := g.check(name); err != nil {
		return nil, err
	}
	return os.OpenFile(name, flag, perm)
}

func (g *guardedFS) Remove(path string) error {
	if err := g.checkParent(path); err != nil {
		return err
	}
	return os.Remove(path)
}

func (g *guardedFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (g *guardedFS) Chmod(name string, mode os.FileMode) error {
	if err := g.check(name); err != nil {
		return err
	}
	return os.Chmod(name, mode)
}
