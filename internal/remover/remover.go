package remover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magic-installer/magic-installer/internal/paths"
)

// Status is the result of removing one entry.
type Status int

const (
	Removed Status = iota
	Absent
	Failed
)

func (s Status) String() string {
	switch s {
	case Removed:
		return "removed"
	case Absent:
		return "absent"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome reports what happened to one entry of the removal set.
type Outcome struct {
	Subpath string
	Path    string
	Status  Status
	Err     error
}

// Summary tallies a batch of outcomes.
type Summary struct {
	Removed  int
	Absent   int
	Failures []Outcome
}

// RemoveAll deletes each subpath of baseDir recursively, in order. It never
// stops early: a missing entry is Absent, any other problem is Failed and
// the next entry is processed. Entries resolving outside baseDir, or to
// baseDir itself, are Failed and left alone.
func RemoveAll(baseDir string, subpaths []string) []Outcome {
	outcomes := make([]Outcome, 0, len(subpaths))
	for _, sub := range subpaths {
		outcomes = append(outcomes, removeOne(baseDir, sub))
	}
	return outcomes
}

func removeOne(baseDir, sub string) Outcome {
	out := Outcome{Subpath: sub, Path: filepath.Join(baseDir, paths.Denormalize(sub))}

	path, err := paths.ValidatePath(baseDir, out.Path)
	if err != nil {
		out.Status, out.Err = Failed, err
		return out
	}
	if base, err := filepath.Abs(baseDir); err == nil && path == base {
		out.Status, out.Err = Failed, fmt.Errorf("refusing to remove base directory %s", baseDir)
		return out
	}
	out.Path = path

	// os.RemoveAll reports success for missing paths, so look first
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			out.Status = Absent
			return out
		}
		out.Status, out.Err = Failed, fmt.Errorf("failed to stat %s: %w", path, err)
		return out
	}

	if err := os.RemoveAll(path); err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("failed to remove %s: %w", path, err)
		return out
	}

	out.Status = Removed
	return out
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	var sum Summary
	for _, o := range outcomes {
		switch o.Status {
		case Removed:
			sum.Removed++
		case Absent:
			sum.Absent++
		case Failed:
			sum.Failures = append(sum.Failures, o)
		}
	}
	return sum
}

// Err joins every failure into one error, or returns nil.
func (s Summary) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.Failures))
	for _, f := range s.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
