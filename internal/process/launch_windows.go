//go:build windows

package process

import (
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// SW_SHOWNORMAL
const showNormal = 1

// Windows decides by extension, so .jar installers open with their associated program.
func isExecutable(fs.FileInfo) bool {
	return true
}

// usesShell reports whether path has to go through a file association.
// Native executables are started directly so start failures come back.
func usesShell(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".com":
		return false
	}
	return true
}

func start(path string) error {
	if !usesShell(path) {
		cmd := exec.Command(path)
		cmd.Dir = filepath.Dir(path)
		if err := cmd.Start(); err != nil {
			return err
		}
		return cmd.Process.Release()
	}
	return shellExecute(path)
}

// shellExecute opens path with its associated program. Shell.Application's
// ShellExecute returns no status: a missing association (no Java for a .jar)
// is reported by Windows in a dialog, not as an error here.
func shellExecute(path string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ole.CoInitialize(0)
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("Shell.Application")
	if err != nil {
		return fmt.Errorf("failed to create Shell object: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to get IDispatch interface: %w", err)
	}
	defer shell.Release()

	if _, err := oleutil.CallMethod(shell, "ShellExecute", path, "", filepath.Dir(path), "open", showNormal); err != nil {
		return fmt.Errorf("ShellExecute failed: %w", err)
	}
	return nil
}
