package process

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLaunchErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing executable", filepath.Join(dir, "fabric-installer.exe")},
		{"directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Launch(tt.path)
			if !errors.Is(err, ErrLaunch) {
				t.Errorf("Launch(%q) error = %v, want ErrLaunch", tt.path, err)
			}
		})
	}
}

func TestLaunchNotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("execute bit not used on windows")
	}

	path := filepath.Join(t.TempDir(), "installer.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Launch(path); !errors.Is(err, ErrLaunch) {
		t.Errorf("Launch() error = %v, want ErrLaunch", err)
	}
}

func TestLaunchStartsDetached(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ShellExecute opens a window")
	}

	dir := t.TempDir()
	marker := filepath.Join(dir, "launched")
	script := filepath.Join(dir, "installer.sh")
	// Runs in its own directory, so the relative marker lands next to the script
	if err := os.WriteFile(script, []byte("#!/bin/sh\ntouch launched\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := Launch(script); err != nil {
		t.Fatalf("Launch() unexpected error: %v", err)
	}

	if !waitForFile(marker) {
		t.Error("launched script did not run in its own directory")
	}
}

func waitForFile(path string) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
