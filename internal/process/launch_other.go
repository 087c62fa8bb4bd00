//go:build !windows

package process

import (
	"io/fs"
	"os/exec"
	"path/filepath"
)

func isExecutable(info fs.FileInfo) bool {
	return info.Mode().Perm()&0111 != 0
}

func start(path string) error {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
