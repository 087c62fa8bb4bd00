package process

import (
	"errors"
	"fmt"
	"os"
)

// ErrLaunch is returned when an executable cannot be started.
var ErrLaunch = errors.New("cannot launch executable")

// Launch starts the executable at path detached, with its own directory as
// working directory, and returns without waiting for it to exit.
func Launch(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrLaunch, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w %s: is a directory", ErrLaunch, path)
	}
	if !isExecutable(info) {
		return fmt.Errorf("%w %s: not executable", ErrLaunch, path)
	}

	if err := start(path); err != nil {
		return fmt.Errorf("%w %s: %v", ErrLaunch, path, err)
	}
	return nil
}
