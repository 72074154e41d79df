package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrPidfileExists is returned when another process owns the pid file.
var ErrPidfileExists = errors.New("pid file already exists")

// Pidfile is a pid file owned by this process.
type Pidfile struct {
	path string
}

// CreatePidfile exclusively creates path and writes the current pid to it.
// An existing file naming a process that is no longer alive is replaced.
func CreatePidfile(path string) (*Pidfile, error) {
	err := writePid(path)
	if errors.Is(err, os.ErrExist) {
		if pid, ok := readPid(path); ok && processAlive(pid) {
			return nil, fmt.Errorf("%w: %s (pid %d)", ErrPidfileExists, path, pid)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale pid file %s: %w", path, err)
		}
		err = writePid(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create pid file %s: %w", path, err)
	}
	return &Pidfile{path: path}, nil
}

// Path returns the pid file location.
func (p *Pidfile) Path() string {
	return p.path
}

// Close removes the pid file.
func (p *Pidfile) Close() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove pid file %s: %w", p.path, err)
	}
	return nil
}

func writePid(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readPid(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
