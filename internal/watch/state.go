package watch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const stateFile = "watch.json"

// ErrNotRunning is returned by LoadState when no state file exists.
var ErrNotRunning = errors.New("no watcher running")

// State describes a running watcher so that later invocations of
// "watch status" and "watch stop" can find it.
type State struct {
	PID     int       `json:"pid"`
	Started time.Time `json:"started"`
	Options Options   `json:"options"`
}

// SaveState records the current process as the running watcher.
func SaveState(dir string, opts Options) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(State{
		PID:     os.Getpid(),
		Started: time.Now().UTC(),
		Options: opts,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0600)
}

// LoadState reads the state file from dir.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotRunning
	}
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid watch state: %w", err)
	}
	if s.PID <= 0 {
		return nil, fmt.Errorf("invalid watch state: pid %d", s.PID)
	}
	return &s, nil
}

// RemoveState deletes the state file. A missing file is not an error.
func RemoveState(dir string) error {
	err := os.Remove(filepath.Join(dir, stateFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Alive reports whether the recorded process still exists.
func (s *State) Alive() bool {
	p, err := os.FindProcess(s.PID)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

// Stop sends SIGTERM to the recorded process.
func (s *State) Stop() error {
	p, err := os.FindProcess(s.PID)
	if err != nil {
		return fmt.Errorf("could not find process %d: %w", s.PID, err)
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("could not stop watcher (PID %d): %w", s.PID, err)
	}
	return nil
}
