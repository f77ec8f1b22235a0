package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// pidFile holds the written PID file, flock'ed when locked is set.
type pidFile struct {
	path   string
	file   *os.File
	locked bool
}

// managePIDFile writes the current PID to path and returns a cleanup func
// that removes it. With lock set a second instance fails to start.
func managePIDFile(path string, lock bool) (func(), error) {
	p := &pidFile{path: path, locked: lock}
	if err := p.open(); err != nil {
		return nil, err
	}
	if err := p.write(); err != nil {
		p.release()
		return nil, err
	}
	return p.release, nil
}

func (p *pidFile) open() error {
	file, err := os.OpenFile(p.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if os.IsExist(err) {
		if p.locked {
			if err := liveOwner(p.path); err != nil {
				return err
			}
		}
		file, err = os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	}
	if err != nil {
		return fmt.Errorf("cannot open PID file: %w", err)
	}

	if p.locked {
		if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			file.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return fmt.Errorf("cannot acquire lock: another instance is running")
			}
			return fmt.Errorf("lock failed: %w", err)
		}
	}
	p.file = file
	return nil
}

func (p *pidFile) write() error {
	if _, err := fmt.Fprintf(p.file, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("cannot write PID: %w", err)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("cannot sync PID file: %w", err)
	}
	return nil
}

func (p *pidFile) release() {
	if p.file == nil {
		return
	}
	if p.locked {
		syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN)
	}
	p.file.Close()
	os.Remove(p.path)
	p.file = nil
}

// liveOwner reports an error when the PID recorded in path still belongs
// to a running process. A dead owner leaves a stale file that is reused.
func liveOwner(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read existing PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("corrupted PID file (contains: %q)", data)
	}

	// FindProcess never fails on Unix, signal 0 probes for existence
	proc, _ := os.FindProcess(pid)
	err = proc.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return fmt.Errorf("process %d is already running", pid)
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		return nil
	default:
		return fmt.Errorf("process %d exists but cannot verify ownership: %v", pid, err)
	}
}
