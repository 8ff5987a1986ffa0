package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault")

// Fault defines failure behavior for files matching a rule.
type Fault struct {
	FailOnOpen     bool
	FailAfterBytes int64 // fail writes once this many bytes were written to the file; -1 disables
	FailOnSync     bool
	Err            error // defaults to ErrInjected
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS wraps a FileSystem and injects errors on files whose name contains
// a registered pattern.
type FaultyFS struct {
	FS FileSystem

	mu    sync.Mutex
	rules map[string]Fault
}

// NewFaultyFS creates a FaultyFS wrapping fs (or Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{
		FS:    fsys,
		rules: make(map[string]Fault),
	}
}

// AddRule registers a fault for files whose name contains pattern.
// A zero-value Fault fails the first write (FailAfterBytes 0).
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

func (f *FaultyFS) match(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			return rule, true
		}
	}
	return Fault{}, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault, matched := f.match(name)
	if matched && fault.FailOnOpen {
		return nil, fault.err()
	}

	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if !matched {
		return file, nil
	}
	return &faultyFile{File: file, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error             { return f.FS.Remove(name) }
func (f *FaultyFS) Rename(oldpath, newpath string) error { return f.FS.Rename(oldpath, newpath) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}
func (f *FaultyFS) Truncate(name string, size int64) error { return f.FS.Truncate(name, size) }

type faultyFile struct {
	File
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.err()
	}
	return ff.File.Sync()
}
