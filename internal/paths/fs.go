package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Abstracts the filesystem operations the path registry needs, so a
// recipe can run unmodified against the real filesystem or, in
// simulation mode, against an in-memory fake a test configures.
type FS interface {
	Exists(path string) bool
	ReadDir(path string) ([]string, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(path string, data []byte, perm os.FileMode) error
	ReadFile(path string) ([]byte, error)
	Remove(path string) error
	RemoveAll(path string) error
}

// Implements [FS] over the real filesystem.
type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (osFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (osFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (osFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (osFS) Remove(path string) error { return os.Remove(path) }

func (osFS) RemoveAll(path string) error { return os.RemoveAll(path) }

// An in-memory [FS] used by the simulation harness. A test
// configures which paths exist via [FakeFS.SetExists] or [FakeFS.WriteFile]
// before running a recipe under simulation; no real I/O occurs.
type FakeFS struct {
	mu      sync.Mutex
	present map[string]bool
	files   map[string][]byte
}

// Returns an empty in-memory filesystem.
func NewFakeFS() *FakeFS {
	return &FakeFS{present: make(map[string]bool), files: make(map[string][]byte)}
}

// Marks path as present or absent for subsequent [FakeFS.Exists]
// checks, without requiring file content.
func (f *FakeFS) SetExists(path string, exists bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[path] = exists
}

func (f *FakeFS) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; ok {
		return true
	}
	return f.present[path]
}

func (f *FakeFS) ReadDir(dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]bool)
	for p := range f.files {
		if rel, ok := directChild(dir, p); ok {
			seen[rel] = true
		}
	}
	for p, exists := range f.present {
		if !exists {
			continue
		}
		if rel, ok := directChild(dir, p); ok {
			seen[rel] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Reports whether p is a direct child of dir, returning its
// base name.
func directChild(dir, p string) (string, bool) {
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || filepath.Dir(rel) != "." {
		return "", false
	}
	return rel, true
}

func (f *FakeFS) MkdirAll(path string, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[path] = true
	return nil
}

func (f *FakeFS) WriteFile(path string, data []byte, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.files[path] = cp
	f.present[path] = true
	return nil
}

func (f *FakeFS) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", os.ErrNotExist, path)
	}
	return data, nil
}

func (f *FakeFS) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	delete(f.present, path)
	return nil
}

func (f *FakeFS) RemoveAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p := range f.files {
		if p == path || isUnder(path, p) {
			delete(f.files, p)
		}
	}
	for p := range f.present {
		if p == path || isUnder(path, p) {
			delete(f.present, p)
		}
	}
	return nil
}

func isUnder(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
