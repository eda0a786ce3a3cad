package paths

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Resolves named roots (start_dir, cache, cleanup, tmp_base, and
// a resource_dir per module) to absolute paths, and tracks the temporary
// files and directories it hands out so they can be wiped at recipe end.
//
// A zero Registry is not usable; construct one with [New] or [NewFake].
type Registry struct {
	fs    FS
	roots map[string]string

	mu      sync.Mutex
	cleanup []string // tracked MkdirTemp/CreateTemp paths, wiped by Cleanup

	checkoutPath   string
	checkoutSet    bool
	checkoutWarned bool
}

// Returns a Registry backed by the real filesystem, rooted at the
// given start, cache, cleanup, and tmp_base directories.
func New(startDir, cacheDir, cleanupDir, tmpBase string) *Registry {
	return newRegistry(osFS{}, startDir, cacheDir, cleanupDir, tmpBase)
}

// Returns a Registry backed by an in-memory [FakeFS], for use by the
// simulation harness.
func NewFake(fs *FakeFS, startDir, cacheDir, cleanupDir, tmpBase string) *Registry {
	return newRegistry(fs, startDir, cacheDir, cleanupDir, tmpBase)
}

func newRegistry(fs FS, startDir, cacheDir, cleanupDir, tmpBase string) *Registry {
	return &Registry{
		fs: fs,
		roots: map[string]string{
			RootStartDir: startDir,
			RootCache:    cacheDir,
			RootCleanup:  cleanupDir,
			RootTmpBase:  tmpBase,
		},
	}
}

// Names a new root, such as a per-module resource_dir. It
// overwrites any existing root of the same name.
func (r *Registry) RegisterRoot(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots[name] = path
}

// Returns the absolute path of a named root.
func (r *Registry) Root(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.roots[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoot, name)
	}
	return p, nil
}

// Resolves segments under the named root.
func (r *Registry) Join(root string, segments ...string) (string, error) {
	base, err := r.Root(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{base}, segments...)...), nil
}

// Reports whether path is present.
func (r *Registry) Exists(path string) bool {
	return r.fs.Exists(path)
}

// Writes data to path, creating it if necessary.
func (r *Registry) WriteFile(path string, data []byte) error {
	return r.fs.WriteFile(path, data, DefaultFileMode)
}

// Reads the full contents of path.
func (r *Registry) ReadFile(path string) ([]byte, error) {
	return r.fs.ReadFile(path)
}

// Deletes path, if present. Removing an already-absent path is not
// an error.
func (r *Registry) Remove(path string) error {
	return r.fs.RemoveAll(path)
}

// Lists the direct children of path.
func (r *Registry) ReadDir(path string) ([]string, error) {
	names, err := r.fs.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Creates a new directory under the named root and tracks it
// for cleanup at recipe end.
func (r *Registry) MkdirTemp(root, pattern string) (string, error) {
	base, err := r.Root(root)
	if err != nil {
		return "", err
	}
	path := filepath.Join(base, tempName(pattern))
	if err := r.fs.MkdirAll(path, DefaultDirMode); err != nil {
		return "", err
	}
	r.track(path)
	return path, nil
}

// Creates a new empty file under the named root and tracks it
// for cleanup at recipe end.
func (r *Registry) CreateTemp(root, pattern string) (string, error) {
	base, err := r.Root(root)
	if err != nil {
		return "", err
	}
	path := filepath.Join(base, tempName(pattern))
	if err := r.fs.WriteFile(path, nil, DefaultFileMode); err != nil {
		return "", err
	}
	r.track(path)
	return path, nil
}

func (r *Registry) track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanup = append(r.cleanup, path)
}

// Removes every path handed out by MkdirTemp/CreateTemp during the
// recipe run. It is invoked once, at recipe end.
func (r *Registry) Cleanup() error {
	r.mu.Lock()
	tracked := r.cleanup
	r.cleanup = nil
	r.mu.Unlock()

	var firstErr error
	for _, p := range tracked {
		if err := r.fs.RemoveAll(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sets the deprecated checkout_dir slot. It may be called
// more than once; the last write wins.
func (r *Registry) SetCheckoutDir(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkoutPath = path
	r.checkoutSet = true
}

// Returns the deprecated checkout_dir slot. It returns
// [ErrInvalidState] if no step has set it yet, since unlike the other
// roots it has no sensible default: the recipe must opt in by checking
// out a repository first.
func (r *Registry) CheckoutDir() (string, error) {
	r.mu.Lock()
	set, path := r.checkoutSet, r.checkoutPath
	warned := r.checkoutWarned
	r.checkoutWarned = true
	r.mu.Unlock()

	if !warned {
		log.Warn().Msg("checkout_dir is deprecated; thread the directory through an explicit argument or a module resource_dir")
	}
	if !set {
		return "", fmt.Errorf("%w: checkout_dir read before set", ErrInvalidState)
	}
	return path, nil
}

// Derives a unique file/directory name from pattern, in the
// style of os.MkdirTemp's "*" substitution.
func tempName(pattern string) string {
	suffix := uuid.New().String()
	if i := lastStar(pattern); i >= 0 {
		return pattern[:i] + suffix + pattern[i+1:]
	}
	return pattern + suffix
}

func lastStar(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '*' {
			return i
		}
	}
	return -1
}
