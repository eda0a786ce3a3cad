package concurrency

import (
	"context"
	"maps"
	"time"

	"golang.org/x/sync/errgroup"
)

type scopeKey struct{}

type scopeData struct {
	Deadline     time.Time
	Grace        time.Duration
	EnvOverrides map[string]string
	Cwd          string
	Simulated    bool
}

// The structured-concurrency unit a recipe or step runs
// within: a deadline, a grace period, env/cwd overrides, and a group of
// futures whose failures cancel their siblings. The zero value is not
// usable; construct with NewScope.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	data   scopeData
	sched  *DeterministicScheduler
}

// Configures a new Scope.
type Options struct {
	Deadline     time.Time
	Grace        time.Duration
	EnvOverrides map[string]string
	Cwd          string
	Simulated    bool
}

// Derives a Scope from parent, carrying opts as context values rather
// than ambient globals.
func NewScope(parent context.Context, opts Options) *Scope {
	ctx := parent
	cancel := func() {}
	if !opts.Deadline.IsZero() {
		ctx, cancel = context.WithDeadline(ctx, opts.Deadline)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	group, gctx := errgroup.WithContext(ctx)

	data := scopeData{
		Deadline:     opts.Deadline,
		Grace:        opts.Grace,
		EnvOverrides: maps.Clone(opts.EnvOverrides),
		Cwd:          opts.Cwd,
		Simulated:    opts.Simulated,
	}
	gctx = context.WithValue(gctx, scopeKey{}, data)

	s := &Scope{ctx: gctx, cancel: cancel, group: group, data: data}
	if opts.Simulated {
		s.sched = NewDeterministicScheduler()
	}
	return s
}

// Returns the scope's context, carrying scopeData for any code
// that wants to recover the ambient deadline/cwd/env via FromContext.
func (s *Scope) Context() context.Context { return s.ctx }

// Returns the scope's configured deadline, the zero time if
// none was set.
func (s *Scope) Deadline() time.Time { return s.data.Deadline }

// Returns the scope's grace period before escalating a timeout to
// a hard kill.
func (s *Scope) Grace() time.Duration { return s.data.Grace }

// Returns the scope's environment overrides.
func (s *Scope) EnvOverrides() map[string]string { return s.data.EnvOverrides }

// Returns the scope's working directory.
func (s *Scope) Cwd() string { return s.data.Cwd }

// Reports whether futures launched in this scope resume
// through the deterministic scheduler instead of free goroutine
// scheduling.
func (s *Scope) Simulated() bool { return s.data.Simulated }

// Cancels the scope and every future running within it.
func (s *Scope) Cancel() { s.cancel() }

// Blocks until every future launched in the scope has returned,
// and reports the first non-nil error among them, if any.
func (s *Scope) Wait() error {
	defer s.cancel()
	return s.group.Wait()
}

// Derives a child scope identical to s except for its working
// directory.
func (s *Scope) WithCwd(cwd string) *Scope {
	opts := s.toOptions()
	opts.Cwd = cwd
	return NewScope(s.ctx, opts)
}

// Derives a child scope whose EnvOverrides are s's, overlaid
// with overrides.
func (s *Scope) WithEnv(overrides map[string]string) *Scope {
	merged := maps.Clone(s.data.EnvOverrides)
	if merged == nil {
		merged = make(map[string]string, len(overrides))
	}
	maps.Copy(merged, overrides)
	opts := s.toOptions()
	opts.EnvOverrides = merged
	return NewScope(s.ctx, opts)
}

// Derives a child scope with deadline replaced, never
// extending past s's own deadline.
func (s *Scope) WithDeadline(deadline time.Time) *Scope {
	if !s.data.Deadline.IsZero() && deadline.After(s.data.Deadline) {
		deadline = s.data.Deadline
	}
	opts := s.toOptions()
	opts.Deadline = deadline
	return NewScope(s.ctx, opts)
}

func (s *Scope) toOptions() Options {
	return Options{
		Deadline:     s.data.Deadline,
		Grace:        s.data.Grace,
		EnvOverrides: maps.Clone(s.data.EnvOverrides),
		Cwd:          s.data.Cwd,
		Simulated:    s.data.Simulated,
	}
}

// Recovers the scopeData carried by ctx, if any was set by NewScope.
func FromContext(ctx context.Context) (deadline time.Time, cwd string, env map[string]string, ok bool) {
	data, ok := ctx.Value(scopeKey{}).(scopeData)
	if !ok {
		return time.Time{}, "", nil, false
	}
	return data.Deadline, data.Cwd, data.EnvOverrides, true
}
