package concurrency

import (
	"context"
	"time"
)

// A handle to a value produced by a goroutine launched with
// Go. The one legal suspension point on a Future is Await.
type Future struct {
	done   chan struct{}
	result any
	err    error
}

// Launches fn as a tracked goroutine within scope: if fn returns an
// error, scope's sibling futures are canceled via errgroup's shared
// context. Under a simulated scope, fn only begins running once every
// future launched before it in this scope has released the scheduler
// baton, making the execution order deterministic.
func Go(scope *Scope, fn func(ctx context.Context) (any, error)) *Future {
	f := &Future{done: make(chan struct{})}

	var awaitTurn func()
	if scope.sched != nil {
		awaitTurn = scope.sched.register()
	}

	scope.group.Go(func() error {
		defer close(f.done)
		if awaitTurn != nil {
			awaitTurn()
			defer scope.sched.advance()
		}
		res, err := fn(scope.ctx)
		f.result, f.err = res, err
		return err
	})

	return f
}

// Blocks until the future resolves or ctx is done, whichever
// comes first.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Suspends the caller for d, or until ctx is cancelled,
// whichever comes first. It is one of the legal suspension points for
// recipe code alongside step execution and Await.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reports whether the future has resolved without blocking.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
