package cli

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by every orchestration command that
// accepts the repo/module layout but whose body is out of this core's
// scope.
var ErrNotImplemented = errors.New("cli: not implemented in this core")

// Backs every out-of-scope subcommand (fetch, bundle, doc,
// lint, analyze, manual_roll, autoroll). They exist as CLI surface so
// the command tree accepts the same invocations a full recipe tooling
// install would, but always report ErrNotImplemented.
type StubCmd struct{}

func (c *StubCmd) Run(ctx context.Context) error { return ErrNotImplemented }
