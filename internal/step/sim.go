package step

import (
	"context"
	"fmt"

	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
)

// Replays a pre-supplied ExecutionResult per step name instead
// of spawning anything, emitting the same event sequence as RealRunner
// modulo non-deterministic fields: timings are zero and placeholder temp
// paths use a stable naming scheme.
type SimRunner struct{}

// Returns a SimRunner.
func NewSimRunner() *SimRunner { return &SimRunner{} }

func (r *SimRunner) Run(ctx context.Context, s *manifest.Step, opts Options) ExecutionResult {
	argv, phs, err := renderArgs(s.Cmd, s.Name)
	if err != nil {
		if opts.Sink != nil {
			opts.Sink.StepOpened(s.Name, nil, nil, stepCwd(s, opts))
		}
		resolvePlaceholders(phs, opts.Results, nil, false)
		return ExecutionResult{HadException: true, ExceptionReason: err.Error()}
	}
	if len(argv) == 0 {
		if opts.Sink != nil {
			opts.Sink.StepOpened(s.Name, nil, nil, stepCwd(s, opts))
		}
		resolvePlaceholders(phs, opts.Results, nil, false)
		return ExecutionResult{HadException: true, ExceptionReason: manifest.ErrEmptyCmd.Error()}
	}
	if opts.Sink != nil {
		opts.Sink.StepOpened(s.Name, argv, envMap(effectiveEnv(opts.BaseEnv, s, opts.ScopeOverrides)), stepCwd(s, opts))
	}

	if stdin, ok := s.Stdin.(placeholder.Placeholder); ok {
		phs = append(phs, stdin)
	}
	if stdout, ok := s.Stdout.(placeholder.Placeholder); ok {
		phs = append(phs, stdout)
	}
	if stderr, ok := s.Stderr.(placeholder.Placeholder); ok {
		phs = append(phs, stderr)
	}

	gen := opts.StepTestData
	if gen == nil {
		gen = s.StepTestData
	}
	if gen == nil {
		return ExecutionResult{
			HadException:    true,
			ExceptionReason: fmt.Sprintf("%s for step %q", ErrNoMockData, s.Name),
			MissingMock:     true,
		}
	}
	data := gen()

	if opts.Sink != nil {
		for _, line := range data.StdoutLines {
			opts.Sink.StepLogLine(s.Name, "stdout", line)
		}
		for _, line := range data.StderrLines {
			opts.Sink.StepLogLine(s.Name, "stderr", line)
		}
	}

	success := !data.HadException && !data.WasCancelled && !data.WasTimeout
	if resolveErr := resolvePlaceholders(phs, opts.Results, &data, success); resolveErr != nil {
		return ExecutionResult{
			Retcode:         data.Retcode,
			HadException:    true,
			ExceptionReason: resolveErr.Error(),
			WasCancelled:    data.WasCancelled,
			WasTimeout:      data.WasTimeout,
		}
	}

	return ExecutionResult{
		Retcode:         data.Retcode,
		HadException:    data.HadException,
		ExceptionReason: data.ExceptionReason,
		WasCancelled:    data.WasCancelled,
		WasTimeout:      data.WasTimeout,
	}
}
