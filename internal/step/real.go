package step

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
)

// Environment variable carrying the active deadline and grace period to
// the child process, so recipe-aware tools it spawns can honor the same
// termination window the engine enforces.
const contextEnvKey = "CRECIPE_CONTEXT"

// The JSON payload written into the child's environment under
// contextEnvKey.
type childContext struct {
	DeadlineUnix int64   `json:"deadline_unix,omitempty"`
	GraceSeconds float64 `json:"grace_seconds"`
}

// Spawns one host subprocess per step: renders placeholders
// into the argv, layers the effective environment, streams the child's
// output line by line, and enforces the deadline kill sequence.
type RealRunner struct{}

// Returns a RealRunner.
func NewRealRunner() *RealRunner { return &RealRunner{} }

func (r *RealRunner) Run(ctx context.Context, s *manifest.Step, opts Options) ExecutionResult {
	argv, phs, err := renderArgs(s.Cmd, s.Name)
	if err != nil {
		return r.abort(s, opts, phs, err.Error())
	}
	if len(argv) == 0 {
		return r.abort(s, opts, phs, manifest.ErrEmptyCmd.Error())
	}

	deadline := effectiveDeadline(opts.Deadline, s.Timeout)
	cwd := stepCwd(s, opts)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = cwd
	cmd.Env = append(effectiveEnv(opts.BaseEnv, s, opts.ScopeOverrides), contextEnv(deadline, opts.GracePeriod))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if opts.Sink != nil {
		opts.Sink.StepOpened(s.Name, argv, envMap(cmd.Env), cwd)
	}

	if stdin, ok := s.Stdin.(placeholder.Placeholder); ok {
		phs = append(phs, stdin)
		path, rerr := stdin.Render(s.Name)
		if rerr != nil {
			resolvePlaceholders(phs, opts.Results, nil, false)
			return ExecutionResult{HadException: true, ExceptionReason: rerr.Error()}
		}
		if len(path) > 0 {
			f, oerr := os.Open(path[0])
			if oerr != nil {
				resolvePlaceholders(phs, opts.Results, nil, false)
				return ExecutionResult{HadException: true, ExceptionReason: oerr.Error()}
			}
			cmd.Stdin = f
			defer f.Close()
		}
	}

	stdoutAttached, _ := s.Stdout.(*placeholder.StreamOutput)
	stderrAttached, _ := s.Stderr.(*placeholder.StreamOutput)
	if stdoutAttached != nil {
		phs = append(phs, stdoutAttached)
	}
	if stderrAttached != nil {
		phs = append(phs, stderrAttached)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		resolvePlaceholders(phs, opts.Results, nil, false)
		return ExecutionResult{HadException: true, ExceptionReason: err.Error()}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		resolvePlaceholders(phs, opts.Results, nil, false)
		return ExecutionResult{HadException: true, ExceptionReason: err.Error()}
	}

	if err := cmd.Start(); err != nil {
		resolvePlaceholders(phs, opts.Results, nil, false)
		return ExecutionResult{HadException: true, ExceptionReason: ErrStartFailed.Error() + ": " + err.Error()}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go drainStream(&wg, stdoutPipe, s.Name, "stdout", opts, stdoutAttached)
	go drainStream(&wg, stderrPipe, s.Name, "stderr", opts, stderrAttached)

	exited := make(chan error, 1)
	go func() {
		wg.Wait()
		exited <- cmd.Wait()
	}()

	wasTimeout, wasCancelled := false, false

	var timer *time.Timer
	if !deadline.IsZero() {
		timer = time.NewTimer(time.Until(deadline))
		defer timer.Stop()
	} else {
		timer = time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
	}

	var waitErr error
	select {
	case waitErr = <-exited:
	case <-timer.C:
		wasTimeout = true
		waitErr = <-r.terminate(cmd, exited, opts.GracePeriod)
	case <-ctx.Done():
		// The scope context also carries the deadline, so its expiry can
		// beat the local timer; attribute it as a timeout, not a cancel.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			wasTimeout = true
		} else {
			wasCancelled = true
		}
		waitErr = <-r.terminate(cmd, exited, opts.GracePeriod)
	}

	success := waitErr == nil
	resolveErr := resolvePlaceholders(phs, opts.Results, nil, success)

	result := ExecutionResult{
		Retcode:      exitCode(cmd),
		WasTimeout:   wasTimeout,
		WasCancelled: wasCancelled,
	}
	if resolveErr != nil {
		result.HadException = true
		result.ExceptionReason = resolveErr.Error()
	}
	return result
}

// Reports a step that failed before its process could be spawned,
// still emitting the step_opened event so every step's event sequence
// keeps its open/close pairing.
func (r *RealRunner) abort(s *manifest.Step, opts Options, phs []placeholder.Placeholder, reason string) ExecutionResult {
	if opts.Sink != nil {
		opts.Sink.StepOpened(s.Name, nil, nil, stepCwd(s, opts))
	}
	resolvePlaceholders(phs, opts.Results, nil, false)
	return ExecutionResult{HadException: true, ExceptionReason: reason}
}

// Renders the CRECIPE_CONTEXT entry for the child's environment.
func contextEnv(deadline time.Time, grace time.Duration) string {
	cc := childContext{GraceSeconds: grace.Seconds()}
	if !deadline.IsZero() {
		cc.DeadlineUnix = deadline.Unix()
	}
	data, _ := json.Marshal(cc)
	return contextEnvKey + "=" + string(data)
}

// Tightens the scope deadline with the step's own timeout;
// the narrower of the two wins.
func effectiveDeadline(scope time.Time, timeout time.Duration) time.Time {
	if timeout <= 0 {
		return scope
	}
	d := time.Now().Add(timeout)
	if scope.IsZero() || d.Before(scope) {
		return d
	}
	return scope
}

// The directory the child runs in: the step's own cwd when set,
// the active scope's otherwise.
func stepCwd(s *manifest.Step, opts Options) string {
	if s.Cwd != "" {
		return s.Cwd
	}
	return opts.Cwd
}

// Sends the graceful termination sequence to the process group:
// SIGTERM, wait up to grace, then SIGKILL.
func (r *RealRunner) terminate(cmd *exec.Cmd, exited chan error, grace time.Duration) chan error {
	result := make(chan error, 1)
	go func() {
		pgid := cmd.Process.Pid
		syscall.Kill(-pgid, syscall.SIGTERM)

		select {
		case err := <-exited:
			result <- err
			return
		case <-time.After(grace):
		}

		syscall.Kill(-pgid, syscall.SIGKILL)
		result <- <-exited
	}()
	return result
}

func exitCode(cmd *exec.Cmd) *int {
	if cmd.ProcessState == nil {
		return nil
	}
	code := cmd.ProcessState.ExitCode()
	return &code
}

// Reads r line by line, emitting each line as a step_log_line
// event and, if attached is non-nil, tees it into the attached output
// placeholder's buffer. It signals wg when the stream reaches EOF.
func drainStream(wg *sync.WaitGroup, r io.Reader, stepName, logName string, opts Options, attached *placeholder.StreamOutput) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if opts.Sink != nil {
			opts.Sink.StepLogLine(stepName, logName, line)
		}
		if attached != nil {
			attached.Buf.WriteString(line)
			attached.Buf.WriteByte('\n')
		}
	}
}
