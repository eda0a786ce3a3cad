package manifest

import (
	"encoding/json"
	"strings"
	"time"
)

// Is one subprocess invocation with associated presentation state.
// Name is path-like, using "|" to nest a step under its
// parent; a parent step must be opened before any of its children.
type Step struct {
	Name string

	// Cmd holds command arguments in order. Each element is either a
	// string literal or a value implementing placeholder.Placeholder;
	// the step runner renders placeholders in place before spawning the
	// child process.
	Cmd []any

	EnvAdditions map[string]string
	EnvPrefixes  map[string][]string // PATH-like; joined with the OS list separator.
	EnvSuffixes  map[string][]string

	Cwd     string
	Timeout time.Duration

	OkRet     OkRet
	InfraStep bool

	// Stdin, when set, is rendered and opened as the child's stdin.
	// Stdout and Stderr, when set, must be output placeholders attached
	// to the captured stream rather than a temp-file argument.
	Stdin  any
	Stdout any
	Stderr any

	// StepTestData supplies the mocked ExecutionResult and placeholder
	// data used when this step runs under simulation. Nil means the mock
	// comes from the running test case's step data, keyed by this step's
	// name; a simulated step with neither is reported as missing mock data.
	StepTestData func() StepTestData

	// TriggerSpecs is an opaque passthrough the engine neither interprets
	// nor validates; it is carried on StepData/StepPresentation unchanged
	// and streamed as a step_set_property event under the reserved key
	// "trigger_specs".
	TriggerSpecs []TriggerSpec
}

// Returns the name of the step this step is nested under, and
// whether one exists.
func (s Step) ParentName() (string, bool) {
	i := strings.LastIndex(s.Name, "|")
	if i < 0 {
		return "", false
	}
	return s.Name[:i], true
}

// An opaque, engine-uninterpreted downstream trigger
// request attached to a step.
type TriggerSpec json.RawMessage

// The mocked result a simulation test supplies for one
// step: its ExecutionResult plus any placeholder result values keyed the
// same way a real run would index them.
type StepTestData struct {
	Retcode         *int
	HadException    bool
	ExceptionReason string
	WasCancelled    bool
	WasTimeout      bool

	// StdoutLines and StderrLines are replayed as step_log_line events
	// under the "stdout"/"stderr" log names, so a simulated run emits
	// the same observable event sequence a real run's captured streams
	// would.
	StdoutLines []string
	StderrLines []string

	// PlaceholderData maps "method[.subname]" to the mocked value a test
	// wants the corresponding output placeholder to resolve to.
	PlaceholderData map[string]any
}

// Represents the set<int> | "any" exit-code acceptance rule.
type OkRet struct {
	Any   bool
	Codes map[int]bool
}

// Accepts every exit code.
func AnyRet() OkRet { return OkRet{Any: true} }

// Accepts exactly the given exit codes.
func Codes(codes ...int) OkRet {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return OkRet{Codes: set}
}

// Reports whether retcode satisfies this rule. The zero value of
// OkRet allows only 0, matching the common default.
func (o OkRet) Allows(retcode int) bool {
	if o.Any {
		return true
	}
	if len(o.Codes) == 0 {
		return retcode == 0
	}
	return o.Codes[retcode]
}
