package sim

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Is one assertion that did not hold, as recorded by [Check].
// It carries the call-site message, the boolean expression that was
// evaluated (when Eval was used), and the runtime values of the
// sub-expressions the caller supplied as bindings: a developer-supplied
// rendering in place of AST introspection of the call site.
type Failure struct {
	Message    string
	Expression string
	Values     map[string]any
}

func (f Failure) String() string {
	if f.Expression == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s (%v)", f.Message, f.Expression, f.Values)
}

// Accumulates assertion failures made by a recipe's post-process
// hooks without aborting the test run on the first one.
type Check struct {
	Failures []Failure
}

// Reports whether every assertion made against c has held so far.
func (c *Check) OK() bool { return len(c.Failures) == 0 }

// Unconditionally records a failure with message, and a values map
// the caller supplies explicitly (e.g. for dict-membership failures,
// only the keys).
func (c *Check) Fail(message string, values map[string]any) {
	c.Failures = append(c.Failures, Failure{Message: message, Values: values})
}

// Records a failure unless got == want, reporting both values.
func (c *Check) That(message string, got, want any) bool {
	if got == want {
		return true
	}
	c.Failures = append(c.Failures, Failure{
		Message: message,
		Values:  map[string]any{"got": got, "want": want},
	})
	return false
}

// Records a failure unless cond holds, attaching values for
// diagnostic rendering.
func (c *Check) True(message string, cond bool, values map[string]any) bool {
	if cond {
		return true
	}
	c.Failures = append(c.Failures, Failure{Message: message, Values: values})
	return false
}

// Compiles and runs a boolean expr-lang expression against
// bindings, recording a failure (with the expression text and the
// binding values) if it evaluates to anything but true. The caller
// supplies the sub-expressions' runtime values explicitly via bindings
// rather than relying on call-site AST introspection.
func (c *Check) Eval(message, expression string, bindings map[string]any) bool {
	program, err := expr.Compile(expression, expr.Env(bindings), expr.AsBool())
	if err != nil {
		c.Failures = append(c.Failures, Failure{
			Message:    message,
			Expression: expression,
			Values:     map[string]any{"compile_error": err.Error()},
		})
		return false
	}

	out, err := expr.Run(program, bindings)
	if err != nil {
		c.Failures = append(c.Failures, Failure{
			Message:    message,
			Expression: expression,
			Values:     map[string]any{"eval_error": err.Error()},
		})
		return false
	}

	if b, _ := out.(bool); b {
		return true
	}
	c.Failures = append(c.Failures, Failure{Message: message, Expression: expression, Values: bindings})
	return false
}
