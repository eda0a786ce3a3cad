package step

import (
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
)

// Is returned to recipe code once a step has finished running.
type Data struct {
	Retcode      *int
	Presentation *Presentation
	Results      *placeholder.ResultSet
	Stdout       any // resolved value of the attached stdout placeholder, if any.
	Stderr       any // resolved value of the attached stderr placeholder, if any.

	// TriggerSpecs carries the step's manifest-declared trigger specs
	// through unchanged, mirroring the step_set_property event the
	// engine streams under the "trigger_specs" key.
	TriggerSpecs []manifest.TriggerSpec
}

// Looks up a placeholder's resolved value by identity. Reading a
// placeholder that never resolved during this step is reported via the
// second return value, matching the "attempting to read an unresolved
// placeholder is an error" invariant.
func (d *Data) Result(id placeholder.Identity) (any, bool) {
	if d.Results == nil {
		return nil, false
	}
	return d.Results.Get(id)
}
