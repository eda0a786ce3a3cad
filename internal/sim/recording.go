package sim

import "github.com/cruciblehq/crecipe/internal/stream"

// The ordered sequence of step views a simulated recipe run
// produced, plus its terminal status.
type Recording struct {
	Steps   []*stream.StepView
	Status  stream.Status
	Summary string
}

// Returns the recorded view for name, if a step_opened event was
// ever emitted for it.
func (r *Recording) ByName(name string) (*stream.StepView, bool) {
	for _, v := range r.Steps {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Returns the recorded step names in emission order.
func (r *Recording) Names() []string {
	names := make([]string, len(r.Steps))
	for i, v := range r.Steps {
		names[i] = v.Name
	}
	return names
}

// Reports whether a step named name was recorded at all.
func (r *Recording) Has(name string) bool {
	_, ok := r.ByName(name)
	return ok
}
