package stream

// Is one named, ordered log stream attached to a step (e.g.
// "stdout", "stderr", or a module-added log).
type LogEntry struct {
	Name  string
	Lines []string
}

// Is one named link attached to a step's presentation.
type LinkEntry struct {
	Name string
	URL  string
}

// The normalized, in-memory presentation of one step: the
// "step dict" tests assert against. It is shared by the
// structured emitter's live tree and the simulation harness's recorded
// step map.
type StepView struct {
	Name string
	Cmd  []string
	Env  map[string]string
	Cwd  string

	Status        Status
	Text          string
	Summary       string
	Logs          []LogEntry
	Links         []LinkEntry
	Properties    map[string]any
	StatusDetails string

	// Closed reports whether the step's presentation has stopped
	// accepting writes (the next step opened, or the recipe ended).
	Closed bool
}

func newStepView(name string, cmd []string, env map[string]string, cwd string) *StepView {
	return &StepView{
		Name:       name,
		Cmd:        cmd,
		Env:        env,
		Cwd:        cwd,
		Properties: make(map[string]any),
	}
}

func (v *StepView) appendLog(logName, line string) {
	for i := range v.Logs {
		if v.Logs[i].Name == logName {
			v.Logs[i].Lines = append(v.Logs[i].Lines, line)
			return
		}
	}
	v.Logs = append(v.Logs, LogEntry{Name: logName, Lines: []string{line}})
}

func (v *StepView) setLink(name, url string) {
	for i := range v.Links {
		if v.Links[i].Name == name {
			v.Links[i].URL = url
			return
		}
	}
	v.Links = append(v.Links, LinkEntry{Name: name, URL: url})
}
