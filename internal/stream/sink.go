package stream

// A step's or recipe's terminal status.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusFailure      Status = "failure"
	StatusInfraFailure Status = "infra_failure"
	StatusCanceled     Status = "canceled"
	StatusException    Status = "exception"
	StatusWarning      Status = "warning"
)

// Accepts the append-only sequence of step lifecycle events. Every
// step is identified by its full hierarchical name ("parent|child"); a
// parent step's step_opened must precede any of its children's.
type Sink interface {
	StepOpened(name string, cmd []string, env map[string]string, cwd string)
	StepLogLine(name, logName, line string)
	StepSetText(name, text string)
	StepSetSummary(name, summaryMarkdown string)
	StepSetLink(name, linkName, url string)
	StepSetProperty(name, key string, value any)
	StepClosed(name string, status Status, statusDetails string)
	RecipeEnded(status Status, summaryMarkdown string)
}
