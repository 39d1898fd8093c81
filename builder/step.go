package builder

import "time"

// StepID names one of the five fixed build steps, in pipeline order.
type StepID string

const (
	StepCollect  StepID = "collect"
	StepCompile  StepID = "compile"
	StepSchema   StepID = "schema"
	StepBindings StepID = "ts" // finalize-bindings checkpoint
	StepPackage  StepID = "package"
)

// StepOrder is the fixed execution order of the pipeline.
var StepOrder = []StepID{StepCollect, StepCompile, StepSchema, StepBindings, StepPackage}

// Status of a single step. Transitions are monotonic:
// pending -> running -> (success | error), never backwards.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

func (s Status) terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Step is the observable state of one build step.
type Step struct {
	ID       StepID `json:"id"`
	Label    string `json:"label"`
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Progress int    `json:"progress"`
}

var stepLabels = map[StepID]string{
	StepCollect:  "Collect project files",
	StepCompile:  "Compile contract",
	StepSchema:   "Generate JSON schemas",
	StepBindings: "Finalize bindings",
	StepPackage:  "Assemble package",
}

// NewSteps returns the full step list in order, all pending.
func NewSteps() []Step {
	steps := make([]Step, 0, len(StepOrder))
	for _, id := range StepOrder {
		steps = append(steps, Step{ID: id, Label: stepLabels[id], Status: StatusPending})
	}
	return steps
}

// LogLevel of a build log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// LogEntry is one line of the append-only build log.
type LogEntry struct {
	Time    time.Time `json:"timestamp"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

// State of the overall build.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateCompiling  State = "compiling"
	StateSchemas    State = "generating-schemas"
	StateFinalizing State = "finalizing"
	StatePackaging  State = "packaging"
	StateSuccess    State = "success"
	StateError      State = "error"
)
