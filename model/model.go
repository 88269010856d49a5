package model

import "time"

type RunState string

const RUN_STATE_RUNNING RunState = "RUNNING"
const RUN_STATE_SUCCEEDED RunState = "SUCCEEDED"
const RUN_STATE_FAILED RunState = "FAILED"

type StateType string

const STATE_TYPE_TASK StateType = "TASK"
const STATE_TYPE_PARALLEL StateType = "PARALLEL"
const STATE_TYPE_SUCCEED StateType = "SUCCEED"

const DEFAULT_BUS = "default"

// FlowDefinition is the authoring surface for one flow. It is registered
// once at process start and never mutated afterwards.
type FlowDefinition struct {
	Name              string                     `json:"name"`
	Domain            string                     `json:"domain"`
	Cron              string                     `json:"cron,omitempty"`
	Rate              string                     `json:"rate,omitempty"`
	Event             *EventFilter               `json:"event,omitempty"`
	PublishCompletion bool                       `json:"publishCompletion,omitempty"`
	StartAt           string                     `json:"startAt"`
	States            map[string]StateDefinition `json:"states"`
}

type StateDefinition struct {
	Type     string             `json:"type"`
	Handler  string             `json:"handler,omitempty"`
	Params   map[string]any     `json:"params,omitempty"`
	Branches []BranchDefinition `json:"branches,omitempty"`
	Next     string             `json:"next,omitempty"`
}

// BranchDefinition is an independent sub graph executed inside a parallel
// state. Branches never share state with each other.
type BranchDefinition struct {
	StartAt string                     `json:"startAt"`
	States  map[string]StateDefinition `json:"states"`
}

// EventFilter gates a flow on inbound bus events. DetailMatch maps jsonpath
// expressions over the event detail to expected values.
type EventFilter struct {
	Bus         string         `json:"bus"`
	Sources     []string       `json:"source"`
	DetailTypes []string       `json:"detailType"`
	DetailMatch map[string]any `json:"detailMatch,omitempty"`
}

type Event struct {
	Bus        string         `json:"bus"`
	Source     string         `json:"source"`
	DetailType string         `json:"detailType"`
	Detail     map[string]any `json:"detail,omitempty"`
}

type CompletionEvent struct {
	Domain    string    `json:"domain"`
	FlowName  string    `json:"flowName"`
	EmittedAt time.Time `json:"emittedAt"`
}

// CompletionDetailType is the detail type under which a flow announces its
// successful completion on the shared bus.
func CompletionDetailType(flowName string) string {
	return flowName + ".completed"
}

// Run is one execution instance of a flow. FailedBranch is -1 unless the
// failure originated inside a parallel branch.
type Run struct {
	Id           string         `json:"id"`
	FlowName     string         `json:"flowName"`
	StartedAt    time.Time      `json:"startedAt"`
	EndedAt      time.Time      `json:"endedAt,omitempty"`
	State        RunState       `json:"state"`
	CurrentState string         `json:"currentState,omitempty"`
	FailedState  string         `json:"failedState,omitempty"`
	FailedBranch int            `json:"failedBranch"`
	Error        string         `json:"error,omitempty"`
	PublishError string         `json:"publishError,omitempty"`
	Input        map[string]any `json:"input,omitempty"`
}

type FlowRunRequest struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}
