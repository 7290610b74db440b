package harness

import (
	"fmt"
	"strings"
)

// TraceEvent is one transition record as it appears in a trace, with the
// annotation named by its scenario ref.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Ref   string `json:"ref"`
	From  string `json:"from"`
	To    string `json:"to"`
	Event string `json:"event"`
}

// String renders the event as one golden-file line.
func (e TraceEvent) String() string {
	return fmt.Sprintf("%03d %s %s -> %s %s", e.Seq, e.Ref, e.From, e.To, e.Event)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace is the notebook's transition log after the last step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final maps each ref to the state it ended in.
	Final map[string]string `json:"final"`

	// Tool is the active tool after the last step.
	Tool string `json:"tool"`

	// Refs lists the scenario refs in creation order.
	Refs []string `json:"refs"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Final:  make(map[string]string),
		Refs:   []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Summary renders the trace and final states as golden-file text.
// Final states are listed in ref creation order.
func (r *Result) Summary(name string) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "tool: %s\n", r.Tool)
	buf.WriteString("trace:\n")
	for _, e := range r.Trace {
		fmt.Fprintf(&buf, "  %s\n", e)
	}
	buf.WriteString("final:\n")
	for _, ref := range r.Refs {
		fmt.Fprintf(&buf, "  %s %s\n", ref, r.Final[ref])
	}
	return buf.String()
}
