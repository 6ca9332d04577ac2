package harness

import (
	"fmt"
	"strings"
)

// TraceEvent records one applied step.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Target  string `json:"target,omitempty"`
	Applied bool   `json:"applied"`
	Code    string `json:"code,omitempty"`
}

// String renders the event as one golden-file line.
func (e TraceEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", e.Seq, e.Kind)
	if e.Target != "" {
		fmt.Fprintf(&b, " %s", e.Target)
	}
	switch {
	case e.Code != "":
		fmt.Fprintf(&b, " error=%s", e.Code)
	case e.Applied:
		b.WriteString(" applied")
	default:
		b.WriteString(" noop")
	}
	return b.String()
}

// Result is the outcome of one scenario run.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when every step and assertion held.
	Pass bool `json:"pass"`

	// Trace lists the steps in application order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step, replay and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Chat is the rendered chat container after the last step.
	Chat string `json:"chat"`

	// MessageIDs are the message ids after the last step, in document order.
	MessageIDs []string `json:"message_ids"`
}

// NewResult creates a passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
