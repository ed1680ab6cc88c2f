package harness

import "github.com/roach88/edmsql/internal/store"

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Step   string   `json:"step"`
	Kind   string   `json:"kind"`
	SQL    string   `json:"sql,omitempty"`
	Params []string `json:"params,omitempty"`
	Error  string   `json:"error,omitempty"`

	// Result is set when the statement was executed.
	Result *store.Result `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step met its expectations.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains the failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends the event of a step.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
