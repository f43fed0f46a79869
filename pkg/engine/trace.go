package engine

import "time"

// Trace records the policies executed for one request.
type Trace struct {
	Steps []TraceStep
}

// TraceStep is one executed (or skipped) policy.
type TraceStep struct {
	Path      string
	Kind      string
	Title     string
	Outcome   string
	Details   string
	Timestamp time.Time
	Duration  time.Duration
}

// Step outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
	OutcomeCaught  = "caught"
	// OutcomeStopped marks a branch whose nested failure was caught and
	// ended the assembly.
	OutcomeStopped = "stopped"
)

// Add appends a step to the trace.
func (t *Trace) Add(step TraceStep) {
	if t == nil {
		return
	}
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}
	t.Steps = append(t.Steps, step)
}

// Paths returns the path of every step in order.
func (t *Trace) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		paths[i] = s.Path
	}
	return paths
}
