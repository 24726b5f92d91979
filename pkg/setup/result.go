package setup

// StepStatus is the outcome keyword of one setup step, as rendered in the
// final report.
type StepStatus string

const (
	// StatusPass marks a generic successful check.
	StatusPass StepStatus = "PASS"
	// StatusCompleted marks work performed during this run.
	StatusCompleted StepStatus = "COMPLETED"
	// StatusVerified marks work that was already in place before this run.
	StatusVerified StepStatus = "VERIFIED"
	// StatusReady marks work a dry-run would have performed.
	StatusReady StepStatus = "READY"
	// StatusSkip marks a step that does not apply to this workstation.
	StatusSkip StepStatus = "SKIP"
	// StatusDisabled marks a component switched off by config or filtering.
	StatusDisabled StepStatus = "DISABLED"
	// StatusPartial marks a step that ran but needs manual attention.
	StatusPartial StepStatus = "PARTIAL"
	// StatusFail marks a failed step.
	StatusFail StepStatus = "FAIL"
)

// Describe returns the long report form of the status.
func (s StepStatus) Describe() string {
	switch s {
	case StatusPass:
		return "PASSED"
	case StatusCompleted:
		return "COMPLETED (just finished)"
	case StatusVerified:
		return "VERIFIED (already done)"
	case StatusReady:
		return "READY (pending changes)"
	case StatusSkip:
		return "SKIPPED (not applicable)"
	case StatusDisabled:
		return "DISABLED (configuration)"
	case StatusPartial:
		return "PARTIAL (needs attention)"
	case StatusFail:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Emoji returns the marker rendered beside the step in reports.
func (s StepStatus) Emoji() string {
	switch s {
	case StatusPass, StatusCompleted, StatusVerified:
		return "✅"
	case StatusReady:
		return "⏳"
	case StatusSkip:
		return "⏭️"
	case StatusDisabled:
		return "🚫"
	case StatusPartial:
		return "⚠️"
	case StatusFail:
		return "❌"
	default:
		return "❓"
	}
}

// StepResult is one row of the setup report.
type StepResult struct {
	Component string     `json:"component"`
	Step      string     `json:"step"`
	Status    StepStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
}

// Failed reports whether this step counts as a failure in the final tally.
func (r StepResult) Failed() bool {
	return r.Status == StatusFail
}

// Summary tallies step results by status for the report footer.
type Summary struct {
	Passed    int `json:"passed"`
	Completed int `json:"completed"`
	Verified  int `json:"verified"`
	Ready     int `json:"ready"`
	Skipped   int `json:"skipped"`
	Disabled  int `json:"disabled"`
	Partial   int `json:"partial"`
	Failed    int `json:"failed"`
}

// Summarize counts the given steps by status.
func Summarize(steps []StepResult) Summary {
	var sum Summary

	for _, step := range steps {
		switch step.Status {
		case StatusPass:
			sum.Passed++
		case StatusCompleted:
			sum.Completed++
		case StatusVerified:
			sum.Verified++
		case StatusReady:
			sum.Ready++
		case StatusSkip:
			sum.Skipped++
		case StatusDisabled:
			sum.Disabled++
		case StatusPartial:
			sum.Partial++
		case StatusFail:
			sum.Failed++
		}
	}

	return sum
}
