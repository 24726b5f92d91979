package homesync

// Outcome is the result of processing one home entry.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "ok"
	}
}

// ItemReport records what happened to one configured home entry.
type ItemReport struct {
	Path    string
	Outcome Outcome
	Detail  string
}

// Report collects per-entry outcomes of a home push or pull, in config
// order.
type Report struct {
	Prefix string
	Items  []ItemReport
}

// FailedCount returns how many entries failed.
func (r *Report) FailedCount() int {
	count := 0

	for _, item := range r.Items {
		if item.Outcome == OutcomeFailed {
			count++
		}
	}

	return count
}

// RestoreResult describes a config restore.
type RestoreResult struct {
	Source     string
	Target     string
	BackupPath string
	Cancelled  bool
	DryRun     bool
}
