package wsync

// PlanEntry is one row of a pull plan: the fresh status pair for a managed
// path and the action derived from it. Err marks entries whose status could
// not be determined; they surface as failed rows instead of stopping the run.
type PlanEntry struct {
	Path    string
	Local   Status
	Remote  Status
	Ignored bool
	Action  Action
	Err     error
}

// FileStatus is one row of a status report.
type FileStatus struct {
	Path           string
	Local          Status
	Remote         Status
	Classification Classification
	Gitignored     bool
	Err            error
}

// StatusReport summarizes every managed path of a repository, plus the
// gitignored files nothing manages yet when those were requested.
type StatusReport struct {
	Repo      RepoInfo
	Prefix    string
	Files     []FileStatus
	Unmanaged []string
}

// Outcome is the result of processing one entry during pull or push.
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

// FileReport records what happened to one managed path.
type FileReport struct {
	Path    string
	Outcome Outcome
	Detail  string
}

// SyncReport collects per-entry outcomes of a pull or push. Entries keep
// manifest order; a failed entry never stops the entries after it.
type SyncReport struct {
	Repo   RepoInfo
	Prefix string
	Files  []FileReport
}

// FailedCount returns how many entries failed.
func (r *SyncReport) FailedCount() int {
	count := 0

	for _, file := range r.Files {
		if file.Outcome == OutcomeFailed {
			count++
		}
	}

	return count
}

// InitResult describes the manifest created by init.
type InitResult struct {
	ManifestPath string
	AutoAdded    []string
	DryRun       bool
}

// CleanReport lists the remote objects a clean removed, or would remove in
// dry-run mode.
type CleanReport struct {
	Prefix  string
	Objects []string
	DryRun  bool
}
