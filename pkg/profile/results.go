package profile

import "fmt"

// Options carries the caller-supplied inputs for one resolution. Explicit
// ProjectID and BucketName take precedence over every other source. An empty
// Profile falls back to the configured default profile name.
type Options struct {
	ProjectID  string
	BucketName string
	Profile    string
}

// Binding pairs a profile name with the project and bucket it resolves to.
type Binding struct {
	Profile    string
	ProjectID  string
	BucketName string
}

// Resolution reports the outcome of a resolve or clear operation. Messages
// accumulate through every phase, so a failed run still carries the progress
// made before the failure, including partially applied label state.
type Resolution struct {
	Binding  Binding
	Messages []string

	// Changed is true when a label was applied or removed, or the config
	// file was rewritten. A fully converged re-run reports Changed=false.
	Changed bool

	// DryRun mirrors the client mode the resolution ran under.
	DryRun bool
}

func (r *Resolution) addf(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}
