package profile

import "github.com/cockroachdb/errors"

var (
	// ErrNoBinding indicates no binding was found or derivable for a profile.
	ErrNoBinding = errors.New("no GCS configuration found or derivable")

	// ErrAmbiguousBinding indicates label discovery produced more than one
	// candidate (project, bucket) pair.
	ErrAmbiguousBinding = errors.New("ambiguous GCS setup")

	// ErrLabelConflict indicates a resource already carries the label key
	// with a different profile name.
	ErrLabelConflict = errors.New("label owned by a different profile")

	// ErrBindingIncomplete indicates only one half of a binding was supplied.
	ErrBindingIncomplete = errors.New("project ID and bucket name are both required")
)
