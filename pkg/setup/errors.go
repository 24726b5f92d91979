package setup

import "github.com/cockroachdb/errors"

var (
	// ErrUnknownComponent reports a --component value matching no registered
	// component.
	ErrUnknownComponent = errors.New("unknown setup component")
)
