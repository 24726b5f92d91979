package merge

import "github.com/cockroachdb/errors"

// ErrMalformedDocument indicates a configuration document could not be
// parsed or rendered.
var ErrMalformedDocument = errors.New("malformed configuration document")
