package wsync

import "github.com/cockroachdb/errors"

var (
	// ErrManifestMissing indicates the sync manifest does not exist yet.
	ErrManifestMissing = errors.New("sync manifest not found")

	// ErrManifestExists indicates init would clobber an existing manifest.
	ErrManifestExists = errors.New("sync manifest already exists")

	// ErrRepoNotDetected indicates the repository identity could not be
	// derived from the Git origin remote.
	ErrRepoNotDetected = errors.New("repository not detected")
)
