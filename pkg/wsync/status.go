// Package wsync implements manifest-driven synchronization of project-local
// configuration files between a repository checkout and its GCS prefix. It
// computes fresh local and remote status descriptors per query, classifies
// the pair, and derives the pull action from a fixed decision table.
package wsync

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint matching the GCS hash, not a security boundary
	"encoding/base64"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/gcloud"
)

// Presence reports whether a path exists at all.
type Presence int

const (
	Absent Presence = iota
	Present
)

// String implements fmt.Stringer.
func (p Presence) String() string {
	if p == Present {
		return "Present"
	}

	return "Absent"
}

// Kind distinguishes what a present path is. The object store has no native
// directories, so the remote kind is inferred from listing shape and can be
// ambiguous for a prefix holding exactly one differently-named object.
type Kind int

const (
	KindUnknown Kind = iota
	KindFile
	KindDirectory
	KindAmbiguousSingleChild
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindDirectory:
		return "Directory"
	case KindAmbiguousSingleChild:
		return "Ambiguous (single child)"
	default:
		return "Unknown"
	}
}

// Status describes one side of a managed path at a moment in time. It is
// computed fresh on every query and never cached across invocations.
type Status struct {
	Presence Presence
	Kind     Kind

	// MD5 is the base64-encoded content hash, present only for files. Local
	// hashes use the same digest and encoding the object store reports, so
	// the two compare directly.
	MD5     string
	ModTime time.Time
}

// LocalStatus inspects a path on the local filesystem.
func LocalStatus(path string) (Status, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Status{Presence: Absent, Kind: KindUnknown}, nil
	}

	if err != nil {
		return Status{}, errors.Wrapf(err, "inspecting %s", path)
	}

	if info.IsDir() {
		return Status{Presence: Present, Kind: KindDirectory, ModTime: info.ModTime()}, nil
	}

	hash, err := fileMD5(path)
	if err != nil {
		return Status{}, err
	}

	return Status{Presence: Present, Kind: KindFile, MD5: hash, ModTime: info.ModTime()}, nil
}

// RemoteStatus inspects an object URL in the store. Directory-likeness is
// checked before assuming a leaf object, because a path can exist as a
// prefix without an object carrying that exact key. A listing returning
// exactly the queried URL names an object; a trailing-slash marker or more
// than one entry names a prefix; exactly one differently-named entry cannot
// prove either, so it is surfaced as AmbiguousSingleChild and treated like a
// directory by sync operations.
func RemoteStatus(ctx context.Context, client *gcloud.Client, objectURL string) (Status, error) {
	entries, err := client.List(ctx, objectURL, false)
	if err != nil {
		return Status{}, err
	}

	switch {
	case len(entries) > 1:
		return Status{Presence: Present, Kind: KindDirectory}, nil
	case len(entries) == 1 && entries[0] == objectURL+"/":
		return Status{Presence: Present, Kind: KindDirectory}, nil
	case len(entries) == 1 && entries[0] != objectURL:
		return Status{Presence: Present, Kind: KindAmbiguousSingleChild}, nil
	}

	meta, found, err := client.Stat(ctx, objectURL)
	if err != nil {
		return Status{}, err
	}

	if !found {
		return Status{Presence: Absent, Kind: KindUnknown}, nil
	}

	return Status{Presence: Present, Kind: KindFile, MD5: meta.MD5, ModTime: meta.Updated}, nil
}

// fileMD5 returns the base64-encoded MD5 digest of a file's content.
func fileMD5(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the sync manifest
	if err != nil {
		return "", errors.Wrapf(err, "opening %s for hashing", path)
	}
	defer func() { _ = f.Close() }()

	digest := md5.New() //nolint:gosec // see package import note

	if _, err := io.Copy(digest, f); err != nil {
		return "", errors.Wrapf(err, "hashing %s", path)
	}

	return base64.StdEncoding.EncodeToString(digest.Sum(nil)), nil
}
