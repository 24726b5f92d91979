package wsync

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/gcloud"
)

// RepoInfo identifies the repository whose configuration is being synced.
// Owner and Name form the object prefix, so two checkouts of the same
// repository on different machines share one remote location.
type RepoInfo struct {
	Owner string
	Name  string
}

// Slug returns the owner/name form used in object paths and messages.
func (r RepoInfo) Slug() string {
	return r.Owner + "/" + r.Name
}

// DetectRepo identifies the repository at root from its origin remote URL.
func DetectRepo(ctx context.Context, runner gcloud.Runner, root string) (RepoInfo, error) {
	out, err := runner.Run(ctx, "git", "-C", root, "remote", "get-url", "origin")
	if err != nil {
		return RepoInfo{}, errors.Wrapf(ErrRepoNotDetected, "%s has no origin remote", root)
	}

	info, ok := parseRemote(strings.TrimSpace(out))
	if !ok {
		return RepoInfo{}, errors.Wrapf(ErrRepoNotDetected, "unrecognized origin remote %q", strings.TrimSpace(out))
	}

	return info, nil
}

// parseRemote extracts owner and repository name from the common remote URL
// shapes: scp-like (git@host:owner/repo.git) and scheme URLs
// (https://host/owner/repo, ssh://git@host/owner/repo.git).
func parseRemote(url string) (RepoInfo, bool) {
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	var path string

	switch {
	case strings.Contains(url, "://"):
		_, rest, _ := strings.Cut(url, "://")

		if _, after, ok := strings.Cut(rest, "@"); ok {
			rest = after
		}

		_, path, _ = strings.Cut(rest, "/")
	case strings.Contains(url, ":"):
		_, path, _ = strings.Cut(url, ":")
	default:
		return RepoInfo{}, false
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return RepoInfo{}, false
	}

	owner := parts[len(parts)-2]
	name := parts[len(parts)-1]

	if owner == "" || name == "" {
		return RepoInfo{}, false
	}

	return RepoInfo{Owner: owner, Name: name}, true
}

// IgnoredUntracked lists the gitignored, untracked paths Git knows about
// under root, the candidate pool for files worth managing.
func IgnoredUntracked(ctx context.Context, runner gcloud.Runner, root string) ([]string, error) {
	out, err := runner.Run(ctx, "git", "-C", root, "ls-files", "--ignored", "--exclude-standard", "--others", "-z")
	if err != nil {
		return nil, errors.Wrap(err, "listing gitignored files")
	}

	var paths []string

	for _, path := range strings.Split(out, "\x00") {
		if path != "" {
			paths = append(paths, path)
		}
	}

	return paths, nil
}
