package wsync

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// ManifestFileName is the per-repository list of managed paths.
	ManifestFileName = ".ws-sync"

	// EnvSyncRoot overrides the directory the manifest and managed paths
	// are resolved against, so sync commands work from any cwd.
	EnvSyncRoot = "PROJ_LOCAL_CONFIG_SYNC_PATH"
)

// SyncRoot resolves the directory sync operates in.
func SyncRoot() (string, error) {
	if root := os.Getenv(EnvSyncRoot); root != "" {
		return root, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolving working directory")
	}

	return wd, nil
}

// ManifestPath returns the manifest location under root.
func ManifestPath(root string) string {
	return filepath.Join(root, ManifestFileName)
}

// ReadManifest loads the managed paths from the manifest under root,
// preserving order and dropping comments, blank lines, and duplicates.
// Trailing slashes are trimmed so directory entries join cleanly into
// object URLs.
func ReadManifest(root string) ([]string, error) {
	path := ManifestPath(root)

	data, err := os.ReadFile(path) //nolint:gosec // fixed name under the sync root
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrManifestMissing, "%s (run 'devws sync init' first)", path)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var entries []string

	seen := map[string]bool{}

	for _, line := range strings.Split(string(data), "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}

		entry = strings.TrimSuffix(entry, "/")
		if entry == "" || seen[entry] {
			continue
		}

		seen[entry] = true

		entries = append(entries, entry)
	}

	return entries, nil
}

const manifestHeader = `# Files listed here are project-specific configuration synchronized across
# workstations through the 'devws sync' commands.
#
# IMPORTANT: every entry should also be covered by .gitignore so sensitive or
# machine-local configuration never lands in version control.
#
# Example:
# .env
# my-local-config.json
`

// initialManifest renders the manifest created by init, appending any
// auto-discovered entries under a marker comment.
func initialManifest(autoAdded []string) string {
	var b strings.Builder

	b.WriteString(manifestHeader)

	if len(autoAdded) > 0 {
		b.WriteString("\n# Automatically added based on configured candidates and .gitignore:\n")

		for _, entry := range autoAdded {
			b.WriteString(entry)
			b.WriteString("\n")
		}
	}

	return b.String()
}
