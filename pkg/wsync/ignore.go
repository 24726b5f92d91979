package wsync

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
)

// GitignorePatterns loads the pattern lines from the top-level .gitignore
// under root. A missing file yields no patterns. Negation rules are dropped
// rather than modeled; manifest entries are expected to be plainly ignored.
func GitignorePatterns(root string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "reading .gitignore")
	}

	var patterns []string

	for _, line := range strings.Split(string(data), "\n") {
		pattern := strings.TrimSpace(line)
		if pattern == "" || strings.HasPrefix(pattern, "#") || strings.HasPrefix(pattern, "!") {
			continue
		}

		patterns = append(patterns, pattern)
	}

	return patterns, nil
}

// Ignored reports whether a repository-relative path is covered by the
// pattern list, following the common .gitignore conventions: a trailing
// slash restricts the pattern to directories, a pattern without a slash
// matches the base name at any depth, and anything under an ignored
// directory is ignored too.
func Ignored(path string, patterns []string, isDir bool) bool {
	path = strings.TrimSuffix(filepath.ToSlash(path), "/")

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimPrefix(strings.TrimSuffix(pattern, "/"), "/")

		if matchesIgnorePattern(path, pattern) && (!dirOnly || isDir) {
			return true
		}

		if ok, err := doublestar.Match(pattern+"/**", path); err == nil && ok {
			return true
		}
	}

	return false
}

func matchesIgnorePattern(path, pattern string) bool {
	if ok, err := doublestar.Match(pattern, path); err == nil && ok {
		return true
	}

	if !strings.Contains(pattern, "/") {
		if ok, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && ok {
			return true
		}
	}

	return false
}

// MatchAny reports whether path matches any of the doublestar patterns.
// Unlike Ignored it applies no .gitignore conventions; patterns match the
// whole relative path as written.
func MatchAny(path string, patterns []string) bool {
	path = filepath.ToSlash(path)

	for _, pattern := range patterns {
		if ok, err := doublestar.Match(filepath.ToSlash(pattern), path); err == nil && ok {
			return true
		}
	}

	return false
}
