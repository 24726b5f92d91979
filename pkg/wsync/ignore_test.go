package wsync_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/smykla-skalski/devws/pkg/wsync"
)

func TestGitignorePatterns(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields no patterns", func(t *testing.T) {
		t.Parallel()

		patterns, err := wsync.GitignorePatterns(t.TempDir())
		if err != nil {
			t.Fatalf("GitignorePatterns() error = %v", err)
		}

		if patterns != nil {
			t.Errorf("patterns = %v, want none", patterns)
		}
	})

	t.Run("comments and negations are dropped", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()

		writeFile(t, root, ".gitignore", `# build output
*.log

!keep.log
.env
build/
`)

		patterns, err := wsync.GitignorePatterns(root)
		if err != nil {
			t.Fatalf("GitignorePatterns() error = %v", err)
		}

		want := []string{"*.log", ".env", "build/"}
		if diff := cmp.Diff(want, patterns); diff != "" {
			t.Errorf("patterns mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		patterns []string
		isDir    bool
		want     bool
	}{
		{
			name:     "exact name",
			path:     ".env",
			patterns: []string{".env"},
			want:     true,
		},
		{
			name:     "bare pattern matches the base name at any depth",
			path:     "sub/nested/.env",
			patterns: []string{".env"},
			want:     true,
		},
		{
			name:     "glob on base name",
			path:     "logs/app.log",
			patterns: []string{"*.log"},
			want:     true,
		},
		{
			name:     "directory pattern matches a directory",
			path:     "build",
			patterns: []string{"build/"},
			isDir:    true,
			want:     true,
		},
		{
			name:     "directory pattern skips a plain file of the same name",
			path:     "build",
			patterns: []string{"build/"},
			want:     false,
		},
		{
			name:     "everything under an ignored directory is ignored",
			path:     "build/out/app.bin",
			patterns: []string{"build/"},
			want:     true,
		},
		{
			name:     "anchored pattern",
			path:     "top.txt",
			patterns: []string{"/top.txt"},
			want:     true,
		},
		{
			name:     "path-scoped glob",
			path:     "docs/readme.md",
			patterns: []string{"docs/*.md"},
			want:     true,
		},
		{
			name:     "single star does not cross separators",
			path:     "docs/sub/readme.md",
			patterns: []string{"docs/*.md"},
			want:     false,
		},
		{
			name:     "no pattern matches",
			path:     "config.json",
			patterns: []string{"*.env", "build/"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := wsync.Ignored(tt.path, tt.patterns, tt.isDir); got != tt.want {
				t.Errorf("Ignored(%q, %v, %v) = %v, want %v", tt.path, tt.patterns, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestMatchAny(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		patterns []string
		want     bool
	}{
		{
			name:     "double star crosses separators",
			path:     "a/b/n.secret",
			patterns: []string{"**/*.secret"},
			want:     true,
		},
		{
			name:     "plain patterns match the whole path only",
			path:     "sub/x.env",
			patterns: []string{"*.env"},
			want:     false,
		},
		{
			name:     "exact path",
			path:     "config/app.yaml",
			patterns: []string{"config/app.yaml"},
			want:     true,
		},
		{
			name:     "no patterns",
			path:     "anything",
			patterns: nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := wsync.MatchAny(tt.path, tt.patterns); got != tt.want {
				t.Errorf("MatchAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
			}
		})
	}
}
