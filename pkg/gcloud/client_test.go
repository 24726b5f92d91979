package gcloud_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
)

// fakeRunner serves canned responses and records every invocation.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     []string
}

type fakeResponse struct {
	out string
	err error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	cmd := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, cmd)

	if resp, ok := f.responses[cmd]; ok {
		return resp.out, resp.err
	}

	return "", nil
}

func newTestClient(runner *fakeRunner, dryRun bool) *gcloud.Client {
	return gcloud.NewClientWithRunner(runner, logger.New("error"), "ws-sync", dryRun)
}

func TestProjectsWithLabel(t *testing.T) {
	ctx := context.Background()

	runner := &fakeRunner{responses: map[string]fakeResponse{
		"gcloud projects list --filter=labels.ws-sync=staging --format=value(project_id)": {
			out: "proj-a\nproj-b\n",
		},
	}}

	client := newTestClient(runner, false)

	projects, err := client.ProjectsWithLabel(ctx, "staging")
	if err != nil {
		t.Fatalf("ProjectsWithLabel() error = %v", err)
	}

	if diff := cmp.Diff([]string{"proj-a", "proj-b"}, projects); diff != "" {
		t.Errorf("ProjectsWithLabel() mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectLabels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		out  string
		want map[string]string
	}{
		{
			name: "labeled project",
			out:  "labels:\n  ws-sync: staging\n  env: dev\n",
			want: map[string]string{"ws-sync": "staging", "env": "dev"},
		},
		{
			name: "project without labels",
			out:  "",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{responses: map[string]fakeResponse{
				"gcloud projects describe proj-a --format=yaml(labels)": {out: tt.out},
			}}

			client := newTestClient(runner, false)

			labels, err := client.ProjectLabels(ctx, "proj-a")
			if err != nil {
				t.Fatalf("ProjectLabels() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, labels); diff != "" {
				t.Errorf("ProjectLabels() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBucketLabels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		out  string
		want map[string]string
	}{
		{
			name: "labeled bucket returns JSON payload",
			out:  "{\n  \"ws-sync\": \"staging\"\n}\n",
			want: map[string]string{"ws-sync": "staging"},
		},
		{
			name: "bucket without label configuration",
			out:  "gs://bucket-a/ has no label configuration.\n",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{responses: map[string]fakeResponse{
				"gsutil label get gs://bucket-a": {out: tt.out},
			}}

			client := newTestClient(runner, false)

			labels, err := client.BucketLabels(ctx, "bucket-a")
			if err != nil {
				t.Fatalf("BucketLabels() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, labels); diff != "" {
				t.Errorf("BucketLabels() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBucketsInProject(t *testing.T) {
	ctx := context.Background()

	runner := &fakeRunner{responses: map[string]fakeResponse{
		"gsutil ls -p proj-a": {out: "gs://bucket-a/\ngs://bucket-b/\n\n"},
	}}

	client := newTestClient(runner, false)

	buckets, err := client.BucketsInProject(ctx, "proj-a")
	if err != nil {
		t.Fatalf("BucketsInProject() error = %v", err)
	}

	if diff := cmp.Diff([]string{"bucket-a", "bucket-b"}, buckets); diff != "" {
		t.Errorf("BucketsInProject() mismatch (-want +got):\n%s", diff)
	}
}

func TestStat(t *testing.T) {
	ctx := context.Background()

	statOutput := `gs://bucket-a/repos/o/r/a.env:
    Creation time:          Tue, 01 Apr 2025 10:00:00 GMT
    Update time:            Tue, 01 Apr 2025 10:05:00 GMT
    Storage class:          STANDARD
    Content-Length:         1234
    Content-Type:           text/plain
    Hash (crc32c):          AAAAAA==
    Hash (md5):             XrY7u+Ae7tCTyyK7j1rNww==
`

	tests := []struct {
		name      string
		response  fakeResponse
		wantFound bool
		wantErr   bool
		wantMD5   string
		wantSize  int64
	}{
		{
			name:      "existing object",
			response:  fakeResponse{out: statOutput},
			wantFound: true,
			wantMD5:   "XrY7u+Ae7tCTyyK7j1rNww==",
			wantSize:  1234,
		},
		{
			name: "missing object is found=false, not an error",
			response: fakeResponse{err: &gcloud.CommandError{
				Name:     "gsutil",
				Args:     []string{"stat", "gs://bucket-a/missing"},
				Stderr:   "No URLs matched: gs://bucket-a/missing\n",
				ExitCode: 1,
			}},
			wantFound: false,
		},
		{
			name: "transport failure is an error",
			response: fakeResponse{err: &gcloud.CommandError{
				Name:     "gsutil",
				Args:     []string{"stat", "gs://bucket-a/a.env"},
				Stderr:   "ServiceException: 401 Anonymous caller does not have access\n",
				ExitCode: 1,
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{responses: map[string]fakeResponse{
				"gsutil stat gs://bucket-a/obj": tt.response,
			}}

			client := newTestClient(runner, false)

			meta, found, err := client.Stat(ctx, "gs://bucket-a/obj")

			if (err != nil) != tt.wantErr {
				t.Errorf("Stat() error = %v, wantErr %v", err, tt.wantErr)

				return
			}

			if tt.wantErr {
				return
			}

			if found != tt.wantFound {
				t.Errorf("Stat() found = %v, want %v", found, tt.wantFound)
			}

			if !tt.wantFound {
				return
			}

			if meta.MD5 != tt.wantMD5 {
				t.Errorf("Stat() MD5 = %q, want %q", meta.MD5, tt.wantMD5)
			}

			if meta.Size != tt.wantSize {
				t.Errorf("Stat() Size = %d, want %d", meta.Size, tt.wantSize)
			}

			wantUpdated := time.Date(2025, 4, 1, 10, 5, 0, 0, time.UTC)
			if !meta.Updated.Equal(wantUpdated) {
				t.Errorf("Stat() Updated = %v, want %v", meta.Updated, wantUpdated)
			}
		})
	}
}

func TestListMissingPrefix(t *testing.T) {
	ctx := context.Background()

	runner := &fakeRunner{responses: map[string]fakeResponse{
		"gsutil ls gs://bucket-a/repos/o/r": {err: &gcloud.CommandError{
			Name:     "gsutil",
			Args:     []string{"ls", "gs://bucket-a/repos/o/r"},
			Stderr:   "CommandException: One or more URLs matched no objects.\n",
			ExitCode: 1,
		}},
	}}

	client := newTestClient(runner, false)

	entries, err := client.List(ctx, "gs://bucket-a/repos/o/r", false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("List() on missing prefix = %v, want empty", entries)
	}
}

func TestDryRunSkipsMutations(t *testing.T) {
	ctx := context.Background()
	runner := &fakeRunner{}
	client := newTestClient(runner, true)

	if err := client.ApplyProjectLabel(ctx, "proj-a", "staging"); err != nil {
		t.Fatalf("ApplyProjectLabel() error = %v", err)
	}

	if err := client.ApplyBucketLabel(ctx, "bucket-a", "staging"); err != nil {
		t.Fatalf("ApplyBucketLabel() error = %v", err)
	}

	if err := client.Copy(ctx, "a.env", "gs://bucket-a/a.env", false); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	if err := client.Remove(ctx, "gs://bucket-a/a.env", false); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if err := client.Move(ctx, "gs://bucket-a/a.env", "gs://bucket-a/b.env"); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if len(runner.calls) != 0 {
		t.Errorf("dry-run executed %d commands: %v", len(runner.calls), runner.calls)
	}
}

func TestMutationCommandShapes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(*gcloud.Client) error
		want string
	}{
		{
			name: "apply project label",
			call: func(c *gcloud.Client) error {
				return c.ApplyProjectLabel(ctx, "proj-a", "staging")
			},
			want: "gcloud alpha projects update proj-a --update-labels=ws-sync=staging",
		},
		{
			name: "remove project label",
			call: func(c *gcloud.Client) error {
				return c.RemoveProjectLabel(ctx, "proj-a")
			},
			want: "gcloud alpha projects update proj-a --remove-labels=ws-sync",
		},
		{
			name: "apply bucket label",
			call: func(c *gcloud.Client) error {
				return c.ApplyBucketLabel(ctx, "bucket-a", "staging")
			},
			want: "gsutil label ch -l ws-sync:staging gs://bucket-a",
		},
		{
			name: "recursive copy",
			call: func(c *gcloud.Client) error {
				return c.Copy(ctx, ".config/nvim", "gs://bucket-a/home/dotfiles/.config/nvim", true)
			},
			want: "gsutil -q cp -r .config/nvim gs://bucket-a/home/dotfiles/.config/nvim",
		},
		{
			name: "recursive remove",
			call: func(c *gcloud.Client) error {
				return c.Remove(ctx, "gs://bucket-a/repos/o/r", true)
			},
			want: "gsutil -q rm -r gs://bucket-a/repos/o/r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			client := newTestClient(runner, false)

			if err := tt.call(client); err != nil {
				t.Fatalf("unexpected error = %v", err)
			}

			if len(runner.calls) != 1 || runner.calls[0] != tt.want {
				t.Errorf("recorded calls = %v, want [%s]", runner.calls, tt.want)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	layout := gcloud.Layout{Bucket: "bucket-a"}

	if got := layout.RepoPath("owner", "repo"); got != "gs://bucket-a/repos/owner/repo" {
		t.Errorf("RepoPath() = %q", got)
	}

	if got := layout.DotfilesPath(); got != "gs://bucket-a/home/dotfiles" {
		t.Errorf("DotfilesPath() = %q", got)
	}

	if got := layout.ConfigBackupPath(); got != "gs://bucket-a/devws/devws-config.yaml" {
		t.Errorf("ConfigBackupPath() = %q", got)
	}
}
