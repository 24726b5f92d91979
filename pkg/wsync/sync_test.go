package wsync_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
	"github.com/smykla-skalski/devws/pkg/wsync"
)

const (
	testPrefix    = "gs://bucket-a/repos/acme/widget"
	helloWorldMD5 = "XrY7u+Ae7tCTyyK7j1rNww=="
)

type fakeResponse struct {
	out string
	err error
}

// fakeRunner resolves commands from canned responses keyed by the full
// command line. Unexpected commands fail loudly so tests notice stray calls.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

func (f *fakeRunner) set(cmd, out string) {
	f.responses[cmd] = fakeResponse{out: out}
}

func (f *fakeRunner) setErr(cmd string, err error) {
	f.responses[cmd] = fakeResponse{err: err}
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, cmd)

	resp, ok := f.responses[cmd]
	if !ok {
		return "", &gcloud.CommandError{Name: name, Args: args, Stderr: "unexpected command: " + cmd, ExitCode: 1}
	}

	return resp.out, resp.err
}

func (f *fakeRunner) called(cmd string) bool {
	for _, call := range f.calls {
		if call == cmd {
			return true
		}
	}

	return false
}

// copyCalls returns the recorded gsutil cp invocations.
func (f *fakeRunner) copyCalls() []string {
	var copies []string

	for _, call := range f.calls {
		if strings.Contains(call, " cp ") {
			copies = append(copies, call)
		}
	}

	return copies
}

func notFoundErr() error {
	return &gcloud.CommandError{
		Stderr:   "CommandException: One or more URLs matched no objects.",
		ExitCode: 1,
	}
}

func statOutput(md5 string) string {
	return "url:\n" +
		"    Creation time:          Tue, 01 Apr 2025 10:00:00 GMT\n" +
		"    Update time:            Tue, 01 Apr 2025 10:05:00 GMT\n" +
		"    Content-Length:         1234\n" +
		"    Content-Type:           application/octet-stream\n" +
		"    Hash (md5):             " + md5 + "\n"
}

// setRemoteFile registers ls and stat responses describing an object.
func setRemoteFile(runner *fakeRunner, objectURL, md5 string) {
	runner.set("gsutil ls "+objectURL, objectURL+"\n")
	runner.set("gsutil stat "+objectURL, statOutput(md5))
}

// setRemoteAbsent registers ls and stat responses for a missing object.
func setRemoteAbsent(runner *fakeRunner, objectURL string) {
	runner.setErr("gsutil ls "+objectURL, notFoundErr())
	runner.setErr("gsutil stat "+objectURL, notFoundErr())
}

func newTestSyncer(t *testing.T, runner *fakeRunner, dryRun bool, ignore []string) (*wsync.Syncer, string) {
	t.Helper()

	root := t.TempDir()

	syncer := wsync.NewSyncer(wsync.SyncerParams{
		Client: gcloud.NewClientWithRunner(runner, logger.New("error"), "ws-sync", dryRun),
		Git:    runner,
		Log:    logger.New("error"),
		Root:   root,
		Repo:   wsync.RepoInfo{Owner: "acme", Name: "widget"},
		Layout: gcloud.Layout{Bucket: "bucket-a"},
		Ignore: ignore,
	})

	return syncer, root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func writeManifest(t *testing.T, root string, entries ...string) {
	t.Helper()

	writeFile(t, root, wsync.ManifestFileName, strings.Join(entries, "\n")+"\n")
}

func TestInitCreatesManifest(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeFile(t, root, ".gitignore", ".env\n*.local.json\n")
	writeFile(t, root, ".env", "SECRET=1\n")
	writeFile(t, root, "app.local.json", "{}\n")
	writeFile(t, root, "settings.json", "{}\n")

	if err := os.Mkdir(filepath.Join(root, "cfg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result, err := syncer.Init([]string{".env", "*.local.json", "*.json"}, false)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	wantAuto := []string{".env", "app.local.json"}
	if diff := cmp.Diff(wantAuto, result.AutoAdded); diff != "" {
		t.Errorf("AutoAdded mismatch (-want +got):\n%s", diff)
	}

	entries, err := wsync.ReadManifest(root)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}

	if diff := cmp.Diff(wantAuto, entries); diff != "" {
		t.Errorf("manifest entries mismatch (-want +got):\n%s", diff)
	}
}

func TestInitRefusesExistingManifest(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "keep.env")

	if _, err := syncer.Init(nil, false); !errors.Is(err, wsync.ErrManifestExists) {
		t.Fatalf("Init() error = %v, want ErrManifestExists", err)
	}

	if _, err := syncer.Init(nil, true); err != nil {
		t.Fatalf("Init(force) error = %v", err)
	}

	entries, err := wsync.ReadManifest(root)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("forced init kept old entries: %v", entries)
	}
}

func TestInitDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, true, nil)

	writeFile(t, root, ".gitignore", ".env\n")
	writeFile(t, root, ".env", "SECRET=1\n")

	result, err := syncer.Init([]string{".env"}, false)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if !result.DryRun {
		t.Error("result.DryRun = false, want true")
	}

	if diff := cmp.Diff([]string{".env"}, result.AutoAdded); diff != "" {
		t.Errorf("AutoAdded mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(wsync.ManifestPath(root)); !os.IsNotExist(err) {
		t.Errorf("manifest written during dry-run, stat err = %v", err)
	}
}

func TestPullTransfersRemoteOnlyAndReportsLocalOnly(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "# managed", "a.env", "b.json")
	writeFile(t, root, "a.env", "local only\n")

	setRemoteAbsent(runner, testPrefix+"/a.env")
	setRemoteFile(runner, testPrefix+"/b.json", helloWorldMD5)

	copyCmd := "gsutil -q cp -r " + testPrefix + "/b.json " + filepath.Join(root, "b.json")
	runner.set(copyCmd, "")

	report, err := syncer.Pull(context.Background(), false)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	want := []wsync.FileReport{
		{Path: "a.env", Outcome: wsync.OutcomeSkipped, Detail: "no GCS counterpart, push it first"},
		{Path: "b.json", Outcome: wsync.OutcomeOK, Detail: "pulled"},
	}
	if diff := cmp.Diff(want, report.Files); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	if !runner.called(copyCmd) {
		t.Errorf("expected copy call %q, got %v", copyCmd, runner.copyCalls())
	}

	if got := len(runner.copyCalls()); got != 1 {
		t.Errorf("copy calls = %d, want 1", got)
	}
}

func TestPullSkipsExistingFileUnlessForced(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "b.json")
	writeFile(t, root, "b.json", "stale local content\n")

	setRemoteFile(runner, testPrefix+"/b.json", helloWorldMD5)

	copyCmd := "gsutil -q cp -r " + testPrefix + "/b.json " + filepath.Join(root, "b.json")
	runner.set(copyCmd, "")

	report, err := syncer.Pull(context.Background(), false)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	if got := report.Files[0]; got.Outcome != wsync.OutcomeSkipped || !strings.Contains(got.Detail, "--force") {
		t.Errorf("unforced pull row = %+v, want skip pointing at --force", got)
	}

	if len(runner.copyCalls()) != 0 {
		t.Fatalf("unforced pull copied: %v", runner.copyCalls())
	}

	report, err = syncer.Pull(context.Background(), true)
	if err != nil {
		t.Fatalf("Pull(force) error = %v", err)
	}

	if got := report.Files[0]; got.Outcome != wsync.OutcomeOK || got.Detail != "pulled" {
		t.Errorf("forced pull row = %+v, want pulled", got)
	}

	if !runner.called(copyCmd) {
		t.Errorf("forced pull missing copy call %q", copyCmd)
	}
}

func TestPullIdenticalContentReportsUpToDate(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "b.json")
	writeFile(t, root, "b.json", "hello world")

	setRemoteFile(runner, testPrefix+"/b.json", helloWorldMD5)

	report, err := syncer.Pull(context.Background(), false)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	want := []wsync.FileReport{
		{Path: "b.json", Outcome: wsync.OutcomeOK, Detail: "already up to date"},
	}
	if diff := cmp.Diff(want, report.Files); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	if len(runner.copyCalls()) != 0 {
		t.Errorf("up-to-date pull copied: %v", runner.copyCalls())
	}
}

func TestPullContinuesAfterEntryFailure(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "broken.env", "ok.json")

	runner.setErr("gsutil ls "+testPrefix+"/broken.env", &gcloud.CommandError{
		Stderr:   "ServiceException: 401 Anonymous caller does not have storage.objects.list access",
		ExitCode: 1,
	})
	setRemoteFile(runner, testPrefix+"/ok.json", helloWorldMD5)
	runner.set("gsutil -q cp -r "+testPrefix+"/ok.json "+filepath.Join(root, "ok.json"), "")

	report, err := syncer.Pull(context.Background(), false)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	if len(report.Files) != 2 {
		t.Fatalf("rows = %d, want 2", len(report.Files))
	}

	if got := report.Files[0]; got.Outcome != wsync.OutcomeFailed || !strings.Contains(got.Detail, "401") {
		t.Errorf("failed row = %+v, want failure carrying the listing error", got)
	}

	if got := report.Files[1]; got.Outcome != wsync.OutcomeOK || got.Detail != "pulled" {
		t.Errorf("second row = %+v, want pulled despite earlier failure", got)
	}

	if got := report.FailedCount(); got != 1 {
		t.Errorf("FailedCount() = %d, want 1", got)
	}
}

func TestPullDryRunTouchesNothing(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, true, nil)

	writeManifest(t, root, "c.txt")
	setRemoteFile(runner, testPrefix+"/c.txt", helloWorldMD5)

	report, err := syncer.Pull(context.Background(), false)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	want := []wsync.FileReport{
		{Path: "c.txt", Outcome: wsync.OutcomeOK, Detail: "would pull (dry-run)"},
	}
	if diff := cmp.Diff(want, report.Files); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	if len(runner.copyCalls()) != 0 {
		t.Errorf("dry-run pull copied: %v", runner.copyCalls())
	}

	if _, err := os.Stat(filepath.Join(root, "c.txt")); !os.IsNotExist(err) {
		t.Errorf("dry-run pull created local file, stat err = %v", err)
	}
}

func TestPullSkipsExcludedEntries(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, []string{"*.secret"})

	writeManifest(t, root, "x.secret")
	setRemoteFile(runner, testPrefix+"/x.secret", helloWorldMD5)

	report, err := syncer.Pull(context.Background(), false)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	want := []wsync.FileReport{
		{Path: "x.secret", Outcome: wsync.OutcomeSkipped, Detail: "excluded by sync ignore rules"},
	}
	if diff := cmp.Diff(want, report.Files); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	if len(runner.copyCalls()) != 0 {
		t.Errorf("excluded entry copied: %v", runner.copyCalls())
	}
}

func TestPushSkipsMissingAndUnignoredEntries(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "missing.txt", "secret.env", "tracked.txt")
	writeFile(t, root, ".gitignore", "secret.env\n")
	writeFile(t, root, "secret.env", "TOKEN=1\n")
	writeFile(t, root, "tracked.txt", "committed content\n")

	pushCmd := "gsutil -q cp -r " + filepath.Join(root, "secret.env") + " " + testPrefix + "/secret.env"
	runner.set(pushCmd, "")

	report, err := syncer.Push(context.Background(), wsync.PushOptions{})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	want := []wsync.FileReport{
		{Path: "missing.txt", Outcome: wsync.OutcomeSkipped, Detail: "not found locally"},
		{Path: "secret.env", Outcome: wsync.OutcomeOK, Detail: "pushed"},
		{Path: "tracked.txt", Outcome: wsync.OutcomeSkipped, Detail: "not covered by .gitignore, push declined"},
	}
	if diff := cmp.Diff(want, report.Files); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	if !runner.called(pushCmd) {
		t.Errorf("expected push call %q, got %v", pushCmd, runner.copyCalls())
	}

	if got := len(runner.copyCalls()); got != 1 {
		t.Errorf("copy calls = %d, want 1", got)
	}
}

func TestPushUnignoredEntryNeedsConfirmationOrForce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		opts        wsync.PushOptions
		wantOutcome wsync.Outcome
		wantPushed  bool
	}{
		{
			name:        "nil confirmation declines",
			opts:        wsync.PushOptions{},
			wantOutcome: wsync.OutcomeSkipped,
		},
		{
			name: "confirmation declined",
			opts: wsync.PushOptions{
				ConfirmUnignored: func(string) bool { return false },
			},
			wantOutcome: wsync.OutcomeSkipped,
		},
		{
			name: "confirmation approved",
			opts: wsync.PushOptions{
				ConfirmUnignored: func(string) bool { return true },
			},
			wantOutcome: wsync.OutcomeOK,
			wantPushed:  true,
		},
		{
			name:        "forced",
			opts:        wsync.PushOptions{Force: true},
			wantOutcome: wsync.OutcomeOK,
			wantPushed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := newFakeRunner()
			syncer, root := newTestSyncer(t, runner, false, nil)

			writeManifest(t, root, "tracked.txt")
			writeFile(t, root, "tracked.txt", "committed content\n")

			pushCmd := "gsutil -q cp -r " + filepath.Join(root, "tracked.txt") + " " + testPrefix + "/tracked.txt"
			runner.set(pushCmd, "")

			report, err := syncer.Push(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Push() error = %v", err)
			}

			if got := report.Files[0].Outcome; got != tt.wantOutcome {
				t.Errorf("outcome = %v, want %v", got, tt.wantOutcome)
			}

			if got := runner.called(pushCmd); got != tt.wantPushed {
				t.Errorf("pushed = %v, want %v", got, tt.wantPushed)
			}
		})
	}
}

func TestPushDryRunUploadsNothing(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, true, nil)

	writeManifest(t, root, "secret.env")
	writeFile(t, root, ".gitignore", "secret.env\n")
	writeFile(t, root, "secret.env", "TOKEN=1\n")

	report, err := syncer.Push(context.Background(), wsync.PushOptions{})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	want := []wsync.FileReport{
		{Path: "secret.env", Outcome: wsync.OutcomeOK, Detail: "would push (dry-run)"},
	}
	if diff := cmp.Diff(want, report.Files); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	if len(runner.copyCalls()) != 0 {
		t.Errorf("dry-run push uploaded: %v", runner.copyCalls())
	}
}

func TestStatusReportClassifiesEveryEntry(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "a.env", "local.only", "remote.only", "shared.dir")
	writeFile(t, root, ".gitignore", "a.env\n")
	writeFile(t, root, "a.env", "hello world")
	writeFile(t, root, "local.only", "nothing remote\n")

	if err := os.Mkdir(filepath.Join(root, "shared.dir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	setRemoteFile(runner, testPrefix+"/a.env", helloWorldMD5)
	setRemoteAbsent(runner, testPrefix+"/local.only")
	setRemoteFile(runner, testPrefix+"/remote.only", helloWorldMD5)
	runner.set(
		"gsutil ls "+testPrefix+"/shared.dir",
		testPrefix+"/shared.dir/one.txt\n"+testPrefix+"/shared.dir/two.txt\n",
	)

	report, err := syncer.Status(context.Background(), false)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	type row struct {
		Path       string
		Local      string
		Remote     string
		Class      string
		Gitignored bool
	}

	got := make([]row, 0, len(report.Files))
	for _, file := range report.Files {
		got = append(got, row{
			Path:       file.Path,
			Local:      file.Local.Presence.String(),
			Remote:     file.Remote.Presence.String(),
			Class:      file.Classification.String(),
			Gitignored: file.Gitignored,
		})
	}

	want := []row{
		{Path: "a.env", Local: "Present", Remote: "Present", Class: "In Sync", Gitignored: true},
		{Path: "local.only", Local: "Present", Remote: "Absent", Class: "Local Only"},
		{Path: "remote.only", Local: "Absent", Remote: "Present", Class: "GCS Only"},
		{Path: "shared.dir", Local: "Present", Remote: "Present", Class: "Content Differs"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status rows mismatch (-want +got):\n%s", diff)
	}

	if report.Prefix != testPrefix {
		t.Errorf("Prefix = %q, want %q", report.Prefix, testPrefix)
	}
}

func TestStatusListsUnmanagedIgnoredFiles(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, root := newTestSyncer(t, runner, false, nil)

	writeManifest(t, root, "a.env")
	writeFile(t, root, "a.env", "hello world")

	setRemoteFile(runner, testPrefix+"/a.env", helloWorldMD5)
	runner.set(
		"git -C "+root+" ls-files --ignored --exclude-standard --others -z",
		"a.env\x00notes.local\x00build/cache.bin\x00",
	)

	report, err := syncer.Status(context.Background(), true)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	want := []string{"notes.local", "build/cache.bin"}
	if diff := cmp.Diff(want, report.Unmanaged); diff != "" {
		t.Errorf("unmanaged mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusRequiresManifest(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	syncer, _ := newTestSyncer(t, runner, false, nil)

	_, err := syncer.Status(context.Background(), false)
	if !errors.Is(err, wsync.ErrManifestMissing) {
		t.Fatalf("Status() error = %v, want ErrManifestMissing", err)
	}

	if !strings.Contains(err.Error(), "devws sync init") {
		t.Errorf("error %q does not point at sync init", err)
	}
}

func TestCleanRemovesRepositoryPrefix(t *testing.T) {
	t.Parallel()

	listing := testPrefix + "/a.env\n" +
		testPrefix + "/sub/:\n" +
		testPrefix + "/sub/b.txt\n" +
		testPrefix + "/sub/\n"

	tests := []struct {
		name        string
		dryRun      bool
		listOut     string
		listErr     error
		wantObjects []string
		wantRemove  bool
	}{
		{
			name:        "removes listed objects",
			listOut:     listing,
			wantObjects: []string{testPrefix + "/a.env", testPrefix + "/sub/b.txt"},
			wantRemove:  true,
		},
		{
			name:    "nothing to remove",
			listErr: notFoundErr(),
		},
		{
			name:        "dry-run lists without removing",
			dryRun:      true,
			listOut:     listing,
			wantObjects: []string{testPrefix + "/a.env", testPrefix + "/sub/b.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := newFakeRunner()
			syncer, _ := newTestSyncer(t, runner, tt.dryRun, nil)

			if tt.listErr != nil {
				runner.setErr("gsutil ls -r "+testPrefix, tt.listErr)
			} else {
				runner.set("gsutil ls -r "+testPrefix, tt.listOut)
			}

			removeCmd := "gsutil -q rm -r " + testPrefix
			runner.set(removeCmd, "")

			report, err := syncer.Clean(context.Background())
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}

			if diff := cmp.Diff(tt.wantObjects, report.Objects); diff != "" {
				t.Errorf("objects mismatch (-want +got):\n%s", diff)
			}

			if got := runner.called(removeCmd); got != tt.wantRemove {
				t.Errorf("remove called = %v, want %v", got, tt.wantRemove)
			}

			if report.DryRun != tt.dryRun {
				t.Errorf("DryRun = %v, want %v", report.DryRun, tt.dryRun)
			}
		})
	}
}
