package wsync

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
)

// Syncer runs the sync operations for one repository checkout against its
// object prefix. It never caches status between operations; every run
// re-inspects both sides.
type Syncer struct {
	client *gcloud.Client
	git    gcloud.Runner
	log    *logger.Logger
	root   string
	repo   RepoInfo
	layout gcloud.Layout
	ignore []string
}

// SyncerParams collects the pieces a Syncer operates over. Ignore holds the
// repository-level exclusion patterns; paths matching them are listed but
// never transferred.
type SyncerParams struct {
	Client *gcloud.Client
	Git    gcloud.Runner
	Log    *logger.Logger
	Root   string
	Repo   RepoInfo
	Layout gcloud.Layout
	Ignore []string
}

// NewSyncer builds a Syncer from its parts.
func NewSyncer(params SyncerParams) *Syncer {
	return &Syncer{
		client: params.Client,
		git:    params.Git,
		log:    params.Log,
		root:   params.Root,
		repo:   params.Repo,
		layout: params.Layout,
		ignore: params.Ignore,
	}
}

// Prefix returns the object URL everything for this repository lives under.
func (s *Syncer) Prefix() string {
	return s.layout.RepoPath(s.repo.Owner, s.repo.Name)
}

func (s *Syncer) objectURL(path string) string {
	return s.Prefix() + "/" + filepath.ToSlash(path)
}

func (s *Syncer) localPath(path string) string {
	return filepath.Join(s.root, path)
}

// Init creates the sync manifest, seeding it with top-level files that match
// the configured candidate patterns and are already gitignored. An existing
// manifest is only replaced when forced.
func (s *Syncer) Init(candidates []string, force bool) (*InitResult, error) {
	path := ManifestPath(s.root)

	if _, err := os.Stat(path); err == nil && !force {
		return nil, errors.Wrapf(ErrManifestExists, "%s (use --force to recreate)", path)
	}

	auto, err := s.discoverCandidates(candidates)
	if err != nil {
		return nil, err
	}

	result := &InitResult{ManifestPath: path, AutoAdded: auto, DryRun: s.client.DryRun()}
	if result.DryRun {
		return result, nil
	}

	if err := os.WriteFile(path, []byte(initialManifest(auto)), 0o644); err != nil { //nolint:gosec // shared manifest, not a secret
		return nil, errors.Wrapf(err, "creating %s", path)
	}

	return result, nil
}

// discoverCandidates scans the top level of the checkout for files matching
// the candidate patterns that .gitignore already covers. Only files Git
// would not track are worth managing, so everything else is left out.
func (s *Syncer) discoverCandidates(candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	gitignore, err := GitignorePatterns(s.root)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", s.root)
	}

	var auto []string

	seen := map[string]bool{}

	for _, pattern := range candidates {
		for _, entry := range dirEntries {
			name := entry.Name()
			if entry.IsDir() || seen[name] {
				continue
			}

			if ok, err := doublestar.Match(pattern, name); err != nil || !ok {
				continue
			}

			if !Ignored(name, gitignore, false) {
				s.log.Debug("candidate not gitignored, skipping", "file", name)
				continue
			}

			seen[name] = true

			auto = append(auto, name)
		}
	}

	return auto, nil
}

// Status reports every managed path with its fresh local and remote status.
// Entries whose status cannot be determined are reported with their error
// and do not stop the rest. With includeUnmanaged, gitignored files the
// manifest does not cover are listed as candidates.
func (s *Syncer) Status(ctx context.Context, includeUnmanaged bool) (*StatusReport, error) {
	managed, err := ReadManifest(s.root)
	if err != nil {
		return nil, err
	}

	gitignore, err := GitignorePatterns(s.root)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Repo: s.repo, Prefix: s.Prefix()}

	for _, path := range managed {
		file := FileStatus{Path: path}

		local, lerr := LocalStatus(s.localPath(path))

		remote, rerr := RemoteStatus(ctx, s.client, s.objectURL(path))

		switch {
		case lerr != nil:
			file.Err = lerr

			s.log.Warn("local status failed", "path", path, "error", lerr)
		case rerr != nil:
			file.Err = rerr

			s.log.Warn("remote status failed", "path", path, "error", rerr)
		default:
			file.Local = local
			file.Remote = remote
			file.Classification = Classify(local, remote)
		}

		file.Gitignored = Ignored(path, gitignore, local.Kind == KindDirectory)

		report.Files = append(report.Files, file)
	}

	if includeUnmanaged {
		unmanaged, err := s.unmanagedIgnored(ctx, managed)
		if err != nil {
			return nil, err
		}

		report.Unmanaged = unmanaged
	}

	return report, nil
}

func (s *Syncer) unmanagedIgnored(ctx context.Context, managed []string) ([]string, error) {
	ignored, err := IgnoredUntracked(ctx, s.git, s.root)
	if err != nil {
		return nil, err
	}

	managedSet := map[string]bool{}
	for _, path := range managed {
		managedSet[path] = true
	}

	var unmanaged []string

	for _, path := range ignored {
		if !managedSet[strings.TrimSuffix(path, "/")] {
			unmanaged = append(unmanaged, path)
		}
	}

	return unmanaged, nil
}

// Plan computes what a pull would do for every managed path, in manifest
// order. Entries whose status cannot be determined carry the error instead
// of an action.
func (s *Syncer) Plan(ctx context.Context, force bool) ([]PlanEntry, error) {
	managed, err := ReadManifest(s.root)
	if err != nil {
		return nil, err
	}

	var plan []PlanEntry

	for _, path := range managed {
		entry := PlanEntry{Path: path}

		local, err := LocalStatus(s.localPath(path))
		if err != nil {
			entry.Err = err
			plan = append(plan, entry)

			continue
		}

		remote, err := RemoteStatus(ctx, s.client, s.objectURL(path))
		if err != nil {
			entry.Err = err
			plan = append(plan, entry)

			continue
		}

		entry.Local = local
		entry.Remote = remote
		entry.Ignored = MatchAny(path, s.ignore)
		entry.Action = DeriveAction(local, remote, entry.Ignored, force)

		plan = append(plan, entry)
	}

	return plan, nil
}

// Pull transfers remote copies to the checkout following the plan. Entries
// are processed sequentially and one failure never stops the rest.
func (s *Syncer) Pull(ctx context.Context, force bool) (*SyncReport, error) {
	plan, err := s.Plan(ctx, force)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Repo: s.repo, Prefix: s.Prefix()}

	for _, entry := range plan {
		report.Files = append(report.Files, s.pullEntry(ctx, entry))
	}

	return report, nil
}

func (s *Syncer) pullEntry(ctx context.Context, entry PlanEntry) FileReport {
	if entry.Err != nil {
		return FileReport{Path: entry.Path, Outcome: OutcomeFailed, Detail: entry.Err.Error()}
	}

	switch entry.Action {
	case ActionSkipIgnored:
		return FileReport{Path: entry.Path, Outcome: OutcomeSkipped, Detail: "excluded by sync ignore rules"}

	case ActionSkipExists:
		if entry.Local.MD5 != "" && entry.Local.MD5 == entry.Remote.MD5 {
			return FileReport{Path: entry.Path, Outcome: OutcomeOK, Detail: "already up to date"}
		}

		return FileReport{Path: entry.Path, Outcome: OutcomeSkipped, Detail: "local file exists, use --force to overwrite"}

	case ActionConflictTypeMismatch:
		return FileReport{Path: entry.Path, Outcome: OutcomeFailed, Detail: "local path and GCS object are different kinds"}

	case ActionNoCounterpart:
		return FileReport{Path: entry.Path, Outcome: OutcomeSkipped, Detail: "no GCS counterpart, push it first"}

	case ActionNone:
		return FileReport{Path: entry.Path, Outcome: OutcomeSkipped, Detail: "neither local nor GCS copy exists"}

	case ActionPull, ActionOverwrite, ActionSyncDirectory:
		if s.client.DryRun() {
			return FileReport{Path: entry.Path, Outcome: OutcomeOK, Detail: "would pull (dry-run)"}
		}

		if err := s.client.Copy(ctx, s.objectURL(entry.Path), s.localPath(entry.Path), true); err != nil {
			s.log.Warn("pull failed", "path", entry.Path, "error", err)

			return FileReport{Path: entry.Path, Outcome: OutcomeFailed, Detail: err.Error()}
		}

		return FileReport{Path: entry.Path, Outcome: OutcomeOK, Detail: "pulled"}

	default:
		return FileReport{Path: entry.Path, Outcome: OutcomeFailed, Detail: "unhandled action " + entry.Action.String()}
	}
}

// PushOptions control a push run.
type PushOptions struct {
	// Force pushes entries that are not covered by .gitignore without
	// asking. Without it, ConfirmUnignored decides; a nil callback declines,
	// so non-interactive runs never push a file Git would track.
	Force bool

	ConfirmUnignored func(path string) bool
}

// Push uploads the local copies of managed paths to the repository prefix.
// Missing and excluded entries are skipped; entries not covered by
// .gitignore need confirmation because pushing a tracked file suggests the
// manifest is managing the wrong thing.
func (s *Syncer) Push(ctx context.Context, opts PushOptions) (*SyncReport, error) {
	managed, err := ReadManifest(s.root)
	if err != nil {
		return nil, err
	}

	gitignore, err := GitignorePatterns(s.root)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Repo: s.repo, Prefix: s.Prefix()}

	for _, path := range managed {
		report.Files = append(report.Files, s.pushEntry(ctx, path, gitignore, opts))
	}

	return report, nil
}

func (s *Syncer) pushEntry(ctx context.Context, path string, gitignore []string, opts PushOptions) FileReport {
	if MatchAny(path, s.ignore) {
		return FileReport{Path: path, Outcome: OutcomeSkipped, Detail: "excluded by sync ignore rules"}
	}

	local, err := LocalStatus(s.localPath(path))
	if err != nil {
		return FileReport{Path: path, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	if local.Presence == Absent {
		return FileReport{Path: path, Outcome: OutcomeSkipped, Detail: "not found locally"}
	}

	if !opts.Force && !Ignored(path, gitignore, local.Kind == KindDirectory) {
		if opts.ConfirmUnignored == nil || !opts.ConfirmUnignored(path) {
			return FileReport{Path: path, Outcome: OutcomeSkipped, Detail: "not covered by .gitignore, push declined"}
		}
	}

	if s.client.DryRun() {
		return FileReport{Path: path, Outcome: OutcomeOK, Detail: "would push (dry-run)"}
	}

	if err := s.client.Copy(ctx, s.localPath(path), s.objectURL(path), true); err != nil {
		s.log.Warn("push failed", "path", path, "error", err)

		return FileReport{Path: path, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	return FileReport{Path: path, Outcome: OutcomeOK, Detail: "pushed"}
}

// Clean removes everything stored for this repository under its prefix.
// Confirmation is the caller's job; in dry-run mode the report lists what
// would be removed without touching anything.
func (s *Syncer) Clean(ctx context.Context) (*CleanReport, error) {
	listed, err := s.client.List(ctx, s.Prefix(), true)
	if err != nil {
		return nil, err
	}

	report := &CleanReport{Prefix: s.Prefix(), DryRun: s.client.DryRun()}

	for _, entry := range listed {
		// recursive listings interleave prefix headers with object URLs
		if strings.HasSuffix(entry, ":") || strings.HasSuffix(entry, "/") {
			continue
		}

		report.Objects = append(report.Objects, entry)
	}

	if len(report.Objects) == 0 {
		return report, nil
	}

	if err := s.client.Remove(ctx, s.Prefix(), true); err != nil {
		return nil, err
	}

	return report, nil
}
