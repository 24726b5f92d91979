// Package homesync copies configured home-directory files and the global
// config file between the workstation and the profile bucket. Entries are
// processed sequentially with per-entry outcomes; one failure never stops
// the rest.
package homesync

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/internal/configtypes"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
)

// Item types accepted in user_home_sync config entries. An empty type means
// file, matching the schema default.
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// Syncer moves home files in and out of the profile bucket's dotfiles area.
type Syncer struct {
	client *gcloud.Client
	log    *logger.Logger
	layout gcloud.Layout
	home   string
	items  []configtypes.HomeSyncItem
}

// SyncerParams collects the pieces a Syncer operates over.
type SyncerParams struct {
	Client *gcloud.Client
	Log    *logger.Logger
	Layout gcloud.Layout
	Home   string
	Items  []configtypes.HomeSyncItem
}

// NewSyncer builds a Syncer from its parts.
func NewSyncer(params SyncerParams) *Syncer {
	return &Syncer{
		client: params.Client,
		log:    params.Log,
		layout: params.Layout,
		home:   params.Home,
		items:  params.Items,
	}
}

func (s *Syncer) localPath(item configtypes.HomeSyncItem) string {
	return filepath.Join(s.home, item.Path)
}

func (s *Syncer) remotePath(item configtypes.HomeSyncItem) string {
	return s.layout.DotfilesPath() + "/" + filepath.ToSlash(item.Path)
}

// itemType normalizes an entry's type, treating empty as file.
func itemType(item configtypes.HomeSyncItem) (string, bool) {
	switch item.Type {
	case "", TypeFile:
		return TypeFile, true
	case TypeDirectory:
		return TypeDirectory, true
	default:
		return "", false
	}
}

// Push uploads every configured home entry to the dotfiles area. Entries
// that are missing locally or whose kind does not match their configured
// type are skipped with a reason.
func (s *Syncer) Push(ctx context.Context) (*Report, error) {
	report := &Report{Prefix: s.layout.DotfilesPath()}

	for _, item := range s.items {
		report.Items = append(report.Items, s.pushItem(ctx, item))
	}

	return report, nil
}

func (s *Syncer) pushItem(ctx context.Context, item configtypes.HomeSyncItem) ItemReport {
	kind, ok := itemType(item)
	if item.Path == "" || !ok {
		return ItemReport{Path: item.Path, Outcome: OutcomeSkipped, Detail: "malformed entry, needs path and type file|directory"}
	}

	local := s.localPath(item)

	info, err := os.Stat(local)
	if os.IsNotExist(err) {
		return ItemReport{Path: item.Path, Outcome: OutcomeSkipped, Detail: "not found locally"}
	}

	if err != nil {
		return ItemReport{Path: item.Path, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	switch {
	case kind == TypeFile && info.IsDir():
		return ItemReport{Path: item.Path, Outcome: OutcomeSkipped, Detail: "configured as file but the local path is a directory"}
	case kind == TypeDirectory && !info.IsDir():
		return ItemReport{Path: item.Path, Outcome: OutcomeSkipped, Detail: "configured as directory but the local path is a file"}
	}

	if s.client.DryRun() {
		return ItemReport{Path: item.Path, Outcome: OutcomeOK, Detail: "would push (dry-run)"}
	}

	if err := s.client.Copy(ctx, local, s.remotePath(item), kind == TypeDirectory); err != nil {
		s.log.Warn("home push failed", "path", item.Path, "error", err)

		return ItemReport{Path: item.Path, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	return ItemReport{Path: item.Path, Outcome: OutcomeOK, Detail: "pushed"}
}

// Pull downloads every configured home entry from the dotfiles area. An
// existing local path is only replaced when forced, and a forced directory
// pull removes the local directory first so deletions on the pushing
// machine propagate instead of merging.
func (s *Syncer) Pull(ctx context.Context, force bool) (*Report, error) {
	report := &Report{Prefix: s.layout.DotfilesPath()}

	for _, item := range s.items {
		report.Items = append(report.Items, s.pullItem(ctx, item, force))
	}

	return report, nil
}

func (s *Syncer) pullItem(ctx context.Context, item configtypes.HomeSyncItem, force bool) ItemReport {
	kind, ok := itemType(item)
	if item.Path == "" || !ok {
		return ItemReport{Path: item.Path, Outcome: OutcomeSkipped, Detail: "malformed entry, needs path and type file|directory"}
	}

	local := s.localPath(item)

	_, err := os.Stat(local)
	exists := err == nil

	if err != nil && !os.IsNotExist(err) {
		return ItemReport{Path: item.Path, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	if exists && !force {
		return ItemReport{Path: item.Path, Outcome: OutcomeSkipped, Detail: "exists locally, use --force to replace"}
	}

	if s.client.DryRun() {
		detail := "would pull (dry-run)"
		if exists {
			detail = "would replace (dry-run)"
		}

		return ItemReport{Path: item.Path, Outcome: OutcomeOK, Detail: detail}
	}

	if exists {
		if err := os.RemoveAll(local); err != nil {
			return ItemReport{Path: item.Path, Outcome: OutcomeFailed, Detail: errors.Wrapf(err, "replacing %s", local).Error()}
		}
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return ItemReport{Path: item.Path, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	if err := s.client.Copy(ctx, s.remotePath(item), local, kind == TypeDirectory); err != nil {
		s.log.Warn("home pull failed", "path", item.Path, "error", err)

		return ItemReport{Path: item.Path, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	return ItemReport{Path: item.Path, Outcome: OutcomeOK, Detail: "pulled"}
}
