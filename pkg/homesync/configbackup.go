package homesync

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNoLocalConfig indicates there is no local config file to back up.
var ErrNoLocalConfig = errors.New("local config file not found")

// BackupConfig uploads the global config file to the profile bucket and
// returns the destination URL.
func (s *Syncer) BackupConfig(ctx context.Context, configPath string) (string, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return "", errors.Wrapf(ErrNoLocalConfig, "%s, nothing to back up", configPath)
	}

	dest := s.layout.ConfigBackupPath()

	if err := s.client.Copy(ctx, configPath, dest, false); err != nil {
		return "", errors.Wrapf(err, "backing up %s", configPath)
	}

	return dest, nil
}

// RestoreOptions control a config restore.
type RestoreOptions struct {
	ConfigPath string

	// Force replaces an existing local config without asking. Without it,
	// Confirm decides; a nil callback declines.
	Force   bool
	Confirm func(path string) bool
}

// RestoreConfig downloads the backed-up global config over the local file.
// An existing file needs confirmation (or force) and is first copied to a
// timestamped sibling so a bad restore stays recoverable.
func (s *Syncer) RestoreConfig(ctx context.Context, opts RestoreOptions) (*RestoreResult, error) {
	result := &RestoreResult{
		Source: s.layout.ConfigBackupPath(),
		Target: opts.ConfigPath,
		DryRun: s.client.DryRun(),
	}

	_, err := os.Stat(opts.ConfigPath)
	exists := err == nil

	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "inspecting %s", opts.ConfigPath)
	}

	if exists && !opts.Force {
		if opts.Confirm == nil || !opts.Confirm(opts.ConfigPath) {
			result.Cancelled = true

			return result, nil
		}
	}

	if result.DryRun {
		return result, nil
	}

	if exists {
		backupPath, err := backupAside(opts.ConfigPath)
		if err != nil {
			return nil, err
		}

		result.BackupPath = backupPath
	}

	if err := os.MkdirAll(filepath.Dir(opts.ConfigPath), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", filepath.Dir(opts.ConfigPath))
	}

	if err := s.client.Copy(ctx, result.Source, opts.ConfigPath, false); err != nil {
		return nil, errors.Wrapf(err, "restoring %s", opts.ConfigPath)
	}

	return result, nil
}

// backupAside copies a file to a timestamped sibling and returns the copy's
// path. The original stays in place so a failed restore loses nothing.
func backupAside(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // the user's own config file
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}

	backupPath := path + ".backup." + time.Now().Format("20060102-150405")

	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return "", errors.Wrapf(err, "writing %s", backupPath)
	}

	return backupPath, nil
}
