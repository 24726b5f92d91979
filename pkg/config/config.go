// Package config loads and persists the devws global configuration.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v4"

	"github.com/smykla-skalski/devws/internal/configtypes"
	"github.com/smykla-skalski/devws/pkg/logger"
	"github.com/smykla-skalski/devws/pkg/merge"
)

const (
	// DefaultLabelKey is the cloud label key marking profile ownership.
	DefaultLabelKey = "ws-sync"

	// EnvConfigFile overrides the global config file location.
	EnvConfigFile = "WS_SYNC_CONFIG"
	// EnvLabelKey overrides the cloud label key.
	EnvLabelKey = "DEVWS_WS_SYNC_LABEL_KEY"

	// FallbackProfileName is used when neither a flag nor the config names a profile.
	FallbackProfileName = "default"

	configDirName  = "devws"
	configFileName = "config.yaml"

	// configFileMode keeps the config private; it can reference internal project IDs.
	configFileMode = 0o600
	configDirMode  = 0o755
)

// Global is the loaded global configuration plus the file it came from.
// Mutations happen in memory; Save rewrites the whole file.
type Global struct {
	configtypes.GlobalConfig

	path     string
	snapshot []byte
}

// Dir returns the global config directory (~/.config/devws).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "locating home directory")
	}

	return filepath.Join(home, ".config", configDirName), nil
}

// FilePath returns the global config file path, honoring the
// WS_SYNC_CONFIG override.
func FilePath() (string, error) {
	if override := os.Getenv(EnvConfigFile); override != "" {
		return override, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, configFileName), nil
}

// LabelKey returns the cloud label key used for profile discovery,
// honoring the DEVWS_WS_SYNC_LABEL_KEY override.
func LabelKey() string {
	if override := os.Getenv(EnvLabelKey); override != "" {
		return override
	}

	return DefaultLabelKey
}

// Defaults returns the built-in configuration layer the user file is
// merged on top of.
func Defaults() map[string]any {
	return map[string]any{
		"local_sync_candidates": []any{"*.env"},
		"default_gcs_profile":   FallbackProfileName,
	}
}

// Load reads the global config file, merges it over the built-in defaults,
// and decodes the result. A missing file yields the defaults.
func Load(log *logger.Logger) (*Global, error) {
	path, err := FilePath()
	if err != nil {
		return nil, err
	}

	userLayer := map[string]any{}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own environment
	switch {
	case err == nil:
		userLayer, err = merge.ParseYAML(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing global config %s", path)
		}

		log.Debug("global config loaded", "path", path)
	case os.IsNotExist(err):
		log.Debug("no global config file, using defaults", "path", path)
	default:
		return nil, errors.Wrapf(err, "reading global config %s", path)
	}

	merged, err := merge.DeepMerge(Defaults(), userLayer)
	if err != nil {
		return nil, errors.Wrap(err, "merging global config over defaults")
	}

	global := &Global{path: path}
	if err := decodeDocument(merged, &global.GlobalConfig); err != nil {
		return nil, errors.Wrapf(err, "decoding global config %s", path)
	}

	snapshot, err := yaml.Marshal(&global.GlobalConfig)
	if err != nil {
		return nil, errors.Wrap(err, "snapshotting global config")
	}

	global.snapshot = snapshot

	return global, nil
}

// decodeDocument converts a merged document into the typed config.
func decodeDocument(doc map[string]any, out *configtypes.GlobalConfig) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "re-encoding merged document")
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "unmarshaling merged document")
	}

	return nil
}

// Path returns the file this config was loaded from.
func (g *Global) Path() string {
	return g.path
}

// Profile looks up a profile binding by name.
func (g *Global) Profile(name string) (configtypes.GCSProfile, bool) {
	profile, ok := g.GCSProfiles[name]

	return profile, ok
}

// SetProfile records a profile binding in memory. Returns true when the
// binding changed.
func (g *Global) SetProfile(name string, profile configtypes.GCSProfile) bool {
	if g.GCSProfiles == nil {
		g.GCSProfiles = make(map[string]configtypes.GCSProfile)
	}

	if existing, ok := g.GCSProfiles[name]; ok && existing == profile {
		return false
	}

	g.GCSProfiles[name] = profile

	return true
}

// DeleteProfile removes a profile binding in memory. Returns true when a
// binding was present.
func (g *Global) DeleteProfile(name string) bool {
	if _, ok := g.GCSProfiles[name]; !ok {
		return false
	}

	delete(g.GCSProfiles, name)

	return true
}

// ProfileName resolves the profile to operate on: explicit flag value,
// then the configured default, then the fallback name.
func (g *Global) ProfileName(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if g.DefaultGCSProfile != "" {
		return g.DefaultGCSProfile
	}

	return FallbackProfileName
}

// Candidates returns the manifest auto-discovery glob patterns.
func (g *Global) Candidates() []string {
	return g.LocalSyncCandidates
}

// ComponentEnabled reports whether a built-in setup component is enabled.
// Components default to enabled unless the config disables them.
func (g *Global) ComponentEnabled(id string) bool {
	settings, ok := g.Components[id]
	if !ok || settings.Enabled == nil {
		return true
	}

	return *settings.Enabled
}

// ComponentMinVersion returns the configured minimum version for a
// component, or the provided default.
func (g *Global) ComponentMinVersion(id, fallback string) string {
	if settings, ok := g.Components[id]; ok && settings.MinVersion != "" {
		return settings.MinVersion
	}

	return fallback
}

// Save rewrites the whole global config file under a file lock.
// A save that would not change the file content is skipped, so re-running
// an idempotent command leaves the file byte-for-byte untouched.
func (g *Global) Save(log *logger.Logger) error {
	data, err := yaml.Marshal(&g.GlobalConfig)
	if err != nil {
		return errors.Wrap(err, "marshaling global config")
	}

	if bytes.Equal(data, g.snapshot) {
		log.Debug("global config unchanged, skipping write", "path", g.path)

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(g.path), configDirMode); err != nil {
		return errors.Wrapf(err, "creating config directory for %s", g.path)
	}

	// Guard the read-modify-write against a concurrent devws process.
	lock := flock.New(g.path + ".lock")

	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrapf(err, "acquiring config lock for %s", g.path)
	}

	if !locked {
		return errors.Wrap(ErrConfigLocked, g.path)
	}

	defer func() { _ = lock.Unlock() }()

	if err := os.WriteFile(g.path, data, configFileMode); err != nil {
		return errors.Wrapf(err, "writing global config %s", g.path)
	}

	g.snapshot = data

	log.Info("global config saved", "path", g.path)

	return nil
}

// Document returns the config as a generic document, for rendering and
// change comparison.
func (g *Global) Document() (map[string]any, error) {
	data, err := yaml.Marshal(&g.GlobalConfig)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling global config")
	}

	return merge.ParseYAML(data)
}
