//nolint:golines // Config structs have jsonschema tags that exceed line length limits
package configtypes

// GlobalConfig is the root of the user-level config file
// (~/.config/devws/config.yaml by default, WS_SYNC_CONFIG overrides).
type GlobalConfig struct {
	// Named GCS profiles binding a profile name to a (project, bucket) pair. A profile name maps to at most one binding
	GCSProfiles map[string]GCSProfile `json:"gcs_profiles" yaml:"gcs_profiles"`
	// Profile used when a command is invoked without --profile
	DefaultGCSProfile string `json:"default_gcs_profile" yaml:"default_gcs_profile"`
	// Glob patterns matched against repository files to suggest sync manifest entries during init
	LocalSyncCandidates []string `json:"local_sync_candidates" jsonschema:"uniqueItems=true" yaml:"local_sync_candidates"`
	// Set once home dotfiles have been migrated to the per-profile GCS layout
	HomeSyncMigrated bool `json:"home_sync_migrated" jsonschema:"default=false" yaml:"home_sync_migrated"`
	// Per-component settings for the setup command, keyed by component identifier
	Components map[string]ComponentSettings `json:"components" yaml:"components"`
	// User-provided setup components carrying a script path instead of built-in logic
	CustomComponents []CustomComponent `json:"custom_components" yaml:"custom_components"`
	// Home files and directories synchronized by 'home push' and 'home pull'
	UserHomeSync []HomeSyncItem `json:"user_home_sync" yaml:"user_home_sync"`
	// Home directory archive settings, consumed by the external backup helper
	HomeBackup HomeBackupConfig `json:"home_backup" yaml:"home_backup"`
}

// GCSProfile binds a local profile alias to a cloud project and bucket.
type GCSProfile struct {
	// Cloud project identifier the profile label is applied to
	ProjectID string `json:"project_id" jsonschema:"minLength=1" yaml:"project_id"`
	// Storage bucket name, without the gs:// scheme
	BucketName string `json:"bucket_name" jsonschema:"minLength=1" yaml:"bucket_name"`
}

// ComponentSettings controls a built-in setup component.
type ComponentSettings struct {
	// Run this component during setup
	Enabled *bool `json:"enabled" yaml:"enabled"`
	// Minimum acceptable version for components that probe an installed tool
	MinVersion string `json:"min_version" yaml:"min_version"`
}

// CustomComponent is a user-provided setup step backed by a script.
type CustomComponent struct {
	// Unique identifier, used by --component filtering and 'config component remove'
	ID string `json:"id" jsonschema:"minLength=1,required" yaml:"id"`
	// Human-readable name shown in setup reports
	Name string `json:"name" yaml:"name"`
	// Short description shown by 'setup --list'
	Description string `json:"description" yaml:"description"`
	// Run this component during setup
	Enabled bool `json:"enabled" jsonschema:"default=true" yaml:"enabled"`
	// Whether a failure aborts the remaining setup steps or lets them continue
	OnFailure string `json:"on_failure" jsonschema:"enum=abort,enum=continue,default=continue" yaml:"on_failure"`
	// Execution tier, 1 through 3; lower tiers run first
	Tier int `json:"tier" jsonschema:"default=2,maximum=3,minimum=1" yaml:"tier"`
	// Path to the script executed by this component
	Script string `json:"script" jsonschema:"minLength=1,required" yaml:"script"`
	// Optional command that, when it exits zero, marks the component already satisfied
	IdempotentCheck string `json:"idempotent_check" yaml:"idempotent_check"`
}

// HomeSyncItem names one home-relative path managed by home push/pull.
type HomeSyncItem struct {
	// Path relative to the home directory, e.g. '.bashrc' or '.config/nvim'
	Path string `json:"path" jsonschema:"minLength=1,required" yaml:"path"`
	// Whether the path is a single file or a directory synced recursively
	Type string `json:"type" jsonschema:"enum=file,enum=directory,default=file" yaml:"type"`
}

// HomeBackupConfig configures the home directory archive helper.
type HomeBackupConfig struct {
	// Patterns excluded from the archive. An empty list makes backups very large
	Exclusions []string `json:"exclusions" yaml:"exclusions"`
	// Patterns re-included after exclusion filtering
	Inclusions []string `json:"inclusions" yaml:"inclusions"`
	// Directory archives are written to when no bucket is configured
	OutputDir string `json:"output_dir" jsonschema:"default=~/backups" yaml:"output_dir"`
}

// RepoSettings is the optional per-repository override file (.devws.yaml at
// the repository root). It narrows sync behavior for one repository.
type RepoSettings struct {
	// Repository-level sync overrides
	Sync RepoSyncSettings `json:"sync" yaml:"sync"`
}

// RepoSyncSettings contains the per-repository sync overrides.
type RepoSyncSettings struct {
	// Skip all sync operations for this repository
	Skip bool `json:"skip" jsonschema:"default=false" yaml:"skip"`
	// Additional ignore patterns applied on top of .gitignore during pull planning
	Ignore []string `json:"ignore" jsonschema:"uniqueItems=true" yaml:"ignore"`
	// Profile used for this repository instead of the global default
	Profile string `json:"profile" yaml:"profile"`
}
