package gcloud

import "fmt"

// Layout computes the gs:// locations devws uses inside a profile's bucket.
type Layout struct {
	Bucket string
}

// RepoPath is the per-repository area for project-local sync.
func (l Layout) RepoPath(owner, repo string) string {
	return fmt.Sprintf("%s/repos/%s/%s", BucketURL(l.Bucket), owner, repo)
}

// ToolConfigPath is the area holding devws tool state.
func (l Layout) ToolConfigPath() string {
	return BucketURL(l.Bucket) + "/devws"
}

// ConfigBackupPath is the object holding the backed-up global config.
func (l Layout) ConfigBackupPath() string {
	return l.ToolConfigPath() + "/devws-config.yaml"
}

// DotfilesPath is the area holding synchronized home files.
func (l Layout) DotfilesPath() string {
	return BucketURL(l.Bucket) + "/home/dotfiles"
}

// HomeBackupsPath is the area holding home directory archives.
func (l Layout) HomeBackupsPath() string {
	return BucketURL(l.Bucket) + "/home/backups"
}

// UserComponentsPath is the area holding custom component scripts.
func (l Layout) UserComponentsPath() string {
	return BucketURL(l.Bucket) + "/user-components"
}
