// Package github provides the GitHub API client used to verify workstation
// access during setup.
package github

import "github.com/cockroachdb/errors"

var (
	ErrGitHubTokenNotFound = errors.New(
		"GitHub token not found: set GITHUB_TOKEN or authenticate with 'gh auth login'",
	)
	ErrGHAuthFailed     = errors.New("'gh auth token' failed")
	ErrGHAuthEmptyToken = errors.New("'gh auth token' printed an empty token")
	ErrValidatingToken  = errors.New("GitHub token validation failed")
)
