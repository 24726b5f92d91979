package gcloud

import "github.com/cockroachdb/errors"

var (
	// ErrCLINotFound indicates the Google Cloud CLI is not installed
	ErrCLINotFound = errors.New("Google Cloud CLI not found. Please install it first")
	// ErrNotAuthenticated indicates no active gcloud account
	ErrNotAuthenticated = errors.New("not authenticated with Google Cloud. Please run 'gcloud auth login' and try again")
	// ErrBucketNotVisible indicates the bucket is missing or not listable under the project
	ErrBucketNotVisible = errors.New("bucket not found in project or insufficient permissions")
)
