package gcloud

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v4"
)

// noLabelConfiguration appears in gsutil output for buckets without labels.
const noLabelConfiguration = "has no label configuration"

// ObjectMeta is the metadata gsutil stat reports for a single object.
type ObjectMeta struct {
	// MD5 is the object content hash, base64-encoded the way the store
	// reports it, so it compares directly against local hashes.
	MD5     string
	Updated time.Time
	Size    int64
}

// BucketURL returns the gs:// URL for a bucket name.
func BucketURL(bucket string) string {
	return "gs://" + bucket
}

// isNotFound reports whether a command failure means the URL matched nothing,
// as opposed to a transport or auth error.
func isNotFound(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}

	return strings.Contains(cmdErr.Stderr, "No URLs matched") ||
		strings.Contains(cmdErr.Stderr, "matched no objects")
}

// ApplyBucketLabel sets the client's label key to value on a bucket.
func (c *Client) ApplyBucketLabel(ctx context.Context, bucket, value string) error {
	err := c.mutate(ctx, "gsutil", "label", "ch",
		"-l", fmt.Sprintf("%s:%s", c.labelKey, value), BucketURL(bucket))
	if err != nil {
		return errors.Wrapf(err, "applying label to bucket %s", bucket)
	}

	return nil
}

// RemoveBucketLabel removes the client's label key from a bucket.
func (c *Client) RemoveBucketLabel(ctx context.Context, bucket string) error {
	err := c.mutate(ctx, "gsutil", "label", "ch", "-d", c.labelKey, BucketURL(bucket))
	if err != nil {
		return errors.Wrapf(err, "removing label from bucket %s", bucket)
	}

	return nil
}

// BucketLabels returns all labels on a bucket. A bucket without a label
// configuration yields an empty map.
func (c *Client) BucketLabels(ctx context.Context, bucket string) (map[string]string, error) {
	out, err := c.read(ctx, "gsutil", "label", "get", BucketURL(bucket))
	if err != nil {
		return nil, errors.Wrapf(err, "reading labels of bucket %s", bucket)
	}

	if strings.Contains(out, noLabelConfiguration) {
		return map[string]string{}, nil
	}

	// gsutil emits the label set as JSON, which parses as YAML.
	labels := map[string]string{}
	if err := yaml.Unmarshal([]byte(out), &labels); err != nil {
		return nil, errors.Wrapf(err, "parsing labels of bucket %s", bucket)
	}

	return labels, nil
}

// BucketsInProject lists bucket names under a project.
func (c *Client) BucketsInProject(ctx context.Context, projectID string) ([]string, error) {
	out, err := c.read(ctx, "gsutil", "ls", "-p", projectID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing buckets in project %s", projectID)
	}

	var buckets []string

	for _, line := range splitLines(out) {
		if !strings.HasPrefix(line, "gs://") {
			continue
		}

		name := strings.TrimSuffix(strings.TrimPrefix(line, "gs://"), "/")
		buckets = append(buckets, name)
	}

	return buckets, nil
}

// BucketVisible verifies the bucket is listable under the project.
func (c *Client) BucketVisible(ctx context.Context, projectID, bucket string) error {
	_, err := c.read(ctx, "gsutil", "ls", "-p", projectID, BucketURL(bucket))
	if err != nil {
		return errors.Wrapf(ErrBucketNotVisible, "bucket gs://%s, project %s", bucket, projectID)
	}

	return nil
}

// Stat fetches object metadata. A URL matching no object returns found=false
// with a nil error; transport and auth failures return the error.
func (c *Client) Stat(ctx context.Context, objectURL string) (ObjectMeta, bool, error) {
	out, err := c.read(ctx, "gsutil", "stat", objectURL)
	if err != nil {
		if isNotFound(err) {
			return ObjectMeta{}, false, nil
		}

		return ObjectMeta{}, false, errors.Wrapf(err, "stat %s", objectURL)
	}

	return parseStat(out), true, nil
}

// parseStat reads the "key: value" lines of gsutil stat output.
func parseStat(out string) ObjectMeta {
	fields := map[string]string{}

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}

		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	meta := ObjectMeta{
		MD5: fields["Hash (md5)"],
	}

	if updated, err := time.Parse(time.RFC1123, fields["Update time"]); err == nil {
		meta.Updated = updated
	}

	if size, err := strconv.ParseInt(fields["Content-Length"], 10, 64); err == nil {
		meta.Size = size
	}

	return meta
}

// List returns the object URLs under a prefix. A prefix matching nothing
// yields an empty slice, not an error.
func (c *Client) List(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	args := []string{"ls"}
	if recursive {
		args = append(args, "-r")
	}

	args = append(args, prefix)

	out, err := c.read(ctx, "gsutil", args...)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "listing %s", prefix)
	}

	return splitLines(out), nil
}

// ListDir lists a path in directory mode: the path itself when it names an
// object, or its immediate children when it names a prefix. A path matching
// nothing yields an empty slice.
func (c *Client) ListDir(ctx context.Context, path string) ([]string, error) {
	out, err := c.read(ctx, "gsutil", "ls", "-d", path)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "listing %s", path)
	}

	return splitLines(out), nil
}

// Copy copies between local paths and gs:// URLs.
func (c *Client) Copy(ctx context.Context, src, dst string, recursive bool) error {
	args := []string{"-q", "cp"}
	if recursive {
		args = append(args, "-r")
	}

	args = append(args, src, dst)

	if err := c.mutate(ctx, "gsutil", args...); err != nil {
		return errors.Wrapf(err, "copying %s to %s", src, dst)
	}

	return nil
}

// Remove deletes an object, or a whole prefix when recursive.
func (c *Client) Remove(ctx context.Context, path string, recursive bool) error {
	args := []string{"-q", "rm"}
	if recursive {
		args = append(args, "-r")
	}

	args = append(args, path)

	if err := c.mutate(ctx, "gsutil", args...); err != nil {
		return errors.Wrapf(err, "removing %s", path)
	}

	return nil
}

// Move renames an object or moves between local paths and gs:// URLs.
func (c *Client) Move(ctx context.Context, src, dst string) error {
	if err := c.mutate(ctx, "gsutil", "-q", "mv", src, dst); err != nil {
		return errors.Wrapf(err, "moving %s to %s", src, dst)
	}

	return nil
}
