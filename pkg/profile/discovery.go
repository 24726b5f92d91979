package profile

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// discoverBinding derives the binding from labeled cloud resources. The
// cross-product of labeled projects and labeled buckets must contain exactly
// one candidate pair; zero or several candidates are reported to the
// operator, never auto-selected.
func (r *Resolver) discoverBinding(ctx context.Context, res *Resolution) error {
	name := res.Binding.Profile
	key := r.client.LabelKey()

	projects, buckets, err := r.discoverLabeled(ctx, name)
	if err != nil {
		return err
	}

	switch {
	case len(projects) == 1 && len(buckets) == 1:
		res.Binding.ProjectID = projects[0]
		res.Binding.BucketName = buckets[0]

		res.addf("ℹ️ Derived GCS configuration from existing labels: Project ID='%s', Bucket='%s' for profile '%s'.",
			projects[0], buckets[0], name)

		return nil

	case len(projects) == 0 || len(buckets) == 0:
		return errors.Wrapf(ErrNoBinding,
			"profile %q: provide --project-id and --bucket-name arguments", name)

	default:
		return errors.Wrapf(ErrAmbiguousBinding,
			"profile %q matched labeled projects [%s] and labeled buckets [%s]; "+
				"specify --project-id and --bucket-name, or clear stale labels with "+
				"'gcloud projects update <project> --remove-labels=%s' or "+
				"'gsutil label ch -d %s gs://<bucket>'",
			name, strings.Join(projects, ", "), strings.Join(buckets, ", "), key, key)
	}
}

// discoverLabeled finds the projects and buckets bearing the profile label.
// Buckets are scanned inside every labeled project, falling back to the
// gcloud default project when no project carries the label. Buckets whose
// labels cannot be read are skipped rather than failing the discovery.
func (r *Resolver) discoverLabeled(ctx context.Context, name string) ([]string, []string, error) {
	projects, err := r.client.ProjectsWithLabel(ctx, name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "discovering labeled projects")
	}

	scan := projects

	if len(scan) == 0 {
		current, err := r.client.CurrentProject(ctx)
		if err != nil || current == "" {
			return projects, nil, nil
		}

		scan = []string{current}
	}

	var buckets []string

	seen := map[string]bool{}

	for _, projectID := range scan {
		names, err := r.client.BucketsInProject(ctx, projectID)
		if err != nil {
			r.log.Debug("skipping project with unlistable buckets", "project", projectID, "error", err)

			continue
		}

		for _, bucket := range names {
			if seen[bucket] {
				continue
			}

			seen[bucket] = true

			labels, err := r.client.BucketLabels(ctx, bucket)
			if err != nil {
				r.log.Debug("skipping bucket with unreadable labels", "bucket", bucket, "error", err)

				continue
			}

			if labels[r.client.LabelKey()] == name {
				buckets = append(buckets, bucket)
			}
		}
	}

	return projects, buckets, nil
}
