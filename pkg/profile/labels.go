package profile

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/config"
)

// reconcileLabels brings the profile label on the project and the bucket in
// line with the binding. Both label sets are read before anything is
// written, so a conflict on either resource fails the run with zero
// mutations. After the conflict check, an apply failure on the project does
// not stop the bucket attempt; both outcomes land in the messages.
func (r *Resolver) reconcileLabels(ctx context.Context, res *Resolution) error {
	key := r.client.LabelKey()
	binding := res.Binding

	projectLabels, err := r.client.ProjectLabels(ctx, binding.ProjectID)
	if err != nil {
		return errors.Wrapf(err, "checking labels on project %s", binding.ProjectID)
	}

	bucketLabels, err := r.client.BucketLabels(ctx, binding.BucketName)
	if err != nil {
		return errors.Wrapf(err, "checking labels on bucket gs://%s", binding.BucketName)
	}

	// A label claimed by another profile is never overwritten.
	if existing := projectLabels[key]; existing != "" && existing != binding.Profile {
		return errors.Wrapf(ErrLabelConflict,
			"project '%s' is already labeled '%s=%s' (different profile); "+
				"to proceed, remove the existing label using: gcloud projects update %s --remove-labels=%s",
			binding.ProjectID, key, existing, binding.ProjectID, key)
	}

	if existing := bucketLabels[key]; existing != "" && existing != binding.Profile {
		return errors.Wrapf(ErrLabelConflict,
			"bucket 'gs://%s' is already labeled '%s=%s' (different profile); "+
				"to proceed, remove the existing label using: gsutil label ch -d %s gs://%s",
			binding.BucketName, key, existing, key, binding.BucketName)
	}

	projectErr := r.ensureProjectLabel(ctx, res, projectLabels[key])
	bucketErr := r.ensureBucketLabel(ctx, res, bucketLabels[key])

	if projectErr != nil {
		return projectErr
	}

	return bucketErr
}

// ensureProjectLabel applies the profile label to the project unless it
// already carries it.
func (r *Resolver) ensureProjectLabel(ctx context.Context, res *Resolution, existing string) error {
	key := r.client.LabelKey()
	binding := res.Binding

	switch {
	case existing == binding.Profile:
		res.addf("✅ Project '%s' is already labeled '%s=%s'.", binding.ProjectID, key, binding.Profile)
	case r.client.DryRun():
		res.addf("🔍 [DRY RUN] Would label project '%s' with '%s=%s'", binding.ProjectID, key, binding.Profile)
	default:
		if err := r.client.ApplyProjectLabel(ctx, binding.ProjectID, binding.Profile); err != nil {
			res.addf("❌ Failed to apply label '%s=%s' to project '%s'.", key, binding.Profile, binding.ProjectID)

			return errors.Wrapf(err, "labeling project %s", binding.ProjectID)
		}

		res.addf("✅ Project '%s' labeled '%s=%s'.", binding.ProjectID, key, binding.Profile)
		res.Changed = true
	}

	return nil
}

// ensureBucketLabel applies the profile label to the bucket unless it
// already carries it.
func (r *Resolver) ensureBucketLabel(ctx context.Context, res *Resolution, existing string) error {
	key := r.client.LabelKey()
	binding := res.Binding

	switch {
	case existing == binding.Profile:
		res.addf("✅ Bucket 'gs://%s' is already labeled '%s=%s'.", binding.BucketName, key, binding.Profile)
	case r.client.DryRun():
		res.addf("🔍 [DRY RUN] Would label bucket 'gs://%s' with '%s=%s'", binding.BucketName, key, binding.Profile)
	default:
		if err := r.client.ApplyBucketLabel(ctx, binding.BucketName, binding.Profile); err != nil {
			res.addf("❌ Failed to apply label '%s=%s' to bucket 'gs://%s'.", key, binding.Profile, binding.BucketName)

			return errors.Wrapf(err, "labeling bucket gs://%s", binding.BucketName)
		}

		res.addf("✅ Bucket 'gs://%s' labeled '%s=%s'.", binding.BucketName, key, binding.Profile)
		res.Changed = true
	}

	return nil
}

// Clear removes the profile label from the cached project and bucket and
// deletes the cached binding. Both removals are attempted even when the
// first fails; the cached binding survives a removal failure so the operator
// can retry.
func (r *Resolver) Clear(ctx context.Context, profileName string) (*Resolution, error) {
	name := r.global.ProfileName(profileName)

	res := &Resolution{DryRun: r.client.DryRun()}
	res.Binding.Profile = name

	if err := r.client.CLIInstalled(ctx); err != nil {
		return res, err
	}

	if err := r.client.Authenticated(ctx); err != nil {
		return res, err
	}

	cached, ok := r.global.Profile(name)
	if !ok {
		return res, errors.Wrapf(config.ErrProfileNotFound, "profile %q", name)
	}

	res.Binding.ProjectID = cached.ProjectID
	res.Binding.BucketName = cached.BucketName

	key := r.client.LabelKey()

	if r.client.DryRun() {
		res.addf("🔍 [DRY RUN] Would remove label '%s' from project '%s'", key, cached.ProjectID)
		res.addf("🔍 [DRY RUN] Would remove label '%s' from bucket 'gs://%s'", key, cached.BucketName)
		res.addf("🔍 [DRY RUN] Would remove profile '%s' from %s", name, r.global.Path())

		return res, nil
	}

	projectErr := r.client.RemoveProjectLabel(ctx, cached.ProjectID)
	if projectErr != nil {
		res.addf("❌ Failed to remove label '%s' from project '%s'.", key, cached.ProjectID)
	} else {
		res.addf("✅ Removed label '%s' from project '%s'.", key, cached.ProjectID)
		res.Changed = true
	}

	bucketErr := r.client.RemoveBucketLabel(ctx, cached.BucketName)
	if bucketErr != nil {
		res.addf("❌ Failed to remove label '%s' from bucket 'gs://%s'.", key, cached.BucketName)
	} else {
		res.addf("✅ Removed label '%s' from bucket 'gs://%s'.", key, cached.BucketName)
		res.Changed = true
	}

	if projectErr != nil {
		return res, errors.Wrapf(projectErr, "removing label from project %s", cached.ProjectID)
	}

	if bucketErr != nil {
		return res, errors.Wrapf(bucketErr, "removing label from bucket gs://%s", cached.BucketName)
	}

	if r.global.DeleteProfile(name) {
		res.Changed = true
	}

	if err := r.global.Save(r.log); err != nil {
		return res, err
	}

	res.addf("✅ Profile '%s' removed from %s", name, r.global.Path())

	return res, nil
}
