// Package profile resolves and persists the binding between a sync profile
// name and a concrete (cloud project, storage bucket) pair. The cloud labels
// are the source of truth; the global config caches the binding so later
// commands skip discovery.
package profile

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/internal/configtypes"
	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
)

// Resolver establishes, verifies, and clears profile bindings.
type Resolver struct {
	client *gcloud.Client
	global *config.Global
	log    *logger.Logger
}

// NewResolver creates a resolver over a cloud client and the loaded config.
func NewResolver(client *gcloud.Client, global *config.Global, log *logger.Logger) *Resolver {
	return &Resolver{
		client: client,
		global: global,
		log:    log,
	}
}

// Resolve determines the authoritative binding for a profile and establishes
// it: verifies the bucket, labels both resources, and persists the binding.
// The returned Resolution carries the progress messages accumulated so far
// even when an error is returned, so partial state is never silently dropped.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (*Resolution, error) {
	name := r.global.ProfileName(opts.Profile)

	res := &Resolution{DryRun: r.client.DryRun()}
	res.Binding.Profile = name

	// Preconditions, before any state is touched
	if err := r.client.CLIInstalled(ctx); err != nil {
		return res, err
	}

	if err := r.client.Authenticated(ctx); err != nil {
		return res, err
	}

	if err := r.selectBinding(ctx, opts, res); err != nil {
		return res, err
	}

	if err := r.checkBucketVisible(ctx, res); err != nil {
		return res, err
	}

	if err := r.reconcileLabels(ctx, res); err != nil {
		return res, err
	}

	return res, r.persist(res)
}

// selectBinding fills in the project and bucket from exactly one source:
// explicit arguments, then the cached config, then label discovery.
func (r *Resolver) selectBinding(ctx context.Context, opts Options, res *Resolution) error {
	name := res.Binding.Profile

	if opts.ProjectID != "" || opts.BucketName != "" {
		// Explicit arguments are authoritative and override the cache
		// silently; discovery is not consulted.
		res.Binding.ProjectID = opts.ProjectID
		res.Binding.BucketName = opts.BucketName
	} else if cached, ok := r.global.Profile(name); ok && cached.ProjectID != "" && cached.BucketName != "" {
		res.Binding.ProjectID = cached.ProjectID
		res.Binding.BucketName = cached.BucketName

		res.addf("ℹ️ GCS configuration from global config: Project ID='%s', Bucket='%s' for profile '%s'.",
			cached.ProjectID, cached.BucketName, name)
	} else if err := r.discoverBinding(ctx, res); err != nil {
		return err
	}

	if res.Binding.ProjectID == "" || res.Binding.BucketName == "" {
		return errors.Wrapf(ErrBindingIncomplete, "profile %q", name)
	}

	return nil
}

// checkBucketVisible verifies the bucket is listable under the chosen
// project. The live check needs network access, so dry-run skips it and
// states the assumption instead.
func (r *Resolver) checkBucketVisible(ctx context.Context, res *Resolution) error {
	binding := res.Binding

	if r.client.DryRun() {
		res.addf("🔍 [DRY RUN] Would verify bucket 'gs://%s' exists in project '%s'",
			binding.BucketName, binding.ProjectID)
		res.addf("🔍 [DRY RUN] Assuming bucket exists for dry-run")

		return nil
	}

	res.addf("ℹ️ Verifying if bucket 'gs://%s' exists in project '%s'...",
		binding.BucketName, binding.ProjectID)

	if err := r.client.BucketVisible(ctx, binding.ProjectID, binding.BucketName); err != nil {
		return err
	}

	res.addf("✅ Bucket 'gs://%s' found in project '%s'.", binding.BucketName, binding.ProjectID)

	return nil
}

// persist writes the binding into the global config. Saving skips the write
// when nothing changed, so a second identical run leaves the file untouched.
func (r *Resolver) persist(res *Resolution) error {
	binding := res.Binding

	if r.client.DryRun() {
		res.addf("🔍 [DRY RUN] Would save to config: Project ID='%s', Bucket='%s' to %s",
			binding.ProjectID, binding.BucketName, r.global.Path())

		return nil
	}

	changed := r.global.SetProfile(binding.Profile, configtypes.GCSProfile{
		ProjectID:  binding.ProjectID,
		BucketName: binding.BucketName,
	})
	if changed {
		res.Changed = true
	}

	if err := r.global.Save(r.log); err != nil {
		return err
	}

	res.addf("✅ GCS configured: Project ID='%s', Bucket='%s' saved to %s",
		binding.ProjectID, binding.BucketName, r.global.Path())

	return nil
}

// Lookup returns the cached binding for a profile without touching the
// cloud. Sync commands use it to find their bucket; they never establish
// bindings themselves.
func Lookup(global *config.Global, name string) (Binding, error) {
	profileName := global.ProfileName(name)

	cached, ok := global.Profile(profileName)
	if !ok || cached.ProjectID == "" || cached.BucketName == "" {
		return Binding{}, errors.Wrapf(ErrNoBinding,
			"profile %q: run 'devws profile set' first", profileName)
	}

	return Binding{
		Profile:    profileName,
		ProjectID:  cached.ProjectID,
		BucketName: cached.BucketName,
	}, nil
}
