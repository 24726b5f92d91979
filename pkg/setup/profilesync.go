package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/profile"
)

// profileSyncComponent establishes the sync profile binding as the last
// setup step, reusing the profile resolver end to end. It is the one
// component that writes cloud state, so its dry-run distinguishes pending
// changes (READY) from an already converged binding (VERIFIED).
type profileSyncComponent struct{}

func (profileSyncComponent) ID() string   { return "proj_local_config_sync" }
func (profileSyncComponent) Name() string { return "Repo Local-Only Files Sync" }

func (profileSyncComponent) Describe() string {
	return "Configures the GCS profile used by project-local file sync"
}

func (profileSyncComponent) Enabled(cfg *config.Global) bool {
	return cfg.ComponentEnabled("proj_local_config_sync")
}

func (c profileSyncComponent) Run(ctx context.Context, env *Env) []StepResult {
	client := gcloud.NewClientWithRunner(env.Runner, env.Log, config.LabelKey(), env.DryRun)
	resolver := profile.NewResolver(client, env.Config, env.Log)

	res, err := resolver.Resolve(ctx, profile.Options{
		Profile:    env.Profile,
		ProjectID:  env.ProjectID,
		BucketName: env.BucketName,
	})

	for _, msg := range res.Messages {
		env.Log.Info(msg)
	}

	name := res.Binding.Profile

	if err != nil {
		return result(c.ID(), c.Name(), StatusFail,
			fmt.Sprintf("Configuring GCS for profile %q: %v", name, err))
	}

	status := StatusVerified
	message := fmt.Sprintf("GCS configured for profile %q.", name)

	switch {
	case res.DryRun && pendingChanges(res.Messages):
		status = StatusReady
		message = fmt.Sprintf("Would configure GCS for profile %q.", name)
	case res.Changed:
		status = StatusCompleted
	}

	return result(c.ID(), c.Name(), status, message)
}

// pendingChanges reports whether any dry-run message describes a mutation a
// live run would perform, as opposed to a verification the dry-run skipped.
func pendingChanges(messages []string) bool {
	for _, msg := range messages {
		if !strings.Contains(msg, "Would") {
			continue
		}

		if strings.Contains(msg, "Would verify") || strings.Contains(msg, "Assuming") {
			continue
		}

		return true
	}

	return false
}
