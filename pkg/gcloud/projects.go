package gcloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v4"
)

// ApplyProjectLabel sets the client's label key to value on a project.
func (c *Client) ApplyProjectLabel(ctx context.Context, projectID, value string) error {
	err := c.mutate(ctx, "gcloud", "alpha", "projects", "update", projectID,
		fmt.Sprintf("--update-labels=%s=%s", c.labelKey, value))
	if err != nil {
		return errors.Wrapf(err, "applying label to project %s", projectID)
	}

	return nil
}

// RemoveProjectLabel removes the client's label key from a project.
func (c *Client) RemoveProjectLabel(ctx context.Context, projectID string) error {
	err := c.mutate(ctx, "gcloud", "alpha", "projects", "update", projectID,
		fmt.Sprintf("--remove-labels=%s", c.labelKey))
	if err != nil {
		return errors.Wrapf(err, "removing label from project %s", projectID)
	}

	return nil
}

// ProjectLabels returns all labels on a project. A project without labels
// yields an empty map.
func (c *Client) ProjectLabels(ctx context.Context, projectID string) (map[string]string, error) {
	out, err := c.read(ctx, "gcloud", "projects", "describe", projectID, "--format=yaml(labels)")
	if err != nil {
		return nil, errors.Wrapf(err, "describing project %s", projectID)
	}

	var payload struct {
		Labels map[string]string `yaml:"labels"`
	}

	if err := yaml.Unmarshal([]byte(out), &payload); err != nil {
		return nil, errors.Wrapf(err, "parsing labels of project %s", projectID)
	}

	if payload.Labels == nil {
		return map[string]string{}, nil
	}

	return payload.Labels, nil
}

// ProjectsWithLabel lists project IDs whose label key equals value.
func (c *Client) ProjectsWithLabel(ctx context.Context, value string) ([]string, error) {
	out, err := c.read(ctx, "gcloud", "projects", "list",
		fmt.Sprintf("--filter=labels.%s=%s", c.labelKey, value),
		"--format=value(project_id)")
	if err != nil {
		return nil, errors.Wrap(err, "listing labeled projects")
	}

	return splitLines(out), nil
}

// CurrentProject returns the project configured in the active gcloud config,
// or an empty string when none is set.
func (c *Client) CurrentProject(ctx context.Context) (string, error) {
	out, err := c.read(ctx, "gcloud", "config", "get-value", "project")
	if err != nil {
		return "", errors.Wrap(err, "reading configured project")
	}

	project := strings.TrimSpace(out)
	if project == "(unset)" {
		return "", nil
	}

	return project, nil
}
