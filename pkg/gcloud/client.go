// Package gcloud shells out to the Google Cloud CLIs (gcloud, gsutil) behind
// a narrow client so a native SDK could substitute without touching callers.
package gcloud

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/logger"
)

// Runner executes one external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// CommandError carries the context of a failed command invocation so callers
// can classify not-found conditions without string-matching full messages.
type CommandError struct {
	Name     string
	Args     []string
	Stderr   string
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf(
		"%s %s: %s",
		e.Name,
		strings.Join(e.Args, " "),
		strings.TrimSpace(e.Stderr),
	)
}

// Unwrap exposes the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// execRunner runs commands with exec.CommandContext, blocking until exit.
type execRunner struct{}

// DefaultRunner returns a Runner backed by the real binaries on PATH. Callers
// that shell out to anything other than the cloud CLIs (git, version probes)
// share this runner so tests can substitute a fake in one place.
func DefaultRunner() Runner {
	return execRunner{}
}

// Run executes the command and returns captured stdout. On failure the
// returned error is a *CommandError carrying stderr and the exit code.
func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Name:   name,
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}

		return stdout.String(), cmdErr
	}

	return stdout.String(), nil
}

// Client wraps the cloud CLIs. All label operations use the client's label
// key; mutating operations are suppressed in dry-run mode.
type Client struct {
	runner   Runner
	log      *logger.Logger
	labelKey string
	dryRun   bool
}

// NewClient creates a client backed by the real gcloud and gsutil binaries.
func NewClient(log *logger.Logger, labelKey string, dryRun bool) *Client {
	return NewClientWithRunner(execRunner{}, log, labelKey, dryRun)
}

// NewClientWithRunner creates a client with a custom runner, used by tests.
func NewClientWithRunner(runner Runner, log *logger.Logger, labelKey string, dryRun bool) *Client {
	return &Client{
		runner:   runner,
		log:      log,
		labelKey: labelKey,
		dryRun:   dryRun,
	}
}

// LabelKey returns the label key this client reads and writes.
func (c *Client) LabelKey() string {
	return c.labelKey
}

// DryRun reports whether mutating operations are suppressed.
func (c *Client) DryRun() bool {
	return c.dryRun
}

// read executes a read-only command. Read-only commands run even in dry-run
// mode so previews stay accurate.
func (c *Client) read(ctx context.Context, name string, args ...string) (string, error) {
	c.log.Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	return c.runner.Run(ctx, name, args...)
}

// mutate executes a state-changing command, or logs and skips it in dry-run.
func (c *Client) mutate(ctx context.Context, name string, args ...string) error {
	if c.dryRun {
		c.log.Info("dry-run: skipping command", "cmd", name, "args", strings.Join(args, " "))

		return nil
	}

	c.log.Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	_, err := c.runner.Run(ctx, name, args...)

	return err
}

// CLIInstalled verifies the gcloud and gsutil binaries are on PATH.
func (c *Client) CLIInstalled(ctx context.Context) error {
	if _, err := c.read(ctx, "which", "gcloud"); err != nil {
		return errors.WithStack(ErrCLINotFound)
	}

	if _, err := c.read(ctx, "which", "gsutil"); err != nil {
		return errors.WithStack(ErrCLINotFound)
	}

	return nil
}

// Authenticated verifies an active gcloud account exists. The account list
// is a read, so the check stays live in dry-run mode.
func (c *Client) Authenticated(ctx context.Context) error {
	out, err := c.read(ctx, "gcloud", "auth", "list", "--filter=status:ACTIVE", "--format=value(account)")
	if err != nil {
		return errors.WithStack(ErrNotAuthenticated)
	}

	if strings.TrimSpace(out) == "" {
		return errors.WithStack(ErrNotAuthenticated)
	}

	return nil
}

// splitLines trims and drops empty lines from command output.
func splitLines(out string) []string {
	lines := strings.Split(out, "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
