package github

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/term"

	"github.com/smykla-skalski/devws/pkg/logger"
)

// tokenEnvVars are consulted in order; the first non-empty value wins.
var tokenEnvVars = []string{"GITHUB_TOKEN", "GH_TOKEN"}

// GetToken resolves the token the GitHub setup checks authenticate with.
// Order: 'gh auth token' when explicitly requested, then the environment,
// then an interactive offer to run 'gh auth token'. A headless run never
// reaches the prompt, so scripted setups fail fast instead of blocking on
// stdin.
func GetToken(ctx context.Context, log *logger.Logger, useGHAuth bool) (string, error) {
	if useGHAuth {
		if token, err := ghAuthToken(ctx); err == nil {
			log.Debug("token resolved via gh CLI", "reason", "requested by flag")

			return token, nil
		}
	}

	for _, name := range tokenEnvVars {
		if token := os.Getenv(name); token != "" {
			log.Debug("using token from environment", "var", name)

			return token, nil
		}
	}

	if !interactiveSession() || !ghInstalled() {
		return "", errors.WithStack(ErrGitHubTokenNotFound)
	}

	if !askYesNo("No GitHub token in the environment. Fetch one with 'gh auth token'?") {
		return "", errors.WithStack(ErrGitHubTokenNotFound)
	}

	token, err := ghAuthToken(ctx)
	if err != nil {
		return "", errors.Wrap(err, "reading token from gh")
	}

	return token, nil
}

// ghAuthToken shells out to the gh CLI for its stored token.
func ghAuthToken(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", errors.Wrap(ErrGHAuthFailed, err.Error())
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.WithStack(ErrGHAuthEmptyToken)
	}

	return token, nil
}

func ghInstalled() bool {
	_, err := exec.LookPath("gh")

	return err == nil
}

// interactiveSession reports whether both ends of the conversation are a
// terminal: the prompt needs stdin for the answer and stdout for the
// question.
func interactiveSession() bool {
	//nolint:gosec // G115: stdio descriptors fit in int
	return term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // G115: stdio descriptors fit in int
}

func askYesNo(question string) bool {
	fmt.Printf("%s [y/N] ", question)

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}
