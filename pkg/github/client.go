package github

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v84/github"

	"github.com/smykla-skalski/devws/pkg/logger"
)

// Client wraps the GitHub API client with the account checks setup performs.
type Client struct {
	*github.Client
	log *logger.Logger
}

// NewClient builds an authenticated GitHub API client with rate-limit
// handling. The token is probed against the rate limit endpoint so a bad
// token surfaces here rather than in the middle of a setup check.
func NewClient(ctx context.Context, log *logger.Logger, token string) (*Client, error) {
	if token == "" {
		return nil, errors.WithStack(ErrGitHubTokenNotFound)
	}

	gh := github.NewClient(github_ratelimit.NewClient(nil)).WithAuthToken(token)

	_, resp, err := gh.RateLimit.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrValidatingToken, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrValidatingToken, "rate limit probe returned status %d", resp.StatusCode)
	}

	log.Debug("GitHub token validated")

	return &Client{Client: gh, log: log}, nil
}

// AuthenticatedUser returns the login of the user the token belongs to.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.Users.Get(ctx, "")
	if err != nil {
		return "", errors.Wrap(err, "fetching authenticated user")
	}

	return user.GetLogin(), nil
}

// HasSSHKey reports whether the authenticated account carries the given
// public key material (the "type base64data" part, comment excluded).
func (c *Client) HasSSHKey(ctx context.Context, keyMaterial string) (bool, error) {
	opts := &github.ListOptions{PerPage: 100}

	for {
		keys, resp, err := c.Users.ListKeys(ctx, "", opts)
		if err != nil {
			return false, errors.Wrap(err, "listing account SSH keys")
		}

		for _, key := range keys {
			if strings.TrimSpace(key.GetKey()) == keyMaterial {
				return true, nil
			}
		}

		if resp.NextPage == 0 {
			return false, nil
		}

		opts.Page = resp.NextPage
	}
}
