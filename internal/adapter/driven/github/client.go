// Package github implements the GitHubProfiles port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/codevault/internal/domain/model"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubProfiles = (*Client)(nil)

// Client implements the driven.GitHubProfiles port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, PAT auth when token is set)
//
// An empty token makes unauthenticated requests, which GitHub limits to 60
// per hour.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// LookupProfile fetches the public profile of login. A 404 maps to
// driven.ErrGitHubUserNotFound.
func (c *Client) LookupProfile(ctx context.Context, login string) (model.GitHubProfile, error) {
	user, resp, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return model.GitHubProfile{}, driven.ErrGitHubUserNotFound
		}
		return model.GitHubProfile{}, fmt.Errorf("getting github user %s: %w", login, err)
	}

	logRateLimit(resp, "users/"+login)

	return mapUser(user), nil
}

// logRateLimit logs rate limit information from a GitHub API response.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < resp.Rate.Limit/10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// mapUser converts a go-github User to a domain GitHubProfile.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapUser(u *gh.User) model.GitHubProfile {
	return model.GitHubProfile{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		HTMLURL:     u.GetHTMLURL(),
		PublicRepos: u.GetPublicRepos(),
		CreatedAt:   u.GetCreatedAt().Time.UTC(),
	}
}
