package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/go-github/v66/github"

	"fontrelease/internal/artifact"
	"fontrelease/internal/config"
)

// ErrNoCredential indicates the release token is not available.
var ErrNoCredential = errors.New("release credential is not set")

// GitHubAPI implements [API] against the GitHub REST API.
type GitHubAPI struct {
	client   *github.Client
	owner    string
	repo     string
	hasToken bool
}

// NewGitHubAPI creates a client for the "owner/name" repository slug.
//
// The token is used for authentication only; it is never logged. An empty
// token is accepted here and rejected by [GitHubAPI.CreateDraft], so that the
// build stages can still run locally without a credential. httpClient may be
// nil.
func NewGitHubAPI(cfg config.GitHubConfig, slug, token string, httpClient *http.Client) (*GitHubAPI, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(slug), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository %q, want owner/name", slug)
	}

	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if cfg.APIURL != "" {
		u, err := endpoint(cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github.api_url: %w", err)
		}
		client.BaseURL = u
		if cfg.UploadURL == "" {
			client.UploadURL = u
		}
	}
	if cfg.UploadURL != "" {
		u, err := endpoint(cfg.UploadURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github.upload_url: %w", err)
		}
		client.UploadURL = u
	}

	return &GitHubAPI{client: client, owner: owner, repo: repo, hasToken: token != ""}, nil
}

// NewGitHubAPIFromConfig creates a client using the repository slug from cfg
// and the token from the environment variable cfg.GitHub.TokenEnv.
func NewGitHubAPIFromConfig(cfg *config.Config) (*GitHubAPI, error) {
	return NewGitHubAPI(cfg.GitHub, cfg.Repository.Slug, os.Getenv(cfg.GitHub.TokenEnv), nil)
}

func endpoint(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return url.Parse(raw)
}

// CreateDraft creates a new draft release.
func (g *GitHubAPI) CreateDraft(ctx context.Context, d Draft) (*Record, error) {
	if !g.hasToken {
		return nil, ErrNoCredential
	}

	req := &github.RepositoryRelease{
		TagName: github.String(d.Tag),
		Name:    github.String(d.Name),
		Body:    github.String(d.Body),
		Draft:   github.Bool(true),
	}
	if d.Target != "" {
		req.TargetCommitish = github.String(d.Target)
	}

	rel, _, err := g.client.Repositories.CreateRelease(ctx, g.owner, g.repo, req)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:    rel.GetID(),
		Tag:   rel.GetTagName(),
		Name:  rel.GetName(),
		URL:   rel.GetHTMLURL(),
		Draft: rel.GetDraft(),
	}, nil
}

// UploadAsset uploads a single file to the release.
func (g *GitHubAPI) UploadAsset(ctx context.Context, releaseID int64, a artifact.Asset) error {
	f, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("failed to open asset: %w", err)
	}
	defer f.Close()

	opts := &github.UploadOptions{
		Name:      a.Name,
		MediaType: a.ContentType,
	}
	_, _, err = g.client.Repositories.UploadReleaseAsset(ctx, g.owner, g.repo, releaseID, opts, f)
	return err
}
