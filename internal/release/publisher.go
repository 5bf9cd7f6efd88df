// Package release publishes the build output as a draft release.
//
// [Publisher] implements the publication stage: it reads the changelog,
// collects the output directory and hands both to an [API]. Everything that
// can fail locally is checked before the API is called, so a missing
// changelog or output directory never leaves a half-made draft behind.
//
// Key types:
//   - [Publisher]: the publication stage
//   - [API]: release backend, implemented for GitHub by [GitHubAPI]
//   - [Record]: the draft release that was created
package release

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"fontrelease/internal/artifact"
	"fontrelease/internal/config"
)

// ErrNoChangelog indicates the changelog file does not exist.
var ErrNoChangelog = errors.New("changelog not found")

// Draft is the content of a release about to be created.
type Draft struct {
	// Tag is the git tag the release points at.
	Tag string

	// Name is the display title.
	Name string

	// Body is the release notes, taken verbatim from the changelog.
	Body string

	// Target is the commitish used when Tag does not exist yet. Optional.
	Target string
}

// Record is a created release.
type Record struct {
	ID     int64            `yaml:"id"`
	Tag    string           `yaml:"tag"`
	Name   string           `yaml:"name"`
	URL    string           `yaml:"url"`
	Draft  bool             `yaml:"draft"`
	Assets []artifact.Asset `yaml:"assets"`
}

// API is the release backend.
type API interface {
	// CreateDraft creates a new draft release. It never reuses an existing one.
	CreateDraft(ctx context.Context, d Draft) (*Record, error)

	// UploadAsset attaches a file to the release with the given ID.
	UploadAsset(ctx context.Context, releaseID int64, a artifact.Asset) error
}

// AssetCallback is invoked after each asset is uploaded.
type AssetCallback func(index, total int, a artifact.Asset)

// Publisher is the publication stage.
type Publisher struct {
	api       API
	changelog string
	outputDir string
	include   []string
	target    string
	onAsset   AssetCallback
}

// NewPublisher creates a [Publisher] reading paths from cfg.
func NewPublisher(api API, cfg *config.Config) *Publisher {
	return &Publisher{
		api:       api,
		changelog: cfg.Path(cfg.Publish.Changelog),
		outputDir: cfg.Path(cfg.Build.OutputDir),
		include:   cfg.Publish.Include,
	}
}

// SetTarget sets the commitish for releases whose tag does not exist yet.
func (p *Publisher) SetTarget(commitish string) {
	p.target = commitish
}

// SetAssetCallback configures a callback invoked after each upload.
func (p *Publisher) SetAssetCallback(cb AssetCallback) {
	p.onAsset = cb
}

// Prepare reads the changelog and collects the assets without publishing.
func (p *Publisher) Prepare(version string) (Draft, []artifact.Asset, error) {
	body, err := os.ReadFile(p.changelog)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Draft{}, nil, fmt.Errorf("%w: %s", ErrNoChangelog, p.changelog)
		}
		return Draft{}, nil, fmt.Errorf("failed to read changelog: %w", err)
	}

	assets, err := artifact.Collect(p.outputDir, p.include)
	if err != nil {
		return Draft{}, nil, err
	}

	return Draft{
		Tag:    version,
		Name:   version,
		Body:   string(body),
		Target: p.target,
	}, assets, nil
}

// Publish creates a draft release named and tagged version and uploads every
// collected asset, one at a time, in collection order.
//
// An empty output directory still produces a release, with no assets. When an
// upload fails the draft already exists; it is returned together with the
// error so the caller can report it.
func (p *Publisher) Publish(ctx context.Context, version string) (*Record, error) {
	draft, assets, err := p.Prepare(version)
	if err != nil {
		return nil, err
	}

	rec, err := p.api.CreateDraft(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create release %s: %w", version, err)
	}

	rec.Assets = make([]artifact.Asset, 0, len(assets))
	for i, a := range assets {
		if err := p.api.UploadAsset(ctx, rec.ID, a); err != nil {
			return rec, fmt.Errorf("failed to upload %s: %w", a.Name, err)
		}
		rec.Assets = append(rec.Assets, a)
		if p.onAsset != nil {
			p.onAsset(i+1, len(assets), a)
		}
	}
	return rec, nil
}
