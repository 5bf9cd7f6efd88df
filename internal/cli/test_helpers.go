package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"fontrelease/internal/artifact"
	"fontrelease/internal/command"
	"fontrelease/internal/config"
	"fontrelease/internal/output"
	"fontrelease/internal/release"
)

// fakeAPI records release API calls in memory.
type fakeAPI struct {
	drafts  []release.Draft
	uploads []string
	// FailUpload makes the upload of this asset name fail.
	FailUpload string
}

func (f *fakeAPI) CreateDraft(ctx context.Context, d release.Draft) (*release.Record, error) {
	f.drafts = append(f.drafts, d)
	id := int64(len(f.drafts))
	return &release.Record{
		ID:    id,
		Tag:   d.Tag,
		Name:  d.Name,
		URL:   fmt.Sprintf("https://github.test/octo/fonts/releases/%d", id),
		Draft: true,
	}, nil
}

func (f *fakeAPI) UploadAsset(ctx context.Context, releaseID int64, a artifact.Asset) error {
	if a.Name == f.FailUpload {
		return errors.New("upload rejected")
	}
	f.uploads = append(f.uploads, a.Name)
	return nil
}

// testEnv is an App wired to mocks over a temporary repository checkout.
type testEnv struct {
	app     *App
	out     *bytes.Buffer
	exec    *command.MockExecutor
	api     *fakeAPI
	root    string
	env     map[string]string
	outputs map[string]string
}

// newTestEnv creates a repository with a build script, a changelog and two
// pre-built assets. Cleaning is disabled so the assets survive the mocked
// build.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Repository.Root = root
	cfg.Repository.Slug = "octo/fonts"
	cfg.Build.Clean = false

	e := &testEnv{
		out:     &bytes.Buffer{},
		exec:    &command.MockExecutor{},
		api:     &fakeAPI{},
		root:    root,
		env:     map[string]string{},
		outputs: map[string]string{},
	}
	e.writeFile(t, "main.py", "print('building')\n")
	e.writeFile(t, "CHANGELOG.md", "## Changes\n\n- merged symbol font\n")
	e.writeFile(t, "dist/Merged.ttf", "ttf-bytes")
	e.writeFile(t, "dist/Merged.woff2", "woff2-bytes")

	e.app = &App{
		Config:   cfg,
		Executor: e.exec,
		Printer:  output.NewPrinterWithWriter(e.out),
		NewAPI: func(*config.Config) (release.API, error) {
			return e.api, nil
		},
		Getenv: func(key string) string { return e.env[key] },
		SetOutput: func(name, value string) error {
			e.outputs[name] = value
			return nil
		},
	}
	return e
}

func (e *testEnv) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func (e *testEnv) run(args ...string) ExecuteResult {
	return Run(e.app, args)
}

// pipelineCommands are the commands a full run executes with the default
// configuration.
var pipelineCommands = []string{
	"sudo apt-get update",
	"sudo apt-get install -y fontforge python3-fontforge",
	"python3 -c import fontforge",
	"python3 -m pip install msgspec jinja2",
	"python3 main.py",
}
