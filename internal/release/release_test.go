package release

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fontrelease/internal/artifact"
	"fontrelease/internal/config"
)

// fakeAPI records drafts and uploads in memory.
type fakeAPI struct {
	drafts    []Draft
	uploads   []string
	failOn    string
	createErr error
	nextID    int64
}

func (f *fakeAPI) CreateDraft(ctx context.Context, d Draft) (*Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.drafts = append(f.drafts, d)
	f.nextID++
	return &Record{ID: f.nextID, Tag: d.Tag, Name: d.Name, Draft: true}, nil
}

func (f *fakeAPI) UploadAsset(ctx context.Context, releaseID int64, a artifact.Asset) error {
	if f.failOn == a.Name {
		return errors.New("upload rejected")
	}
	f.uploads = append(f.uploads, a.Name)
	return nil
}

func repoConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Repository.Root = t.TempDir()
	cfg.Repository.Slug = "acme/glyphs"
	return cfg
}

func writeRepoFile(t *testing.T, cfg *config.Config, rel, content string) {
	t.Helper()
	full := cfg.Path(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

const changelog = "## v1.2.3\n\n- Added icon glyphs\n"

func TestPublisher_Publish(t *testing.T) {
	cfg := repoConfig(t)
	writeRepoFile(t, cfg, "CHANGELOG.md", changelog)
	writeRepoFile(t, cfg, "dist/merged_font.ttf", "font")
	writeRepoFile(t, cfg, "dist/checksum.txt", "abc")
	api := &fakeAPI{}

	var progress []int
	p := NewPublisher(api, cfg)
	p.SetTarget("0123abcd")
	p.SetAssetCallback(func(i, total int, a artifact.Asset) { progress = append(progress, i) })

	rec, err := p.Publish(context.Background(), "v1.2.3")

	require.NoError(t, err)
	require.Len(t, api.drafts, 1)
	assert.Equal(t, Draft{Tag: "v1.2.3", Name: "v1.2.3", Body: changelog, Target: "0123abcd"}, api.drafts[0])
	assert.Equal(t, []string{"checksum.txt", "merged_font.ttf"}, api.uploads)
	assert.Equal(t, []int{1, 2}, progress)
	assert.True(t, rec.Draft)
	assert.Len(t, rec.Assets, 2)
}

func TestPublisher_EmptyOutputStillReleases(t *testing.T) {
	cfg := repoConfig(t)
	writeRepoFile(t, cfg, "CHANGELOG.md", changelog)
	require.NoError(t, os.MkdirAll(cfg.Path("dist"), 0755))
	api := &fakeAPI{}

	rec, err := NewPublisher(api, cfg).Publish(context.Background(), "v1.0.0")

	require.NoError(t, err)
	assert.Len(t, api.drafts, 1)
	assert.Empty(t, api.uploads)
	assert.Empty(t, rec.Assets)
}

func TestPublisher_MissingChangelogCreatesNothing(t *testing.T) {
	cfg := repoConfig(t)
	writeRepoFile(t, cfg, "dist/a.ttf", "x")
	api := &fakeAPI{}

	_, err := NewPublisher(api, cfg).Publish(context.Background(), "v1.0.0")

	assert.ErrorIs(t, err, ErrNoChangelog)
	assert.Empty(t, api.drafts)
}

func TestPublisher_MissingOutputDirCreatesNothing(t *testing.T) {
	cfg := repoConfig(t)
	writeRepoFile(t, cfg, "CHANGELOG.md", changelog)
	api := &fakeAPI{}

	_, err := NewPublisher(api, cfg).Publish(context.Background(), "v1.0.0")

	assert.ErrorIs(t, err, artifact.ErrNoOutputDir)
	assert.Empty(t, api.drafts)
}

func TestPublisher_UploadFailureReturnsDraft(t *testing.T) {
	cfg := repoConfig(t)
	writeRepoFile(t, cfg, "CHANGELOG.md", changelog)
	writeRepoFile(t, cfg, "dist/a.ttf", "x")
	writeRepoFile(t, cfg, "dist/b.json", "{}")
	api := &fakeAPI{failOn: "b.json"}

	rec, err := NewPublisher(api, cfg).Publish(context.Background(), "v1.0.0")

	require.Error(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"a.ttf"}, api.uploads)
	assert.Len(t, rec.Assets, 1)
}

func TestPublisher_SameTagTwiceCreatesTwoDrafts(t *testing.T) {
	cfg := repoConfig(t)
	writeRepoFile(t, cfg, "CHANGELOG.md", changelog)
	writeRepoFile(t, cfg, "dist/a.ttf", "x")
	api := &fakeAPI{}
	p := NewPublisher(api, cfg)

	first, err := p.Publish(context.Background(), "v1.2.3")
	require.NoError(t, err)
	second, err := p.Publish(context.Background(), "v1.2.3")
	require.NoError(t, err)

	assert.Len(t, api.drafts, 2)
	assert.NotEqual(t, first.ID, second.ID)
}

// githubServer emulates the two release endpoints used by GitHubAPI.
type githubServer struct {
	mu      sync.Mutex
	created []map[string]any
	uploads map[string]string
	auth    []string
}

func (s *githubServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/glyphs/releases", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s.mu.Lock()
		s.created = append(s.created, body)
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		id := len(s.created)
		s.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       id,
			"tag_name": body["tag_name"],
			"name":     body["name"],
			"draft":    body["draft"],
			"html_url": "https://github.com/acme/glyphs/releases/tag/" + body["tag_name"].(string),
		})
	})
	mux.HandleFunc("POST /repos/acme/glyphs/releases/{id}/assets", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.uploads[r.URL.Query().Get("name")] = r.Header.Get("Content-Type") + "|" + string(data)
		s.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 99, "name": r.URL.Query().Get("name")})
	})
	return mux
}

func newGitHubFixture(t *testing.T, token string) (*githubServer, *GitHubAPI) {
	t.Helper()
	gs := &githubServer{uploads: map[string]string{}}
	srv := httptest.NewServer(gs.handler(t))
	t.Cleanup(srv.Close)

	api, err := NewGitHubAPI(config.GitHubConfig{APIURL: srv.URL}, "acme/glyphs", token, srv.Client())
	require.NoError(t, err)
	return gs, api
}

func TestGitHubAPI_CreateDraftAndUpload(t *testing.T) {
	gs, api := newGitHubFixture(t, "secret-token")
	dir := t.TempDir()
	path := filepath.Join(dir, "merged_font.ttf")
	require.NoError(t, os.WriteFile(path, []byte("font-bytes"), 0644))
	asset, err := artifact.Describe(path)
	require.NoError(t, err)

	rec, err := api.CreateDraft(context.Background(), Draft{Tag: "v1.2.3", Name: "v1.2.3", Body: changelog})
	require.NoError(t, err)
	require.NoError(t, api.UploadAsset(context.Background(), rec.ID, asset))

	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "v1.2.3", rec.Tag)
	assert.True(t, rec.Draft)
	assert.True(t, strings.HasSuffix(rec.URL, "/v1.2.3"))

	require.Len(t, gs.created, 1)
	assert.Equal(t, "v1.2.3", gs.created[0]["tag_name"])
	assert.Equal(t, "v1.2.3", gs.created[0]["name"])
	assert.Equal(t, changelog, gs.created[0]["body"])
	assert.Equal(t, true, gs.created[0]["draft"])
	assert.NotContains(t, gs.created[0], "target_commitish")
	assert.Equal(t, "Bearer secret-token", gs.auth[0])

	assert.Equal(t, "font/ttf|font-bytes", gs.uploads["merged_font.ttf"])
}

func TestGitHubAPI_TargetCommitish(t *testing.T) {
	gs, api := newGitHubFixture(t, "tok")

	_, err := api.CreateDraft(context.Background(), Draft{Tag: "v0.0.0", Name: "v0.0.0", Target: "abc123"})

	require.NoError(t, err)
	assert.Equal(t, "abc123", gs.created[0]["target_commitish"])
}

func TestGitHubAPI_NoToken(t *testing.T) {
	gs, api := newGitHubFixture(t, "")

	_, err := api.CreateDraft(context.Background(), Draft{Tag: "v1.0.0", Name: "v1.0.0"})

	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Empty(t, gs.created)
}

func TestNewGitHubAPI_InvalidSlug(t *testing.T) {
	for _, slug := range []string{"", "acme", "/glyphs", "acme/", "a/b/c"} {
		_, err := NewGitHubAPI(config.GitHubConfig{}, slug, "tok", nil)
		assert.Error(t, err, slug)
	}
}
