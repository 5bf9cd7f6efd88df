package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fontrelease/internal/artifact"
	"fontrelease/internal/command"
	"fontrelease/internal/config"
	"fontrelease/internal/pipeline"
	"fontrelease/internal/release"
	"fontrelease/internal/trigger"
)

func newTestPrinter(actions bool) (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)
	p.Configure(config.OutputConfig{GitHubActions: actions, TruncateLength: 20})
	return p, &buf
}

func TestPrinter_RunHeader(t *testing.T) {
	p, buf := newTestPrinter(false)

	p.RunHeader(trigger.NewTagPush("v1.0.0"))

	out := buf.String()
	assert.Contains(t, out, "Font Release")
	assert.Contains(t, out, "refs/tags/v1.0.0")
	assert.Contains(t, out, "provision")
	assert.Contains(t, out, "publish")
}

func TestPrinter_StageLifecycle_Terminal(t *testing.T) {
	p, buf := newTestPrinter(false)

	p.StageStart(3, 5, pipeline.StageBuild)
	p.Line(command.Stdout, "generating fonts")
	p.StageEnd(pipeline.StageResult{Stage: pipeline.StageBuild, Status: pipeline.StatusSucceeded, Duration: 1500 * time.Millisecond})

	out := buf.String()
	assert.Contains(t, out, "[3/5] build")
	assert.Contains(t, out, "generating fonts")
	assert.Contains(t, out, "✓ build (1.5s)")
	assert.NotContains(t, out, "::group::")
}

func TestPrinter_StageLifecycle_Actions(t *testing.T) {
	p, buf := newTestPrinter(true)

	p.StageStart(1, 5, pipeline.StageProvision)
	p.StageEnd(pipeline.StageResult{
		Stage:  pipeline.StageProvision,
		Status: pipeline.StatusFailed,
		Err:    errors.New("apt-get exited\nwith 100"),
	})

	out := buf.String()
	assert.Contains(t, out, "::group::[1/5] provision\n")
	assert.Contains(t, out, "::endgroup::\n")
	assert.Contains(t, out, "✗ provision, provisioning failure")
	assert.Contains(t, out, "::error title=provisioning failure::apt-get exited%0Awith 100\n")
}

func TestPrinter_LineTruncates(t *testing.T) {
	p, buf := newTestPrinter(false)

	p.Line(command.Stderr, "this line is definitely longer than twenty characters")

	assert.Contains(t, buf.String(), "this line is defi...")
	assert.NotContains(t, buf.String(), "twenty")
}

func TestPrinter_Asset(t *testing.T) {
	p, buf := newTestPrinter(false)

	p.Asset(1, 2, artifact.Asset{Name: "Mono.ttf", Size: 2048, MD5: "abc123"})

	assert.Contains(t, buf.String(), "[1/2] Mono.ttf")
	assert.Contains(t, buf.String(), "2048 bytes, md5 abc123")
}

func TestPrinter_Errorf(t *testing.T) {
	p, buf := newTestPrinter(true)
	p.Errorf("config %s", "broken")
	assert.Equal(t, "::error::config broken\n", buf.String())

	p, buf = newTestPrinter(false)
	p.Errorf("config %s", "broken")
	assert.Contains(t, buf.String(), "✗ config broken")
}

func TestPrinter_RunSummary(t *testing.T) {
	p, buf := newTestPrinter(false)
	res := &pipeline.Result{
		RunID:   "run-42",
		Version: "v1.2.3",
		Stages: []pipeline.StageResult{
			{Stage: pipeline.StageProvision, Status: pipeline.StatusSucceeded, Duration: time.Second},
			{Stage: pipeline.StageDependencies, Status: pipeline.StatusSucceeded},
			{Stage: pipeline.StageBuild, Status: pipeline.StatusFailed},
			{Stage: pipeline.StageVersion, Status: pipeline.StatusSkipped},
			{Stage: pipeline.StagePublish, Status: pipeline.StatusSkipped},
		},
	}

	p.RunSummary(res, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "RELEASE FAILED")
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "Version: v1.2.3")
	assert.Contains(t, out, "✗ build")
	assert.Contains(t, out, "(skipped)")
}

func TestPrinter_RunSummary_WithRelease(t *testing.T) {
	p, buf := newTestPrinter(false)
	res := &pipeline.Result{
		Version: "v1.2.3",
		Release: &release.Record{URL: "https://example.test/r/1", Assets: []artifact.Asset{{Name: "a"}, {Name: "b"}}},
	}

	p.RunSummary(res, nil)

	out := buf.String()
	assert.Contains(t, out, "RELEASE DRAFTED")
	assert.Contains(t, out, "Assets:  2")
	assert.Contains(t, out, "https://example.test/r/1")
}

func TestPrinter_RunSummary_NilResult(t *testing.T) {
	p, buf := newTestPrinter(false)
	p.RunSummary(nil, errors.New("x"))
	assert.Empty(t, buf.String())
}

func TestPrinter_Plan(t *testing.T) {
	p, buf := newTestPrinter(false)

	p.Plan(trigger.NewManualDispatch("v9.9.9"), pipeline.Stages(), "v9.9.9", "# Changes\n", nil)

	out := buf.String()
	assert.Contains(t, out, "Version: v9.9.9")
	assert.Contains(t, out, "1. provision")
	assert.Contains(t, out, "5. publish")
	assert.Contains(t, out, "output directory not built yet")
	assert.Contains(t, out, "# Changes")
}

func TestPrinter_MarkdownDisabledReturnsRaw(t *testing.T) {
	p, _ := newTestPrinter(false)
	assert.Equal(t, "**bold**", p.Markdown("**bold**"))
}

func TestPrinter_MarkdownRendered(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)
	p.Configure(config.OutputConfig{Markdown: config.MarkdownConfig{Enabled: true, Style: "notty", WordWrap: 80}})

	out := p.Markdown("# Release\n\n- added glyphs\n")

	assert.Contains(t, out, "Release")
	assert.Contains(t, out, "added glyphs")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "unlimited", truncate("unlimited", 0))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "abc...", truncate("abcdefghij", 6))
}

func TestTruncate_MultiByte(t *testing.T) {
	got := truncate("ааааааааа", 6)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "а...", got)

	got = truncate("ääää", 3)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ä", got)
}

func TestSetOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")

	require.NoError(t, setOutputFile(path, "version", "v1.2.3"))
	require.NoError(t, setOutputFile(path, "assets", "2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"version": "v1.2.3", "assets": "2"}, parseOutputs(t, string(data)))
}

func TestSetOutputFile_MultiLineValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")

	require.NoError(t, setOutputFile(path, "version", "v1\nEOF\ninjected=yes"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"version": "v1\nEOF\ninjected=yes"}, parseOutputs(t, string(data)))
}

// parseOutputs reads a GITHUB_OUTPUT file the way the runner does.
func parseOutputs(t *testing.T, data string) map[string]string {
	t.Helper()
	outputs := map[string]string{}
	lines := strings.Split(strings.TrimSuffix(data, "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		if name, value, ok := strings.Cut(lines[i], "="); ok {
			outputs[name] = value
			continue
		}
		name, delim, ok := strings.Cut(lines[i], "<<")
		require.True(t, ok, "malformed line %q", lines[i])
		var body []string
		for i++; i < len(lines) && lines[i] != delim; i++ {
			body = append(body, lines[i])
		}
		require.Less(t, i, len(lines), "unterminated value for %s", name)
		outputs[name] = strings.Join(body, "\n")
	}
	return outputs
}

func TestSetOutput_NoRunner(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	assert.NoError(t, SetOutput("version", "v1"))
}
