// Package output formats release run progress for the terminal.
//
// [Printer] renders the run banner, stage headers, streamed subprocess output,
// per-stage results and the final summary. Styling uses lipgloss with a
// renderer bound to the destination writer, so output to files and pipes
// degrades to plain text. On GitHub Actions runners each stage is wrapped in a
// collapsible ::group:: block and failures are annotated with ::error::.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"fontrelease/internal/artifact"
	"fontrelease/internal/command"
	"fontrelease/internal/config"
	"fontrelease/internal/pipeline"
	"fontrelease/internal/trigger"
)

// Printer writes formatted run output.
type Printer struct {
	out      io.Writer
	actions  bool
	truncate int
	markdown config.MarkdownConfig

	title   lipgloss.Style
	box     lipgloss.Style
	header  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	stderr  lipgloss.Style
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:      w,
		markdown: config.MarkdownConfig{Style: "dark", WordWrap: 100},
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
		header:  r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("#3FB950")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		stderr:  r.NewStyle().Foreground(lipgloss.Color("#D29922")),
	}
}

// Configure applies output settings from the loaded configuration.
func (p *Printer) Configure(cfg config.OutputConfig) {
	p.actions = cfg.GitHubActions
	p.truncate = cfg.TruncateLength
	p.markdown = cfg.Markdown
}

// RunHeader prints the banner shown before the first stage.
func (p *Printer) RunHeader(ev trigger.Event) {
	names := make([]string, 0, len(pipeline.Stages()))
	for _, s := range pipeline.Stages() {
		names = append(names, string(s))
	}
	body := strings.Join([]string{
		p.title.Render("Font Release"),
		"Trigger: " + ev.String(),
		"Stages:  " + strings.Join(names, " → "),
	}, "\n")
	fmt.Fprintln(p.out, p.box.Render(body))
	fmt.Fprintln(p.out)
}

// StageStart prints the header of a stage.
func (p *Printer) StageStart(index, total int, stage pipeline.Stage) {
	if p.actions {
		fmt.Fprintf(p.out, "::group::[%d/%d] %s\n", index, total, stage)
		return
	}
	fmt.Fprintln(p.out, p.header.Render(fmt.Sprintf("┌─ [%d/%d] %s", index, total, stage)))
}

// Line prints one line of subprocess output. It satisfies [command.LineHandler].
func (p *Printer) Line(stream command.Stream, line string) {
	line = truncate(line, p.truncate)
	if stream == command.Stderr {
		fmt.Fprintf(p.out, "│  %s\n", p.stderr.Render(line))
		return
	}
	fmt.Fprintf(p.out, "│  %s\n", line)
}

// StageEnd prints the outcome of a stage.
func (p *Printer) StageEnd(r pipeline.StageResult) {
	d := r.Duration.Round(time.Millisecond)
	if p.actions {
		fmt.Fprintln(p.out, "::endgroup::")
	}
	switch r.Status {
	case pipeline.StatusSucceeded:
		fmt.Fprintln(p.out, p.success.Render(fmt.Sprintf("└─ ✓ %s (%s)", r.Stage, d)))
	case pipeline.StatusFailed:
		fmt.Fprintln(p.out, p.failure.Render(fmt.Sprintf("└─ ✗ %s, %s (%s): %v", r.Stage, r.Stage.Failure(), d, r.Err)))
		if p.actions {
			fmt.Fprintf(p.out, "::error title=%s::%s\n", r.Stage.Failure(), escapeAnnotation(fmt.Sprint(r.Err)))
		}
	}
	fmt.Fprintln(p.out)
}

// Asset prints an uploaded asset.
func (p *Printer) Asset(index, total int, a artifact.Asset) {
	fmt.Fprintf(p.out, "│  ↑ [%d/%d] %s %s\n", index, total, a.Name,
		p.muted.Render(fmt.Sprintf("%d bytes, md5 %s", a.Size, a.MD5)))
}

// Noticef prints an informational line inside the current stage.
func (p *Printer) Noticef(format string, args ...any) {
	fmt.Fprintf(p.out, "│  %s\n", p.muted.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints an error outside of any stage.
func (p *Printer) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.actions {
		fmt.Fprintf(p.out, "::error::%s\n", escapeAnnotation(msg))
		return
	}
	fmt.Fprintln(p.out, p.failure.Render("✗ "+msg))
}

// RunSummary prints the final box with one line per stage.
func (p *Printer) RunSummary(res *pipeline.Result, err error) {
	if res == nil {
		return
	}

	var lines []string
	if err == nil {
		lines = append(lines, p.success.Render("✓ RELEASE DRAFTED"))
	} else {
		lines = append(lines, p.failure.Render("✗ RELEASE FAILED"))
	}
	lines = append(lines, "Run:     "+res.RunID)
	if res.Version != "" {
		lines = append(lines, "Version: "+res.Version)
	}
	for _, s := range res.Stages {
		mark := "○"
		switch s.Status {
		case pipeline.StatusSucceeded:
			mark = "✓"
		case pipeline.StatusFailed:
			mark = "✗"
		}
		dur := ""
		if s.Status != pipeline.StatusSkipped {
			dur = s.Duration.Round(time.Millisecond).String()
		} else {
			dur = "(skipped)"
		}
		lines = append(lines, fmt.Sprintf("%s %-13s %s", mark, s.Stage, dur))
	}
	if res.Release != nil {
		lines = append(lines, fmt.Sprintf("Assets:  %d", len(res.Release.Assets)))
		if res.Release.URL != "" {
			lines = append(lines, "URL:     "+res.Release.URL)
		}
	}
	lines = append(lines, "Total:   "+res.Duration.Round(time.Millisecond).String())

	fmt.Fprintln(p.out, p.box.Render(strings.Join(lines, "\n")))
}

// Plan prints the dry-run preview: stages, version, changelog and assets.
// assets may be nil when the output directory does not exist yet.
func (p *Printer) Plan(ev trigger.Event, stages []pipeline.Stage, version, changelog string, assets []artifact.Asset) {
	fmt.Fprintln(p.out, p.title.Render("Release plan"))
	fmt.Fprintf(p.out, "Trigger: %s\n", ev)
	fmt.Fprintf(p.out, "Version: %s\n", version)
	for i, s := range stages {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, s)
	}
	fmt.Fprintln(p.out)

	if assets == nil {
		fmt.Fprintln(p.out, p.muted.Render("Assets: output directory not built yet"))
	} else {
		fmt.Fprintf(p.out, "Assets: %d\n", len(assets))
		for _, a := range assets {
			fmt.Fprintf(p.out, "  - %s (%d bytes)\n", a.Name, a.Size)
		}
	}
	fmt.Fprintln(p.out)

	fmt.Fprintln(p.out, p.header.Render("Release notes"))
	fmt.Fprintln(p.out, p.Markdown(changelog))
}

// Markdown renders md for the terminal. Rendering failures fall back to the
// raw text.
func (p *Printer) Markdown(md string) string {
	if !p.markdown.Enabled {
		return md
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(p.markdown.Style)}
	if p.markdown.WordWrap > 0 {
		opts = append(opts, glamour.WithWordWrap(p.markdown.WordWrap))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

// Text prints a plain line.
func (p *Printer) Text(s string) {
	fmt.Fprintln(p.out, s)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:runeBoundary(s, maxLen)]
	}
	return s[:runeBoundary(s, maxLen-3)] + "..."
}

// runeBoundary backs n up to the start of the rune containing s[n].
func runeBoundary(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// escapeAnnotation encodes characters that end a workflow command.
func escapeAnnotation(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
