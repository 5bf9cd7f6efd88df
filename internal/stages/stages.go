// Package stages implements the dependency installation and build invocation
// stages of the release pipeline.
//
// Both stages shell out through a [command.Executor] with the module search
// path prepared by the provision package, so the build script sees the same
// interpreter environment the FontForge check passed in.
package stages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fontrelease/internal/buildinput"
	"fontrelease/internal/command"
	"fontrelease/internal/config"
)

// ErrNoScript indicates the build script does not exist.
var ErrNoScript = errors.New("build script not found")

// Installer installs the Python libraries the build script imports.
type Installer struct {
	exec     command.Executor
	handler  command.LineHandler
	python   string
	packages []string
	pipArgs  []string
	env      []string
}

// NewInstaller creates an [Installer]. env is added to the pip environment.
func NewInstaller(exec command.Executor, cfg *config.Config, env []string, handler command.LineHandler) *Installer {
	return &Installer{
		exec:     exec,
		handler:  handler,
		python:   cfg.Python.Binary,
		packages: cfg.Dependencies.Packages,
		pipArgs:  cfg.Dependencies.PipArgs,
		env:      env,
	}
}

// Install runs a single "python -m pip install" for every declared package.
// With no packages declared it does nothing.
func (i *Installer) Install(ctx context.Context) error {
	if len(i.packages) == 0 {
		return nil
	}
	args := []string{"-m", "pip", "install"}
	args = append(args, i.pipArgs...)
	args = append(args, i.packages...)

	return command.Require(ctx, i.exec, command.Spec{
		Name: i.python,
		Args: args,
		Env:  i.env,
	}, i.handler)
}

// Builder invokes the external build script.
type Builder struct {
	exec      command.Executor
	handler   command.LineHandler
	python    string
	root      string
	script    string
	outputDir string
	clean     bool
	check     bool
	inputs    string
	fontsDir  string
	env       []string
	notice    func(format string, args ...any)
}

// NewBuilder creates a [Builder]. env is added to the script's environment.
func NewBuilder(exec command.Executor, cfg *config.Config, env []string, handler command.LineHandler) *Builder {
	return &Builder{
		exec:      exec,
		handler:   handler,
		python:    cfg.Python.Binary,
		root:      cfg.Path("."),
		script:    cfg.Build.Script,
		outputDir: cfg.Path(cfg.Build.OutputDir),
		clean:     cfg.Build.Clean,
		check:     cfg.Build.CheckInputs,
		inputs:    cfg.Path(cfg.Build.InputsFile),
		fontsDir:  cfg.Path(cfg.Build.FontsDir),
		env:       env,
	}
}

// SetNotice configures a callback for informational messages such as a
// skipped input check.
func (b *Builder) SetNotice(fn func(format string, args ...any)) {
	b.notice = fn
}

// Build runs the script with no arguments from the repository root.
//
// Before the script starts, the output directory is removed when cleaning is
// enabled and the build inputs are validated when checking is enabled. A
// non-zero exit is returned as a [command.ExitError]; whatever the script
// wrote before failing is left in place but never collected by this stage.
func (b *Builder) Build(ctx context.Context) error {
	scriptPath := b.script
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(b.root, scriptPath)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoScript, scriptPath)
		}
		return fmt.Errorf("failed to stat build script: %w", err)
	}

	if b.check {
		found, err := buildinput.Check(b.inputs, b.fontsDir)
		if err != nil {
			return err
		}
		if !found {
			b.noticef("no %s found, skipping input check", filepath.Base(b.inputs))
		}
	}

	if b.clean {
		if err := os.RemoveAll(b.outputDir); err != nil {
			return fmt.Errorf("failed to clean output directory: %w", err)
		}
	}

	return command.Require(ctx, b.exec, command.Spec{
		Name: b.python,
		Args: []string{b.script},
		Dir:  b.root,
		Env:  b.env,
	}, b.handler)
}

func (b *Builder) noticef(format string, args ...any) {
	if b.notice != nil {
		b.notice(format, args...)
	}
}
