// Package provision prepares the runner so Python can import FontForge.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fontrelease/internal/command"
	"fontrelease/internal/config"
)

// ErrNoModule indicates the scripting module is still not importable after
// the provisioning commands ran.
var ErrNoModule = errors.New("python module is not importable")

// Provisioner runs the provisioning commands and verifies the result.
type Provisioner struct {
	exec    command.Executor
	handler command.LineHandler
	python  string
	cfg     config.ProvisionConfig
	getenv  func(string) string
}

// New creates a [Provisioner] from the loaded configuration.
func New(exec command.Executor, cfg *config.Config, handler command.LineHandler) *Provisioner {
	return &Provisioner{
		exec:    exec,
		handler: handler,
		python:  cfg.Python.Binary,
		cfg:     cfg.Provision,
		getenv:  os.Getenv,
	}
}

// Provision runs every configured command in order, then checks that the
// scripting module can be imported. It stops at the first failing command.
func (p *Provisioner) Provision(ctx context.Context) error {
	for _, line := range p.cfg.Commands {
		argv := strings.Fields(line)
		if len(argv) == 0 {
			continue
		}
		spec := command.Spec{Name: argv[0], Args: argv[1:]}
		if err := command.Require(ctx, p.exec, spec, p.handler); err != nil {
			return err
		}
	}
	return p.Verify(ctx)
}

// Verify checks that the interpreter can import the scripting module with the
// provisioned module search path.
func (p *Provisioner) Verify(ctx context.Context) error {
	module := p.cfg.Module
	if module == "" {
		return nil
	}
	spec := command.Spec{
		Name: p.python,
		Args: []string{"-c", fmt.Sprintf("import %s", module)},
		Env:  p.Env(),
	}
	if err := command.Require(ctx, p.exec, spec, p.handler); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNoModule, module, err)
	}
	return nil
}

// Env returns the environment additions that make the module importable:
// PYTHONPATH with the configured module paths ahead of any inherited value.
// It returns nil when no module paths are configured.
func (p *Provisioner) Env() []string {
	return ModuleEnv(p.cfg.ModulePaths, p.getenv("PYTHONPATH"))
}

// ModuleEnv builds a PYTHONPATH entry from paths followed by the inherited value.
func ModuleEnv(paths []string, inherited string) []string {
	var parts []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	if inherited != "" {
		parts = append(parts, inherited)
	}
	return []string{"PYTHONPATH=" + strings.Join(parts, string(filepath.ListSeparator))}
}
