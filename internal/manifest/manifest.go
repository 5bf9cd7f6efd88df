// Package manifest renders the GitHub Actions workflow that triggers release
// runs.
//
// The generated file (by default .github/workflows/release.yml) starts a run
// on every pushed v*.*.* tag and on manual dispatch with a version input:
//
//	on:
//	  push:
//	    tags: ["v*.*.*"]
//	  workflow_dispatch:
//	    inputs:
//	      version:
//	        default: v0.0.0
//
// The job checks out the repository, sets up Python, optionally builds the tool
// with Go and executes "fontrelease run" with the repository token.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fontrelease/internal/trigger"
)

// DefaultPath is where the workflow is written, relative to the repository root.
const DefaultPath = ".github/workflows/release.yml"

// ErrExists is returned when the workflow file already exists and overwriting
// was not requested.
var ErrExists = errors.New("workflow file already exists")

// Options controls the generated workflow.
type Options struct {
	// Name is the workflow display name.
	Name string

	// RunsOn is the runner label.
	RunsOn string

	// PythonVersion is passed to actions/setup-python.
	PythonVersion string

	// GoVersion is passed to actions/setup-go.
	GoVersion string

	// Install installs the fontrelease binary on the runner. When empty the
	// binary is expected on the runner already and Go is not set up.
	Install string

	// Run starts the release run.
	Run string

	// TokenEnv names the environment variable carrying the repository token.
	TokenEnv string
}

// DefaultOptions returns the options used by init-workflow.
func DefaultOptions() Options {
	return Options{
		Name:          "Release",
		RunsOn:        "ubuntu-latest",
		PythonVersion: "3.x",
		GoVersion:     "stable",
		Run:           "fontrelease run",
		TokenEnv:      "GITHUB_TOKEN",
	}
}

// Workflow is the subset of the GitHub Actions workflow schema that the
// release workflow uses. Field order matches the rendered key order.
type Workflow struct {
	Name        string            `yaml:"name"`
	On          Triggers          `yaml:"on"`
	Permissions map[string]string `yaml:"permissions"`
	Jobs        map[string]Job    `yaml:"jobs"`
}

// Triggers lists the events that start the workflow.
type Triggers struct {
	Push             *PushTrigger     `yaml:"push,omitempty"`
	WorkflowDispatch *DispatchTrigger `yaml:"workflow_dispatch,omitempty"`
}

// PushTrigger filters push events by tag pattern.
type PushTrigger struct {
	Tags []string `yaml:"tags"`
}

// DispatchTrigger declares the manual dispatch inputs.
type DispatchTrigger struct {
	Inputs map[string]Input `yaml:"inputs"`
}

// Input is a single workflow_dispatch input.
type Input struct {
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
}

// Job is one workflow job.
type Job struct {
	RunsOn string `yaml:"runs-on"`
	Steps  []Step `yaml:"steps"`
}

// Step is one job step. Exactly one of Uses and Run is set.
type Step struct {
	Name string            `yaml:"name,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// TagPattern is the push tag filter matching release tags.
const TagPattern = "v*.*.*"

// Build assembles the workflow for opts.
func Build(opts Options) *Workflow {
	steps := []Step{
		{Name: "Checkout", Uses: "actions/checkout@v4"},
		{Name: "Set up Python", Uses: "actions/setup-python@v5", With: map[string]string{"python-version": opts.PythonVersion}},
	}
	if opts.Install != "" {
		steps = append(steps,
			Step{Name: "Set up Go", Uses: "actions/setup-go@v5", With: map[string]string{"go-version": opts.GoVersion}},
			Step{Name: "Install fontrelease", Run: opts.Install},
		)
	}
	steps = append(steps, Step{
		Name: "Release",
		Run:  opts.Run,
		Env: map[string]string{
			opts.TokenEnv:   "${{ secrets.GITHUB_TOKEN }}",
			"INPUT_VERSION": "${{ github.event.inputs.version }}",
		},
	})

	return &Workflow{
		Name: opts.Name,
		On: Triggers{
			Push: &PushTrigger{Tags: []string{TagPattern}},
			WorkflowDispatch: &DispatchTrigger{Inputs: map[string]Input{
				"version": {
					Description: "Release version",
					Required:    false,
					Default:     trigger.DefaultManualVersion,
				},
			}},
		},
		Permissions: map[string]string{"contents": "write"},
		Jobs: map[string]Job{
			"release": {RunsOn: opts.RunsOn, Steps: steps},
		},
	}
}

// Render encodes the workflow for opts as YAML.
func Render(opts Options) ([]byte, error) {
	if opts.Run == "" {
		return nil, errors.New("run command is required")
	}
	if opts.TokenEnv == "" {
		return nil, errors.New("token environment variable is required")
	}
	data, err := yaml.Marshal(Build(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}
	return data, nil
}

// WriteFile renders the workflow and writes it to path, creating parent
// directories. An existing file is only replaced when force is true.
func WriteFile(path string, opts Options, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	data, err := Render(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create workflow directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write workflow: %w", err)
	}
	return nil
}

// ReadFile parses a workflow file.
func ReadFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}
	return &wf, nil
}
