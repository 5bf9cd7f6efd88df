// Package pipeline orchestrates a release run from trigger to draft release.
//
// The pipeline package provides [Executor] which runs the five release stages
// (provision, dependencies, build, version, publish) in order. Each stage must
// succeed before the next one starts; the first failure ends the run and no
// release is published.
//
// Key concepts:
//   - Stages are injected as small interfaces ([Provisioner], [Installer],
//     [Builder], [Publisher]) so tests can replace any of them
//   - The release version is resolved by the version stage and passed to the
//     publish stage as a plain argument
//   - Progress can be tracked via [ProgressCallback] and [StageCallback]
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fontrelease/internal/release"
	"fontrelease/internal/trigger"
)

// Provisioner prepares the runner so the scripting module is importable.
type Provisioner interface {
	Provision(ctx context.Context) error
}

// Installer installs the build script's Python dependencies.
type Installer interface {
	Install(ctx context.Context) error
}

// Builder runs the external build script.
type Builder interface {
	Build(ctx context.Context) error
}

// Publisher creates the draft release for a version.
type Publisher interface {
	Publish(ctx context.Context, version string) (*release.Record, error)
}

// OutputSink exposes a named value to later jobs. Optional.
type OutputSink func(name, value string) error

// ProgressCallback is invoked before each stage begins execution.
//
// The callback receives stageIndex (1-based), totalStages count, and the stage name.
type ProgressCallback func(stageIndex, totalStages int, stage Stage)

// StageCallback is invoked after each stage that ran, with its result.
type StageCallback func(result StageResult)

// Executor runs the release pipeline.
//
// Use [NewExecutor] to create an instance and [Executor.Execute] to run it.
type Executor struct {
	provisioner      Provisioner
	installer        Installer
	builder          Builder
	publisher        Publisher
	progressCallback ProgressCallback
	stageCallback    StageCallback
	outputs          OutputSink
	now              func() time.Time
	newRunID         func() string
}

// NewExecutor creates a new Executor with the required stage implementations.
func NewExecutor(p Provisioner, i Installer, b Builder, pub Publisher) *Executor {
	return &Executor{
		provisioner: p,
		installer:   i,
		builder:     b,
		publisher:   pub,
		now:         time.Now,
		newRunID:    func() string { return uuid.NewString() },
	}
}

// SetProgressCallback configures an optional callback invoked before each stage.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progressCallback = cb
}

// SetStageCallback configures an optional callback invoked after each stage.
func (e *Executor) SetStageCallback(cb StageCallback) {
	e.stageCallback = cb
}

// SetOutputSink configures where the resolved version is exported for
// downstream jobs. The pipeline never reads it back.
func (e *Executor) SetOutputSink(sink OutputSink) {
	e.outputs = sink
}

// Execute runs every stage in order for the given trigger event.
//
// A tag push that is not a release tag is rejected with
// [trigger.ErrNotQualifying] before any stage runs. Execute uses fail-fast
// behavior: it stops on the first failing stage, marks the remaining stages
// skipped, and returns a [*StageError]. The returned [Result] is non-nil
// whenever the trigger qualified, so callers can report partial runs.
func (e *Executor) Execute(ctx context.Context, ev trigger.Event) (*Result, error) {
	if err := trigger.Qualifies(ev); err != nil {
		return nil, err
	}

	start := e.now()
	res := &Result{
		RunID:     e.newRunID(),
		Trigger:   ev,
		StartedAt: start,
	}
	defer func() { res.Duration = e.now().Sub(start) }()

	var version string
	steps := []struct {
		stage Stage
		run   func(context.Context) error
	}{
		{StageProvision, e.provisioner.Provision},
		{StageDependencies, e.installer.Install},
		{StageBuild, e.builder.Build},
		{StageVersion, func(context.Context) error {
			v, err := trigger.ResolveVersion(ev)
			if err != nil {
				return err
			}
			version = v
			res.Version = v
			if e.outputs != nil {
				if err := e.outputs("version", v); err != nil {
					return fmt.Errorf("failed to export version: %w", err)
				}
			}
			return nil
		}},
		{StagePublish, func(ctx context.Context) error {
			rec, err := e.publisher.Publish(ctx, version)
			res.Release = rec
			return err
		}},
	}

	total := len(steps)
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			res.skipFrom(steps[i].stage)
			return res, &StageError{Stage: step.stage, Err: err}
		}

		if e.progressCallback != nil {
			e.progressCallback(i+1, total, step.stage)
		}

		stageStart := e.now()
		err := step.run(ctx)
		result := StageResult{
			Stage:    step.stage,
			Status:   StatusSucceeded,
			Duration: e.now().Sub(stageStart),
		}
		if err != nil {
			result.Status = StatusFailed
			result.Err = err
		}
		res.Stages = append(res.Stages, result)
		if e.stageCallback != nil {
			e.stageCallback(result)
		}

		if err != nil {
			for _, rest := range steps[i+1:] {
				res.Stages = append(res.Stages, StageResult{Stage: rest.stage, Status: StatusSkipped})
			}
			return res, &StageError{Stage: step.stage, Err: err}
		}
	}

	return res, nil
}

// Plan returns the stages a run for ev would execute and the version it would
// publish, without running anything.
func (e *Executor) Plan(ev trigger.Event) ([]Stage, string, error) {
	if err := trigger.Qualifies(ev); err != nil {
		return nil, "", err
	}
	version, err := trigger.ResolveVersion(ev)
	if err != nil {
		return nil, "", err
	}
	return Stages(), version, nil
}

// IsSkippable reports whether err means the run was intentionally not started,
// as opposed to a failure.
func IsSkippable(err error) bool {
	return errors.Is(err, trigger.ErrNotQualifying)
}
