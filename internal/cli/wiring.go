package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fontrelease/internal/command"
	"fontrelease/internal/pipeline"
	"fontrelease/internal/provision"
	"fontrelease/internal/release"
	"fontrelease/internal/stages"
	"fontrelease/internal/trigger"
)

// triggerFlags selects the trigger event from flags, falling back to the
// runner environment.
type triggerFlags struct {
	tag     string
	version string
}

func (f *triggerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tag, "tag", "", "release as if this tag was pushed (v1.2.3 or refs/tags/v1.2.3)")
	cmd.Flags().StringVar(&f.version, "version", "", "release as a manual dispatch with this version (empty means "+trigger.DefaultManualVersion+")")
	cmd.MarkFlagsMutuallyExclusive("tag", "version")
}

func (f *triggerFlags) event(cmd *cobra.Command, getenv trigger.Getenv) (trigger.Event, error) {
	switch {
	case cmd.Flags().Changed("tag"):
		return trigger.NewTagPush(f.tag), nil
	case cmd.Flags().Changed("version"):
		return trigger.NewManualDispatch(f.version), nil
	}
	ev, err := trigger.FromEnv(getenv)
	if errors.Is(err, trigger.ErrNoEvent) {
		return nil, fmt.Errorf("%w; pass --tag or --version to run outside GitHub Actions", err)
	}
	return ev, err
}

// stageSet holds the concrete stage implementations for one invocation.
type stageSet struct {
	provisioner *provision.Provisioner
	installer   *stages.Installer
	builder     *stages.Builder
	publisher   *release.Publisher
}

// newStages wires every stage to the app's executor and printer. api may be
// nil for commands that never publish.
func (app *App) newStages(api release.API) *stageSet {
	cfg := app.Config
	line := app.Printer.Line

	prov := provision.New(app.Executor, cfg, line)
	env := prov.Env()

	builder := stages.NewBuilder(app.Executor, cfg, env, line)
	builder.SetNotice(app.Printer.Noticef)

	pub := release.NewPublisher(api, cfg)
	pub.SetTarget(app.Getenv("GITHUB_SHA"))
	pub.SetAssetCallback(app.Printer.Asset)

	return &stageSet{
		provisioner: prov,
		installer:   stages.NewInstaller(app.Executor, cfg, env, line),
		builder:     builder,
		publisher:   pub,
	}
}

// newPipeline creates the executor with progress reporting and the step
// output sink attached.
func (app *App) newPipeline(s *stageSet) *pipeline.Executor {
	exec := pipeline.NewExecutor(s.provisioner, s.installer, s.builder, s.publisher)
	exec.SetProgressCallback(app.Printer.StageStart)
	exec.SetStageCallback(app.Printer.StageEnd)
	exec.SetOutputSink(app.SetOutput)
	return exec
}

// runStage runs a single stage outside the pipeline with the same output and
// exit code mapping.
func (app *App) runStage(ctx context.Context, stage pipeline.Stage, fn func(context.Context) error) error {
	app.Printer.StageStart(1, 1, stage)
	start := time.Now()
	err := fn(ctx)

	result := pipeline.StageResult{Stage: stage, Status: pipeline.StatusSucceeded, Duration: time.Since(start)}
	if err != nil {
		result.Status = pipeline.StatusFailed
		result.Err = err
	}
	app.Printer.StageEnd(result)

	if err != nil {
		stageErr := &pipeline.StageError{Stage: stage, Err: err}
		return exitWith(stageErr.ExitCode(), stageErr)
	}
	return nil
}

// exitCodeFor maps a pipeline error to a process exit code.
func exitCodeFor(err error) int {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return stageErr.ExitCode()
	}
	if code, ok := command.ExitCode(err); ok && code != 0 {
		return code
	}
	return 1
}
