package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"fontrelease/internal/artifact"
	"fontrelease/internal/pipeline"
	"fontrelease/internal/release"
	"fontrelease/internal/trigger"
)

func newPlanCommand(app *App) *cobra.Command {
	var flags triggerFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a release run would do",
		Long: `Show the stages a run would execute, the version it would publish, the
rendered release notes and the assets currently in the output directory.
Nothing is installed, built or published.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := flags.event(cmd, app.Getenv)
			if err != nil {
				return err
			}
			return app.plan(ev)
		},
	}

	flags.register(cmd)
	return cmd
}

// plan prints the dry-run preview for ev.
func (app *App) plan(ev trigger.Event) error {
	stageList, version, err := app.newPipeline(app.newStages(nil)).Plan(ev)
	if pipeline.IsSkippable(err) {
		app.Printer.Text(fmt.Sprintf("%v; nothing to release", err))
		return nil
	}
	if err != nil {
		return err
	}

	changelogPath := app.Config.Path(app.Config.Publish.Changelog)
	body, err := os.ReadFile(changelogPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", release.ErrNoChangelog, changelogPath)
		}
		return fmt.Errorf("failed to read changelog: %w", err)
	}

	assets, err := artifact.Collect(app.Config.Path(app.Config.Build.OutputDir), app.Config.Publish.Include)
	if err != nil && !errors.Is(err, artifact.ErrNoOutputDir) {
		return err
	}

	app.Printer.Plan(ev, stageList, version, string(body), assets)
	return nil
}
