package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fontrelease/internal/pipeline"
	"fontrelease/internal/report"
	"fontrelease/internal/trigger"
)

func newRunCommand(app *App) *cobra.Command {
	var (
		flags      triggerFlags
		dryRun     bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full release pipeline",
		Long: `Run every release stage in order and publish a draft release.

The first failing stage ends the run; no release is created and the exit
code is that of the failing command. A pushed tag that is not
v<major>.<minor>.<patch> is ignored and exits successfully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := flags.event(cmd, app.Getenv)
			if err != nil {
				return err
			}

			if dryRun {
				return app.plan(ev)
			}

			if err := trigger.Qualifies(ev); pipeline.IsSkippable(err) {
				app.Printer.Text(fmt.Sprintf("%v; nothing to release", err))
				return nil
			} else if err != nil {
				return err
			}

			if reportPath != "" {
				if err := app.checkReportPath(reportPath); err != nil {
					return err
				}
			}

			api, err := app.NewAPI(app.Config)
			if err != nil {
				return err
			}

			ctx, cancel := app.runContext(cmd.Context())
			defer cancel()

			app.Printer.RunHeader(ev)
			res, runErr := app.newPipeline(app.newStages(api)).Execute(ctx, ev)
			if res == nil {
				return runErr
			}
			app.Printer.RunSummary(res, runErr)

			if reportPath != "" {
				if err := report.NewWriter(reportPath).Write(report.FromResult(res, runErr)); err != nil {
					app.Printer.Errorf("%v", err)
					if runErr == nil {
						return exitWith(1, err)
					}
				}
			}

			if runErr != nil {
				return exitWith(exitCodeFor(runErr), runErr)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the stages, version, release notes and assets without running anything")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a YAML run report to this path")

	return cmd
}

// checkReportPath rejects report paths inside the build output directory,
// whose contents are published as release assets.
func (app *App) checkReportPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid report path: %w", err)
	}
	outDir, err := filepath.Abs(app.Config.Path(app.Config.Build.OutputDir))
	if err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}
	rel, err := filepath.Rel(outDir, abs)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("report path %s is inside the output directory %s", path, outDir)
	}
	return nil
}
