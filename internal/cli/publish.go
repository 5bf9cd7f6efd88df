package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fontrelease/internal/pipeline"
	"fontrelease/internal/trigger"
)

func newPublishCommand(app *App) *cobra.Command {
	var flags triggerFlags

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the existing build output as a draft release",
		Long: `Create a draft release for the resolved version from the files already
in the output directory, with the changelog as the release body. No build
runs first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := flags.event(cmd, app.Getenv)
			if err != nil {
				return err
			}
			if err := trigger.Qualifies(ev); err != nil {
				return err
			}
			version, err := trigger.ResolveVersion(ev)
			if err != nil {
				return err
			}

			api, err := app.NewAPI(app.Config)
			if err != nil {
				return err
			}

			ctx, cancel := app.runContext(cmd.Context())
			defer cancel()

			publisher := app.newStages(api).publisher
			return app.runStage(ctx, pipeline.StagePublish, func(ctx context.Context) error {
				rec, err := publisher.Publish(ctx, version)
				if rec != nil && rec.URL != "" {
					app.Printer.Noticef("draft release %s: %s", rec.Tag, rec.URL)
				}
				if err != nil {
					return err
				}
				app.Printer.Noticef("%d asset(s) attached", len(rec.Assets))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}
