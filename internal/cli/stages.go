package cli

import (
	"github.com/spf13/cobra"

	"fontrelease/internal/pipeline"
)

func newProvisionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Install FontForge and verify its Python module imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.runContext(cmd.Context())
			defer cancel()
			return app.runStage(ctx, pipeline.StageProvision, app.newStages(nil).provisioner.Provision)
		},
	}
}

func newDepsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Install the build script's Python dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.runContext(cmd.Context())
			defer cancel()
			return app.runStage(ctx, pipeline.StageDependencies, app.newStages(nil).installer.Install)
		},
	}
}

func newBuildCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the build script",
		Long: `Check the build inputs, clean the output directory and run the build
script from the repository root with the provisioned module path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.runContext(cmd.Context())
			defer cancel()
			return app.runStage(ctx, pipeline.StageBuild, app.newStages(nil).builder.Build)
		},
	}
}
