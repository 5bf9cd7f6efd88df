package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the fontrelease command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fontrelease",
		Short: "Build fonts and publish them as a draft GitHub release",
		Long: `fontrelease runs the font release pipeline:
  1. provision    - install FontForge and its Python module
  2. dependencies - pip install the build script's libraries
  3. build        - run the build script from the repository root
  4. version      - resolve the release version from the trigger
  5. publish      - create a draft release with the build output

Runs are started by a pushed v<major>.<minor>.<patch> tag or by a manual
dispatch carrying a version. On GitHub Actions the trigger is read from the
runner environment; locally use --tag or --version.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCommand(app),
		newPlanCommand(app),
		newVersionCommand(app),
		newProvisionCommand(app),
		newDepsCommand(app),
		newBuildCommand(app),
		newPublishCommand(app),
		newInitWorkflowCommand(app),
	)

	return rootCmd
}
