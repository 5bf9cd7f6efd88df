package cli

import (
	"github.com/spf13/cobra"

	"fontrelease/internal/trigger"
)

func newVersionCommand(app *App) *cobra.Command {
	var flags triggerFlags

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the release version for the current trigger",
		Long: `Resolve the release version the way the version stage does and print it.
On GitHub Actions it is also written to the step output "version".`,
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

			app.Printer.Text(version)
			if app.SetOutput != nil {
				return app.SetOutput("version", version)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
