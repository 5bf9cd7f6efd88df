package cli

import (
	"github.com/spf13/cobra"

	"fontrelease/internal/manifest"
)

func newInitWorkflowCommand(app *App) *cobra.Command {
	var (
		path  string
		force bool
		opts  = manifest.DefaultOptions()
	)

	cmd := &cobra.Command{
		Use:   "init-workflow",
		Short: "Write the GitHub Actions release workflow",
		Long: `Write a workflow that runs "fontrelease run" when a v*.*.* tag is pushed
or when it is dispatched manually with a version input (default v0.0.0).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = app.Config.Path(manifest.DefaultPath)
			}
			opts.TokenEnv = app.Config.GitHub.TokenEnv

			if err := manifest.WriteFile(path, opts, force); err != nil {
				return err
			}
			app.Printer.Text("wrote " + path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", "workflow file path (default <root>/"+manifest.DefaultPath+")")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing workflow file")
	cmd.Flags().StringVar(&opts.Install, "install", opts.Install, "shell command that installs fontrelease on the runner; enables Go setup")
	cmd.Flags().StringVar(&opts.PythonVersion, "python-version", opts.PythonVersion, "Python version for actions/setup-python")
	cmd.Flags().StringVar(&opts.RunsOn, "runs-on", opts.RunsOn, "runner label")

	return cmd
}
