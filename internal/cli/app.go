// Package cli implements the fontrelease command-line interface.
//
// Commands are built with cobra around an [App] that carries every external
// dependency (configuration, process executor, release API factory, printer
// and runner environment), so tests can drive the full command tree with
// mocks. [Execute] is the process entry point; [Run] returns the exit code
// instead of exiting.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fontrelease/internal/command"
	"fontrelease/internal/config"
	"fontrelease/internal/output"
	"fontrelease/internal/pipeline"
	"fontrelease/internal/release"
)

// App holds the dependencies shared by every command.
type App struct {
	Config   *config.Config
	Executor command.Executor
	Printer  *output.Printer

	// NewAPI creates the release API client for the configured repository.
	NewAPI func(cfg *config.Config) (release.API, error)

	// Getenv reads the runner environment.
	Getenv func(key string) string

	// SetOutput exports step outputs for later workflow steps.
	SetOutput pipeline.OutputSink
}

// NewApp creates an App wired to the real executor, GitHub and process
// environment.
func NewApp(cfg *config.Config) *App {
	printer := output.NewPrinter()
	printer.Configure(cfg.Output)

	return &App{
		Config:   cfg,
		Executor: command.NewExecutor(),
		Printer:  printer,
		NewAPI: func(cfg *config.Config) (release.API, error) {
			return release.NewGitHubAPIFromConfig(cfg)
		},
		Getenv:    os.Getenv,
		SetOutput: output.SetOutput,
	}
}

// ExecuteResult is the outcome of running the command tree.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// Execute loads the configuration, runs the command named by os.Args and
// exits the process with the resulting code.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result := RunWithConfig(cfg, os.Args[1:])
	os.Exit(result.ExitCode)
}

// RunWithConfig runs args against a default App built from cfg.
func RunWithConfig(cfg *config.Config, args []string) ExecuteResult {
	return Run(NewApp(cfg), args)
}

// Run executes args against app. Errors that are not already an [ExitError]
// are printed and mapped to exit code 1.
func Run(app *App, args []string) ExecuteResult {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		return ExecuteResult{}
	}
	if code, ok := IsExitError(err); ok {
		return ExecuteResult{ExitCode: code, Err: err}
	}
	app.Printer.Errorf("%v", err)
	return ExecuteResult{ExitCode: 1, Err: err}
}

// runContext derives the context for a run: cancelled on SIGINT or SIGTERM
// and bounded by pipeline.timeout when one is configured.
func (app *App) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if app.Config.Pipeline.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, app.Config.Pipeline.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
