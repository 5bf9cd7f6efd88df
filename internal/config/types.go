// Package config provides configuration loading and management for fontrelease.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The defaults reproduce the stock release job: FontForge from
// apt, msgspec and jinja2 from pip, main.py as the build script, dist/ as the
// output directory and CHANGELOG.md as the release body.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [ProvisionConfig] lists the environment provisioning commands
//   - [BuildConfig] describes the external build script contract
//   - [PublishConfig] controls which files become release assets
//
// Configuration priority (highest to lowest):
//  1. Environment variables (FONTRELEASE_ prefix, plus GITHUB_REPOSITORY and
//     GITHUB_WORKSPACE on Actions runners)
//  2. Config file specified by FONTRELEASE_CONFIG_PATH
//  3. ./fontrelease.yaml in the working directory
//  4. [DefaultConfig] defaults
package config

import "time"

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Repository identifies the repository being released.
	Repository RepositoryConfig `mapstructure:"repository"`

	// Python contains interpreter settings shared by every stage that runs Python.
	Python PythonConfig `mapstructure:"python"`

	// Provision contains the environment provisioning commands.
	Provision ProvisionConfig `mapstructure:"provision"`

	// Dependencies lists the Python libraries the build script imports.
	Dependencies DependenciesConfig `mapstructure:"dependencies"`

	// Build describes how the external build script is invoked.
	Build BuildConfig `mapstructure:"build"`

	// Publish controls the draft release contents.
	Publish PublishConfig `mapstructure:"publish"`

	// GitHub contains release API settings.
	GitHub GitHubConfig `mapstructure:"github"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output"`

	// Pipeline contains run-wide settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// RepositoryConfig identifies the repository checkout and its GitHub slug.
type RepositoryConfig struct {
	// Root is the repository checkout directory. Every relative path in the
	// configuration is resolved against it. Defaults to GITHUB_WORKSPACE on
	// Actions runners and "." elsewhere.
	Root string `mapstructure:"root"`

	// Slug is the "owner/name" of the GitHub repository receiving the release.
	// Defaults to GITHUB_REPOSITORY.
	Slug string `mapstructure:"slug"`
}

// PythonConfig contains Python interpreter settings.
type PythonConfig struct {
	// Binary is the interpreter used for pip, the FontForge check and the build.
	// Default: "python3". Override with FONTRELEASE_PYTHON.
	Binary string `mapstructure:"binary"`
}

// ProvisionConfig lists the commands that make FontForge importable.
type ProvisionConfig struct {
	// Commands are run in order. Each entry is split on whitespace into argv;
	// no shell quoting is applied.
	Commands []string `mapstructure:"commands"`

	// ModulePaths are prepended to PYTHONPATH so the interpreter can import
	// the fontforge module installed by the system package manager.
	ModulePaths []string `mapstructure:"module_paths"`

	// Module is the Python module whose import proves provisioning worked.
	// Default: "fontforge".
	Module string `mapstructure:"module"`
}

// DependenciesConfig lists the Python libraries installed with pip.
type DependenciesConfig struct {
	// Packages are passed to "python -m pip install" in a single invocation.
	Packages []string `mapstructure:"packages"`

	// PipArgs are extra arguments placed before the package list.
	PipArgs []string `mapstructure:"pip_args"`
}

// BuildConfig describes the filesystem contract with the build script.
type BuildConfig struct {
	// Script is the build script path relative to the repository root.
	Script string `mapstructure:"script"`

	// OutputDir is where the script leaves its artifacts.
	OutputDir string `mapstructure:"output_dir"`

	// Clean removes OutputDir before the script runs.
	Clean bool `mapstructure:"clean"`

	// CheckInputs validates InputsFile before the script runs. A missing
	// InputsFile is not an error.
	CheckInputs bool `mapstructure:"check_inputs"`

	// InputsFile is the TOML build configuration read by the script.
	InputsFile string `mapstructure:"inputs_file"`

	// FontsDir is the directory the script resolves font and symbol paths against.
	FontsDir string `mapstructure:"fonts_dir"`
}

// PublishConfig controls what the draft release is made of.
type PublishConfig struct {
	// Changelog is the file whose literal contents become the release body.
	Changelog string `mapstructure:"changelog"`

	// Include are doublestar globs, relative to the output directory, selecting
	// release assets. Default: ["*"] (every top-level file).
	Include []string `mapstructure:"include"`
}

// GitHubConfig contains release API settings.
type GitHubConfig struct {
	// APIURL overrides the REST endpoint (GitHub Enterprise or tests).
	APIURL string `mapstructure:"api_url"`

	// UploadURL overrides the asset upload endpoint.
	UploadURL string `mapstructure:"upload_url"`

	// TokenEnv names the environment variable holding the release credential.
	// The token itself is never part of the configuration.
	TokenEnv string `mapstructure:"token_env"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// TruncateLength is the maximum length of each streamed subprocess line.
	// Zero disables truncation.
	TruncateLength int `mapstructure:"truncate_length"`

	// GitHubActions wraps stages in ::group:: blocks and reports failures with
	// ::error:: annotations. Enabled automatically when GITHUB_ACTIONS=true.
	GitHubActions bool `mapstructure:"github_actions"`

	// Markdown contains changelog preview rendering configuration.
	Markdown MarkdownConfig `mapstructure:"markdown"`
}

// MarkdownConfig contains configuration for markdown rendering in terminal output.
//
// When enabled, the changelog preview shown by the plan command is rendered
// with glamour.
type MarkdownConfig struct {
	// Enabled controls whether markdown rendering is active.
	// Default: true
	Enabled bool `mapstructure:"enabled"`

	// Style is the glamour theme to use: "dark", "light", "dracula", "notty".
	// Default: "dark"
	Style string `mapstructure:"style"`

	// WordWrap is the column width for text wrapping.
	// Default: 100
	WordWrap int `mapstructure:"word_wrap"`
}

// PipelineConfig contains run-wide settings.
type PipelineConfig struct {
	// Timeout bounds the whole run. Zero means no timeout beyond the host's.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults work out of the box on an Ubuntu GitHub Actions runner without
// any configuration file.
func DefaultConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Root: ".",
		},
		Python: PythonConfig{
			Binary: "python3",
		},
		Provision: ProvisionConfig{
			Commands: []string{
				"sudo apt-get update",
				"sudo apt-get install -y fontforge python3-fontforge",
			},
			ModulePaths: []string{"/usr/lib/python3/dist-packages"},
			Module:      "fontforge",
		},
		Dependencies: DependenciesConfig{
			Packages: []string{"msgspec", "jinja2"},
		},
		Build: BuildConfig{
			Script:      "main.py",
			OutputDir:   "dist",
			Clean:       true,
			CheckInputs: true,
			InputsFile:  "config.toml",
			FontsDir:    "fonts",
		},
		Publish: PublishConfig{
			Changelog: "CHANGELOG.md",
			Include:   []string{"*"},
		},
		GitHub: GitHubConfig{
			TokenEnv: "GITHUB_TOKEN",
		},
		Output: OutputConfig{
			TruncateLength: 200,
			Markdown: MarkdownConfig{
				Enabled:  true,
				Style:    "dark",
				WordWrap: 100,
			},
		},
	}
}
