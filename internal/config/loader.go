package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every fontrelease environment variable.
const EnvPrefix = "FONTRELEASE"

// DefaultConfigFile is the config file looked up in the working directory.
const DefaultConfigFile = "fontrelease.yaml"

// Loader handles Viper-based configuration loading.
//
// Create with [NewLoader]. A Loader is single-use: each Load or LoadFromFile
// call starts from a fresh Viper instance seeded with [DefaultConfig].
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new [Loader].
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load reads configuration from the environment and the first config file found.
//
// FONTRELEASE_CONFIG_PATH takes priority over ./fontrelease.yaml. A missing
// default config file is not an error; a missing explicit one is.
func (l *Loader) Load() (*Config, error) {
	l.setup()

	if path := os.Getenv(EnvPrefix + "_CONFIG_PATH"); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return l.unmarshal()
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		l.v.SetConfigFile(DefaultConfigFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", DefaultConfigFile, err)
		}
	}

	return l.unmarshal()
}

// LoadFromFile reads configuration from an explicit file path.
//
// The file format is taken from the extension; files without a YAML extension
// are parsed as YAML anyway. Environment overrides still apply.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.setup()

	l.v.SetConfigFile(path)
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext != "yaml" && ext != "yml" && ext != "json" && ext != "toml" {
		l.v.SetConfigType("yaml")
	}
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return l.unmarshal()
}

func (l *Loader) setup() {
	d := DefaultConfig()
	v := l.v

	v.SetDefault("repository.root", d.Repository.Root)
	v.SetDefault("repository.slug", d.Repository.Slug)
	v.SetDefault("python.binary", d.Python.Binary)
	v.SetDefault("provision.commands", d.Provision.Commands)
	v.SetDefault("provision.module_paths", d.Provision.ModulePaths)
	v.SetDefault("provision.module", d.Provision.Module)
	v.SetDefault("dependencies.packages", d.Dependencies.Packages)
	v.SetDefault("dependencies.pip_args", d.Dependencies.PipArgs)
	v.SetDefault("build.script", d.Build.Script)
	v.SetDefault("build.output_dir", d.Build.OutputDir)
	v.SetDefault("build.clean", d.Build.Clean)
	v.SetDefault("build.check_inputs", d.Build.CheckInputs)
	v.SetDefault("build.inputs_file", d.Build.InputsFile)
	v.SetDefault("build.fonts_dir", d.Build.FontsDir)
	v.SetDefault("publish.changelog", d.Publish.Changelog)
	v.SetDefault("publish.include", d.Publish.Include)
	v.SetDefault("github.api_url", d.GitHub.APIURL)
	v.SetDefault("github.upload_url", d.GitHub.UploadURL)
	v.SetDefault("github.token_env", d.GitHub.TokenEnv)
	v.SetDefault("output.truncate_length", d.Output.TruncateLength)
	v.SetDefault("output.github_actions", d.Output.GitHubActions)
	v.SetDefault("output.markdown.enabled", d.Output.Markdown.Enabled)
	v.SetDefault("output.markdown.style", d.Output.Markdown.Style)
	v.SetDefault("output.markdown.word_wrap", d.Output.Markdown.WordWrap)
	v.SetDefault("pipeline.timeout", d.Pipeline.Timeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short aliases and runner-provided variables.
	_ = v.BindEnv("python.binary", EnvPrefix+"_PYTHON", EnvPrefix+"_PYTHON_BINARY")
	_ = v.BindEnv("repository.root", EnvPrefix+"_ROOT", EnvPrefix+"_REPOSITORY_ROOT", "GITHUB_WORKSPACE")
	_ = v.BindEnv("repository.slug", EnvPrefix+"_REPOSITORY", EnvPrefix+"_REPOSITORY_SLUG", "GITHUB_REPOSITORY")
	_ = v.BindEnv("github.api_url", EnvPrefix+"_GITHUB_API_URL", "GITHUB_API_URL")
	_ = v.BindEnv("output.github_actions", EnvPrefix+"_OUTPUT_GITHUB_ACTIONS", "GITHUB_ACTIONS")
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that would make every run fail.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Python.Binary) == "":
		return errors.New("python.binary must not be empty")
	case strings.TrimSpace(c.Build.Script) == "":
		return errors.New("build.script must not be empty")
	case strings.TrimSpace(c.Build.OutputDir) == "":
		return errors.New("build.output_dir must not be empty")
	case strings.TrimSpace(c.Publish.Changelog) == "":
		return errors.New("publish.changelog must not be empty")
	case len(c.Publish.Include) == 0:
		return errors.New("publish.include must list at least one pattern")
	case strings.TrimSpace(c.GitHub.TokenEnv) == "":
		return errors.New("github.token_env must not be empty")
	case c.Pipeline.Timeout < 0:
		return errors.New("pipeline.timeout must not be negative")
	}
	return nil
}

// Path resolves a repository-relative path against [RepositoryConfig.Root].
// Absolute paths are returned unchanged.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	root := c.Repository.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, rel)
}
