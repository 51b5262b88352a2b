package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// LoaderOption customizes a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads configuration from an explicit file instead of
// searching the root's .census directory. A missing explicit file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{
		rootDir: rootDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CENSUS_*)
// 2. Config file (.census/config.yml or .census/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".census"))
	}

	// CENSUS_ANALYSIS_MODULE_PREFIX overrides analysis.module_prefix
	v.SetEnvPrefix("CENSUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// bindEnvVars binds every config key to its environment variable.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("paths.exclude_dirs")
	v.BindEnv("paths.ignore")
	v.BindEnv("paths.respect_gitignore")

	v.BindEnv("analysis.module_prefix")
	v.BindEnv("analysis.typescript_extractor")
	v.BindEnv("analysis.cache_size")

	v.BindEnv("manifests.backend")
	v.BindEnv("manifests.frontend")
	v.BindEnv("manifests.python")

	v.BindEnv("output.text")
	v.BindEnv("output.json")

	v.BindEnv("report.boilerplate")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.exclude_dirs", defaults.Paths.ExcludeDirs)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)
	v.SetDefault("paths.respect_gitignore", defaults.Paths.RespectGitignore)

	v.SetDefault("analysis.module_prefix", defaults.Analysis.ModulePrefix)
	v.SetDefault("analysis.typescript_extractor", defaults.Analysis.TypeScriptExtractor)
	v.SetDefault("analysis.cache_size", defaults.Analysis.CacheSize)

	v.SetDefault("manifests.backend", defaults.Manifests.Backend)
	v.SetDefault("manifests.frontend", defaults.Manifests.Frontend)
	v.SetDefault("manifests.python", defaults.Manifests.Python)

	v.SetDefault("output.text", defaults.Output.Text)
	v.SetDefault("output.json", defaults.Output.JSON)

	v.SetDefault("report.boilerplate", defaults.Report.Boilerplate)
}
