package config

import (
	"path/filepath"

	"github.com/mvp-joe/project-census/internal/analyzer"
	"github.com/mvp-joe/project-census/internal/manifest"
)

// Config represents the complete census configuration.
// It can be loaded from .census/config.yml with environment variable overrides.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Manifests ManifestsConfig `yaml:"manifests" mapstructure:"manifests"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
}

// PathsConfig defines which parts of the tree are walked.
type PathsConfig struct {
	ExcludeDirs      []string `yaml:"exclude_dirs" mapstructure:"exclude_dirs"`           // directory names never descended into
	Ignore           []string `yaml:"ignore" mapstructure:"ignore"`                       // glob patterns to ignore
	RespectGitignore bool     `yaml:"respect_gitignore" mapstructure:"respect_gitignore"` // honor the root .gitignore
}

// AnalysisConfig tunes extraction.
type AnalysisConfig struct {
	ModulePrefix        string `yaml:"module_prefix" mapstructure:"module_prefix"`               // prepended to Python file keys
	TypeScriptExtractor string `yaml:"typescript_extractor" mapstructure:"typescript_extractor"` // "pattern" or "grammar"
	CacheSize           int    `yaml:"cache_size" mapstructure:"cache_size"`                     // extractions kept between watch runs; 0 disables
}

// ManifestsConfig locates dependency manifests, relative to the root.
type ManifestsConfig struct {
	Backend  string `yaml:"backend" mapstructure:"backend"`
	Frontend string `yaml:"frontend" mapstructure:"frontend"`
	Python   string `yaml:"python" mapstructure:"python"`
}

// OutputConfig names the report files, relative to the root unless absolute.
type OutputConfig struct {
	Text string `yaml:"text" mapstructure:"text"`
	JSON string `yaml:"json" mapstructure:"json"`
}

// ReportConfig customizes report content.
type ReportConfig struct {
	Boilerplate string `yaml:"boilerplate" mapstructure:"boilerplate"` // YAML prose override; empty uses the built-in prose
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			ExcludeDirs:      append([]string{}, analyzer.DefaultExcludeDirs...),
			Ignore:           []string{},
			RespectGitignore: false,
		},
		Analysis: AnalysisConfig{
			ModulePrefix:        analyzer.DefaultModulePrefix,
			TypeScriptExtractor: analyzer.ExtractorPattern,
			CacheSize:           analyzer.DefaultCacheSize,
		},
		Manifests: ManifestsConfig{
			Backend:  manifest.DefaultPaths.Backend,
			Frontend: manifest.DefaultPaths.Frontend,
			Python:   manifest.DefaultPaths.Python,
		},
		Output: OutputConfig{
			Text: "PROJECT_ANALYSIS.md",
			JSON: "PROJECT_ANALYSIS.json",
		},
	}
}

// ToAnalyzerConfig converts the configuration into an analyzer run config
// rooted at rootDir.
func (c *Config) ToAnalyzerConfig(rootDir string) *analyzer.Config {
	return &analyzer.Config{
		RootDir:             rootDir,
		ExcludeDirs:         c.Paths.ExcludeDirs,
		IgnorePatterns:      c.Paths.Ignore,
		RespectGitignore:    c.Paths.RespectGitignore,
		ModulePrefix:        c.Analysis.ModulePrefix,
		TypeScriptExtractor: c.Analysis.TypeScriptExtractor,
		CacheSize:           c.Analysis.CacheSize,
	}
}

// ManifestPaths returns the manifest locations for manifest.ReadTechStack.
func (c *Config) ManifestPaths() manifest.Paths {
	return manifest.Paths{
		Backend:  c.Manifests.Backend,
		Frontend: c.Manifests.Frontend,
		Python:   c.Manifests.Python,
	}
}

// OutputPaths resolves the report file paths against rootDir.
func (c *Config) OutputPaths(rootDir string) (textPath, jsonPath string) {
	return resolvePath(rootDir, c.Output.Text), resolvePath(rootDir, c.Output.JSON)
}

// BoilerplatePath resolves the boilerplate override against rootDir, or
// returns "" when none is configured.
func (c *Config) BoilerplatePath(rootDir string) string {
	if c.Report.Boilerplate == "" {
		return ""
	}
	return resolvePath(rootDir, c.Report.Boilerplate)
}

func resolvePath(rootDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, filepath.FromSlash(path))
}
