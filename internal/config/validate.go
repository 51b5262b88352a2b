package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/project-census/internal/analyzer"
)

var (
	// ErrInvalidExtractor indicates an unsupported TypeScript extractor
	ErrInvalidExtractor = errors.New("invalid typescript extractor")

	// ErrInvalidPattern indicates an ignore pattern that does not compile
	ErrInvalidPattern = errors.New("invalid ignore pattern")

	// ErrInvalidExcludeDir indicates an exclude entry that is not a plain directory name
	ErrInvalidExcludeDir = errors.New("invalid exclude directory")

	// ErrInvalidCacheSize indicates a negative extraction cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrEmptyOutput indicates a missing report output path
	ErrEmptyOutput = errors.New("empty output path")

	// ErrOutputConflict indicates both reports would be written to the same file
	ErrOutputConflict = errors.New("conflicting output paths")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		errs = append(errs, err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	for _, dir := range cfg.ExcludeDirs {
		if strings.TrimSpace(dir) == "" || strings.ContainsAny(dir, `/\`) {
			errs = append(errs, fmt.Errorf("%w: must be a bare directory name, got '%s'", ErrInvalidExcludeDir, dir))
		}
	}

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s': %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateAnalysis(cfg *AnalysisConfig) error {
	var errs []error

	extractor := strings.ToLower(cfg.TypeScriptExtractor)
	if extractor != analyzer.ExtractorPattern && extractor != analyzer.ExtractorGrammar {
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'",
			ErrInvalidExtractor, analyzer.ExtractorPattern, analyzer.ExtractorGrammar, cfg.TypeScriptExtractor))
	} else {
		cfg.TypeScriptExtractor = extractor
	}

	if cfg.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: must be 0 or greater, got %d", ErrInvalidCacheSize, cfg.CacheSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Text) == "" {
		errs = append(errs, fmt.Errorf("%w: output.text is required", ErrEmptyOutput))
	}

	if strings.TrimSpace(cfg.JSON) == "" {
		errs = append(errs, fmt.Errorf("%w: output.json is required", ErrEmptyOutput))
	}

	if cfg.Text != "" && filepath.Clean(cfg.Text) == filepath.Clean(cfg.JSON) {
		errs = append(errs, fmt.Errorf("%w: text and json reports both target '%s'", ErrOutputConflict, cfg.Text))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// The result still matches every sentinel it wraps.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return &validationError{errs: errs}
}

type validationError struct {
	errs []error
}

func (e *validationError) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *validationError) Unwrap() []error {
	return e.errs
}
