package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/project-census/internal/analyzer/parsers"
)

// Analyzer runs the discovery, extraction and aggregation pipeline over one
// project tree. Runs are sequential; each Run builds a fresh Store.
// Successful extractions are cached by path and content hash, so repeated
// runs over a mostly unchanged tree only re-parse the files that changed.
type Analyzer struct {
	config     *Config
	discovery  *FileDiscovery
	extractors map[Family]parsers.Extractor
	progress   ProgressReporter
	cache      *otter.Cache[string, *parsers.FileExtraction]
}

// New creates a new analyzer instance.
func New(config *Config) (*Analyzer, error) {
	return NewWithProgress(config, &NoOpProgressReporter{})
}

// NewWithProgress creates a new analyzer instance with a custom progress reporter.
func NewWithProgress(config *Config, progress ProgressReporter) (*Analyzer, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	discovery, err := NewFileDiscovery(config.RootDir, DiscoveryOptions{
		ExcludeDirs:      config.ExcludeDirs,
		IgnorePatterns:   config.IgnorePatterns,
		RespectGitignore: config.RespectGitignore,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}

	var typescriptExtractor parsers.Extractor
	switch config.TypeScriptExtractor {
	case "", ExtractorPattern:
		typescriptExtractor = parsers.NewPatternExtractor()
	case ExtractorGrammar:
		typescriptExtractor = parsers.NewTypeScriptParser()
	default:
		return nil, fmt.Errorf("unknown typescript extractor %q", config.TypeScriptExtractor)
	}

	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	var cache *otter.Cache[string, *parsers.FileExtraction]
	if config.CacheSize > 0 {
		c, err := otter.MustBuilder[string, *parsers.FileExtraction](config.CacheSize).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create extraction cache: %w", err)
		}
		cache = &c
	}

	return &Analyzer{
		config:    config,
		discovery: discovery,
		extractors: map[Family]parsers.Extractor{
			FamilyPython:     parsers.NewPythonParser(),
			FamilyTypeScript: typescriptExtractor,
			FamilyJavaScript: parsers.NewPatternExtractor(),
		},
		progress: progress,
		cache:    cache,
	}, nil
}

// Close releases the extraction cache.
func (a *Analyzer) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// ExtractionModes reports the extractor kind of each family in processing
// order.
func (a *Analyzer) ExtractionModes() []ExtractionMode {
	families := []Family{FamilyPython, FamilyTypeScript, FamilyJavaScript}
	modes := make([]ExtractionMode, 0, len(families))
	for _, family := range families {
		modes = append(modes, ExtractionMode{Family: family, Exact: a.extractors[family].Exact()})
	}
	return modes
}

// Run discovers and extracts every source file and returns the populated
// store. A file that cannot be read or parsed is reported once through
// OnFileSkipped, logged as a warning and left out; it never fails the run.
// Cancellation is checked between files.
func (a *Analyzer) Run(ctx context.Context) (*Store, *Stats, error) {
	start := time.Now()

	a.progress.OnDiscoveryStart()
	inventory, err := a.discovery.DiscoverFiles()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover files: %w", err)
	}
	a.progress.OnDiscoveryComplete(len(inventory.Python), len(inventory.TypeScript), len(inventory.JavaScript))

	store := NewStore(a.config.ModulePrefix)
	store.SetInventory(inventory)
	store.Extraction = a.ExtractionModes()

	stats := &Stats{
		PythonFiles:     len(inventory.Python),
		TypeScriptFiles: len(inventory.TypeScript),
		JavaScriptFiles: len(inventory.JavaScript),
	}

	records := inventory.Records()
	a.progress.OnFileProcessingStart(len(records))

	for _, file := range records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		ext, cached, err := a.extractFile(ctx, file)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			log.Printf("Warning: failed to analyze %s: %v\n", file.Path, err)
			a.progress.OnFileSkipped(file.Path, err)
			stats.FilesSkipped++
			continue
		}

		store.Add(file, ext)
		stats.FilesAnalyzed++
		if cached {
			stats.FilesCached++
		}
		a.progress.OnFileProcessed(file.Path)
	}

	stats.Classes = store.TotalClasses()
	stats.Functions = store.TotalFunctions()
	stats.Services = store.Services.Len()
	stats.Components = store.Components.Len()
	stats.DurationSeconds = time.Since(start).Seconds()

	a.progress.OnComplete(stats)
	return store, stats, nil
}

// extractFile reads one file and runs the extractor of its family, or
// returns the cached extraction of identical content. Panics inside an
// extractor are converted to errors. Failures are never cached.
func (a *Analyzer) extractFile(ctx context.Context, file FileRecord) (ext *parsers.FileExtraction, cached bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext, cached = nil, false
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()

	extractor, ok := a.extractors[file.Family]
	if !ok {
		return nil, false, fmt.Errorf("no extractor for family %q", file.Family)
	}

	source, err := os.ReadFile(filepath.Join(a.config.RootDir, filepath.FromSlash(file.Path)))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}

	key := cacheKey(file, source)
	if a.cache != nil {
		if hit, ok := a.cache.Get(key); ok {
			return hit, true, nil
		}
	}

	ext, err = extractor.Extract(ctx, file.Path, source)
	if err != nil {
		return nil, false, err
	}
	if a.cache != nil {
		a.cache.Set(key, ext)
	}
	return ext, false, nil
}

// cacheKey identifies a file's content under its family and path.
func cacheKey(file FileRecord, source []byte) string {
	hash := sha256.Sum256(source)
	return string(file.Family) + ":" + file.Path + ":" + hex.EncodeToString(hash[:])
}
