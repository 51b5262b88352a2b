package analyzer

import "path"

// Family classifies source files by extraction strategy.
type Family string

const (
	FamilyPython     Family = "python"
	FamilyTypeScript Family = "typescript"
	FamilyJavaScript Family = "javascript"
)

// familySuffixes maps filename suffixes to families.
var familySuffixes = map[string]Family{
	".py": FamilyPython,
	".ts": FamilyTypeScript,
	".js": FamilyJavaScript,
}

// FamilyOf returns the family of a path by suffix, or false.
func FamilyOf(filePath string) (Family, bool) {
	f, ok := familySuffixes[path.Ext(filePath)]
	return f, ok
}

// FileRecord is one discovered source file.
type FileRecord struct {
	Path   string // slash-separated, relative to the project root
	Family Family
}

// Inventory holds the discovered files per family in walk order.
type Inventory struct {
	Python     []string
	TypeScript []string
	JavaScript []string
}

// Records returns every discovered file, grammar family first, in the order
// the pipeline processes them.
func (inv *Inventory) Records() []FileRecord {
	records := make([]FileRecord, 0, inv.Total())
	for _, p := range inv.Python {
		records = append(records, FileRecord{Path: p, Family: FamilyPython})
	}
	for _, p := range inv.TypeScript {
		records = append(records, FileRecord{Path: p, Family: FamilyTypeScript})
	}
	for _, p := range inv.JavaScript {
		records = append(records, FileRecord{Path: p, Family: FamilyJavaScript})
	}
	return records
}

// ExtractionMode records whether a family's extractor works from a full
// grammar parse or approximates from raw text.
type ExtractionMode struct {
	Family Family
	Exact  bool
}

func (m ExtractionMode) String() string {
	if m.Exact {
		return string(m.Family) + " (exact)"
	}
	return string(m.Family) + " (approximate)"
}

// Total returns the number of discovered files.
func (inv *Inventory) Total() int {
	return len(inv.Python) + len(inv.TypeScript) + len(inv.JavaScript)
}

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{"node_modules", "venv", "env", "__pycache__", ".venv"}

// DefaultModulePrefix is the logical module marker prepended to
// grammar-family keys.
const DefaultModulePrefix = "climatemaps"

// DefaultCacheSize is the number of file extractions kept between runs.
const DefaultCacheSize = 4096

// TypeScript extractor selections.
const (
	ExtractorPattern = "pattern"
	ExtractorGrammar = "grammar"
)

// Config configures one analysis run.
type Config struct {
	RootDir             string
	ExcludeDirs         []string
	IgnorePatterns      []string
	RespectGitignore    bool
	ModulePrefix        string
	TypeScriptExtractor string // ExtractorPattern or ExtractorGrammar
	CacheSize           int    // extractions kept between runs; 0 disables the cache
}

// Stats summarizes a completed run.
type Stats struct {
	PythonFiles     int
	TypeScriptFiles int
	JavaScriptFiles int
	FilesAnalyzed   int
	FilesSkipped    int
	FilesCached     int // analyzed files served from the extraction cache
	Classes         int
	Functions       int
	Services        int
	Components      int
	DurationSeconds float64
}
