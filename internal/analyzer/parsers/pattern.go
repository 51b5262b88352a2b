package parsers

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
)

var (
	exportClassRe    = regexp.MustCompile(`export class (\w+)`)
	serviceMethodRe  = regexp.MustCompile(`(?m)^ {2}(\w+)\s*\([^)]*\)\s*(?::|\{)`)
	selectorRe       = regexp.MustCompile(`selector:\s*['"]([^'"]+)['"]`)
	templateURLRe    = regexp.MustCompile(`templateUrl:\s*['"]([^'"]+)['"]`)
	styleURLsRe      = regexp.MustCompile(`styleUrls:\s*\[\s*['"]([^'"]+)['"]`)
	exportFunctionRe = regexp.MustCompile(`export\s+(?:async\s+)?function\s+(\w+)\s*\(([^)]*)\)`)
)

// Filename convention markers. A file follows a convention when its path
// contains the marker immediately followed by the file's own extension.
const (
	serviceMarker   = "service"
	componentMarker = "component"
)

// Convention is the extraction policy selected for a pattern-family file.
type Convention int

const (
	ConventionGeneric Convention = iota
	ConventionService
	ConventionComponent
)

func (c Convention) String() string {
	switch c {
	case ConventionService:
		return "service"
	case ConventionComponent:
		return "component"
	default:
		return "generic"
	}
}

// ConventionFor selects the policy for filePath. The service convention wins
// over the component convention.
func ConventionFor(filePath string) Convention {
	ext := path.Ext(filePath)
	switch {
	case strings.Contains(filePath, serviceMarker+ext):
		return ConventionService
	case strings.Contains(filePath, componentMarker+ext):
		return ConventionComponent
	default:
		return ConventionGeneric
	}
}

// patternExtractor extracts services, components and exported functions from
// TypeScript and JavaScript text with regular expressions. Results are
// approximate: nothing is parsed.
type patternExtractor struct{}

// NewPatternExtractor creates a new regex-based extractor.
func NewPatternExtractor() *patternExtractor {
	return &patternExtractor{}
}

// Exact reports that pattern extraction is heuristic.
func (e *patternExtractor) Exact() bool { return false }

// Extract applies the policy selected by the file's naming convention.
func (e *patternExtractor) Extract(ctx context.Context, filePath string, source []byte) (result *FileExtraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%s: pattern extraction panicked: %v", filePath, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("%s: %w", filePath, ErrInvalidUTF8)
	}

	content := string(source)
	result = &FileExtraction{FilePath: filePath}

	switch ConventionFor(filePath) {
	case ConventionService:
		result.Service = extractService(content, filePath)
	case ConventionComponent:
		result.Component = extractComponent(content, filePath)
	default:
		result.Functions = extractExportedFunctions(content)
	}

	return result, nil
}

// extractService returns nil when the file declares no exported class.
func extractService(content, filePath string) *extraction.ServiceRecord {
	class := exportClassRe.FindStringSubmatch(content)
	if class == nil {
		return nil
	}

	seen := make(map[string]bool)
	methods := []string{}
	for _, m := range serviceMethodRe.FindAllStringSubmatch(content, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		methods = append(methods, m[1])
	}

	return &extraction.ServiceRecord{
		Name:    class[1],
		Methods: methods,
		File:    filePath,
	}
}

// extractComponent returns nil when the file declares no exported class.
// The decorator fields are matched independently across the whole text.
func extractComponent(content, filePath string) *extraction.ComponentRecord {
	class := exportClassRe.FindStringSubmatch(content)
	if class == nil {
		return nil
	}

	return &extraction.ComponentRecord{
		Name:         class[1],
		File:         filePath,
		Selectors:    allGroups(selectorRe, content),
		TemplateURLs: allGroups(templateURLRe, content),
		StyleURLs:    allGroups(styleURLsRe, content),
	}
}

// extractExportedFunctions returns nil when nothing matches. Parameter text is
// split on commas as-is, so an empty list yields a single empty string.
func extractExportedFunctions(content string) []extraction.FunctionRecord {
	var functions []extraction.FunctionRecord
	for _, m := range exportFunctionRe.FindAllStringSubmatch(content, -1) {
		functions = append(functions, extraction.FunctionRecord{
			Name:   m[1],
			Params: strings.Split(m[2], ","),
			Kind:   extraction.KindFunction,
			Origin: extraction.OriginPattern,
		})
	}
	return functions
}

// allGroups returns the first capture group of every match, never nil.
func allGroups(re *regexp.Regexp, content string) []string {
	groups := []string{}
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		groups = append(groups, m[1])
	}
	return groups
}
