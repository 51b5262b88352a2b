package parsers

import (
	"context"
	"errors"

	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
)

var (
	// ErrParseFailed indicates the source could not be parsed into a clean syntax tree.
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidUTF8 indicates the source is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// FileExtraction holds every record extracted from a single file.
// Service and Component are nil when the file yields none.
type FileExtraction struct {
	FilePath  string
	Functions []extraction.FunctionRecord
	Classes   []extraction.ClassRecord
	Service   *extraction.ServiceRecord
	Component *extraction.ComponentRecord
}

// Extractor turns the raw text of one file into structural records.
// filePath is the slash-separated path relative to the project root; pattern
// extractors use it to select a policy by filename convention.
type Extractor interface {
	Extract(ctx context.Context, filePath string, source []byte) (*FileExtraction, error)

	// Exact reports whether the extractor works from a full grammar parse
	// (true) or from heuristics over raw text (false).
	Exact() bool
}
