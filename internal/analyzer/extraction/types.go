package extraction

// NoDocumentation is the marker rendered in place of a missing docstring.
const NoDocumentation = "No documentation"

// KindFunction is the kind tag carried by every FunctionRecord.
const KindFunction = "Function"

// Origin records which extraction path produced a record.
type Origin string

const (
	OriginGrammar Origin = "grammar" // exact, from a full syntax tree
	OriginPattern Origin = "pattern" // approximate, from regular expressions over raw text
)

// Documentation is an optional docstring. Present is false when the
// declaration carries no documentation at all.
type Documentation struct {
	Text    string
	Present bool
}

// Doc returns a present Documentation holding text.
func Doc(text string) Documentation {
	return Documentation{Text: text, Present: true}
}

// OrMarker returns the docstring text, or NoDocumentation when absent.
func (d Documentation) OrMarker() string {
	if !d.Present {
		return NoDocumentation
	}
	return d.Text
}

// FunctionRecord represents a free function.
type FunctionRecord struct {
	Name   string
	Line   int      // 1-indexed; zero for pattern-extracted records
	Params []string // grammar: positional parameter names; pattern: raw comma-split text
	Doc    Documentation
	Kind   string
	Origin Origin
}

// MethodRecord represents a function declared directly in a class body.
type MethodRecord struct {
	Name   string
	Params []string
	Doc    Documentation
}

// ClassRecord represents a class declaration and its direct methods.
type ClassRecord struct {
	Name    string
	Line    int
	Doc     Documentation
	Methods []MethodRecord
}

// ServiceRecord represents a service-like class found by filename convention.
type ServiceRecord struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"` // distinct, in order of first appearance
	File    string   `json:"file"`
}

// ComponentRecord represents a component-like class found by filename convention.
// The list fields are never nil.
type ComponentRecord struct {
	Name         string   `json:"name"`
	File         string   `json:"file"`
	Selectors    []string `json:"selectors"`
	TemplateURLs []string `json:"templateUrl"`
	StyleURLs    []string `json:"styleUrls"`
}
