package analyzer

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
	"github.com/mvp-joe/project-census/internal/analyzer/parsers"
)

// Store accumulates the records of one run, keyed by file. Every mapping
// keeps keys in insertion order. A Store is owned by a single run and is
// read-only once the run completes.
type Store struct {
	modulePrefix string

	Classes    *orderedmap.OrderedMap[string, []extraction.ClassRecord]
	Functions  *orderedmap.OrderedMap[string, []extraction.FunctionRecord]
	Services   *orderedmap.OrderedMap[string, extraction.ServiceRecord]
	Components *orderedmap.OrderedMap[string, extraction.ComponentRecord]

	PythonFiles     []string
	TypeScriptFiles []string
	JavaScriptFiles []string

	// Extraction is the extractor kind of each family, in processing order.
	Extraction []ExtractionMode

	// pythonKeys marks the keys filled from grammar-family files.
	pythonKeys map[string]bool
}

// NewStore creates an empty store. modulePrefix is joined in front of
// grammar-family paths to form their keys; an empty prefix leaves them as is.
func NewStore(modulePrefix string) *Store {
	return &Store{
		modulePrefix:    modulePrefix,
		Classes:         orderedmap.New[string, []extraction.ClassRecord](),
		Functions:       orderedmap.New[string, []extraction.FunctionRecord](),
		Services:        orderedmap.New[string, extraction.ServiceRecord](),
		Components:      orderedmap.New[string, extraction.ComponentRecord](),
		PythonFiles:     []string{},
		TypeScriptFiles: []string{},
		JavaScriptFiles: []string{},
		pythonKeys:      make(map[string]bool),
	}
}

// SetInventory records the discovered file lists.
func (s *Store) SetInventory(inv *Inventory) {
	s.PythonFiles = append([]string{}, inv.Python...)
	s.TypeScriptFiles = append([]string{}, inv.TypeScript...)
	s.JavaScriptFiles = append([]string{}, inv.JavaScript...)
}

// PythonKey returns the store key of a grammar-family file.
func (s *Store) PythonKey(filePath string) string {
	if s.modulePrefix == "" {
		return filePath
	}
	return s.modulePrefix + "/" + filePath
}

// IsPythonKey reports whether key was filled from a grammar-family file.
func (s *Store) IsPythonKey(key string) bool {
	return s.pythonKeys[key]
}

// Add merges one file's extraction into the store.
func (s *Store) Add(file FileRecord, ext *parsers.FileExtraction) {
	if ext == nil {
		return
	}

	if file.Family == FamilyPython {
		s.AddPythonExtraction(file.Path, ext.Functions, ext.Classes)
		return
	}

	if ext.Service != nil {
		s.SetService(file.Path, *ext.Service)
	}
	if ext.Component != nil {
		s.SetComponent(file.Path, *ext.Component)
	}
	s.AddFunctions(file.Path, ext.Functions)
}

// AddPythonExtraction appends the functions and classes of a grammar-family
// file under its prefixed key. Keys are created only for non-empty lists.
func (s *Store) AddPythonExtraction(filePath string, functions []extraction.FunctionRecord, classes []extraction.ClassRecord) {
	key := s.PythonKey(filePath)
	if len(functions) > 0 {
		s.pythonKeys[key] = true
		s.AddFunctions(key, functions)
	}
	if len(classes) > 0 {
		s.pythonKeys[key] = true
		existing, _ := s.Classes.Get(key)
		s.Classes.Set(key, append(existing, classes...))
	}
}

// AddFunctions appends functions under key. Nothing is stored for an empty list.
func (s *Store) AddFunctions(key string, functions []extraction.FunctionRecord) {
	if len(functions) == 0 {
		return
	}
	existing, _ := s.Functions.Get(key)
	s.Functions.Set(key, append(existing, functions...))
}

// SetService stores the service of a file, replacing any earlier one.
func (s *Store) SetService(key string, service extraction.ServiceRecord) {
	s.Services.Set(key, service)
}

// SetComponent stores the component of a file, replacing any earlier one.
func (s *Store) SetComponent(key string, component extraction.ComponentRecord) {
	s.Components.Set(key, component)
}

// TotalClasses counts classes across all keys.
func (s *Store) TotalClasses() int {
	total := 0
	for pair := s.Classes.Oldest(); pair != nil; pair = pair.Next() {
		total += len(pair.Value)
	}
	return total
}

// TotalFunctions counts functions across all keys, both families.
func (s *Store) TotalFunctions() int {
	total := 0
	for pair := s.Functions.Oldest(); pair != nil; pair = pair.Next() {
		total += len(pair.Value)
	}
	return total
}

// TotalPythonFunctions counts functions under grammar-family keys only.
func (s *Store) TotalPythonFunctions() int {
	total := 0
	for pair := s.Functions.Oldest(); pair != nil; pair = pair.Next() {
		if s.pythonKeys[pair.Key] {
			total += len(pair.Value)
		}
	}
	return total
}

// Keys returns the keys of m in insertion order.
func Keys[V any](m *orderedmap.OrderedMap[string, V]) []string {
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// SortedKeys returns the keys of m in lexicographic order.
func SortedKeys[V any](m *orderedmap.OrderedMap[string, V]) []string {
	keys := Keys(m)
	sort.Strings(keys)
	return keys
}
