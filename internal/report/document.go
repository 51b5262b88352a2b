package report

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mvp-joe/project-census/internal/analyzer"
	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
)

// Sample bounds of the structured document.
const (
	maxDocumentKeys      = 10
	maxModuleFunctions   = 5
	moduleDocstringLimit = 100
)

// CodebaseStats are the whole-store counts of the structured document.
type CodebaseStats struct {
	PythonFiles     int `json:"python_files"`
	TypeScriptFiles int `json:"typescript_files"`
	JavaScriptFiles int `json:"javascript_files"`
	TotalClasses    int `json:"total_classes"`
	TotalFunctions  int `json:"total_functions"`
	TotalComponents int `json:"total_components"`
	TotalServices   int `json:"total_services"`
}

// ModuleFunction is one sampled function entry under python_modules.
type ModuleFunction struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Args      []string `json:"args"`
	Docstring string   `json:"docstring"`
}

// Architecture is the fixed architecture summary.
type Architecture struct {
	Layers   *orderedmap.OrderedMap[string, string] `json:"layers"`
	Features []string                               `json:"features"`
}

// Document is the machine-readable analysis summary. Counts cover the whole
// store while the mappings are bounded samples of it.
type Document struct {
	Project         string                                                     `json:"project"`
	Description     string                                                     `json:"description"`
	CodebaseStats   CodebaseStats                                              `json:"codebase_stats"`
	TechnologyStack *orderedmap.OrderedMap[string, []string]                   `json:"technology_stack"`
	CoreModules     *orderedmap.OrderedMap[string, string]                     `json:"core_modules"`
	PythonModules   *orderedmap.OrderedMap[string, []ModuleFunction]           `json:"python_modules"`
	Services        *orderedmap.OrderedMap[string, extraction.ServiceRecord]   `json:"services"`
	Components      *orderedmap.OrderedMap[string, extraction.ComponentRecord] `json:"components"`
	Architecture    Architecture                                               `json:"architecture"`
}

// BuildDocument assembles the structured document from a completed store.
func BuildDocument(store *analyzer.Store, bp *Boilerplate) *Document {
	doc := &Document{
		Project:     bp.Project,
		Description: bp.Description,
		CodebaseStats: CodebaseStats{
			PythonFiles:     len(store.PythonFiles),
			TypeScriptFiles: len(store.TypeScriptFiles),
			JavaScriptFiles: len(store.JavaScriptFiles),
			TotalClasses:    store.TotalClasses(),
			TotalFunctions:  store.TotalFunctions(),
			TotalComponents: store.Components.Len(),
			TotalServices:   store.Services.Len(),
		},
		TechnologyStack: orderedmap.New[string, []string](),
		CoreModules:     orderedmap.New[string, string](),
		PythonModules:   orderedmap.New[string, []ModuleFunction](),
		Services:        orderedmap.New[string, extraction.ServiceRecord](),
		Components:      orderedmap.New[string, extraction.ComponentRecord](),
		Architecture: Architecture{
			Layers:   orderedmap.New[string, string](),
			Features: append([]string{}, bp.Document.Features...),
		},
	}

	for _, group := range bp.Document.TechnologyStack {
		doc.TechnologyStack.Set(group.Heading, append([]string{}, group.Items...))
	}
	for _, module := range bp.Document.CoreModules {
		doc.CoreModules.Set(module.Name, module.Description)
	}
	for _, layer := range bp.Document.Layers {
		doc.Architecture.Layers.Set(layer.Name, layer.Description)
	}

	for _, key := range head(analyzer.Keys(store.Functions), maxDocumentKeys) {
		functions, _ := store.Functions.Get(key)
		python := store.IsPythonKey(key)

		entries := make([]ModuleFunction, 0, maxModuleFunctions)
		for _, fn := range functions[:min(len(functions), maxModuleFunctions)] {
			entry := ModuleFunction{Name: fn.Name, Type: fn.Kind, Args: []string{}}
			if entry.Type == "" {
				entry.Type = extraction.KindFunction
			}
			if python {
				entry.Args = append(entry.Args, fn.Params...)
				entry.Docstring = truncate(fn.Doc.OrMarker(), moduleDocstringLimit)
			}
			entries = append(entries, entry)
		}
		doc.PythonModules.Set(key, entries)
	}

	for _, key := range head(analyzer.Keys(store.Services), maxDocumentKeys) {
		service, _ := store.Services.Get(key)
		doc.Services.Set(key, service)
	}
	for _, key := range head(analyzer.Keys(store.Components), maxDocumentKeys) {
		component, _ := store.Components.Get(key)
		doc.Components.Set(key, component)
	}

	return doc
}

// MarshalIndent encodes the document with two-space indentation and without
// HTML escaping. The result has no trailing newline.
func (d *Document) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
