package parsers

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
)

// typeScriptParser is the grammar-based alternative to the pattern extractor
// for TypeScript. It applies the same filename conventions but reads
// declarations from the syntax tree.
type typeScriptParser struct {
	*treeSitterParser
}

// NewTypeScriptParser creates a new TypeScript parser.
func NewTypeScriptParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "typescript"),
	}
}

// Exact reports that TypeScript extraction is grammar based.
func (p *typeScriptParser) Exact() bool { return true }

// Extract parses a TypeScript source file.
func (p *typeScriptParser) Extract(ctx context.Context, filePath string, source []byte) (*FileExtraction, error) {
	tree, err := p.parse(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	exports := exportStatements(tree.RootNode())
	result := &FileExtraction{FilePath: filePath}

	switch ConventionFor(filePath) {
	case ConventionService:
		result.Service = p.extractService(exports, filePath, source)
	case ConventionComponent:
		result.Component = p.extractComponent(exports, filePath, source)
	default:
		result.Functions = p.extractFunctions(exports, source)
	}

	return result, ctx.Err()
}

// exportedDeclaration pairs an exported declaration with the decorators
// written in front of it.
type exportedDeclaration struct {
	decl       *sitter.Node
	decorators []*sitter.Node
}

// exportStatements collects named exports in source order. Default exports
// are skipped.
func exportStatements(root *sitter.Node) []exportedDeclaration {
	var exports []exportedDeclaration
	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() != "export_statement" {
			return true
		}
		if findChildByType(n, "default") != nil {
			return false
		}

		decl := n.ChildByFieldName("declaration")
		if decl == nil {
			return false
		}
		decorators := findChildrenByType(n, "decorator")
		decorators = append(decorators, findChildrenByType(decl, "decorator")...)
		exports = append(exports, exportedDeclaration{decl: decl, decorators: decorators})
		return false
	})
	return exports
}

// firstExportedClass returns the first exported class declaration, or false.
func firstExportedClass(exports []exportedDeclaration) (exportedDeclaration, bool) {
	for _, e := range exports {
		switch e.decl.Kind() {
		case "class_declaration", "abstract_class_declaration":
			return e, true
		}
	}
	return exportedDeclaration{}, false
}

func (p *typeScriptParser) extractService(exports []exportedDeclaration, filePath string, source []byte) *extraction.ServiceRecord {
	class, ok := firstExportedClass(exports)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	methods := []string{}
	for _, member := range namedChildren(class.decl.ChildByFieldName("body")) {
		if member.Kind() != "method_definition" {
			continue
		}
		name := extractNodeText(member.ChildByFieldName("name"), source)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		methods = append(methods, name)
	}

	return &extraction.ServiceRecord{
		Name:    extractNodeText(class.decl.ChildByFieldName("name"), source),
		Methods: methods,
		File:    filePath,
	}
}

func (p *typeScriptParser) extractComponent(exports []exportedDeclaration, filePath string, source []byte) *extraction.ComponentRecord {
	class, ok := firstExportedClass(exports)
	if !ok {
		return nil
	}

	component := &extraction.ComponentRecord{
		Name:         extractNodeText(class.decl.ChildByFieldName("name"), source),
		File:         filePath,
		Selectors:    []string{},
		TemplateURLs: []string{},
		StyleURLs:    []string{},
	}

	for _, pair := range componentMetadata(class.decorators, source) {
		key := propertyKey(pair.ChildByFieldName("key"), source)
		value := pair.ChildByFieldName("value")
		switch key {
		case "selector":
			if s, ok := stringValue(value, source); ok {
				component.Selectors = append(component.Selectors, s)
			}
		case "templateUrl":
			if s, ok := stringValue(value, source); ok {
				component.TemplateURLs = append(component.TemplateURLs, s)
			}
		case "styleUrls":
			if value == nil || value.Kind() != "array" {
				continue
			}
			if elems := namedChildren(value); len(elems) > 0 {
				if s, ok := stringValue(elems[0], source); ok {
					component.StyleURLs = append(component.StyleURLs, s)
				}
			}
		}
	}

	return component
}

// componentMetadata returns the pairs of the object literal passed to the
// @Component decorator.
func componentMetadata(decorators []*sitter.Node, source []byte) []*sitter.Node {
	for _, dec := range decorators {
		call := findChildByType(dec, "call_expression")
		if call == nil || extractNodeText(call.ChildByFieldName("function"), source) != "Component" {
			continue
		}
		for _, arg := range namedChildren(call.ChildByFieldName("arguments")) {
			if arg.Kind() == "object" {
				return findChildrenByType(arg, "pair")
			}
		}
	}
	return nil
}

func (p *typeScriptParser) extractFunctions(exports []exportedDeclaration, source []byte) []extraction.FunctionRecord {
	var functions []extraction.FunctionRecord
	for _, e := range exports {
		if e.decl.Kind() != "function_declaration" {
			continue
		}

		params := []string{}
		for _, param := range namedChildren(e.decl.ChildByFieldName("parameters")) {
			params = append(params, extractNodeText(param, source))
		}

		functions = append(functions, extraction.FunctionRecord{
			Name:   extractNodeText(e.decl.ChildByFieldName("name"), source),
			Line:   nodeLine(e.decl),
			Params: params,
			Kind:   extraction.KindFunction,
			Origin: extraction.OriginGrammar,
		})
	}
	return functions
}

// propertyKey returns an object key as written, without quotes.
func propertyKey(key *sitter.Node, source []byte) string {
	if key == nil {
		return ""
	}
	if s, ok := stringValue(key, source); ok {
		return s
	}
	return extractNodeText(key, source)
}

// stringValue returns the contents of a quoted string literal.
func stringValue(node *sitter.Node, source []byte) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}
	text := extractNodeText(node, source)
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}
