package parsers

import (
	"context"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
)

// pythonParser extracts functions and classes from Python files using the
// tree-sitter Python grammar.
type pythonParser struct {
	*treeSitterParser
}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *pythonParser {
	lang := sitter.NewLanguage(python.Language())
	return &pythonParser{
		treeSitterParser: newTreeSitterParser(lang, "python"),
	}
}

// Exact reports that Python extraction is grammar based.
func (p *pythonParser) Exact() bool { return true }

// Extract parses a Python source file and returns a FunctionRecord for every
// function definition in the tree (nested ones included) and a ClassRecord for
// every class definition. Records follow breadth-first statement order.
func (p *pythonParser) Extract(ctx context.Context, filePath string, source []byte) (*FileExtraction, error) {
	tree, err := p.parse(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if node, reason := python2Construct(tree.RootNode()); node != nil {
		return nil, fmt.Errorf("%s: %w: %s on line %d", filePath, ErrParseFailed, reason, nodeLine(node))
	}

	result := &FileExtraction{
		FilePath:  filePath,
		Functions: []extraction.FunctionRecord{},
		Classes:   []extraction.ClassRecord{},
	}

	walkTreeBreadthFirst(tree.RootNode(), pythonChildren, func(n *sitter.Node) {
		switch n.Kind() {
		case "function_definition":
			if isAsyncDefinition(n) {
				return
			}
			if fn, ok := p.extractFunction(n, source); ok {
				result.Functions = append(result.Functions, fn)
			}
		case "class_definition":
			if cls, ok := p.extractClass(n, source); ok {
				result.Classes = append(result.Classes, cls)
			}
		}
	})

	return result, ctx.Err()
}

// extractFunction builds a FunctionRecord from a function_definition node.
func (p *pythonParser) extractFunction(node *sitter.Node, source []byte) (extraction.FunctionRecord, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return extraction.FunctionRecord{}, false
	}

	return extraction.FunctionRecord{
		Name:   extractNodeText(nameNode, source),
		Line:   nodeLine(node),
		Params: positionalParameters(node.ChildByFieldName("parameters"), source),
		Doc:    pythonDocstring(node.ChildByFieldName("body"), source),
		Kind:   extraction.KindFunction,
		Origin: extraction.OriginGrammar,
	}, true
}

// extractClass builds a ClassRecord from a class_definition node. Only
// function definitions that are direct statements of the class body become
// methods; nested classes and their members are left to their own records.
func (p *pythonParser) extractClass(node *sitter.Node, source []byte) (extraction.ClassRecord, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return extraction.ClassRecord{}, false
	}

	body := node.ChildByFieldName("body")
	cls := extraction.ClassRecord{
		Name:    extractNodeText(nameNode, source),
		Line:    nodeLine(node),
		Doc:     pythonDocstring(body, source),
		Methods: []extraction.MethodRecord{},
	}

	for _, stmt := range namedChildren(body) {
		def := stmt
		if def.Kind() == "decorated_definition" {
			def = def.ChildByFieldName("definition")
		}
		if def == nil || def.Kind() != "function_definition" || isAsyncDefinition(def) {
			continue
		}

		methodName := def.ChildByFieldName("name")
		if methodName == nil {
			continue
		}
		cls.Methods = append(cls.Methods, extraction.MethodRecord{
			Name:   extractNodeText(methodName, source),
			Params: positionalParameters(def.ChildByFieldName("parameters"), source),
			Doc:    pythonDocstring(def.ChildByFieldName("body"), source),
		})
	}

	return cls, true
}

// pythonChildren returns the children of n nested the way the Python syntax
// tree nests them. Blocks, decorator wrappers and else/finally clauses only
// group statements and are flattened. An if statement holds its first elif
// clause; every elif holds the clause that follows it, so a chain of elifs
// nests one level per clause.
func pythonChildren(n *sitter.Node) []*sitter.Node {
	var children []*sitter.Node
	for _, child := range namedChildren(n) {
		if child.Kind() == "elif_clause" || child.Kind() == "else_clause" {
			if n.Kind() == "if_statement" {
				return append(children, flattenPython(child)...)
			}
		}
		children = append(children, flattenPython(child)...)
	}

	if n.Kind() == "elif_clause" {
		if next := nextClause(n); next != nil {
			children = append(children, flattenPython(next)...)
		}
	}
	return children
}

// flattenPython replaces grouping nodes with their statements.
func flattenPython(n *sitter.Node) []*sitter.Node {
	switch n.Kind() {
	case "block", "decorated_definition", "else_clause", "finally_clause":
		var nodes []*sitter.Node
		for _, child := range namedChildren(n) {
			nodes = append(nodes, flattenPython(child)...)
		}
		return nodes
	}
	return []*sitter.Node{n}
}

// nextClause returns the elif or else clause following an elif clause.
func nextClause(n *sitter.Node) *sitter.Node {
	for next := n.NextNamedSibling(); next != nil; next = next.NextNamedSibling() {
		switch next.Kind() {
		case "elif_clause", "else_clause":
			return next
		case "comment":
			continue
		}
		return nil
	}
	return nil
}

// python2Construct returns the first node the grammar accepts but Python 3
// rejects as a syntax error, with a short description: print and exec
// statements, tuple parameters, or a required parameter after a defaulted one.
func python2Construct(root *sitter.Node) (*sitter.Node, string) {
	var found *sitter.Node
	var reason string

	walkTree(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		switch n.Kind() {
		case "print_statement":
			// "print >>f, x" is still a valid expression statement.
			if findChildByType(n, "chevron") == nil {
				found, reason = n, "print statement"
			}
		case "exec_statement":
			found, reason = n, "exec statement"
		case "parameters", "lambda_parameters":
			found, reason = parameterOrderViolation(n)
		}
		return found == nil
	})

	return found, reason
}

// parameterOrderViolation checks the parameters before "*", "*args" or
// "**kwargs": none may be a tuple pattern and none may lack a default once
// an earlier one has one. The "/" separator does not reset the rule.
func parameterOrderViolation(params *sitter.Node) (*sitter.Node, string) {
	seenDefault := false

	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "tuple_pattern":
			return param, "tuple parameter"
		case "default_parameter", "typed_default_parameter":
			if name := param.ChildByFieldName("name"); name != nil && name.Kind() == "tuple_pattern" {
				return param, "tuple parameter"
			}
			seenDefault = true
		case "identifier":
			if seenDefault {
				return param, "non-default parameter follows default parameter"
			}
		case "typed_parameter":
			inner := param.NamedChild(0)
			if inner == nil || inner.Kind() != "identifier" {
				return nil, ""
			}
			if seenDefault {
				return param, "non-default parameter follows default parameter"
			}
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return nil, ""
		}
	}

	return nil, ""
}

// isAsyncDefinition reports whether a function_definition is an "async def".
// Coroutine definitions are a distinct declaration kind and are not recorded.
func isAsyncDefinition(node *sitter.Node) bool {
	first := node.Child(0)
	return first != nil && first.Kind() == "async"
}

// positionalParameters returns the names of the positional-or-keyword
// parameters, in order. Names before a "/" separator are positional-only and
// dropped; collection stops at "*", "*args" or "**kwargs".
func positionalParameters(params *sitter.Node, source []byte) []string {
	names := []string{}

	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "identifier":
			names = append(names, extractNodeText(param, source))
		case "default_parameter", "typed_default_parameter":
			if nameNode := param.ChildByFieldName("name"); nameNode != nil {
				names = append(names, extractNodeText(nameNode, source))
			}
		case "typed_parameter":
			inner := param.NamedChild(0)
			if inner == nil || inner.Kind() != "identifier" {
				return names
			}
			names = append(names, extractNodeText(inner, source))
		case "positional_separator":
			names = []string{}
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return names
		}
	}

	return names
}
