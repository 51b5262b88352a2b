package parsers

import (
	"fmt"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterParser provides common tree-sitter parsing functionality.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

// parse builds a syntax tree for source. The caller must Close the returned tree.
// Trees containing ERROR or MISSING nodes are rejected with ErrParseFailed, so
// the error-tolerant tree-sitter parser behaves like a strict one.
func (p *treeSitterParser) parse(filePath string, source []byte) (*sitter.Tree, error) {
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("%s: %w", filePath, ErrInvalidUTF8)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set %s language: %w", p.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%s: %w: no tree produced", filePath, ErrParseFailed)
	}

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		tree.Close()
		return nil, fmt.Errorf("%s: %w: syntax error near line %d", filePath, ErrParseFailed, line)
	}

	return tree, nil
}

// firstErrorLine returns the 1-indexed line of the first ERROR or MISSING node.
func firstErrorLine(root *sitter.Node) int {
	line := int(root.StartPosition().Row) + 1
	walkTree(root, func(n *sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPosition().Row) + 1
			return false
		}
		return n.HasError()
	})
	return line
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// nodeLine returns the 1-indexed line a node starts on.
func nodeLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// walkTree recursively walks a tree-sitter tree depth-first and calls the
// visitor for each node. Returning false skips the node's children.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}

// walkTreeBreadthFirst visits nodes level by level, starting at node. The
// children function decides which nodes make up the next level.
func walkTreeBreadthFirst(node *sitter.Node, children func(*sitter.Node) []*sitter.Node, visitor func(*sitter.Node)) {
	if node == nil {
		return
	}

	queue := []*sitter.Node{node}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		visitor(current)
		queue = append(queue, children(current)...)
	}
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child == nil || child.Kind() == "comment" {
			continue
		}
		results = append(results, child)
	}
	return results
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}
