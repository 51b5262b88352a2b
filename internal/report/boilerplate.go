package report

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ddddddO/gtree"
	"gopkg.in/yaml.v3"
)

//go:embed boilerplate.yaml
var defaultBoilerplate []byte

// ErrInvalidBoilerplate indicates a boilerplate file is missing required fields.
var ErrInvalidBoilerplate = errors.New("invalid boilerplate")

// ItemGroup is a headed bullet list.
type ItemGroup struct {
	Heading string   `yaml:"heading"`
	Items   []string `yaml:"items"`
}

// NamedDescription is a name with a one-line description.
type NamedDescription struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// TreeNode is one entry of a directory tree drawing.
type TreeNode struct {
	Name     string     `yaml:"name"`
	Children []TreeNode `yaml:"children"`
}

// TreeGroup is a headed set of directory trees.
type TreeGroup struct {
	Heading string     `yaml:"heading"`
	Trees   []TreeNode `yaml:"trees"`
}

// DocumentBoilerplate holds the fixed sections of the structured document.
type DocumentBoilerplate struct {
	TechnologyStack []ItemGroup        `yaml:"technology_stack"`
	CoreModules     []NamedDescription `yaml:"core_modules"`
	Layers          []NamedDescription `yaml:"layers"`
	Features        []string           `yaml:"features"`
}

// Boilerplate is the static descriptive prose emitted alongside the
// extracted findings. It describes one specific technology stack and is
// loaded once per run.
type Boilerplate struct {
	Project       string              `yaml:"project"`
	Description   string              `yaml:"description"`
	StackOverview []ItemGroup         `yaml:"stack_overview"`
	Architecture  []TreeGroup         `yaml:"architecture"`
	CoreModules   []NamedDescription  `yaml:"core_modules"`
	Features      []ItemGroup         `yaml:"features"`
	DataFlow      string              `yaml:"data_flow"`
	Scripts       []NamedDescription  `yaml:"scripts"`
	Document      DocumentBoilerplate `yaml:"document"`

	// architectureLines caches the drawn trees, one slice per group.
	architectureLines [][]string
}

// LoadBoilerplate reads the boilerplate from path, or the embedded default
// when path is empty.
func LoadBoilerplate(path string) (*Boilerplate, error) {
	data := defaultBoilerplate
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read boilerplate: %w", err)
		}
	}
	return ParseBoilerplate(data)
}

// ParseBoilerplate decodes boilerplate YAML and draws its directory trees.
func ParseBoilerplate(data []byte) (*Boilerplate, error) {
	bp := &Boilerplate{}
	if err := yaml.Unmarshal(data, bp); err != nil {
		return nil, fmt.Errorf("failed to parse boilerplate: %w", err)
	}
	if strings.TrimSpace(bp.Project) == "" {
		return nil, fmt.Errorf("%w: project is required", ErrInvalidBoilerplate)
	}

	for i, group := range bp.Architecture {
		lines, err := drawGroup(group, i > 0)
		if err != nil {
			return nil, err
		}
		bp.architectureLines = append(bp.architectureLines, lines)
	}

	return bp, nil
}

// DataFlowLines returns the data flow diagram split into lines.
func (bp *Boilerplate) DataFlowLines() []string {
	flow := strings.TrimRight(bp.DataFlow, "\n")
	if flow == "" {
		return nil
	}
	return strings.Split(flow, "\n")
}

// drawGroup draws the trees of one group, indented for the report.
// The first group lists its trees as roots; later groups are subsections
// nested under it, so their trees hang as branches below the heading.
func drawGroup(group TreeGroup, nested bool) ([]string, error) {
	if nested {
		drawn, err := drawTree(TreeNode{Name: group.Heading, Children: group.Trees})
		if err != nil {
			return nil, fmt.Errorf("failed to draw group %q: %w", group.Heading, err)
		}
		return indentLines(drawn[1:], "    ", "    "), nil
	}

	var lines []string
	for i, tree := range group.Trees {
		if i > 0 {
			lines = append(lines, "")
		}
		drawn, err := drawTree(tree)
		if err != nil {
			return nil, fmt.Errorf("failed to draw tree %q: %w", tree.Name, err)
		}
		lines = append(lines, indentLines(drawn, "  ", "    ")...)
	}
	return lines, nil
}

// drawTree renders a tree with box-drawing branches, one line per node.
func drawTree(tree TreeNode) ([]string, error) {
	root := gtree.NewRoot(tree.Name)
	addChildren(root, tree.Children)

	var sb strings.Builder
	if err := gtree.OutputFromRoot(&sb, root); err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(sb.String(), "\n"), "\n"), nil
}

// indentLines prefixes the first line with first and the rest with rest.
func indentLines(lines []string, first, rest string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if i == 0 {
			out[i] = first + line
		} else {
			out[i] = rest + line
		}
	}
	return out
}

func addChildren(parent *gtree.Node, children []TreeNode) {
	for _, child := range children {
		node := parent.Add(child.Name)
		addChildren(node, child.Children)
	}
}
