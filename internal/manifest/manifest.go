// Package manifest reads dependency manifests (package.json and
// requirements.txt) to populate the dependency listings of the reports.
// A missing manifest is never an error: it contributes no data.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FrameworkPackage is the dependency whose version is reported as the
// frontend framework version.
const FrameworkPackage = "@angular/core"

// PackageJSON is the subset of a package.json manifest the reports use.
// Dependencies keep the order they are declared in.
type PackageJSON struct {
	Version      string                                 `json:"version"`
	Dependencies *orderedmap.OrderedMap[string, string] `json:"dependencies"`
}

// DependencyNames returns the declared dependency names in order.
func (p *PackageJSON) DependencyNames() []string {
	if p == nil || p.Dependencies == nil {
		return nil
	}
	names := make([]string, 0, p.Dependencies.Len())
	for pair := p.Dependencies.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// ReadPackageJSON parses the package.json at path. It returns nil, nil when
// the file does not exist.
func ReadPackageJSON(path string) (*PackageJSON, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	pkg := &PackageJSON{}
	if err := json.Unmarshal(data, pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return pkg, nil
}

// ReadRequirements returns the requirement lines of a requirements.txt file:
// trimmed, non-empty, and not starting with '#'. It returns nil, nil when the
// file does not exist.
func ReadRequirements(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var requirements []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(line, "#") {
			continue
		}
		requirements = append(requirements, trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return requirements, nil
}

// ExtractVersion normalizes a version constraint: range markers '^' and '~'
// are dropped and only the first whitespace-separated field is kept.
func ExtractVersion(constraint string) string {
	cleaned := strings.NewReplacer("^", "", "~", "").Replace(constraint)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Paths locates the manifests, relative to the project root unless absolute.
type Paths struct {
	Backend  string // package.json of the backend server
	Frontend string // package.json of the frontend client
	Python   string // requirements.txt of the Python API
}

// DefaultPaths are the manifest locations of the reference project layout.
var DefaultPaths = Paths{
	Backend:  "package.json",
	Frontend: "climatemaps/client/package.json",
	Python:   "climatemaps/requirements.txt",
}

// TechStack holds the dependency listings rendered into the reports.
type TechStack struct {
	BackendVersion       string // "version" of the backend package.json
	FrameworkVersion     string // normalized FrameworkPackage version, "latest" when undeclared
	BackendDependencies  []string
	FrontendDependencies []string
	PythonDependencies   []string
}

// ReadTechStack reads every manifest under root. Unreadable or malformed
// manifests are logged as warnings and treated as absent.
func ReadTechStack(root string, paths Paths) *TechStack {
	stack := &TechStack{}

	if backend := readPackageOrWarn(resolve(root, paths.Backend)); backend != nil {
		stack.BackendVersion = backend.Version
		if stack.BackendVersion == "" {
			stack.BackendVersion = "Unknown"
		}
		stack.BackendDependencies = backend.DependencyNames()
	}

	if frontend := readPackageOrWarn(resolve(root, paths.Frontend)); frontend != nil && frontend.Dependencies != nil {
		constraint, ok := frontend.Dependencies.Get(FrameworkPackage)
		if !ok {
			constraint = "latest"
		}
		stack.FrameworkVersion = ExtractVersion(constraint)
		stack.FrontendDependencies = frontend.DependencyNames()
	}

	requirements, err := ReadRequirements(resolve(root, paths.Python))
	if err != nil {
		log.Printf("Warning: %v\n", err)
	}
	stack.PythonDependencies = requirements

	return stack
}

func readPackageOrWarn(path string) *PackageJSON {
	pkg, err := ReadPackageJSON(path)
	if err != nil {
		log.Printf("Warning: %v\n", err)
		return nil
	}
	return pkg
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}
