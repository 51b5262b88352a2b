package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-census/internal/analyzer"
	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
	"github.com/mvp-joe/project-census/internal/manifest"
)

// Test Plan for RenderText:
// - Every numbered section appears in order and the report has no trailing newline
// - Classes list at most 5 methods followed by an overflow line
// - Files list at most 8 functions followed by an overflow line
// - Docstrings are truncated to 100 (classes) and 80 (functions) runes
// - Only grammar-family keys are listed under Functions Found
// - Components and services render their details, services cap methods at 5
// - Dependency listings are capped with an overflow line
// - Identical inputs render identical output
// - An empty store renders every section without findings

func testBoilerplate(t *testing.T) *Boilerplate {
	t.Helper()
	bp, err := LoadBoilerplate("")
	require.NoError(t, err)
	return bp
}

func methods(n int) []extraction.MethodRecord {
	records := make([]extraction.MethodRecord, n)
	for i := range records {
		records[i] = extraction.MethodRecord{Name: fmt.Sprintf("m%d", i), Params: []string{"self"}}
	}
	return records
}

func functions(n int) []extraction.FunctionRecord {
	records := make([]extraction.FunctionRecord, n)
	for i := range records {
		records[i] = extraction.FunctionRecord{
			Name:   fmt.Sprintf("f%d", i),
			Params: []string{"a", "b"},
			Doc:    extraction.Doc(fmt.Sprintf("Function %d.", i)),
			Kind:   extraction.KindFunction,
			Origin: extraction.OriginGrammar,
		}
	}
	return records
}

func names(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func sampleStore() *analyzer.Store {
	store := analyzer.NewStore(analyzer.DefaultModulePrefix)
	store.SetInventory(&analyzer.Inventory{
		Python:     []string{"api/main.py", "api/tiles.py"},
		TypeScript: []string{"client/map.component.ts", "client/data.service.ts", "client/utils.ts"},
		JavaScript: []string{"backend/server.js"},
	})

	store.AddPythonExtraction("api/main.py", functions(10), []extraction.ClassRecord{
		{Name: "Handler", Line: 3, Doc: extraction.Doc(strings.Repeat("x", 150)), Methods: methods(7)},
		{Name: "Empty", Line: 40},
	})
	store.AddPythonExtraction("api/tiles.py", []extraction.FunctionRecord{
		{Name: "render", Params: []string{"z", "x", "y"}, Kind: extraction.KindFunction, Doc: extraction.Doc(strings.Repeat("é", 90))},
	}, nil)

	store.SetComponent("client/map.component.ts", extraction.ComponentRecord{
		Name:         "MapComponent",
		File:         "client/map.component.ts",
		Selectors:    []string{"app-map"},
		TemplateURLs: []string{"./map.component.html"},
		StyleURLs:    []string{"./map.component.scss", "./theme.scss"},
	})
	store.SetService("client/data.service.ts", extraction.ServiceRecord{
		Name:    "DataService",
		Methods: names(7, "get"),
		File:    "client/data.service.ts",
	})
	store.AddFunctions("client/utils.ts", []extraction.FunctionRecord{
		{Name: "clamp", Params: []string{"v", " lo"}, Kind: extraction.KindFunction, Origin: extraction.OriginPattern},
	})
	return store
}

func lineIndex(t *testing.T, lines []string, want string) int {
	t.Helper()
	for i, line := range lines {
		if line == want {
			return i
		}
	}
	t.Fatalf("line %q not found", want)
	return -1
}

func TestRenderText_Sections(t *testing.T) {
	t.Parallel()

	text := RenderText(sampleStore(), testBoilerplate(t), nil)
	assert.False(t, strings.HasSuffix(text, "\n"))

	lines := strings.Split(text, "\n")
	assert.Equal(t, heavyRule, lines[0])
	assert.Equal(t, "PROJECT ANALYSIS REPORT: World Crop Monitor 1.0", lines[1])
	assert.Equal(t, heavyRule, lines[len(lines)-1])
	assert.Equal(t, "End of Analysis Report", lines[len(lines)-2])

	previous := -1
	for _, title := range []string{
		"1. TECHNOLOGY STACK OVERVIEW",
		"2. PROJECT ARCHITECTURE",
		"3. PYTHON FUNCTIONS & CLASSES",
		"4. ANGULAR COMPONENTS & SERVICES",
		"5. CORE PYTHON MODULES",
		"6. KEY FEATURES IMPLEMENTED",
		"7. DATA FLOW",
		"8. CODEBASE STATISTICS",
		"9. AVAILABLE SCRIPTS",
	} {
		idx := lineIndex(t, lines, title)
		assert.Greater(t, idx, previous, title)
		assert.Equal(t, lightRule, lines[idx+1], title)
		previous = idx
	}

	idx := lineIndex(t, lines, "Directory Structure:")
	assert.Equal(t, []string{
		"  backend/",
		"    └── server.js - Express.js backend server",
		"",
		"  climatemaps/",
		"    ├── api/ - Python REST API with Flask",
		"    │   ├── main.py - API entry point",
	}, lines[idx+1:idx+7])

	idx = lineIndex(t, lines, "  Data Layer:")
	assert.Equal(t, []string{
		"    └── data/",
		"        ├── raw/ - Raw GeoJSON and boundary data",
		"        └── tiles/ - Vector tiles for visualization",
		"",
		"  Infrastructure:",
		"    └── infra/",
		"        └── openclimatemap.nginx.conf - Nginx configuration",
	}, lines[idx+1:idx+8])
	assert.Contains(t, lines, "  • contour.py")
	assert.Contains(t, lines, "    └─ Contour/isoline generation from climate data")
	assert.Contains(t, lines, "  • scripts/deploy.sh - Full deployment pipeline")
}

func TestRenderText_ClassTruncation(t *testing.T) {
	t.Parallel()

	lines := strings.Split(RenderText(sampleStore(), testBoilerplate(t), nil), "\n")

	idx := lineIndex(t, lines, "    Class: Handler")
	assert.Equal(t, "      Docstring: "+strings.Repeat("x", 100), lines[idx+1])
	assert.Equal(t, "      Methods (7):", lines[idx+2])
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("        • m%d(self)", i), lines[idx+3+i])
	}
	assert.Equal(t, "        ... and 2 more methods", lines[idx+8])

	idx = lineIndex(t, lines, "    Class: Empty")
	assert.Equal(t, "      Docstring: No documentation", lines[idx+1])
	assert.Equal(t, "", lines[idx+2], "no methods line for a class without methods")
}

func TestRenderText_FunctionTruncation(t *testing.T) {
	t.Parallel()

	lines := strings.Split(RenderText(sampleStore(), testBoilerplate(t), nil), "\n")

	idx := lineIndex(t, lines, "  File: climatemaps/api/tiles.py")
	assert.Equal(t, "    • render(z, x, y)", lines[idx+1])
	assert.Equal(t, "      "+strings.Repeat("é", 80)+"...", lines[idx+2])

	var mainFile []int
	for i, line := range lines {
		if line == "  File: climatemaps/api/main.py" {
			mainFile = append(mainFile, i)
		}
	}
	require.Len(t, mainFile, 2, "once under classes and once under functions")

	idx = mainFile[1]
	for i := 0; i < 8; i++ {
		assert.Equal(t, fmt.Sprintf("    • f%d(a, b)", i), lines[idx+1+2*i])
		assert.Equal(t, fmt.Sprintf("      Function %d....", i), lines[idx+2+2*i])
	}
	assert.Equal(t, "    ... and 2 more functions", lines[idx+17])

	assert.NotContains(t, lines, "  File: client/utils.ts")
	assert.NotContains(t, lines, "    • clamp(v,  lo)")
}

func TestRenderText_Frontend(t *testing.T) {
	t.Parallel()

	text := RenderText(sampleStore(), testBoilerplate(t), nil)

	assert.Contains(t, text, strings.Join([]string{
		"Components:",
		"",
		"  MapComponent",
		"    File: client/map.component.ts",
		"    Selector: app-map",
		"    Template: ./map.component.html",
		"    Styles: ./map.component.scss, ./theme.scss",
	}, "\n"))

	assert.Contains(t, text, strings.Join([]string{
		"Services:",
		"",
		"  DataService",
		"    File: client/data.service.ts",
		"    Methods: get0, get1, get2, get3, get4",
		"             ... and 2 more",
	}, "\n"))
}

func TestRenderText_Statistics(t *testing.T) {
	t.Parallel()

	text := RenderText(sampleStore(), testBoilerplate(t), nil)

	assert.Contains(t, text, strings.Join([]string{
		"Python Files: 2",
		"TypeScript Files: 3",
		"JavaScript Files: 1",
		"Total Python Functions: 11",
		"Total Python Classes: 2",
		"Angular Components: 1",
		"Angular Services: 1",
	}, "\n"))
	assert.NotContains(t, text, "Extraction:")

	store := sampleStore()
	store.Extraction = []analyzer.ExtractionMode{
		{Family: analyzer.FamilyPython, Exact: true},
		{Family: analyzer.FamilyTypeScript, Exact: false},
	}
	text = RenderText(store, testBoilerplate(t), nil)
	assert.Contains(t, text, "Angular Services: 1\nExtraction: python (exact), typescript (approximate)\n")
}

func TestRenderText_Dependencies(t *testing.T) {
	t.Parallel()

	stack := &manifest.TechStack{
		BackendDependencies:  []string{"express", "cors"},
		FrontendDependencies: names(12, "ng"),
		PythonDependencies:   names(16, "py"),
	}

	lines := strings.Split(RenderText(sampleStore(), testBoilerplate(t), stack), "\n")

	idx := lineIndex(t, lines, "Backend Dependencies:")
	assert.Equal(t, []string{"  • express", "  • cors", ""}, lines[idx+1:idx+4])

	idx = lineIndex(t, lines, "Frontend Dependencies (Key):")
	assert.Equal(t, "  • ng9", lines[idx+10])
	assert.Equal(t, "  ... and 2 more", lines[idx+11])

	idx = lineIndex(t, lines, "Python API Dependencies:")
	assert.Equal(t, "  • py14", lines[idx+15])
	assert.Equal(t, "  ... and 1 more", lines[idx+16])
	assert.NotContains(t, lines, "Detected Versions:")
}

func TestRenderText_Versions(t *testing.T) {
	t.Parallel()

	stack := &manifest.TechStack{BackendVersion: "1.2.0", FrameworkVersion: "17.0.1"}
	lines := strings.Split(RenderText(sampleStore(), testBoilerplate(t), stack), "\n")

	idx := lineIndex(t, lines, "Detected Versions:")
	assert.Equal(t, []string{"  • Node.js: 1.2.0", "  • Angular: 17.0.1", ""}, lines[idx+1:idx+4])
	assert.Less(t, idx, lineIndex(t, lines, "2. PROJECT ARCHITECTURE"))

	stack = &manifest.TechStack{FrameworkVersion: "latest"}
	lines = strings.Split(RenderText(sampleStore(), testBoilerplate(t), stack), "\n")
	idx = lineIndex(t, lines, "Detected Versions:")
	assert.Equal(t, []string{"  • Angular: latest", ""}, lines[idx+1:idx+3])
}

func TestRenderText_Idempotent(t *testing.T) {
	t.Parallel()

	bp := testBoilerplate(t)
	store := sampleStore()
	assert.Equal(t, RenderText(store, bp, nil), RenderText(store, bp, nil))
}

func TestRenderText_EmptyStore(t *testing.T) {
	t.Parallel()

	text := RenderText(analyzer.NewStore(""), testBoilerplate(t), &manifest.TechStack{})

	assert.NotContains(t, text, "Classes Found:")
	assert.NotContains(t, text, "Functions Found:")
	assert.NotContains(t, text, "Components:")
	assert.NotContains(t, text, "Services:")
	assert.NotContains(t, text, "Backend Dependencies:")
	assert.NotContains(t, text, "Detected Versions:")
	assert.Contains(t, text, "Python Files: 0")
	assert.Contains(t, text, "9. AVAILABLE SCRIPTS")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "日本", truncate("日本語", 2))
	assert.Equal(t, "", truncate("", 3))
}
