package report

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/project-census/internal/analyzer"
	"github.com/mvp-joe/project-census/internal/manifest"
)

// Listing limits of the text report.
const (
	maxClassMethods        = 5
	maxFileFunctions       = 8
	maxServiceMethods      = 5
	maxFrontendDeps        = 10
	maxPythonDeps          = 15
	classDocstringLimit    = 100
	functionDocstringLimit = 80
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// textReport accumulates report lines.
type textReport struct {
	lines []string
}

func (r *textReport) add(lines ...string) {
	r.lines = append(r.lines, lines...)
}

func (r *textReport) addf(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// section starts a numbered section. lead is prepended to the title line to
// reproduce the blank lines that separate sections.
func (r *textReport) section(lead, title string) {
	r.add(lead+title, lightRule, "")
}

func (r *textReport) bullets(indent string, items []string) {
	for _, item := range items {
		r.add(indent + "• " + item)
	}
}

// RenderText renders the hierarchical text report. It is a pure function of
// its inputs: file keys are sorted and every listing is bounded, so identical
// inputs produce identical output. The result has no trailing newline.
func RenderText(store *analyzer.Store, bp *Boilerplate, stack *manifest.TechStack) string {
	if stack == nil {
		stack = &manifest.TechStack{}
	}

	r := &textReport{}
	r.add(heavyRule, "PROJECT ANALYSIS REPORT: "+bp.Project, heavyRule, "")

	renderStackOverview(r, bp, stack)
	renderArchitecture(r, bp)
	renderPythonSection(r, store)
	renderFrontendSection(r, store)

	r.section("\n\n", "5. CORE PYTHON MODULES")
	for _, module := range bp.CoreModules {
		r.add("  • "+module.Name, "    └─ "+module.Description)
	}
	r.add("")

	r.section("\n", "6. KEY FEATURES IMPLEMENTED")
	for _, group := range bp.Features {
		r.add(group.Heading + ":")
		r.bullets("  ", group.Items)
		r.add("")
	}

	r.section("\n", "7. DATA FLOW")
	r.add(bp.DataFlowLines()...)
	r.add("")

	r.section("\n", "8. CODEBASE STATISTICS")
	r.addf("Python Files: %d", len(store.PythonFiles))
	r.addf("TypeScript Files: %d", len(store.TypeScriptFiles))
	r.addf("JavaScript Files: %d", len(store.JavaScriptFiles))
	r.addf("Total Python Functions: %d", store.TotalPythonFunctions())
	r.addf("Total Python Classes: %d", store.TotalClasses())
	r.addf("Angular Components: %d", store.Components.Len())
	r.addf("Angular Services: %d", store.Services.Len())
	if len(store.Extraction) > 0 {
		modes := make([]string, len(store.Extraction))
		for i, mode := range store.Extraction {
			modes[i] = mode.String()
		}
		r.add("Extraction: " + strings.Join(modes, ", "))
	}
	r.add("")

	r.section("\n", "9. AVAILABLE SCRIPTS")
	for _, script := range bp.Scripts {
		r.add("  • " + script.Name + " - " + script.Description)
	}
	r.add("")

	r.add(heavyRule, "End of Analysis Report", heavyRule)

	return strings.Join(r.lines, "\n")
}

func renderStackOverview(r *textReport, bp *Boilerplate, stack *manifest.TechStack) {
	r.section("", "1. TECHNOLOGY STACK OVERVIEW")
	for _, group := range bp.StackOverview {
		r.add(group.Heading + ":")
		r.bullets("  ", group.Items)
		r.add("")
	}

	if len(stack.BackendDependencies) > 0 {
		r.add("Backend Dependencies:")
		r.bullets("  ", stack.BackendDependencies)
		r.add("")
	}

	if deps := stack.FrontendDependencies; len(deps) > 0 {
		r.add("Frontend Dependencies (Key):")
		r.bullets("  ", head(deps, maxFrontendDeps))
		if len(deps) > maxFrontendDeps {
			r.addf("  ... and %d more", len(deps)-maxFrontendDeps)
		}
		r.add("")
	}

	if deps := stack.PythonDependencies; len(deps) > 0 {
		r.add("Python API Dependencies:")
		r.bullets("  ", head(deps, maxPythonDeps))
		if len(deps) > maxPythonDeps {
			r.addf("  ... and %d more", len(deps)-maxPythonDeps)
		}
		r.add("")
	}

	if stack.BackendVersion != "" || stack.FrameworkVersion != "" {
		r.add("Detected Versions:")
		if stack.BackendVersion != "" {
			r.add("  • Node.js: " + stack.BackendVersion)
		}
		if stack.FrameworkVersion != "" {
			r.add("  • Angular: " + stack.FrameworkVersion)
		}
		r.add("")
	}
}

func renderArchitecture(r *textReport, bp *Boilerplate) {
	r.section("\n", "2. PROJECT ARCHITECTURE")
	for i, group := range bp.Architecture {
		if i == 0 {
			r.add(group.Heading + ":")
		} else {
			r.add("  " + group.Heading + ":")
		}
		if i < len(bp.architectureLines) {
			r.add(bp.architectureLines[i]...)
		}
		r.add("")
	}
}

func renderPythonSection(r *textReport, store *analyzer.Store) {
	r.section("\n", "3. PYTHON FUNCTIONS & CLASSES")

	if store.Classes.Len() > 0 {
		r.add("Classes Found:")
		for _, key := range analyzer.SortedKeys(store.Classes) {
			classes, _ := store.Classes.Get(key)
			r.add("\n  File: " + key)
			for _, cls := range classes {
				r.add("    Class: " + cls.Name)
				r.add("      Docstring: " + truncate(cls.Doc.OrMarker(), classDocstringLimit))
				if n := len(cls.Methods); n > 0 {
					r.addf("      Methods (%d):", n)
					for _, method := range cls.Methods[:min(n, maxClassMethods)] {
						r.addf("        • %s(%s)", method.Name, strings.Join(method.Params, ", "))
					}
					if n > maxClassMethods {
						r.addf("        ... and %d more methods", n-maxClassMethods)
					}
				}
				r.add("")
			}
		}
	}

	if store.Functions.Len() > 0 {
		r.add("\nFunctions Found:")
		for _, key := range analyzer.SortedKeys(store.Functions) {
			if !store.IsPythonKey(key) {
				continue
			}
			functions, _ := store.Functions.Get(key)
			r.add("\n  File: " + key)
			for _, fn := range functions[:min(len(functions), maxFileFunctions)] {
				r.addf("    • %s(%s)", fn.Name, strings.Join(fn.Params, ", "))
				r.add("      " + truncate(fn.Doc.OrMarker(), functionDocstringLimit) + "...")
			}
			if len(functions) > maxFileFunctions {
				r.addf("    ... and %d more functions", len(functions)-maxFileFunctions)
			}
		}
	}
}

func renderFrontendSection(r *textReport, store *analyzer.Store) {
	r.section("\n\n", "4. ANGULAR COMPONENTS & SERVICES")

	if store.Components.Len() > 0 {
		r.add("Components:")
		for _, key := range analyzer.SortedKeys(store.Components) {
			component, _ := store.Components.Get(key)
			r.add("\n  " + component.Name)
			r.add("    File: " + key)
			if len(component.Selectors) > 0 {
				r.add("    Selector: " + component.Selectors[0])
			}
			if len(component.TemplateURLs) > 0 {
				r.add("    Template: " + component.TemplateURLs[0])
			}
			if len(component.StyleURLs) > 0 {
				r.add("    Styles: " + strings.Join(component.StyleURLs, ", "))
			}
		}
	}

	if store.Services.Len() > 0 {
		r.add("\n\nServices:")
		for _, key := range analyzer.SortedKeys(store.Services) {
			service, _ := store.Services.Get(key)
			r.add("\n  " + service.Name)
			r.add("    File: " + key)
			if n := len(service.Methods); n > 0 {
				r.add("    Methods: " + strings.Join(head(service.Methods, maxServiceMethods), ", "))
				if n > maxServiceMethods {
					r.addf("             ... and %d more", n-maxServiceMethods)
				}
			}
		}
	}
}

// truncate cuts s to at most limit runes, with no word-boundary awareness.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
