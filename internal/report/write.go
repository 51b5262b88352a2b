package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvp-joe/project-census/internal/analyzer"
	"github.com/mvp-joe/project-census/internal/manifest"
)

// WriteFile writes data to path, creating parent directories as needed and
// replacing any existing file.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Output is the pair of rendered reports of one run.
type Output struct {
	Text     string
	Document *Document
}

// Generate renders both reports from a completed store.
func Generate(store *analyzer.Store, bp *Boilerplate, stack *manifest.TechStack) *Output {
	return &Output{
		Text:     RenderText(store, bp, stack),
		Document: BuildDocument(store, bp),
	}
}

// Save writes the text report to textPath and the document to jsonPath.
func (o *Output) Save(textPath, jsonPath string) error {
	if err := WriteFile(textPath, []byte(o.Text)); err != nil {
		return err
	}
	data, err := o.Document.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return WriteFile(jsonPath, data)
}
