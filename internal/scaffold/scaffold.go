package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/fractary/forge/internal/definition"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Data holds the template variables available to definition scaffolds.
type Data struct {
	Name        string
	Plugin      string
	Description string
	Version     string
	Year        int
}

// NewData creates a Data with derived defaults populated.
func NewData(name, typeName, plugin string) *Data {
	return &Data{
		Name:        name,
		Plugin:      plugin,
		Description: fmt.Sprintf("%s %s", typeName, name),
		Version:     "0.1.0",
		Year:        time.Now().Year(),
	}
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	Path     string
	Warnings []string
}

// Generate writes a new definition skeleton for typeName into destDir.
// Refuses to overwrite an existing file. The generated YAML is parsed
// back as a sanity check; problems surface as warnings, not errors.
func Generate(typeName string, data *Data, destDir string) (*Result, error) {
	tmplBytes, err := templateFS.ReadFile("templates/" + typeName + ".yaml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("no scaffold for type %q", typeName)
	}

	tmpl, err := template.New(typeName).Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", typeName, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering %s template: %w", typeName, err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", destDir, err)
	}

	outPath := filepath.Join(destDir, data.Name+".yaml")
	if _, err := os.Stat(outPath); err == nil {
		return nil, fmt.Errorf("%s already exists; remove it first", outPath)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outPath, err)
	}

	result := &Result{Path: outPath}
	if _, err := definition.Parse(buf.Bytes(), outPath); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("generated definition does not parse: %v", err))
	}
	return result, nil
}
