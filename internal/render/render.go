// Package render produces deployment values files from templates and the
// credentials recorded for a dataspace or connector.
package render

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// TemplateName is the file name of every values template.
const TemplateName = "values.yaml.tpl"

// Target pairs a template with the file it renders to.
type Target struct {
	Template string
	Output   string
}

// DataspaceTargets returns the two values files of a dataspace.
func DataspaceTargets(root, name string) []Target {
	return []Target{
		target(filepath.Join(root, "dataspace", "step-1"), name),
		target(filepath.Join(root, "dataspace", "step-2"), name),
	}
}

// ConnectorTargets returns the values file of a connector.
func ConnectorTargets(root, connector string) []Target {
	return []Target{target(filepath.Join(root, "connector"), connector)}
}

func target(dir, name string) Target {
	return Target{
		Template: filepath.Join(dir, TemplateName),
		Output:   filepath.Join(dir, "values.yaml."+name),
	}
}

// Keys builds the template data: every bundle category, the extra entries
// and every settings key lower-cased. Later sources win.
func Keys(bundle credentials.Bundle, extra map[string]string, settings map[string]string) map[string]any {
	keys := make(map[string]any, len(bundle)+len(extra)+len(settings))
	for category, fields := range bundle {
		keys[category] = maps.Clone(fields)
	}
	for k, v := range extra {
		keys[k] = v
	}
	for k, v := range settings {
		keys[strings.ToLower(k)] = v
	}
	return keys
}

// Renderer writes values files.
type Renderer struct {
	out    io.Writer
	logger *slog.Logger
}

// NewRenderer creates a Renderer reporting generated files to out.
func NewRenderer(out io.Writer, logger *slog.Logger) *Renderer {
	return &Renderer{out: out, logger: logger}
}

// RenderAll renders every target with the same keys, stopping at the first failure.
func (r *Renderer) RenderAll(targets []Target, keys map[string]any) error {
	for _, t := range targets {
		if err := r.Render(t, keys); err != nil {
			return err
		}
	}
	return nil
}

// Render executes the template with {{ .Keys.<name> }} data, checks that the
// result is valid YAML and replaces the output file.
func (r *Renderer) Render(t Target, keys map[string]any) error {
	tmpl, err := template.New(filepath.Base(t.Template)).Option("missingkey=error").ParseFiles(t.Template)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", t.Template, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Keys map[string]any }{Keys: keys}); err != nil {
		return fmt.Errorf("failed to render template %s: %w", t.Template, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "rendered %s is not valid YAML: %v", t.Output, err)
	}

	if err := os.WriteFile(t.Output, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write values file %s: %w", t.Output, err)
	}

	_, _ = fmt.Fprintf(r.out, "Generated values file: %s\n", t.Output)
	r.logger.Info("values file generated", slog.String("path", t.Output))
	return nil
}
