package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/reportgrid/internal/config"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/fsutil"
	"github.com/vk/reportgrid/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL definitions loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and merges the decoded
// definitions into one validated model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	m := config.NewModel()
	parser := hclparse.NewParser()
	for _, file := range files {
		if err := l.loadFile(ctx, parser, file, m); err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "templates", len(m.Templates), "queries", len(m.Queries), "triggers", len(m.Triggers))
	return m, nil
}

func (l *Loader) loadFile(ctx context.Context, parser *hclparse.Parser, file string, m *config.Model) error {
	hclFile, diags := parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}

	var root schema.DefinitionFile
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(filepath.Dir(file)), &root)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}
	if err := rejectUnknown(root.Body); err != nil {
		return fmt.Errorf("in %s: %w", file, err)
	}

	for _, q := range root.Queries {
		if err := m.AddQuery(translateQuery(q)); err != nil {
			return fmt.Errorf("in %s: %w", file, err)
		}
	}
	for _, t := range root.Templates {
		tmpl, err := translateTemplate(t)
		if err != nil {
			return fmt.Errorf("in %s: %w", file, err)
		}
		if err := m.AddTemplate(tmpl); err != nil {
			return fmt.Errorf("in %s: %w", file, err)
		}
	}
	for _, t := range root.Triggers {
		tr, err := translateTrigger(ctx, t)
		if err != nil {
			return fmt.Errorf("in %s: %w", file, err)
		}
		if err := m.AddTrigger(tr); err != nil {
			return fmt.Errorf("in %s: %w", file, err)
		}
	}
	return nil
}

// rejectUnknown fails on any attribute or block left over after decoding.
func rejectUnknown(body hcl.Body) error {
	if body == nil {
		return nil
	}
	_, diags := body.Content(&hcl.BodySchema{})
	if diags.HasErrors() {
		return diags
	}
	return nil
}
