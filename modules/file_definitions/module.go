// Package file_definitions serves definitions loaded from HCL files on
// disk.
package file_definitions

import (
	"context"
	"fmt"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/config"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/hcl"
	"github.com/vk/reportgrid/internal/inmemorystore"
	"github.com/vk/reportgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "file" definitions backend. The "paths" setting
// lists the files or directories to load.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDefinitions("file", func(ctx context.Context, env registry.Env) (collab.DefinitionStore, error) {
		return Load(ctx, hcl.NewLoader(), env.Settings.Strings("paths")...)
	})
}

// Load reads every definition under paths into an in-memory store.
func Load(ctx context.Context, loader config.Loader, paths ...string) (*inmemorystore.Store, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("setting %q is required", "paths")
	}
	m, err := loader.Load(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Definitions loaded.",
		"templates", len(m.Templates), "queries", len(m.Queries), "triggers", len(m.Triggers))
	return inmemorystore.New(m), nil
}
