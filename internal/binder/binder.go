// Package binder builds the positional argument list of a stored query.
package binder

import (
	"context"

	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/resolver"
)

// Binder binds declared query parameters to user values and referential
// entry ids.
type Binder struct {
	resolver *resolver.Resolver
}

// New creates a Binder attaching pictures through r.
func New(r *resolver.Resolver) *Binder {
	return &Binder{resolver: r}
}

// Bind returns the arguments of def, in declaration order. For each
// declared name the user value comes first, followed by the ids of every
// referential parameter naming it.
func (b *Binder) Bind(ctx context.Context, scope *resolver.Scope, spec model.QuerySpec, def *model.QueryDefinition, user model.UserParameters) ([]any, error) {
	logger := ctxlog.FromContext(ctx).With("query", spec.ID)
	params := make([]any, 0, len(def.Parameters))

	for _, name := range def.Parameters {
		if v, ok := user.Lookup(spec.ID, name); ok {
			logger.Debug("Binding user parameter.", "parameter", name)
			params = append(params, v)
		}
		for _, rp := range spec.ReferentialParameters {
			if rp.Parameter != name {
				continue
			}
			entry, ok := scope.Refs.Get(rp.Key)
			if !ok {
				return nil, errs.MalformedSpec("query %s: parameter %s refers to unknown referential entry %q", spec.ID, name, rp.Key)
			}
			if rp.Picture != nil {
				if err := b.resolver.AttachPicture(ctx, scope, rp.Key, *rp.Picture); err != nil {
					return nil, err
				}
			}
			logger.Debug("Binding referential parameter.", "parameter", name, "key", rp.Key)
			params = append(params, entry.ID())
		}
	}
	return params, nil
}
