// Package labeler rewrites coded row cells into display text and feeds
// referenced entities of result rows into the referential map.
package labeler

import (
	"context"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/resolver"
)

// Labeler applies label rules and referential results to query rows.
type Labeler struct {
	refs     collab.ReferenceData
	resolver *resolver.Resolver
}

// New creates a Labeler.
func New(refs collab.ReferenceData, r *resolver.Resolver) *Labeler {
	return &Labeler{refs: refs, resolver: r}
}

// Label returns a copy of row with every labeled column replaced by its
// display text. Columns absent from the row are left alone.
func (l *Labeler) Label(ctx context.Context, scope *resolver.Scope, spec model.QuerySpec, row model.Row) (model.Row, error) {
	out := row.Clone()
	for _, rule := range spec.Labels {
		v, ok := row[rule.Column]
		if !ok || v == nil {
			continue
		}
		code := model.KeyOf(v)

		switch rule.Kind {
		case model.LabelEntity:
			entity, err := l.resolver.Fetch(ctx, scope, code, model.RefEntity)
			if err != nil {
				return nil, err
			}
			out[rule.Column] = entity.String(model.FieldCommonName)
		case model.LabelCode:
			label, err := l.refs.GetLabel(ctx, code, scope.Language, scope.DataContext)
			if err != nil {
				return nil, err
			}
			if label == nil {
				return nil, errs.NotFound("label %s not found (language: %s / context: %s)", code, scope.Language, scope.DataContext)
			}
			out[rule.Column] = label.Label
		default:
			return nil, errs.MalformedSpec("query %s: column %s has unknown label kind %q", spec.ID, rule.Column, rule.Kind)
		}
	}
	return out, nil
}

// Enrich resolves every referential result of spec found in row and stores
// it in the scope's map, keyed by the row's key column.
func (l *Labeler) Enrich(ctx context.Context, scope *resolver.Scope, spec model.QuerySpec, row model.Row) error {
	logger := ctxlog.FromContext(ctx)
	for _, rr := range spec.ReferentialResults {
		rawID, hasID := row[rr.Column]
		rawKey, hasKey := row[rr.ColumnID]
		if !hasID || !hasKey {
			return errs.MalformedSpec("query %s: referential result needs columns %s and %s", spec.ID, rr.Column, rr.ColumnID)
		}
		kind := rr.Kind
		if kind == "" {
			kind = model.RefEntity
		}
		if !kind.Valid() {
			return errs.MalformedSpec("query %s: column %s has unknown referential kind %q", spec.ID, rr.Column, rr.Kind)
		}

		entry, err := l.resolver.Fetch(ctx, scope, model.KeyOf(rawID), kind)
		if err != nil {
			return err
		}
		key := model.KeyOf(rawKey)
		logger.Debug("Adding referential result.", "query", spec.ID, "key", key, "id", entry.ID())
		scope.Refs.Put(key, entry)

		if rr.Picture != nil {
			if err := l.resolver.AttachPicture(ctx, scope, key, *rr.Picture); err != nil {
				return err
			}
		}
	}
	return nil
}
