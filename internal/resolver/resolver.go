package resolver

import (
	"context"
	"sort"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/refmap"
)

// Scope is the mutable context of one resolution. It is created when a
// resolution starts and dropped when it ends.
type Scope struct {
	User     string
	Language string
	// DataContext is the template's context tag used for label lookups.
	DataContext    string
	PictureContext string
	DataOnly       bool
	Refs           *refmap.Map
}

// NewScope returns a Scope with a fresh referential map.
func NewScope(user, language, dataContext, pictureContext string, dataOnly bool) *Scope {
	return &Scope{
		User:           user,
		Language:       language,
		DataContext:    dataContext,
		PictureContext: pictureContext,
		DataOnly:       dataOnly,
		Refs:           refmap.New(),
	}
}

// Resolver resolves references through the reference-data collaborator.
type Resolver struct {
	refs collab.ReferenceData
}

// New creates a Resolver.
func New(refs collab.ReferenceData) *Resolver {
	return &Resolver{refs: refs}
}

// ResolveAll resolves every reference of spec into the scope's map under
// its logical key.
func (r *Resolver) ResolveAll(ctx context.Context, scope *Scope, spec model.ReferentialSpec) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Gathering referential entries.", "count", len(spec))

	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		ref := spec[key]
		if ref.ID == "" || !ref.Kind.Valid() {
			return errs.MalformedSpec("referential entry %q needs an id and an event_or_entity kind", key)
		}
		logger.Debug("Resolving referential entry.", "key", key, "id", ref.ID, "kind", ref.Kind)
		entry, err := r.Fetch(ctx, scope, ref.ID, ref.Kind)
		if err != nil {
			return err
		}
		scope.Refs.Put(key, entry)
	}
	return nil
}

// Fetch returns the entity or event with id, fetching it at most once per
// resolution. Entities carry the derived display fields.
func (r *Resolver) Fetch(ctx context.Context, scope *Scope, id string, kind model.RefKind) (model.Entry, error) {
	entry, err := scope.Refs.Fetch(ctx, id, kind, func(ctx context.Context) (model.Entry, error) {
		if kind == model.RefEvent {
			return r.refs.GetEventByID(ctx, id, scope.User)
		}
		e, err := r.refs.GetEntityByID(ctx, id, scope.User)
		if err != nil || e == nil {
			return e, err
		}
		Decorate(e, scope.Language)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errs.NotFound("%s %s not found", kind, id)
	}
	return entry, nil
}

// AttachPicture fetches the picture of the entry stored under key. It does
// nothing in data-only mode and fetches each (entry, format) at most once.
func (r *Resolver) AttachPicture(ctx context.Context, scope *Scope, key string, picture model.PictureSpec) error {
	if scope.DataOnly {
		return nil
	}
	if picture.Format == "" {
		return errs.MalformedSpec("picture configuration of %q has no format", key)
	}
	entry, ok := scope.Refs.Get(key)
	if !ok {
		return errs.MalformedSpec("no referential entry under key %q", key)
	}
	req := model.PictureRequest{
		ID:      entry.ID(),
		Context: scope.PictureContext,
		Format:  picture.Format,
		Kind:    picture.EffectiveKind(),
		User:    scope.User,
	}
	got, cached, _, err := scope.Refs.AttachPicture(key, picture.Format, func() (any, error) {
		return r.refs.GetEntityPicture(ctx, req)
	})
	if err != nil {
		return err
	}
	if got == nil && !cached {
		return errs.NotFound("picture not found for referential entry %s (context: %s / format: %s)",
			req.ID, req.Context, req.Format)
	}
	return nil
}
