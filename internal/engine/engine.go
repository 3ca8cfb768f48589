// Package engine exposes the two entry points of the report generator:
// interactive resolution of a template and the content-change cascade.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/reportgrid/internal/assembler"
	"github.com/vk/reportgrid/internal/cascade"
	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/render"
	"github.com/vk/reportgrid/internal/resolver"
)

// ResolveRequest is one interactive resolution.
type ResolveRequest struct {
	TemplateID     string                `json:"template_id"`
	PictureContext string                `json:"picture_context,omitempty"`
	Language       string                `json:"language,omitempty"`
	DataOnly       bool                  `json:"json_only,omitempty"`
	Referential    model.ReferentialSpec `json:"referential,omitempty"`
	UserParameters model.UserParameters  `json:"user_parameters,omitempty"`
	User           string                `json:"user"`
	TextToPath     bool                  `json:"text_to_path,omitempty"`
}

// Options tune an Engine.
type Options struct {
	// Timeout bounds every collaborator call. Zero disables the bound.
	Timeout time.Duration
	// Workers bounds the triggers refreshed concurrently.
	Workers int
	// CDNRoot replaces ${CDN_ROOT_URL} in HTML templates.
	CDNRoot string
}

// Engine wires the pipeline over one collaborator set.
type Engine struct {
	definitions collab.DefinitionStore
	assembler   *assembler.Assembler
	dispatcher  *render.Dispatcher
	cascade     *cascade.Processor
}

// New creates an Engine. Every collaborator of s is guarded with the
// configured timeout.
func New(s collab.Set, opts Options) (*Engine, error) {
	s = collab.Guard(s, opts.Timeout)
	a := assembler.New(s)
	d := render.New(s.Composer, s.Delivery, opts.CDNRoot)
	p, err := cascade.New(s, a, d, opts.Workers)
	if err != nil {
		return nil, err
	}
	return &Engine{
		definitions: s.Definitions,
		assembler:   a,
		dispatcher:  d,
		cascade:     p,
	}, nil
}

// Resolve gathers the data of a template and renders it. Any failure
// aborts the call; no partial content is returned.
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) (*model.Content, error) {
	ctx = ctxlog.With(ctx, "resolution", uuid.NewString(), "template", req.TemplateID, "user", req.User)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Resolving template.", "picture_context", req.PictureContext, "language", req.Language, "json_only", req.DataOnly)

	tmpl, err := e.definitions.GetTemplate(ctx, req.TemplateID, req.User)
	if err != nil {
		return nil, fmt.Errorf("fetching template %s: %w", req.TemplateID, err)
	}
	if tmpl == nil {
		return nil, errs.NotFound("template %s not found or %s not allowed to resolve it", req.TemplateID, req.User)
	}

	language := tmpl.EffectiveLanguage(req.Language)
	pictureContext := tmpl.EffectivePictureContext(req.PictureContext)
	logger.Info("Template will be resolved.", "language", language, "picture_context", pictureContext)

	scope := resolver.NewScope(req.User, language, tmpl.Context, pictureContext, req.DataOnly)
	doc, err := e.assembler.Assemble(ctx, assembler.Request{
		Template:       tmpl,
		Scope:          scope,
		Referential:    req.Referential,
		UserParameters: req.UserParameters,
	})
	if err != nil {
		return nil, err
	}

	return e.dispatcher.Render(ctx, render.Request{
		Template:   tmpl,
		Document:   doc,
		User:       req.User,
		DataOnly:   req.DataOnly,
		TextToPath: req.TextToPath,
	})
}

// HandleContentChanged refreshes every trigger registered against the
// change described by payload. It never fails; problems are logged.
func (e *Engine) HandleContentChanged(ctx context.Context, payload []byte) {
	e.cascade.HandleContentChanged(ctx, payload)
}

// Cascade returns the trigger processor, for callers that need the
// per-trigger report.
func (e *Engine) Cascade() *cascade.Processor {
	return e.cascade
}
