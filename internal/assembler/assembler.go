// Package assembler produces the Result Document of a template: it
// resolves the referential, runs every query in order and labels and
// enriches the returned rows.
package assembler

import (
	"context"
	"fmt"

	"github.com/vk/reportgrid/internal/binder"
	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/labeler"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/resolver"
)

// Request carries the inputs of one assembly.
type Request struct {
	Template *model.Template
	Scope    *resolver.Scope
	// Referential overrides the template's own referential when non-nil.
	Referential    model.ReferentialSpec
	UserParameters model.UserParameters
}

// Assembler gathers template data from the collaborators.
type Assembler struct {
	definitions collab.DefinitionStore
	queries     collab.QueryExecutor
	resolver    *resolver.Resolver
	binder      *binder.Binder
	labeler     *labeler.Labeler
}

// New wires an Assembler over the collaborator set.
func New(s collab.Set) *Assembler {
	r := resolver.New(s.References)
	return &Assembler{
		definitions: s.Definitions,
		queries:     s.Queries,
		resolver:    r,
		binder:      binder.New(r),
		labeler:     labeler.New(s.References, r),
	}
}

// Assemble builds the Result Document for req.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*model.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Building template data.")
	scope := req.Scope

	spec := req.Referential
	if spec == nil {
		spec = req.Template.Referential
	}
	if err := a.resolver.ResolveAll(ctx, scope, spec); err != nil {
		return nil, fmt.Errorf("resolving referential: %w", err)
	}

	results := make(map[string][]model.Row, len(req.Template.Queries))
	for _, q := range req.Template.Queries {
		rows, err := a.runQuery(ctx, scope, q, req.UserParameters)
		if err != nil {
			return nil, err
		}
		results[q.ID] = rows
	}

	return &model.Document{
		Referential: scope.Refs.Snapshot(),
		Query:       results,
	}, nil
}

func (a *Assembler) runQuery(ctx context.Context, scope *resolver.Scope, q model.QuerySpec, user model.UserParameters) ([]model.Row, error) {
	logger := ctxlog.FromContext(ctx).With("query", q.ID)

	def, err := a.definitions.GetQuery(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching query %s: %w", q.ID, err)
	}
	if def == nil {
		return nil, errs.NotFound("query %s not found", q.ID)
	}

	params, err := a.binder.Bind(ctx, scope, q, def, user)
	if err != nil {
		return nil, err
	}

	limit := q.EffectiveLimit()
	logger.Info("Executing query.", "limit", limit, "parameters", len(params))
	rows, err := a.queries.Execute(ctx, def.Text, params, limit)
	if err != nil {
		return nil, errs.QueryExecution(err, "an error occurred while executing query %s", q.ID)
	}
	if len(rows) == 0 {
		return nil, errs.EmptyResult("query %s returns nothing", q.ID)
	}

	labeled := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		out, err := a.labeler.Label(ctx, scope, q, row)
		if err != nil {
			return nil, err
		}
		labeled = append(labeled, out)
		if err := a.labeler.Enrich(ctx, scope, q, row); err != nil {
			return nil, err
		}
	}
	return labeled, nil
}
