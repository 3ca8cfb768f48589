// This file contains the logic for translating HCL schema structs into the
// format-agnostic definitions model.

package hcl

import (
	"context"
	"fmt"

	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/schema"
)

func translateQuery(q *schema.Query) *model.QueryDefinition {
	return &model.QueryDefinition{
		ID:         q.ID,
		Name:       q.Name,
		Text:       q.SQL,
		Parameters: q.Parameters,
	}
}

func translatePicture(p *schema.Picture) *model.PictureSpec {
	if p == nil {
		return nil
	}
	return &model.PictureSpec{Format: p.Format, Kind: p.Kind}
}

func translatePictureContext(p *schema.PictureContext) *model.PictureConfig {
	if p == nil {
		return nil
	}
	return &model.PictureConfig{Context: p.Context}
}

func translateReferential(refs []*schema.Referential) (model.ReferentialSpec, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make(model.ReferentialSpec, len(refs))
	for _, r := range refs {
		if _, dup := out[r.Key]; dup {
			return nil, fmt.Errorf("referential %q is defined more than once", r.Key)
		}
		if !r.FromEvent && (r.ID == "" || !model.RefKind(r.Kind).Valid()) {
			return nil, fmt.Errorf("referential %q needs an id and a kind of entity or event", r.Key)
		}
		out[r.Key] = model.Reference{ID: r.ID, Kind: model.RefKind(r.Kind), FromEvent: r.FromEvent}
	}
	return out, nil
}

func translateTemplateQuery(q *schema.TemplateQuery) (model.QuerySpec, error) {
	spec := model.QuerySpec{ID: q.ID, Limit: q.Limit}
	for _, rp := range q.ReferentialParameters {
		spec.ReferentialParameters = append(spec.ReferentialParameters, model.ReferentialParameter{
			Parameter: rp.Parameter,
			Key:       rp.Key,
			Picture:   translatePicture(rp.Picture),
		})
	}
	for _, lb := range q.Labels {
		kind := model.LabelKind(lb.Kind)
		if kind != model.LabelEntity && kind != model.LabelCode {
			return spec, fmt.Errorf("query %q: label %q has unknown kind %q", q.ID, lb.Column, lb.Kind)
		}
		spec.Labels = append(spec.Labels, model.LabelRule{Column: lb.Column, Kind: kind})
	}
	for _, rr := range q.ReferentialResults {
		kind := model.RefKind(rr.Kind)
		if kind == "" {
			kind = model.RefEntity
		}
		if !kind.Valid() {
			return spec, fmt.Errorf("query %q: referential result %q has unknown kind %q", q.ID, rr.Column, rr.Kind)
		}
		spec.ReferentialResults = append(spec.ReferentialResults, model.ReferentialResult{
			Column:   rr.Column,
			Kind:     kind,
			ColumnID: rr.ColumnID,
			Picture:  translatePicture(rr.Picture),
		})
	}
	return spec, nil
}

func translateTemplate(t *schema.Template) (*model.Template, error) {
	ref, err := translateReferential(t.Referential)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", t.ID, err)
	}
	out := &model.Template{
		ID:           t.ID,
		Name:         t.Name,
		Kind:         model.OutputKind(t.Kind),
		Language:     t.Language,
		Context:      t.Context,
		Picture:      translatePictureContext(t.Picture),
		Referential:  ref,
		AllowedUsers: t.AllowedUsers,
		SVG:          t.SVG,
		HTML:         t.HTML,
		Datasource:   t.Datasource,
	}
	for _, q := range t.Queries {
		spec, err := translateTemplateQuery(q)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.ID, err)
		}
		out.Queries = append(out.Queries, spec)
	}
	return out, nil
}

func translateTrigger(ctx context.Context, t *schema.Trigger) (*model.Trigger, error) {
	logger := ctxlog.FromContext(ctx)
	if t.On == nil || t.Template == nil || t.Export == nil {
		return nil, fmt.Errorf("trigger %q needs on, template and export blocks", t.ID)
	}

	ref, err := translateReferential(t.Template.Referential)
	if err != nil {
		return nil, fmt.Errorf("trigger %q: %w", t.ID, err)
	}
	params, err := userParameters(t.Template.UserParameters)
	if err != nil {
		return nil, fmt.Errorf("trigger %q: %w", t.ID, err)
	}
	logger.Debug("Translated trigger.", "trigger", t.ID, "source", t.On.Source, "type", t.On.Type)

	return &model.Trigger{
		ID:       t.ID,
		Name:     t.Name,
		On:       model.MatchKey{Source: t.On.Source, Type: t.On.Type},
		Selector: t.Selector,
		User:     t.User,
		Template: model.TriggerTemplate{
			ID:             t.Template.ID,
			Language:       t.Template.Language,
			DataOnly:       t.Template.JSONOnly,
			Picture:        translatePictureContext(t.Template.Picture),
			Referential:    ref,
			UserParameters: params,
		},
		Export: model.ExportDirective{
			Format:     t.Export.Format,
			Filename:   t.Export.Filename,
			TextToPath: t.Export.TextToPath,
		},
	}, nil
}
