package config

import (
	"fmt"
	"sort"

	"github.com/vk/reportgrid/internal/model"
)

// Model is the unified, format-agnostic representation of every report
// definition known to the application.
type Model struct {
	Templates map[string]*model.Template
	Queries   map[string]*model.QueryDefinition
	Triggers  []*model.Trigger
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{
		Templates: make(map[string]*model.Template),
		Queries:   make(map[string]*model.QueryDefinition),
	}
}

// AddTemplate registers t, rejecting duplicate ids.
func (m *Model) AddTemplate(t *model.Template) error {
	if _, exists := m.Templates[t.ID]; exists {
		return fmt.Errorf("template %q is defined more than once", t.ID)
	}
	m.Templates[t.ID] = t
	return nil
}

// AddQuery registers q, rejecting duplicate ids.
func (m *Model) AddQuery(q *model.QueryDefinition) error {
	if _, exists := m.Queries[q.ID]; exists {
		return fmt.Errorf("query %q is defined more than once", q.ID)
	}
	m.Queries[q.ID] = q
	return nil
}

// AddTrigger registers t, rejecting duplicate ids.
func (m *Model) AddTrigger(t *model.Trigger) error {
	for _, existing := range m.Triggers {
		if existing.ID == t.ID {
			return fmt.Errorf("trigger %q is defined more than once", t.ID)
		}
	}
	m.Triggers = append(m.Triggers, t)
	return nil
}

// Validate checks cross references between definitions.
func (m *Model) Validate() error {
	ids := make([]string, 0, len(m.Templates))
	for id := range m.Templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		t := m.Templates[id]
		switch t.Kind {
		case model.KindImage, model.KindHTML, model.KindExport:
		default:
			return fmt.Errorf("template %q: unknown kind %q", id, t.Kind)
		}
		for _, q := range t.Queries {
			if _, ok := m.Queries[q.ID]; !ok {
				return fmt.Errorf("template %q: query %q is not defined", id, q.ID)
			}
		}
		for key, ref := range t.Referential {
			if ref.FromEvent {
				return fmt.Errorf("template %q: referential %q: from_event is only valid in triggers", id, key)
			}
		}
	}
	for _, tr := range m.Triggers {
		if _, ok := m.Templates[tr.Template.ID]; !ok {
			return fmt.Errorf("trigger %q: template %q is not defined", tr.ID, tr.Template.ID)
		}
		if tr.User == "" {
			return fmt.Errorf("trigger %q: user is required", tr.ID)
		}
	}
	return nil
}
