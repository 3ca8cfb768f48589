package inmemorystore

import (
	"context"
	"sync"

	"github.com/vk/reportgrid/internal/config"
	"github.com/vk/reportgrid/internal/model"
)

// Store is an in-memory definition store.
type Store struct {
	mu        sync.RWMutex
	templates sync.Map // Key: template id, Value: *model.Template
	queries   sync.Map // Key: query id, Value: *model.QueryDefinition
	triggers  map[model.MatchKey][]*model.Trigger
}

// New creates a store holding the definitions of m.
func New(m *config.Model) *Store {
	s := &Store{}
	s.Load(m)
	return s
}

// Load replaces every definition with those of m.
func (s *Store) Load(m *config.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates.Range(func(k, _ any) bool { s.templates.Delete(k); return true })
	s.queries.Range(func(k, _ any) bool { s.queries.Delete(k); return true })
	s.triggers = make(map[model.MatchKey][]*model.Trigger)
	if m == nil {
		return
	}
	for id, t := range m.Templates {
		s.templates.Store(id, t)
	}
	for id, q := range m.Queries {
		s.queries.Store(id, q)
	}
	for _, t := range m.Triggers {
		s.triggers[t.On] = append(s.triggers[t.On], t)
	}
}

// GetTemplate returns a copy of the template, or nil when it does not exist
// or user is not on its access list.
func (s *Store) GetTemplate(_ context.Context, id, user string) (*model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.templates.Load(id)
	if !ok {
		return nil, nil
	}
	t := v.(*model.Template)
	if !t.Allows(user) {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// GetQuery returns a copy of the stored query, or nil.
func (s *Store) GetQuery(_ context.Context, id string) (*model.QueryDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.queries.Load(id)
	if !ok {
		return nil, nil
	}
	cp := *v.(*model.QueryDefinition)
	return &cp, nil
}

// GetFiredTriggers returns the triggers registered for key, in definition
// order.
func (s *Store) GetFiredTriggers(_ context.Context, key model.MatchKey) ([]model.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.triggers[key]
	out := make([]model.Trigger, 0, len(matched))
	for _, t := range matched {
		out = append(out, *t)
	}
	return out, nil
}
