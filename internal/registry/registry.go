package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/model"
	"resty.dev/v3"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// ObjectStore writes artifacts directly to a storage target.
type ObjectStore interface {
	Put(ctx context.Context, content []byte, filename, contentType string, target model.ExportTarget) (string, error)
}

// ChangeHandler consumes one content-change notification payload.
type ChangeHandler func(ctx context.Context, payload []byte)

// ChangeSource delivers content-change notifications until ctx is done.
type ChangeSource interface {
	Listen(ctx context.Context, handle ChangeHandler) error
}

// Env is what a factory may build a backend from.
type Env struct {
	Settings Settings
	// HTTP is the shared HTTP client asset.
	HTTP *resty.Client
	// Stores are the object stores keyed by export target type.
	Stores map[string]ObjectStore
}

// Factory builds a backend of type T.
type Factory[T any] func(ctx context.Context, env Env) (T, error)

// Registry holds all the registered backend factories for a single
// application instance.
type Registry struct {
	Definitions map[string]Factory[collab.DefinitionStore]
	Queries     map[string]Factory[collab.QueryExecutor]
	References  map[string]Factory[collab.ReferenceData]
	Composers   map[string]Factory[collab.Composer]
	Deliveries  map[string]Factory[collab.Delivery]
	Stores      map[string]Factory[ObjectStore]
	Sources     map[string]Factory[ChangeSource]
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		Definitions: make(map[string]Factory[collab.DefinitionStore]),
		Queries:     make(map[string]Factory[collab.QueryExecutor]),
		References:  make(map[string]Factory[collab.ReferenceData]),
		Composers:   make(map[string]Factory[collab.Composer]),
		Deliveries:  make(map[string]Factory[collab.Delivery]),
		Stores:      make(map[string]Factory[ObjectStore]),
		Sources:     make(map[string]Factory[ChangeSource]),
	}
}

func register[T any](role string, m map[string]Factory[T], name string, f Factory[T]) {
	if _, exists := m[name]; exists {
		panic(fmt.Sprintf("%s backend with name '%s' already registered", role, name))
	}
	slog.Debug("Registering backend.", "role", role, "name", name)
	m[name] = f
}

func (r *Registry) RegisterDefinitions(name string, f Factory[collab.DefinitionStore]) {
	register("definitions", r.Definitions, name, f)
}

func (r *Registry) RegisterQueries(name string, f Factory[collab.QueryExecutor]) {
	register("queries", r.Queries, name, f)
}

func (r *Registry) RegisterReferences(name string, f Factory[collab.ReferenceData]) {
	register("references", r.References, name, f)
}

func (r *Registry) RegisterComposer(name string, f Factory[collab.Composer]) {
	register("composer", r.Composers, name, f)
}

func (r *Registry) RegisterDelivery(name string, f Factory[collab.Delivery]) {
	register("delivery", r.Deliveries, name, f)
}

func (r *Registry) RegisterStore(name string, f Factory[ObjectStore]) {
	register("store", r.Stores, name, f)
}

func (r *Registry) RegisterSource(name string, f Factory[ChangeSource]) {
	register("source", r.Sources, name, f)
}

// Build looks up the factory registered under name and runs it.
func Build[T any](ctx context.Context, m map[string]Factory[T], name string, env Env) (T, error) {
	f, ok := m[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("no backend named %q (available: %v)", name, Names(m))
	}
	return f(ctx, env)
}

// Names returns the registered names of m, sorted.
func Names[T any](m map[string]Factory[T]) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
