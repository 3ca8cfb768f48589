package refmap

import (
	"context"
	"sync"

	"github.com/vk/reportgrid/internal/model"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads one reference. It returns a nil entry when the reference
// does not exist.
type FetchFunc func(ctx context.Context) (model.Entry, error)

// PictureFunc loads one picture. It returns nil when there is none.
type PictureFunc func() (any, error)

type ref struct {
	id   string
	kind model.RefKind
}

// Map is the Referential Results Map of one resolution.
type Map struct {
	mu      sync.Mutex
	entries map[string]model.Entry
	memo    map[ref]model.Entry
	flight  singleflight.Group
}

// New creates an empty Map.
func New() *Map {
	return &Map{
		entries: make(map[string]model.Entry),
		memo:    make(map[ref]model.Entry),
	}
}

// Get returns the entry stored under key.
func (m *Map) Get(key string) (model.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

// Put stores entry under key, replacing any previous entry.
func (m *Map) Put(key string, entry model.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
}

// Len returns the number of keyed entries.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Fetch returns the memoized entry for (id, kind), calling fetch only the
// first time. Missing references (nil entries) are memoized too; failures
// are not.
func (m *Map) Fetch(ctx context.Context, id string, kind model.RefKind, fetch FetchFunc) (model.Entry, error) {
	r := ref{id: id, kind: kind}
	m.mu.Lock()
	if e, ok := m.memo[r]; ok {
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	v, err, _ := m.flight.Do(string(kind)+"\x00"+id, func() (any, error) {
		m.mu.Lock()
		if e, ok := m.memo[r]; ok {
			m.mu.Unlock()
			return e, nil
		}
		m.mu.Unlock()

		e, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.memo[r] = e
		m.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	e, _ := v.(model.Entry)
	return e, nil
}

// AttachPicture stores the picture of key's entry for format, calling
// fetch at most once per (entry, format). The slot is reserved as null
// before fetching, so a miss stays cached as null. It returns the picture
// and whether it came from the cache; ok is false when key is unknown.
func (m *Map) AttachPicture(key, format string, fetch PictureFunc) (picture any, cached, ok bool, err error) {
	m.mu.Lock()
	entry, found := m.entries[key]
	if !found {
		m.mu.Unlock()
		return nil, false, false, nil
	}
	pictures := entry.Object(model.FieldPicture)
	if pictures == nil {
		pictures = make(map[string]any)
		entry[model.FieldPicture] = pictures
	}
	if p, hit := pictures[format]; hit {
		m.mu.Unlock()
		return p, true, true, nil
	}
	pictures[format] = nil
	m.mu.Unlock()

	picture, err = fetch()
	if err != nil || picture == nil {
		return nil, false, true, err
	}
	m.mu.Lock()
	pictures[format] = picture
	m.mu.Unlock()
	return picture, false, true, nil
}

// Snapshot returns a copy of the keyed entries for the result document.
func (m *Map) Snapshot() map[string]model.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
