// Package inmemorystore provides a thread-safe, in-memory implementation
// of collab.DefinitionStore. Definitions are loaded once from a
// config.Model and may be swapped atomically on reload.
//
// # Concurrency Model
//
// Lookups vastly outnumber reloads, so each kind of definition lives in a
// sync.Map and triggers are indexed by match key. A reload replaces every
// index before returning.
package inmemorystore
