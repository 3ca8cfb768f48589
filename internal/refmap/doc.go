// Package refmap provides the Referential Results Map: the mutable,
// per-resolution store of resolved entities and events shared by the
// resolver, the parameter binder and the row enricher.
//
// # Purpose
//
// A Map is created at the start of one resolution (an interactive call or
// one trigger of a cascade) and discarded at its end. It plays two roles:
//
//   - Results: entries keyed by the natural key under which the template
//     refers to them. This is what ends up in the document.
//   - Memo: entries keyed by (reference id, kind), so that a reference used
//     by the top-level spec, a parameter binding and row enrichment is
//     fetched from the reference-data service exactly once.
//
// # Concurrency Model
//
// Resolution is sequential, but the Map is safe for concurrent use: writes
// are serialized by a mutex and concurrent fetches of the same reference
// collapse into one call through singleflight.
package refmap
