// Package resolver turns named external references into enriched
// referential entries. It owns the per-resolution Scope, the naming rules
// that derive display fields for entities, and picture attachment.
package resolver
