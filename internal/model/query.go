// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines stored query definitions and the per-template
// QuerySpec that invokes them.
package model

// DefaultQueryLimit is applied when a QuerySpec does not set a limit.
const DefaultQueryLimit = 50

// QueryDefinition is a stored parameterized query.
type QueryDefinition struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Text string `json:"sql"`
	// Parameters are the declared parameter names, in placeholder order.
	// A name may appear more than once.
	Parameters []string `json:"parameters,omitempty"`
}

// LabelKind selects how a labeled column is rewritten.
type LabelKind string

const (
	// LabelEntity replaces an entity id with the entity's canonical name.
	LabelEntity LabelKind = "entity"
	// LabelCode replaces a code with its translated label.
	LabelCode LabelKind = "label"
)

// ReferentialParameter binds a query parameter to the id of a resolved
// referential entry.
type ReferentialParameter struct {
	Parameter string       `json:"parameter"`
	Key       string       `json:"name"`
	Picture   *PictureSpec `json:"picture,omitempty"`
}

// LabelRule rewrites one column of every returned row.
type LabelRule struct {
	Column string    `json:"column"`
	Kind   LabelKind `json:"kind"`
}

// ReferentialResult resolves the reference found in Column and stores it in
// the referential results under the value found in ColumnID.
type ReferentialResult struct {
	Column   string       `json:"column"`
	Kind     RefKind      `json:"event_or_entity"`
	ColumnID string       `json:"column_id"`
	Picture  *PictureSpec `json:"picture,omitempty"`
}

// QuerySpec is one query of a template.
type QuerySpec struct {
	ID                    string                 `json:"id"`
	Limit                 *int                   `json:"limit,omitempty"`
	ReferentialParameters []ReferentialParameter `json:"referential_parameters,omitempty"`
	Labels                []LabelRule            `json:"labels,omitempty"`
	ReferentialResults    []ReferentialResult    `json:"referential_results,omitempty"`
}

// EffectiveLimit returns the row limit; negative means unlimited.
func (q QuerySpec) EffectiveLimit() int {
	if q.Limit == nil {
		return DefaultQueryLimit
	}
	return *q.Limit
}
