// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the schemaless documents exchanged with collaborators.
package model

import "fmt"

// Field names the pipeline reads from or writes to an Entry.
const (
	FieldID            = "id"
	FieldCommonName    = "common_name"
	FieldDisplayName   = "display_name"
	FieldShortName     = "short_name"
	FieldMultilineName = "multiline_name"
	FieldPicture       = "picture"
	FieldI18n          = "internationalization"
	FieldInformations  = "informations"
	FieldMultiline     = "multiline"
	FieldKnown         = "known"
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
)

// Entry is a resolved entity or event.
type Entry map[string]any

// ID returns the entry id as a string.
func (e Entry) ID() string {
	return KeyOf(e[FieldID])
}

// String returns the string stored under field, or "".
func (e Entry) String(field string) string {
	s, _ := e[field].(string)
	return s
}

// Object returns the nested object stored under field, or nil.
func (e Entry) Object(field string) map[string]any {
	switch v := e[field].(type) {
	case map[string]any:
		return v
	case Entry:
		return v
	}
	return nil
}

// Row is one result row of a query, keyed by column name.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// KeyOf renders a data value as a referential key. Keys found in rows may
// be numbers; they are keyed by their textual form.
func KeyOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
	}
	return fmt.Sprint(v)
}

// Label is a translated code.
type Label struct {
	Label string `json:"label"`
}

// Document is the terminal output of a resolution.
type Document struct {
	Referential map[string]Entry `json:"referential"`
	Query       map[string][]Row `json:"query"`
}
