// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Template, the root of a report definition, and the
// small value types it is built from.
package model

import "strings"

// OutputKind selects the renderer used for a template.
type OutputKind string

const (
	KindImage OutputKind = "image"
	KindHTML  OutputKind = "html"
	// KindExport is the historical name of KindHTML.
	KindExport OutputKind = "export"
)

// DatasourcePlaceholder is replaced with the uploaded document URL in HTML
// templates. It must be present in every HTML template.
const DatasourcePlaceholder = "${DATASOURCE}"

// CDNRootPlaceholder is replaced with the configured CDN root in HTML
// templates. It is optional.
const CDNRootPlaceholder = "${CDN_ROOT_URL}"

// RefKind discriminates entity references from event references.
type RefKind string

const (
	RefEntity RefKind = "entity"
	RefEvent  RefKind = "event"
)

// Valid reports whether k is one of the known reference kinds.
func (k RefKind) Valid() bool {
	return k == RefEntity || k == RefEvent
}

// DefaultPictureKind is used when a PictureSpec does not name a kind.
const DefaultPictureKind = "bitmap"

// PictureSpec asks for a picture to be attached to a referential entry.
type PictureSpec struct {
	Format string `json:"format,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// EffectiveKind returns the picture kind, defaulting to bitmap.
func (p PictureSpec) EffectiveKind() string {
	if p.Kind == "" {
		return DefaultPictureKind
	}
	return p.Kind
}

// PictureConfig holds the picture context declared by a template or trigger.
type PictureConfig struct {
	Context string `json:"context,omitempty"`
}

// Reference points at one entity or event to resolve under a logical key.
type Reference struct {
	ID   string  `json:"id,omitempty"`
	Kind RefKind `json:"event_or_entity,omitempty"`
	// FromEvent marks a trigger reference that is replaced by the event
	// which fired the trigger.
	FromEvent bool `json:"from_event,omitempty"`
}

// ReferentialSpec maps logical keys to the references resolved under them.
type ReferentialSpec map[string]Reference

// UserParameters holds caller supplied query parameter values, keyed by
// query id and then by parameter name.
type UserParameters map[string]map[string]any

// Lookup returns the value bound for (queryID, name).
func (u UserParameters) Lookup(queryID, name string) (any, bool) {
	params, ok := u[queryID]
	if !ok {
		return nil, false
	}
	v, ok := params[name]
	return v, ok
}

// Template is a declarative report definition.
type Template struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	Kind         OutputKind      `json:"kind"`
	Language     string          `json:"language"`
	Context      string          `json:"context,omitempty"`
	Picture      *PictureConfig  `json:"picture,omitempty"`
	Queries      []QuerySpec     `json:"queries"`
	Referential  ReferentialSpec `json:"referential,omitempty"`
	AllowedUsers []string        `json:"allowed_users,omitempty"`
	SVG          string          `json:"svg,omitempty"`
	HTML         string          `json:"html,omitempty"`
	Datasource   string          `json:"datasource,omitempty"`
}

// IsImage reports whether the template renders to SVG.
func (t *Template) IsImage() bool {
	return t.Kind == KindImage
}

// Allows reports whether user may resolve the template. An empty access
// list allows everyone.
func (t *Template) Allows(user string) bool {
	if len(t.AllowedUsers) == 0 {
		return true
	}
	for _, u := range t.AllowedUsers {
		if u == user {
			return true
		}
	}
	return false
}

// EffectivePictureContext applies the precedence override > template > none.
func (t *Template) EffectivePictureContext(override string) string {
	if override != "" {
		return override
	}
	if t.Picture != nil {
		return t.Picture.Context
	}
	return ""
}

// EffectiveLanguage applies the precedence override > template.
func (t *Template) EffectiveLanguage(override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return t.Language
}
