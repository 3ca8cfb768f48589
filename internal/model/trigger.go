// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines triggers and the content-change notifications that
// fire them.
package model

// MatchKey identifies the upstream change a trigger listens to.
type MatchKey struct {
	Source string `json:"source"`
	Type   string `json:"type"`
}

// TriggerTemplate is the template invocation embedded in a trigger.
type TriggerTemplate struct {
	ID             string          `json:"id"`
	Language       string          `json:"language,omitempty"`
	DataOnly       bool            `json:"json_only,omitempty"`
	Picture        *PictureConfig  `json:"picture,omitempty"`
	Referential    ReferentialSpec `json:"referential,omitempty"`
	UserParameters UserParameters  `json:"user_parameters,omitempty"`
}

// ExportDirective describes the artifact a trigger produces.
type ExportDirective struct {
	Format   string `json:"format"`
	Filename string `json:"filename,omitempty"`
	// TextToPath converts SVG text to paths before export. Nil means true.
	TextToPath *bool `json:"text_to_path,omitempty"`
}

// ConvertsTextToPath reports whether text is converted before export.
func (d ExportDirective) ConvertsTextToPath() bool {
	return d.TextToPath == nil || *d.TextToPath
}

// FormatJSON is the export format of pure data exports.
const FormatJSON = "json"

// Trigger re-resolves a template for one user when a matching change occurs.
type Trigger struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	On       MatchKey        `json:"on_event"`
	Selector []string        `json:"selector,omitempty"`
	Template TriggerTemplate `json:"template"`
	User     string          `json:"user"`
	Export   ExportDirective `json:"export"`
}

// ReferentialFor returns the trigger's referential spec with every
// from_event marker replaced by a reference to the changed event.
func (t *Trigger) ReferentialFor(eventID string) ReferentialSpec {
	if t.Template.Referential == nil {
		return nil
	}
	out := make(ReferentialSpec, len(t.Template.Referential))
	for k, ref := range t.Template.Referential {
		if ref.FromEvent {
			ref = Reference{ID: eventID, Kind: RefEvent}
		}
		out[k] = ref
	}
	return out
}

// NotificationMeta describes the change carried by a Notification.
type NotificationMeta struct {
	Source    string `json:"source"`
	Type      string `json:"type"`
	ContentID string `json:"content_id,omitempty"`
}

// Notification is a broadcast content-change message.
type Notification struct {
	ID   string           `json:"id"`
	Meta NotificationMeta `json:"meta"`
}

// ContentID returns the id of the changed content, defaulting to the
// notification id.
func (n *Notification) ContentID() string {
	if n.Meta.ContentID != "" {
		return n.Meta.ContentID
	}
	return n.ID
}

// MatchKey returns the key used to look up fired triggers.
func (n *Notification) MatchKey() MatchKey {
	return MatchKey{Source: n.Meta.Source, Type: n.Meta.Type}
}
