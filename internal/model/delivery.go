// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines per-user delivery configuration and rendered content.
package model

// ExportTarget names where artifacts of a user are stored.
type ExportTarget struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// ExportConfig is a user's export destination.
type ExportConfig struct {
	Target ExportTarget `json:"target"`
}

// NotificationConfig is a user's completion notification channel.
type NotificationConfig struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// Subscription gathers a user's delivery configuration. Either part may be
// absent.
type Subscription struct {
	User         string              `json:"user"`
	Export       *ExportConfig       `json:"export,omitempty"`
	Notification *NotificationConfig `json:"notification,omitempty"`
}

// CompletionNotice announces a produced artifact.
type CompletionNotice struct {
	Channel  string `json:"channel"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Context  string `json:"context"`
}

// Content types produced by the renderer.
const (
	ContentTypeJSON = "application/json"
	ContentTypeSVG  = "image/svg+xml"
	ContentTypeHTML = "text/html"
)

// Content is a rendered report.
type Content struct {
	Body        string `json:"content"`
	ContentType string `json:"mimetype"`
}

// PictureRequest addresses one picture of a referential entry.
type PictureRequest struct {
	ID      string
	Context string
	Format  string
	Kind    string
	User    string
}
