package collab

import (
	"context"

	"github.com/vk/reportgrid/internal/model"
)

// DefinitionStore serves template, query and trigger definitions.
type DefinitionStore interface {
	// GetTemplate returns the template, or nil when it does not exist or
	// user may not resolve it.
	GetTemplate(ctx context.Context, id, user string) (*model.Template, error)
	// GetQuery returns the stored query, or nil when it does not exist.
	GetQuery(ctx context.Context, id string) (*model.QueryDefinition, error)
	// GetFiredTriggers returns every trigger registered for key.
	GetFiredTriggers(ctx context.Context, key model.MatchKey) ([]model.Trigger, error)
}

// QueryExecutor runs stored queries against the data store.
type QueryExecutor interface {
	// Execute runs text with positional params, returning at most limit
	// rows. A negative limit means unlimited.
	Execute(ctx context.Context, text string, params []any, limit int) ([]model.Row, error)
}

// ReferenceData serves entities, events, labels and pictures. Every getter
// returns nil when the item does not exist.
type ReferenceData interface {
	GetEntityByID(ctx context.Context, id, user string) (model.Entry, error)
	GetEventByID(ctx context.Context, id, user string) (model.Entry, error)
	GetEventFiltered(ctx context.Context, contentID string, selector []string, user string) (model.Entry, error)
	GetLabel(ctx context.Context, code, language, context string) (*model.Label, error)
	GetEntityPicture(ctx context.Context, req model.PictureRequest) (any, error)
}

// Composer merges documents into SVG markup and post-processes the result.
type Composer interface {
	// Merge fills svg with values from the serialized document.
	Merge(ctx context.Context, svg string, document []byte) (string, error)
	// TextToPath converts embedded text to vector paths.
	TextToPath(ctx context.Context, svg string) (string, error)
	// PlainSVG normalizes svg without converting text.
	PlainSVG(ctx context.Context, svg string) (string, error)
}

// Delivery stores artifacts and notifies users.
type Delivery interface {
	// GetSubscription returns the user's delivery configuration. A user
	// without configuration yields an empty Subscription, not an error.
	GetSubscription(ctx context.Context, user string) (*model.Subscription, error)
	// Upload stores a data document and returns its URL.
	Upload(ctx context.Context, content []byte, filename string, dest model.ExportConfig) (string, error)
	// Export stores a rendered artifact and returns its URL.
	Export(ctx context.Context, content []byte, filename string, dest model.ExportConfig) (string, error)
	// Notify announces a produced artifact.
	Notify(ctx context.Context, notice model.CompletionNotice) error
}

// Set bundles one implementation of each collaborator.
type Set struct {
	Definitions DefinitionStore
	Queries     QueryExecutor
	References  ReferenceData
	Composer    Composer
	Delivery    Delivery
}
