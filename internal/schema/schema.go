// Package schema holds the HCL decoding structures of definition files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Stored queries ---

// Query represents a `query` block: a stored, parameterized query.
type Query struct {
	ID         string   `hcl:"id,label"`
	Name       string   `hcl:"name,optional"`
	SQL        string   `hcl:"sql"`
	Parameters []string `hcl:"parameters,optional"`
}

// --- Templates ---

// Picture addresses the pictures fetched for a referential entry.
type Picture struct {
	Format string `hcl:"format"`
	Kind   string `hcl:"kind,optional"`
}

// PictureContext selects the picture context of a template or trigger.
type PictureContext struct {
	Context string `hcl:"context"`
}

// Referential represents a `referential` block naming one entity or event.
type Referential struct {
	Key       string `hcl:"key,label"`
	ID        string `hcl:"id,optional"`
	Kind      string `hcl:"kind,optional"`
	FromEvent bool   `hcl:"from_event,optional"`
}

// ReferentialParameter binds a query parameter to a referential entry.
type ReferentialParameter struct {
	Parameter string   `hcl:"parameter,label"`
	Key       string   `hcl:"key"`
	Picture   *Picture `hcl:"picture,block"`
}

// Label rewrites a result column into display text.
type Label struct {
	Column string `hcl:"column,label"`
	Kind   string `hcl:"kind"`
}

// ReferentialResult feeds a result column into the referential.
type ReferentialResult struct {
	Column   string   `hcl:"column,label"`
	Kind     string   `hcl:"kind,optional"`
	ColumnID string   `hcl:"column_id"`
	Picture  *Picture `hcl:"picture,block"`
}

// TemplateQuery represents a `query` block nested in a template.
type TemplateQuery struct {
	ID                    string                  `hcl:"id,label"`
	Limit                 *int                    `hcl:"limit,optional"`
	ReferentialParameters []*ReferentialParameter `hcl:"referential_parameter,block"`
	Labels                []*Label                `hcl:"label,block"`
	ReferentialResults    []*ReferentialResult    `hcl:"referential_result,block"`
}

// Template represents a `template` block.
type Template struct {
	ID           string           `hcl:"id,label"`
	Name         string           `hcl:"name,optional"`
	Kind         string           `hcl:"kind"`
	Language     string           `hcl:"language,optional"`
	Context      string           `hcl:"context,optional"`
	AllowedUsers []string         `hcl:"allowed_users,optional"`
	SVG          string           `hcl:"svg,optional"`
	HTML         string           `hcl:"html,optional"`
	Datasource   string           `hcl:"datasource,optional"`
	Picture      *PictureContext  `hcl:"picture,block"`
	Referential  []*Referential   `hcl:"referential,block"`
	Queries      []*TemplateQuery `hcl:"query,block"`
}

// --- Triggers ---

// MatchKey represents the `on` block of a trigger.
type MatchKey struct {
	Source string `hcl:"source"`
	Type   string `hcl:"type"`
}

// TriggerTemplate represents the `template` block of a trigger.
type TriggerTemplate struct {
	ID             string          `hcl:"id,label"`
	Language       string          `hcl:"language,optional"`
	JSONOnly       bool            `hcl:"json_only,optional"`
	Picture        *PictureContext `hcl:"picture,block"`
	Referential    []*Referential  `hcl:"referential,block"`
	UserParameters *cty.Value      `hcl:"user_parameters,optional"`
}

// Export represents the `export` block of a trigger.
type Export struct {
	Format     string `hcl:"format"`
	Filename   string `hcl:"filename,optional"`
	TextToPath *bool  `hcl:"text_to_path,optional"`
}

// Trigger represents a `trigger` block.
type Trigger struct {
	ID       string           `hcl:"id,label"`
	Name     string           `hcl:"name,optional"`
	User     string           `hcl:"user"`
	Selector []string         `hcl:"selector,optional"`
	On       *MatchKey        `hcl:"on,block"`
	Template *TriggerTemplate `hcl:"template,block"`
	Export   *Export          `hcl:"export,block"`
}

// DefinitionFile represents the top-level structure of a definitions file.
type DefinitionFile struct {
	Queries   []*Query    `hcl:"query,block"`
	Templates []*Template `hcl:"template,block"`
	Triggers  []*Trigger  `hcl:"trigger,block"`
	Body      hcl.Body    `hcl:",remain"`
}
