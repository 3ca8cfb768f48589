package cascade

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
	"github.com/vk/reportgrid/internal/model"
)

// notificationSchema is the minimal shape of a content-change notification.
const notificationSchema = `{
  "type": "object",
  "required": ["id", "meta"],
  "properties": {
    "id": {"type": ["string", "number"], "minLength": 1},
    "meta": {
      "type": "object",
      "required": ["source", "type"],
      "properties": {
        "source": {"type": "string", "minLength": 1},
        "type": {"type": "string", "minLength": 1},
        "content_id": {"type": ["string", "number"]}
      }
    }
  }
}`

// wireNotification accepts string or numeric ids.
type wireNotification struct {
	ID   any `json:"id"`
	Meta struct {
		Source    string `json:"source"`
		Type      string `json:"type"`
		ContentID any    `json:"content_id"`
	} `json:"meta"`
}

type decoder struct {
	schema *jsonschema.Schema
}

func newDecoder() (*decoder, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(notificationSchema))
	if err != nil {
		return nil, fmt.Errorf("compile notification schema: %w", err)
	}
	return &decoder{schema: schema}, nil
}

// decode validates payload and returns the notification it carries.
func (d *decoder) decode(payload []byte) (*model.Notification, error) {
	if !json.Valid(payload) {
		return nil, fmt.Errorf("notification is not valid JSON")
	}
	result := d.schema.ValidateJSON(payload)
	if !result.IsValid() {
		return nil, fmt.Errorf("schema validation failed: %v", result.Errors)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var w wireNotification
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &model.Notification{
		ID: model.KeyOf(w.ID),
		Meta: model.NotificationMeta{
			Source:    w.Meta.Source,
			Type:      w.Meta.Type,
			ContentID: model.KeyOf(w.Meta.ContentID),
		},
	}, nil
}
