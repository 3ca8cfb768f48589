// Package metadata serves template, query and trigger definitions from a
// remote metadata service.
package metadata

import (
	"context"
	"net/http"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
	"resty.dev/v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "http" definitions backend.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDefinitions("http", func(_ context.Context, env registry.Env) (collab.DefinitionStore, error) {
		base, err := http_client.BaseURL(env.Settings, "base_url")
		if err != nil {
			return nil, err
		}
		return New(env.HTTP, base), nil
	})
}

// Client is a DefinitionStore backed by the metadata service.
type Client struct {
	http *resty.Client
	base string
}

// New creates a client talking to the service rooted at base.
func New(c *resty.Client, base string) *Client {
	return &Client{http: c, base: base}
}

func (c *Client) GetTemplate(ctx context.Context, id, user string) (*model.Template, error) {
	var t model.Template
	req := c.http.R().SetContext(ctx).
		SetPathParam("id", id).
		SetQueryParam("user", user).
		SetResult(&t)
	found, err := http_client.Do(req, http.MethodGet, c.base+"/templates/{id}")
	if err != nil || !found {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Fetched template.", "template", id)
	return &t, nil
}

func (c *Client) GetQuery(ctx context.Context, id string) (*model.QueryDefinition, error) {
	var q model.QueryDefinition
	req := c.http.R().SetContext(ctx).SetPathParam("id", id).SetResult(&q)
	found, err := http_client.Do(req, http.MethodGet, c.base+"/queries/{id}")
	if err != nil || !found {
		return nil, err
	}
	return &q, nil
}

func (c *Client) GetFiredTriggers(ctx context.Context, key model.MatchKey) ([]model.Trigger, error) {
	var triggers []model.Trigger
	req := c.http.R().SetContext(ctx).
		SetQueryParam("source", key.Source).
		SetQueryParam("type", key.Type).
		SetResult(&triggers)
	if _, err := http_client.Do(req, http.MethodGet, c.base+"/triggers"); err != nil {
		return nil, err
	}
	return triggers, nil
}
