// Package referential serves entities, events, labels and pictures from a
// remote referential service.
package referential

import (
	"context"
	"net/http"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
	"resty.dev/v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "http" reference data backend.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterReferences("http", func(_ context.Context, env registry.Env) (collab.ReferenceData, error) {
		base, err := http_client.BaseURL(env.Settings, "base_url")
		if err != nil {
			return nil, err
		}
		return New(env.HTTP, base), nil
	})
}

type filterRequest struct {
	ContentID string   `json:"content_id"`
	Selector  []string `json:"selector"`
	User      string   `json:"user"`
}

type pictureRequest struct {
	ID      string `json:"id"`
	Context string `json:"context"`
	Format  string `json:"format"`
	Kind    string `json:"kind"`
	User    string `json:"user"`
}

type pictureResponse struct {
	Picture any `json:"picture"`
}

// Client is a ReferenceData backed by the referential service.
type Client struct {
	http *resty.Client
	base string
}

// New creates a client talking to the service rooted at base.
func New(c *resty.Client, base string) *Client {
	return &Client{http: c, base: base}
}

func (c *Client) getEntry(ctx context.Context, path, id, user string) (model.Entry, error) {
	var e model.Entry
	req := c.http.R().SetContext(ctx).
		SetPathParam("id", id).
		SetQueryParam("user", user).
		SetResult(&e)
	found, err := http_client.Do(req, http.MethodGet, c.base+path)
	if err != nil || !found {
		return nil, err
	}
	return e, nil
}

func (c *Client) GetEntityByID(ctx context.Context, id, user string) (model.Entry, error) {
	return c.getEntry(ctx, "/entities/{id}", id, user)
}

func (c *Client) GetEventByID(ctx context.Context, id, user string) (model.Entry, error) {
	return c.getEntry(ctx, "/events/{id}", id, user)
}

// GetEventFiltered returns the event only when it passes selector for user.
func (c *Client) GetEventFiltered(ctx context.Context, contentID string, selector []string, user string) (model.Entry, error) {
	var e model.Entry
	req := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(filterRequest{ContentID: contentID, Selector: selector, User: user}).
		SetResult(&e)
	found, err := http_client.Do(req, http.MethodPost, c.base+"/events/filtered")
	if err != nil || !found {
		return nil, err
	}
	return e, nil
}

func (c *Client) GetLabel(ctx context.Context, code, language, labelContext string) (*model.Label, error) {
	var l model.Label
	req := c.http.R().SetContext(ctx).
		SetPathParam("code", code).
		SetQueryParam("language", language).
		SetQueryParam("context", labelContext).
		SetResult(&l)
	found, err := http_client.Do(req, http.MethodGet, c.base+"/labels/{code}")
	if err != nil || !found {
		return nil, err
	}
	return &l, nil
}

func (c *Client) GetEntityPicture(ctx context.Context, p model.PictureRequest) (any, error) {
	var res pictureResponse
	req := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(pictureRequest(p)).
		SetResult(&res)
	found, err := http_client.Do(req, http.MethodPost, c.base+"/pictures")
	if err != nil || !found {
		return nil, err
	}
	return res.Picture, nil
}
