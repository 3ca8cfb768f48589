// Package datareader executes stored queries through a remote data reader
// service.
package datareader

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

// Register registers the "http" query backend.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterQueries("http", func(_ context.Context, env registry.Env) (collab.QueryExecutor, error) {
		base, err := http_client.BaseURL(env.Settings, "base_url")
		if err != nil {
			return nil, err
		}
		return New(env.HTTP, base), nil
	})
}

type executeRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
	Limit  int    `json:"limit"`
}

type executeResponse struct {
	Rows []model.Row `json:"rows"`
}

// Client is a QueryExecutor backed by the data reader service.
type Client struct {
	http *resty.Client
	base string
}

// New creates a client talking to the service rooted at base.
func New(c *resty.Client, base string) *Client {
	return &Client{http: c, base: base}
}

func (c *Client) Execute(ctx context.Context, text string, params []any, limit int) ([]model.Row, error) {
	if params == nil {
		params = []any{}
	}
	var res executeResponse
	req := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(executeRequest{SQL: text, Params: params, Limit: limit}).
		SetResult(&res)
	if err := http_client.Send(req, http.MethodPost, c.base+"/execute"); err != nil {
		return nil, err
	}
	if res.Rows == nil {
		return []model.Row{}, nil
	}
	return res.Rows, nil
}
