// Package svgbuilder merges documents into SVG markup through a remote SVG
// builder service.
package svgbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
	"resty.dev/v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "http" composer backend.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComposer("http", func(_ context.Context, env registry.Env) (collab.Composer, error) {
		base, err := http_client.BaseURL(env.Settings, "base_url")
		if err != nil {
			return nil, err
		}
		return New(env.HTTP, base), nil
	})
}

type mergeRequest struct {
	SVG      string          `json:"svg"`
	Document json.RawMessage `json:"document"`
}

type svgPayload struct {
	SVG string `json:"svg"`
}

// Client is a Composer backed by the SVG builder service.
type Client struct {
	http *resty.Client
	base string
}

// New creates a client talking to the service rooted at base.
func New(c *resty.Client, base string) *Client {
	return &Client{http: c, base: base}
}

func (c *Client) Merge(ctx context.Context, svg string, document []byte) (string, error) {
	return c.post(ctx, "/merge", mergeRequest{SVG: svg, Document: document})
}

func (c *Client) TextToPath(ctx context.Context, svg string) (string, error) {
	return c.post(ctx, "/text-to-path", svgPayload{SVG: svg})
}

func (c *Client) PlainSVG(ctx context.Context, svg string) (string, error) {
	return c.post(ctx, "/plain", svgPayload{SVG: svg})
}

// post sends body to path. A rejected request is a composition failure,
// anything else is a network failure.
func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	var res svgPayload
	req := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&res)
	found, err := http_client.Do(req, http.MethodPost, c.base+path)
	if err != nil {
		var statusErr *http_client.StatusError
		if errors.As(err, &statusErr) && statusErr.ClientError() {
			return "", errs.Composition(err, "svg builder rejected %s", path)
		}
		return "", errs.Network(err, "svg builder %s failed", path)
	}
	if !found {
		return "", errs.Composition(nil, "svg builder has no %s endpoint", path)
	}
	return res.SVG, nil
}
