// Package exporter implements delivery: user subscriptions, artifact
// storage and completion notifications. Artifacts whose target type has a
// registered object store are written there directly; everything else goes
// through the remote exporter service.
package exporter

import (
	"context"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
	"resty.dev/v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "http" delivery backend.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDelivery("http", func(_ context.Context, env registry.Env) (collab.Delivery, error) {
		c := &Client{http: env.HTTP, stores: env.Stores}
		var err error
		if c.subscriptions, err = http_client.BaseURL(env.Settings, "subscription_url"); err != nil {
			return nil, err
		}
		if c.exporter, err = http_client.BaseURL(env.Settings, "exporter_url"); err != nil {
			return nil, err
		}
		if c.notifier, err = http_client.BaseURL(env.Settings, "notifier_url"); err != nil {
			return nil, err
		}
		return c, nil
	})
}

type artifact struct {
	Filename    string             `json:"filename"`
	ContentType string             `json:"content_type"`
	Content     []byte             `json:"content"`
	Target      model.ExportTarget `json:"target"`
}

type artifactURL struct {
	URL string `json:"url"`
}

// Client is a Delivery over the subscription, exporter and notifier
// services.
type Client struct {
	http          *resty.Client
	stores        map[string]registry.ObjectStore
	subscriptions string
	exporter      string
	notifier      string
}

// GetSubscription returns the user's subscription. An unknown user gets an
// empty one.
func (c *Client) GetSubscription(ctx context.Context, user string) (*model.Subscription, error) {
	var sub model.Subscription
	req := c.http.R().SetContext(ctx).SetPathParam("user", user).SetResult(&sub)
	found, err := http_client.Do(req, http.MethodGet, c.subscriptions+"/subscriptions/{user}")
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.Subscription{User: user}, nil
	}
	return &sub, nil
}

func (c *Client) Upload(ctx context.Context, content []byte, filename string, dest model.ExportConfig) (string, error) {
	return c.store(ctx, "/uploads", content, filename, dest)
}

func (c *Client) Export(ctx context.Context, content []byte, filename string, dest model.ExportConfig) (string, error) {
	return c.store(ctx, "/exports", content, filename, dest)
}

func (c *Client) store(ctx context.Context, path string, content []byte, filename string, dest model.ExportConfig) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	logger := ctxlog.FromContext(ctx).With("filename", filename, "target", dest.Target.Type)
	if s, ok := c.stores[dest.Target.Type]; ok {
		logger.Debug("Storing artifact directly.")
		return s.Put(ctx, content, filename, contentType, dest.Target)
	}

	var res artifactURL
	req := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(artifact{Filename: filename, ContentType: contentType, Content: content, Target: dest.Target}).
		SetResult(&res)
	if err := http_client.Send(req, http.MethodPost, c.exporter+path); err != nil {
		return "", err
	}
	logger.Debug("Artifact stored by exporter.", "url", res.URL)
	return res.URL, nil
}

func (c *Client) Notify(ctx context.Context, notice model.CompletionNotice) error {
	req := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(notice)
	return http_client.Send(req, http.MethodPost, c.notifier+"/notifications")
}
