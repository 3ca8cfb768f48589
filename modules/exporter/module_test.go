package exporter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
)

type recorder struct {
	mu        sync.Mutex
	artifacts map[string][]artifact
	notices   []model.CompletionNotice
}

func (rec *recorder) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /subscriptions/{user}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("user") != "alice" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.Subscription{
			User:         "alice",
			Export:       &model.ExportConfig{Target: model.ExportTarget{Type: "ftp"}},
			Notification: &model.NotificationConfig{Type: "slack", Channel: "scores"},
		})
	})
	store := func(w http.ResponseWriter, r *http.Request) {
		var a artifact
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		rec.mu.Lock()
		rec.artifacts[r.URL.Path] = append(rec.artifacts[r.URL.Path], a)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(artifactURL{URL: "https://files.example.test/" + a.Filename})
	}
	mux.HandleFunc("POST /uploads", store)
	mux.HandleFunc("POST /exports", store)
	mux.HandleFunc("POST /notifications", func(w http.ResponseWriter, r *http.Request) {
		var n model.CompletionNotice
		require.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		rec.mu.Lock()
		rec.notices = append(rec.notices, n)
		rec.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

type memStore struct {
	puts []string
}

func (m *memStore) Put(_ context.Context, content []byte, filename, contentType string, target model.ExportTarget) (string, error) {
	m.puts = append(m.puts, filename+"|"+contentType+"|"+string(content))
	return "mem://" + target.Type + "/" + filename, nil
}

func newClient(t *testing.T) (collab.Delivery, *recorder, *memStore) {
	t.Helper()
	rec := &recorder{artifacts: make(map[string][]artifact)}
	srv := httptest.NewServer(rec.handler(t))
	t.Cleanup(srv.Close)

	hc, err := http_client.New(registry.Settings{})
	require.NoError(t, err)
	mem := &memStore{}
	r := registry.New()
	(&Module{}).Register(r)
	d, err := registry.Build(context.Background(), r.Deliveries, "http", registry.Env{
		Settings: registry.Settings{
			"subscription_url": srv.URL,
			"exporter_url":     srv.URL,
			"notifier_url":     srv.URL,
		},
		HTTP:   hc,
		Stores: map[string]registry.ObjectStore{"s3": mem},
	})
	require.NoError(t, err)
	return d, rec, mem
}

func TestClient_GetSubscription(t *testing.T) {
	d, _, _ := newClient(t)
	ctx := context.Background()

	sub, err := d.GetSubscription(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, sub.Export)
	assert.Equal(t, "ftp", sub.Export.Target.Type)
	assert.Equal(t, "scores", sub.Notification.Channel)

	sub, err = d.GetSubscription(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, &model.Subscription{User: "bob"}, sub)
}

func TestClient_Export_ThroughService(t *testing.T) {
	d, rec, _ := newClient(t)
	ctx := context.Background()
	dest := model.ExportConfig{Target: model.ExportTarget{Type: "ftp"}}

	url, err := d.Export(ctx, []byte("<svg/>"), "a.svg", dest)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.test/a.svg", url)

	url, err = d.Upload(ctx, []byte("{}"), "d.json", dest)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.test/d.json", url)

	require.Len(t, rec.artifacts["/exports"], 1)
	assert.Equal(t, artifact{Filename: "a.svg", ContentType: "image/svg+xml", Content: []byte("<svg/>"), Target: dest.Target}, rec.artifacts["/exports"][0])
	require.Len(t, rec.artifacts["/uploads"], 1)
	assert.Equal(t, "application/json", rec.artifacts["/uploads"][0].ContentType)
}

func TestClient_Export_DirectStore(t *testing.T) {
	d, rec, mem := newClient(t)

	url, err := d.Export(context.Background(), []byte("<svg/>"), "a.svg",
		model.ExportConfig{Target: model.ExportTarget{Type: "s3"}})
	require.NoError(t, err)
	assert.Equal(t, "mem://s3/a.svg", url)
	assert.Equal(t, []string{"a.svg|image/svg+xml|<svg/>"}, mem.puts)
	assert.Empty(t, rec.artifacts)
}

func TestClient_Notify(t *testing.T) {
	d, rec, _ := newClient(t)
	notice := model.CompletionNotice{Channel: "#scores", Title: "Duel", ImageURL: "https://x/a.svg", Context: "t1"}

	require.NoError(t, d.Notify(context.Background(), notice))
	assert.Equal(t, []model.CompletionNotice{notice}, rec.notices)
}

func TestClient_MissingEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	hc, err := http_client.New(registry.Settings{})
	require.NoError(t, err)
	c := &Client{http: hc, subscriptions: srv.URL, exporter: srv.URL, notifier: srv.URL}
	ctx := context.Background()
	dest := model.ExportConfig{Target: model.ExportTarget{Type: "ftp"}}

	var statusErr *http_client.StatusError
	url, err := c.Upload(ctx, []byte("{}"), "d.json", dest)
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Empty(t, url)

	_, err = c.Export(ctx, []byte("<svg/>"), "a.svg", dest)
	assert.ErrorAs(t, err, &statusErr)

	err = c.Notify(ctx, model.CompletionNotice{Channel: "#scores"})
	assert.ErrorAs(t, err, &statusErr)
}
