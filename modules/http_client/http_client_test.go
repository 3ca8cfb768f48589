package http_client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reportgrid/internal/registry"
)

func TestNew_InvalidTimeout(t *testing.T) {
	_, err := New(registry.Settings{"timeout": "soon"})
	assert.Error(t, err)
}

func TestDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"ok"}`))
		case "/bad":
			http.Error(w, "nope", http.StatusBadRequest)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(registry.Settings{"timeout": "2s", "headers": map[string]any{"X-Api-Key": "secret"}})
	require.NoError(t, err)
	defer Close(client)

	var out struct {
		Name string `json:"name"`
	}
	found, err := Do(client.R().SetResult(&out), http.MethodGet, srv.URL+"/ok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ok", out.Name)

	found, err = Do(client.R(), http.MethodGet, srv.URL+"/missing")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = Do(client.R(), http.MethodGet, srv.URL+"/bad")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.True(t, statusErr.ClientError())

	require.NoError(t, Send(client.R(), http.MethodGet, srv.URL+"/ok"))
	err = Send(client.R(), http.MethodPost, srv.URL+"/missing")
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestBaseURL(t *testing.T) {
	u, err := BaseURL(registry.Settings{"base_url": "http://svc/api//"}, "base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://svc/api", u)

	_, err = BaseURL(registry.Settings{}, "base_url")
	assert.Error(t, err)
}
