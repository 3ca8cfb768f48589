package svgbuilder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /merge", func(w http.ResponseWriter, r *http.Request) {
		var req mergeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !json.Valid(req.Document) || string(req.Document) == "{}" {
			http.Error(w, `{"error":"empty document"}`, http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(svgPayload{SVG: strings.Replace(req.SVG, "</svg>", "<data/></svg>", 1)})
	})
	mux.HandleFunc("POST /text-to-path", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("POST /plain", func(w http.ResponseWriter, r *http.Request) {
		var req svgPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(svgPayload{SVG: strings.TrimSpace(req.SVG)})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	hc, err := http_client.New(registry.Settings{})
	require.NoError(t, err)
	return New(hc, srv.URL)
}

func TestClient_Merge(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	out, err := c.Merge(ctx, "<svg></svg>", []byte(`{"query":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "<svg><data/></svg>", out)

	_, err = c.Merge(ctx, "<svg></svg>", []byte(`{}`))
	assert.ErrorIs(t, err, errs.ErrComposition)
}

func TestClient_PostProcessing(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	out, err := c.PlainSVG(ctx, "  <svg/>  ")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", out)

	_, err = c.TextToPath(ctx, "<svg/>")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNetwork)
	assert.NotErrorIs(t, err, errs.ErrComposition)
}
