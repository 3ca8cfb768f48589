package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/engine"
	"github.com/vk/reportgrid/internal/errs"
)

// Handler returns the HTTP surface: a health check and the interactive
// resolution endpoint.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("POST /resolve", a.resolveHandler)
	return mux
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (a *App) resolveHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errs.MalformedSpec("invalid request body: %v", err))
		return
	}
	content, err := a.Resolve(r.Context(), req)
	if err != nil {
		a.logger.Warn("Resolution failed.", "template", req.TemplateID, "error", err)
		writeError(w, statusOf(err), err)
		return
	}
	w.Header().Set("Content-Type", content.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content.Body))
}

// statusOf maps an error kind to an HTTP status.
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.KindMalformedSpec, errs.KindExportConfig, errs.KindPlaceholderMissing:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindEmptyResult:
		return http.StatusUnprocessableEntity
	case errs.KindComposition, errs.KindNetwork, errs.KindQueryExecution:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error(), Kind: string(errs.KindOf(err))})
}

// startServer binds the listen address and serves in the background.
// Serving failures are sent to failed.
func (a *App) startServer(ctx context.Context, failed chan<- error) error {
	logger := ctxlog.FromContext(ctx)
	ln, err := net.Listen("tcp", a.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.Listen, err)
	}
	a.addr.Store(ln.Addr().String())
	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	go func() {
		logger.Info("🩺 HTTP server starting", "address", ln.Addr().String())
		// Serve returns http.ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- fmt.Errorf("http server failed: %w", err)
		}
	}()
	return nil
}

func (a *App) closeServer() error {
	if a.httpServer == nil {
		a.logger.Debug("HTTP server was not running.")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down HTTP server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("HTTP server shut down gracefully.")
	return nil
}

// Addr returns the bound address of the HTTP server, or "" before it
// started.
func (a *App) Addr() string {
	if v, ok := a.addr.Load().(string); ok {
		return v
	}
	return ""
}
