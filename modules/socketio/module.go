// Package socketio subscribes to the broadcast content-change channel and
// hands every notification to the trigger cascade.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the event name carrying content-change notifications.
const DefaultEvent = "content_changed"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "socketio" change source.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSource("socketio", func(_ context.Context, env registry.Env) (registry.ChangeSource, error) {
		return NewSource(env.Settings)
	})
}

// Source listens for notifications on one socket.io namespace.
type Source struct {
	URL                string
	Namespace          string
	Event              string
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

// NewSource builds a Source from its settings block.
func NewSource(settings registry.Settings) (*Source, error) {
	raw, err := settings.RequireString("url")
	if err != nil {
		return nil, err
	}
	if _, err := url.Parse(raw); err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout, err := settings.Duration("connect_timeout", 15*time.Second)
	if err != nil {
		return nil, err
	}
	return &Source{
		URL:                raw,
		Namespace:          settings.String("namespace", "/"),
		Event:              settings.String("event", DefaultEvent),
		ConnectTimeout:     timeout,
		InsecureSkipVerify: settings.Bool("insecure_skip_verify", false),
	}, nil
}

// Listen connects and calls handle for each notification until ctx is done.
// Handlers run concurrently; Listen returns once all of them finished. It
// fails when the first connection is not established in time.
func (s *Source) Listen(ctx context.Context, handle registry.ChangeHandler) error {
	logger := ctxlog.FromContext(ctx).With("source", "socketio", "url", s.URL, "event", s.Event)

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if s.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(s.Namespace, opts)

	var (
		connected atomic.Bool
		inflight  handlers
	)
	connectChan := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "namespace", s.Namespace, "sid", io.Id())
		if connected.CompareAndSwap(false, true) {
			connectChan <- nil
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Warn("Connection error", "error", err)
		if !connected.Load() {
			select {
			case connectChan <- err:
			default:
			}
		}
	})
	io.On(types.EventName(s.Event), func(data ...any) {
		payload, err := payloadOf(data...)
		if err != nil {
			logger.Warn("Dropping undecodable notification", "error", err)
			return
		}
		if !inflight.Go(func() { handle(ctx, payload) }) {
			logger.Debug("Dropping notification received while disconnecting")
		}
	})

	io.Connect()
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.RemoveAllListeners(types.EventName(s.Event))
		io.Disconnect()
		inflight.Close()
	}()

	select {
	case err := <-connectChan:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		return nil
	case <-time.After(s.ConnectTimeout):
		return fmt.Errorf("timed out after %s waiting for socket.io connection", s.ConnectTimeout)
	}

	<-ctx.Done()
	return nil
}

// handlers runs event handlers in goroutines until closed.
type handlers struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Go starts fn unless the set is closed.
func (h *handlers) Go(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn()
	}()
	return true
}

// Close refuses new handlers and waits for the running ones.
func (h *handlers) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.wg.Wait()
}

// payloadOf turns the first event argument into JSON bytes.
func payloadOf(data ...any) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("event carries no data")
	}
	switch v := data[0].(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
