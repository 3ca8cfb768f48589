// Package http_client provides the shared, stateful HTTP client asset used
// by every HTTP backed collaborator, and the small request helpers they
// share.
package http_client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vk/reportgrid/internal/registry"
	"resty.dev/v3"
)

// DefaultTimeout bounds a single HTTP exchange when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// New builds the shared client from its settings block.
//
// Recognized settings: "timeout" (duration string) and "headers" (a map of
// headers sent with every request).
func New(settings registry.Settings) (*resty.Client, error) {
	timeout, err := settings.Duration("timeout", DefaultTimeout)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	client := resty.New().
		SetTransport(transport).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	for k, v := range settings.StringMap("headers") {
		client.SetHeader(k, v)
	}
	return client, nil
}

// Close releases the client's idle connections.
func Close(client *resty.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// StatusError is returned for a non-success answer.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// ClientError reports whether the answer blamed the request.
func (e *StatusError) ClientError() bool {
	return e.Code >= 400 && e.Code < 500
}

// Do executes req. A 404 answer yields found == false and no error; any
// other non-success answer yields a *StatusError.
func Do(req *resty.Request, method, url string) (found bool, err error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if resp.IsError() {
		return false, &StatusError{Method: method, URL: url, Code: resp.StatusCode(), Body: resp.String()}
	}
	return true, nil
}

// Send executes req and fails with a *StatusError on any non-success
// answer, 404 included. Writes and executions use it since an absent
// endpoint never means an empty result there.
func Send(req *resty.Request, method, url string) error {
	resp, err := req.Execute(method, url)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	if resp.IsError() {
		return &StatusError{Method: method, URL: url, Code: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// BaseURL returns the "base_url" setting without its trailing slash.
func BaseURL(settings registry.Settings, key string) (string, error) {
	u, err := settings.RequireString(key)
	if err != nil {
		return "", err
	}
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u, nil
}
