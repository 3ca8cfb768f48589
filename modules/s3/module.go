// Package s3 stores exported artifacts directly in an S3 compatible bucket
// with plain HTTP PUT requests.
package s3

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
	"resty.dev/v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "s3" object store.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStore("s3", func(_ context.Context, env registry.Env) (registry.ObjectStore, error) {
		return &Store{
			http:      env.HTTP,
			endpoint:  strings.TrimRight(env.Settings.String("endpoint", ""), "/"),
			publicURL: strings.TrimRight(env.Settings.String("public_url", ""), "/"),
			bucket:    env.Settings.String("bucket", ""),
		}, nil
	})
}

// Store uploads objects to a bucket. The target config of each export may
// override "endpoint", "bucket", "prefix" and "public_url".
type Store struct {
	http      *resty.Client
	endpoint  string
	publicURL string
	bucket    string
}

func stringOr(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return strings.TrimRight(v, "/")
	}
	return def
}

// Put uploads content under filename and returns its public URL.
func (s *Store) Put(ctx context.Context, content []byte, filename, contentType string, target model.ExportTarget) (string, error) {
	endpoint := stringOr(target.Config, "endpoint", s.endpoint)
	bucket := stringOr(target.Config, "bucket", s.bucket)
	if endpoint == "" || bucket == "" {
		return "", errs.ExportConfig("s3 export target needs an endpoint and a bucket")
	}
	key := filename
	if prefix := stringOr(target.Config, "prefix", ""); prefix != "" {
		key = prefix + "/" + filename
	}
	logger := ctxlog.FromContext(ctx).With("action", "upload", "bucket", bucket, "key", key)
	logger.Info("Uploading object.", "size", len(content), "contentType", contentType)

	objectPath := "/" + bucket + "/" + key
	req := s.http.R().SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(content)
	found, err := http_client.Do(req, http.MethodPut, endpoint+objectPath)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("bucket %q does not exist", bucket)
	}
	logger.Info("Successfully uploaded object.")
	return stringOr(target.Config, "public_url", s.publicOr(endpoint)) + objectPath, nil
}

func (s *Store) publicOr(endpoint string) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	return endpoint
}
