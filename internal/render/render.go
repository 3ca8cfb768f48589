// Package render turns a Result Document into final content: canonical
// JSON, composed SVG, or HTML bound to an uploaded data source.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
)

// maxExactInteger is the largest magnitude an IEEE double holds exactly.
const maxExactInteger = 1 << 53

// Serialize returns the canonical JSON text (RFC 8785) of doc. Dates are
// written in ISO-8601. Integers beyond ±2^53 are written as decimal strings
// so canonicalization cannot round them.
func Serialize(doc *model.Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	raw, err = quoteWideIntegers(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing document: %w", err)
	}
	return canonical, nil
}

func quoteWideIntegers(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(quoteWide(v))
}

func quoteWide(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = quoteWide(e)
		}
	case []any:
		for i, e := range x {
			x[i] = quoteWide(e)
		}
	case json.Number:
		text := x.String()
		if strings.ContainsAny(text, ".eE") {
			return x
		}
		n, err := x.Int64()
		if err != nil || n > maxExactInteger || n < -maxExactInteger {
			return text
		}
	}
	return v
}

// NewFilename returns a unique object name with the given extension.
func NewFilename(ext string) string {
	return uuid.NewString() + "." + ext
}

// Request describes one rendering.
type Request struct {
	Template   *model.Template
	Document   *model.Document
	User       string
	DataOnly   bool
	TextToPath bool
}

// Dispatcher renders documents through the composition and delivery
// collaborators.
type Dispatcher struct {
	composer collab.Composer
	delivery collab.Delivery
	cdnRoot  string
}

// New creates a Dispatcher. cdnRoot replaces ${CDN_ROOT_URL} in HTML.
func New(composer collab.Composer, delivery collab.Delivery, cdnRoot string) *Dispatcher {
	return &Dispatcher{composer: composer, delivery: delivery, cdnRoot: cdnRoot}
}

// Render produces the content for req.
func (d *Dispatcher) Render(ctx context.Context, req Request) (*model.Content, error) {
	logger := ctxlog.FromContext(ctx)

	body, err := Serialize(req.Document)
	if err != nil {
		return nil, err
	}

	if req.DataOnly {
		logger.Info("Returning data only.")
		return &model.Content{Body: string(body), ContentType: model.ContentTypeJSON}, nil
	}

	switch req.Template.Kind {
	case model.KindImage:
		svg, err := d.Compose(ctx, req.Template.SVG, body, req.TextToPath)
		if err != nil {
			return nil, err
		}
		return &model.Content{Body: svg, ContentType: model.ContentTypeSVG}, nil
	case model.KindHTML, model.KindExport:
		html, err := d.bindDatasource(ctx, req, body)
		if err != nil {
			return nil, err
		}
		return &model.Content{Body: html, ContentType: model.ContentTypeHTML}, nil
	default:
		return nil, errs.MalformedSpec("template %s has unknown kind %q", req.Template.ID, req.Template.Kind)
	}
}

// Compose merges body into svg, then converts text to paths or normalizes
// the markup.
func (d *Dispatcher) Compose(ctx context.Context, svg string, body []byte, textToPath bool) (string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Merging document into SVG.", "text_to_path", textToPath)

	merged, err := d.composer.Merge(ctx, svg, body)
	if err != nil {
		return "", composition(err, "merging document into SVG")
	}
	if textToPath {
		out, err := d.composer.TextToPath(ctx, merged)
		if err != nil {
			return "", composition(err, "converting text to paths")
		}
		return out, nil
	}
	out, err := d.composer.PlainSVG(ctx, merged)
	if err != nil {
		return "", composition(err, "normalizing SVG")
	}
	return out, nil
}

func composition(err error, what string) error {
	if errs.KindOf(err) != "" {
		return fmt.Errorf("%s: %w", what, err)
	}
	return errs.Composition(err, "%s failed", what)
}

func (d *Dispatcher) bindDatasource(ctx context.Context, req Request, body []byte) (string, error) {
	logger := ctxlog.FromContext(ctx)

	sub, err := d.delivery.GetSubscription(ctx, req.User)
	if err != nil {
		return "", fmt.Errorf("fetching subscription of %s: %w", req.User, err)
	}
	if sub == nil || sub.Export == nil {
		return "", errs.ExportConfig("no export configuration for user %s", req.User)
	}
	if !strings.Contains(req.Template.HTML, model.DatasourcePlaceholder) {
		return "", errs.PlaceholderMissing("template %s has no %s placeholder", req.Template.ID, model.DatasourcePlaceholder)
	}

	filename := req.Template.Datasource
	if filename == "" {
		filename = NewFilename(model.FormatJSON)
	}
	url, err := d.delivery.Upload(ctx, body, filename, *sub.Export)
	if err != nil {
		return "", fmt.Errorf("uploading data source %s: %w", filename, err)
	}
	logger.Info("Uploaded data source.", "filename", filename, "url", url)

	html := strings.ReplaceAll(req.Template.HTML, model.DatasourcePlaceholder, url)
	html = strings.ReplaceAll(html, model.CDNRootPlaceholder, d.cdnRoot)
	return html, nil
}
