// Package cascade re-runs report resolution for every trigger registered
// against a content change.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/reportgrid/internal/assembler"
	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/render"
	"github.com/vk/reportgrid/internal/resolver"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds trigger fan-out when no limit is configured.
const DefaultWorkers = 4

// Status is the outcome of one trigger.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one trigger.
type Outcome struct {
	TriggerID string
	Status    Status
	URL       string
	Err       error
}

// Report summarizes the handling of one notification.
type Report struct {
	// Dropped is set when the notification was malformed.
	Dropped  bool
	Outcomes []Outcome
}

// Failed returns the outcomes of failed triggers.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Processor handles content-change notifications.
type Processor struct {
	definitions collab.DefinitionStore
	references  collab.ReferenceData
	delivery    collab.Delivery
	assembler   *assembler.Assembler
	dispatcher  *render.Dispatcher
	decoder     *decoder
	workers     int
}

// New creates a Processor running at most workers triggers at once.
func New(s collab.Set, a *assembler.Assembler, d *render.Dispatcher, workers int) (*Processor, error) {
	dec, err := newDecoder()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Processor{
		definitions: s.Definitions,
		references:  s.References,
		delivery:    s.Delivery,
		assembler:   a,
		dispatcher:  d,
		decoder:     dec,
		workers:     workers,
	}, nil
}

// HandleContentChanged processes one notification payload. Malformed
// notifications are dropped and trigger failures are collected; nothing is
// returned as an error.
func (p *Processor) HandleContentChanged(ctx context.Context, payload []byte) *Report {
	logger := ctxlog.FromContext(ctx)
	report := &Report{}

	n, err := p.decoder.decode(payload)
	if err != nil {
		logger.Warn("Inoperable notification received.", "error", err)
		report.Dropped = true
		return report
	}
	contentID := n.ContentID()
	logger = logger.With("notification", n.ID, "content_id", contentID)
	logger.Info("Notification received, checking for triggers to refresh.", "source", n.Meta.Source, "type", n.Meta.Type)

	triggers, err := p.definitions.GetFiredTriggers(ctx, n.MatchKey())
	if err != nil {
		logger.Error("Could not fetch fired triggers.", "error", err)
		return report
	}
	if len(triggers) == 0 {
		logger.Debug("No trigger registered for this notification.")
		return report
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	report.Outcomes = make([]Outcome, len(triggers))
	for i := range triggers {
		t := triggers[i]
		g.Go(func() error {
			tctx := ctxlog.WithLogger(ctx, logger.With("trigger", t.ID, "template", t.Template.ID, "user", t.User))
			report.Outcomes[i] = p.refresh(tctx, &t, contentID)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Notification handled.", "triggers", len(triggers), "failed", len(report.Failed()))
	return report
}

// refresh runs the pipeline of one trigger, recovering from panics so a
// single trigger never takes down its siblings.
func (p *Processor) refresh(ctx context.Context, t *model.Trigger, contentID string) (outcome Outcome) {
	logger := ctxlog.FromContext(ctx)
	outcome.TriggerID = t.ID

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = StatusFailed
			outcome.Err = fmt.Errorf("trigger %s panicked: %v", t.ID, r)
			logger.Error("Trigger refresh panicked.", "panic", r)
		}
	}()

	url, err := p.run(ctx, t, contentID)
	switch {
	case errors.Is(err, errSkipped):
		outcome.Status = StatusSkipped
	case err != nil:
		outcome.Status = StatusFailed
		outcome.Err = err
		logger.Error("Trigger refresh failed.", "error", err, "kind", errs.KindOf(err))
	default:
		outcome.Status = StatusDone
		outcome.URL = url
		logger.Info("Trigger refreshed.", "url", url)
	}
	return outcome
}

var errSkipped = errors.New("trigger skipped")

func (p *Processor) run(ctx context.Context, t *model.Trigger, contentID string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	sub, err := p.delivery.GetSubscription(ctx, t.User)
	if err != nil {
		return "", fmt.Errorf("fetching subscription: %w", err)
	}
	if sub == nil || sub.Export == nil {
		logger.Warn("Export not configured for user, skipping trigger.")
		return "", errSkipped
	}

	event, err := p.references.GetEventFiltered(ctx, contentID, t.Selector, t.User)
	if err != nil {
		return "", fmt.Errorf("fetching filtered event: %w", err)
	}
	if event == nil {
		logger.Info("No event matches the trigger selector.")
		return "", errSkipped
	}
	logger.Info("Refreshing trigger on event.", "event", event.ID())

	spec := t.Template
	tmpl, err := p.definitions.GetTemplate(ctx, spec.ID, t.User)
	if err != nil {
		return "", fmt.Errorf("fetching template %s: %w", spec.ID, err)
	}
	if tmpl == nil {
		return "", errs.NotFound("template %s not found or %s not allowed to resolve it", spec.ID, t.User)
	}

	pictureContext := ""
	if spec.Picture != nil {
		pictureContext = spec.Picture.Context
	}
	pictureContext = tmpl.EffectivePictureContext(pictureContext)
	language := tmpl.EffectiveLanguage(spec.Language)

	scope := resolver.NewScope(t.User, language, tmpl.Context, pictureContext, spec.DataOnly)
	doc, err := p.assembler.Assemble(ctx, assembler.Request{
		Template:       tmpl,
		Scope:          scope,
		Referential:    t.ReferentialFor(contentID),
		UserParameters: spec.UserParameters,
	})
	if err != nil {
		return "", err
	}
	body, err := render.Serialize(doc)
	if err != nil {
		return "", err
	}

	if spec.DataOnly && t.Export.Format == model.FormatJSON {
		filename := t.Export.Filename
		if filename == "" {
			filename = render.NewFilename(model.FormatJSON)
		}
		return p.delivery.Upload(ctx, body, filename, *sub.Export)
	}

	if t.Export.Format == "" {
		return "", errs.MalformedSpec("trigger %s has no export format", t.ID)
	}
	svg, err := p.dispatcher.Compose(ctx, tmpl.SVG, body, t.Export.ConvertsTextToPath())
	if err != nil {
		return "", err
	}
	filename := t.Export.Filename
	if filename == "" {
		filename = render.NewFilename(t.Export.Format)
	}
	url, err := p.delivery.Export(ctx, []byte(svg), filename, *sub.Export)
	if err != nil {
		return "", fmt.Errorf("exporting %s: %w", filename, err)
	}

	if sub.Notification == nil {
		logger.Warn("Notification not configured for user.")
		return url, nil
	}
	notice := model.CompletionNotice{
		Channel:  "#" + sub.Notification.Channel,
		Title:    t.Name,
		ImageURL: url,
		Context:  t.ID,
	}
	if err := p.delivery.Notify(ctx, notice); err != nil {
		return url, fmt.Errorf("notifying %s: %w", notice.Channel, err)
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "Completion notice sent.", slog.String("channel", notice.Channel))
	return url, nil
}
