package collab

import (
	"context"
	"errors"
	"time"

	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
)

// Call runs fn under a per-call deadline. Failures that are not already
// classified become network errors; an expired deadline is reported as a
// timeout of op.
func Call[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	v, err := fn(ctx)
	if err == nil {
		return v, nil
	}
	var zero T
	if errs.KindOf(err) != "" {
		return zero, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return zero, errs.Network(err, "%s timed out after %s", op, timeout)
	}
	return zero, errs.Network(err, "%s failed", op)
}

// Guard wraps every collaborator of s with Call. Nil members stay nil.
func Guard(s Set, timeout time.Duration) Set {
	out := Set{}
	if s.Definitions != nil {
		out.Definitions = &guardedDefinitions{next: s.Definitions, timeout: timeout}
	}
	if s.Queries != nil {
		out.Queries = &guardedQueries{next: s.Queries, timeout: timeout}
	}
	if s.References != nil {
		out.References = &guardedReferences{next: s.References, timeout: timeout}
	}
	if s.Composer != nil {
		out.Composer = &guardedComposer{next: s.Composer, timeout: timeout}
	}
	if s.Delivery != nil {
		out.Delivery = &guardedDelivery{next: s.Delivery, timeout: timeout}
	}
	return out
}

type guardedDefinitions struct {
	next    DefinitionStore
	timeout time.Duration
}

func (g *guardedDefinitions) GetTemplate(ctx context.Context, id, user string) (*model.Template, error) {
	return Call(ctx, g.timeout, "get template "+id, func(ctx context.Context) (*model.Template, error) {
		return g.next.GetTemplate(ctx, id, user)
	})
}

func (g *guardedDefinitions) GetQuery(ctx context.Context, id string) (*model.QueryDefinition, error) {
	return Call(ctx, g.timeout, "get query "+id, func(ctx context.Context) (*model.QueryDefinition, error) {
		return g.next.GetQuery(ctx, id)
	})
}

func (g *guardedDefinitions) GetFiredTriggers(ctx context.Context, key model.MatchKey) ([]model.Trigger, error) {
	return Call(ctx, g.timeout, "get fired triggers", func(ctx context.Context) ([]model.Trigger, error) {
		return g.next.GetFiredTriggers(ctx, key)
	})
}

type guardedQueries struct {
	next    QueryExecutor
	timeout time.Duration
}

func (g *guardedQueries) Execute(ctx context.Context, text string, params []any, limit int) ([]model.Row, error) {
	return Call(ctx, g.timeout, "execute query", func(ctx context.Context) ([]model.Row, error) {
		return g.next.Execute(ctx, text, params, limit)
	})
}

type guardedReferences struct {
	next    ReferenceData
	timeout time.Duration
}

func (g *guardedReferences) GetEntityByID(ctx context.Context, id, user string) (model.Entry, error) {
	return Call(ctx, g.timeout, "get entity "+id, func(ctx context.Context) (model.Entry, error) {
		return g.next.GetEntityByID(ctx, id, user)
	})
}

func (g *guardedReferences) GetEventByID(ctx context.Context, id, user string) (model.Entry, error) {
	return Call(ctx, g.timeout, "get event "+id, func(ctx context.Context) (model.Entry, error) {
		return g.next.GetEventByID(ctx, id, user)
	})
}

func (g *guardedReferences) GetEventFiltered(ctx context.Context, contentID string, selector []string, user string) (model.Entry, error) {
	return Call(ctx, g.timeout, "get filtered event "+contentID, func(ctx context.Context) (model.Entry, error) {
		return g.next.GetEventFiltered(ctx, contentID, selector, user)
	})
}

func (g *guardedReferences) GetLabel(ctx context.Context, code, language, labelContext string) (*model.Label, error) {
	return Call(ctx, g.timeout, "get label "+code, func(ctx context.Context) (*model.Label, error) {
		return g.next.GetLabel(ctx, code, language, labelContext)
	})
}

func (g *guardedReferences) GetEntityPicture(ctx context.Context, req model.PictureRequest) (any, error) {
	return Call(ctx, g.timeout, "get picture "+req.ID, func(ctx context.Context) (any, error) {
		return g.next.GetEntityPicture(ctx, req)
	})
}

type guardedComposer struct {
	next    Composer
	timeout time.Duration
}

func (g *guardedComposer) Merge(ctx context.Context, svg string, document []byte) (string, error) {
	return compose(ctx, g.timeout, "merge svg", func(ctx context.Context) (string, error) {
		return g.next.Merge(ctx, svg, document)
	})
}

func (g *guardedComposer) TextToPath(ctx context.Context, svg string) (string, error) {
	return compose(ctx, g.timeout, "convert text to path", func(ctx context.Context) (string, error) {
		return g.next.TextToPath(ctx, svg)
	})
}

func (g *guardedComposer) PlainSVG(ctx context.Context, svg string) (string, error) {
	return compose(ctx, g.timeout, "normalize svg", func(ctx context.Context) (string, error) {
		return g.next.PlainSVG(ctx, svg)
	})
}

// compose is Call for composition steps: an unclassified failure that is
// not a timeout is a composition error rather than a network one.
func compose(ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (string, error)) (string, error) {
	return Call(ctx, timeout, op, func(ctx context.Context) (string, error) {
		out, err := fn(ctx)
		if err != nil && errs.KindOf(err) == "" && !errors.Is(err, context.DeadlineExceeded) {
			return "", errs.Composition(err, "%s failed", op)
		}
		return out, err
	})
}

type guardedDelivery struct {
	next    Delivery
	timeout time.Duration
}

func (g *guardedDelivery) GetSubscription(ctx context.Context, user string) (*model.Subscription, error) {
	return Call(ctx, g.timeout, "get subscription of "+user, func(ctx context.Context) (*model.Subscription, error) {
		return g.next.GetSubscription(ctx, user)
	})
}

func (g *guardedDelivery) Upload(ctx context.Context, content []byte, filename string, dest model.ExportConfig) (string, error) {
	return Call(ctx, g.timeout, "upload "+filename, func(ctx context.Context) (string, error) {
		return g.next.Upload(ctx, content, filename, dest)
	})
}

func (g *guardedDelivery) Export(ctx context.Context, content []byte, filename string, dest model.ExportConfig) (string, error) {
	return Call(ctx, g.timeout, "export "+filename, func(ctx context.Context) (string, error) {
		return g.next.Export(ctx, content, filename, dest)
	})
}

func (g *guardedDelivery) Notify(ctx context.Context, notice model.CompletionNotice) error {
	_, err := Call(ctx, g.timeout, "notify "+notice.Channel, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.Notify(ctx, notice)
	})
	return err
}
