// Package testutil holds in-memory collaborators and a small soccer
// fixture shared by package tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/reportgrid/internal/model"
)

// Calls counts collaborator invocations by a "method:argument" key.
type Calls struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *Calls) add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[key]++
}

// Count returns how many times key was recorded.
func (c *Calls) Count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// Total returns how many calls were recorded for keys starting with prefix.
func (c *Calls) Total(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, v := range c.counts {
		if strings.HasPrefix(k, prefix) {
			n += v
		}
	}
	return n
}

// FakeDefinitions is an in-memory collab.DefinitionStore.
type FakeDefinitions struct {
	Templates map[string]*model.Template
	Queries   map[string]*model.QueryDefinition
	Triggers  []model.Trigger
	Err       error
	Calls     Calls
}

func (f *FakeDefinitions) GetTemplate(_ context.Context, id, user string) (*model.Template, error) {
	f.Calls.add("GetTemplate:" + id)
	if f.Err != nil {
		return nil, f.Err
	}
	t, ok := f.Templates[id]
	if !ok || !t.Allows(user) {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *FakeDefinitions) GetQuery(_ context.Context, id string) (*model.QueryDefinition, error) {
	f.Calls.add("GetQuery:" + id)
	if f.Err != nil {
		return nil, f.Err
	}
	q, ok := f.Queries[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (f *FakeDefinitions) GetFiredTriggers(_ context.Context, key model.MatchKey) ([]model.Trigger, error) {
	f.Calls.add("GetFiredTriggers:" + key.Source + "/" + key.Type)
	if f.Err != nil {
		return nil, f.Err
	}
	var out []model.Trigger
	for _, t := range f.Triggers {
		if t.On == key {
			out = append(out, t)
		}
	}
	return out, nil
}

// ExecuteCall records one query execution.
type ExecuteCall struct {
	Text   string
	Params []any
	Limit  int
}

// FakeQueries is a collab.QueryExecutor answering by query text.
type FakeQueries struct {
	Results map[string][]model.Row
	Errs    map[string]error

	mu       sync.Mutex
	Executed []ExecuteCall
}

func (f *FakeQueries) Execute(_ context.Context, text string, params []any, limit int) ([]model.Row, error) {
	f.mu.Lock()
	f.Executed = append(f.Executed, ExecuteCall{Text: text, Params: params, Limit: limit})
	f.mu.Unlock()
	if err := f.Errs[text]; err != nil {
		return nil, err
	}
	rows := f.Results[text]
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// Calls returns a copy of the recorded executions.
func (f *FakeQueries) Calls() []ExecuteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExecuteCall(nil), f.Executed...)
}

// FakeReferences is an in-memory collab.ReferenceData.
type FakeReferences struct {
	Entities map[string]model.Entry
	Events   map[string]model.Entry
	// Filtered is keyed by content id; nil means no match.
	Filtered map[string]model.Entry
	// Labels is keyed by code.
	Labels map[string]string
	// Pictures is keyed by entity id; DefaultPicture answers the rest.
	Pictures       map[string]any
	DefaultPicture any
	Calls          Calls
}

func clone(e model.Entry) model.Entry {
	if e == nil {
		return nil
	}
	out := make(model.Entry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func (f *FakeReferences) GetEntityByID(_ context.Context, id, _ string) (model.Entry, error) {
	f.Calls.add("GetEntityByID:" + id)
	return clone(f.Entities[id]), nil
}

func (f *FakeReferences) GetEventByID(_ context.Context, id, _ string) (model.Entry, error) {
	f.Calls.add("GetEventByID:" + id)
	return clone(f.Events[id]), nil
}

func (f *FakeReferences) GetEventFiltered(_ context.Context, contentID string, _ []string, user string) (model.Entry, error) {
	f.Calls.add("GetEventFiltered:" + contentID + ":" + user)
	return clone(f.Filtered[contentID]), nil
}

func (f *FakeReferences) GetLabel(_ context.Context, code, language, labelContext string) (*model.Label, error) {
	f.Calls.add(fmt.Sprintf("GetLabel:%s:%s:%s", code, language, labelContext))
	text, ok := f.Labels[code]
	if !ok {
		return nil, nil
	}
	return &model.Label{Label: text}, nil
}

func (f *FakeReferences) GetEntityPicture(_ context.Context, req model.PictureRequest) (any, error) {
	f.Calls.add(fmt.Sprintf("GetEntityPicture:%s:%s", req.ID, req.Format))
	if p, ok := f.Pictures[req.ID]; ok {
		return p, nil
	}
	return f.DefaultPicture, nil
}

// FakeComposer is a collab.Composer producing predictable markup.
type FakeComposer struct {
	MergeErr error
	Calls    Calls
}

func (f *FakeComposer) Merge(_ context.Context, svg string, document []byte) (string, error) {
	f.Calls.add("Merge")
	if f.MergeErr != nil {
		return "", f.MergeErr
	}
	return strings.Replace(svg, "</svg>", "<data>"+string(document)+"</data></svg>", 1), nil
}

func (f *FakeComposer) TextToPath(_ context.Context, svg string) (string, error) {
	f.Calls.add("TextToPath")
	return "<!-- paths -->" + svg, nil
}

func (f *FakeComposer) PlainSVG(_ context.Context, svg string) (string, error) {
	f.Calls.add("PlainSVG")
	return svg, nil
}

// Stored records one upload or export.
type Stored struct {
	Content  string
	Filename string
	Dest     model.ExportConfig
}

// FakeDelivery is an in-memory collab.Delivery serving URLs under BaseURL.
type FakeDelivery struct {
	BaseURL       string
	Subscriptions map[string]*model.Subscription
	ExportErr     error

	mu      sync.Mutex
	Uploads []Stored
	Exports []Stored
	Notices []model.CompletionNotice
}

func (f *FakeDelivery) url(filename string) string {
	base := f.BaseURL
	if base == "" {
		base = "https://cdn.example.test"
	}
	return base + "/" + filename
}

func (f *FakeDelivery) GetSubscription(_ context.Context, user string) (*model.Subscription, error) {
	if s, ok := f.Subscriptions[user]; ok {
		cp := *s
		return &cp, nil
	}
	return &model.Subscription{User: user}, nil
}

func (f *FakeDelivery) Upload(_ context.Context, content []byte, filename string, dest model.ExportConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads = append(f.Uploads, Stored{Content: string(content), Filename: filename, Dest: dest})
	return f.url(filename), nil
}

func (f *FakeDelivery) Export(_ context.Context, content []byte, filename string, dest model.ExportConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExportErr != nil {
		return "", f.ExportErr
	}
	f.Exports = append(f.Exports, Stored{Content: string(content), Filename: filename, Dest: dest})
	return f.url(filename), nil
}

func (f *FakeDelivery) Notify(_ context.Context, notice model.CompletionNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Notices = append(f.Notices, notice)
	return nil
}

// Snapshot returns copies of everything stored so far.
func (f *FakeDelivery) Snapshot() (uploads, exports []Stored, notices []model.CompletionNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Stored(nil), f.Uploads...),
		append([]Stored(nil), f.Exports...),
		append([]model.CompletionNotice(nil), f.Notices...)
}

// ErrBoom is a generic collaborator failure for tests.
var ErrBoom = errors.New("boom")
