package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/testutil"
)

func newEngine(t *testing.T, f *testutil.Fixture) *Engine {
	t.Helper()
	e, err := New(f.Set(), Options{Timeout: time.Second, Workers: 2, CDNRoot: "https://static.example.test"})
	require.NoError(t, err)
	return e
}

func matchRequest() ResolveRequest {
	return ResolveRequest{
		TemplateID:  "dsa_fbl_mt_duel",
		Referential: model.ReferentialSpec{"match": {ID: "f985507", Kind: model.RefEvent}},
		User:        "my_user",
	}
}

func TestResolve_DataOnlySingleQuery(t *testing.T) {
	f := testutil.NewFixture()
	tmpl := f.Definitions.Templates["dsa_fbl_mt_duel"]
	tmpl.Queries = []model.QuerySpec{{ID: "soccer_match_team_stats", Labels: []model.LabelRule{{Column: "type", Kind: model.LabelCode}}}}
	f.Definitions.Queries["soccer_match_team_stats"].Parameters = nil

	got, err := newEngine(t, f).Resolve(context.Background(), ResolveRequest{
		TemplateID: "dsa_fbl_mt_duel",
		User:       "my_user",
		DataOnly:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypeJSON, got.ContentType)

	var doc model.Document
	require.NoError(t, json.Unmarshal([]byte(got.Body), &doc))
	require.Len(t, doc.Query, 1)
	rows := doc.Query["soccer_match_team_stats"]
	require.Len(t, rows, 2)
	assert.Equal(t, "Possession", rows[0]["type"])
	assert.Equal(t, "Passes", rows[1]["type"])
	assert.Empty(t, doc.Referential)
}

func TestResolve_Image(t *testing.T) {
	f := testutil.NewFixture()
	req := matchRequest()
	req.TextToPath = true

	got, err := newEngine(t, f).Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypeSVG, got.ContentType)
	assert.True(t, strings.HasPrefix(got.Body, "<!-- paths --><svg>"))
	assert.Contains(t, got.Body, `"Strasbourg"`)
	assert.Equal(t, 1, f.References.Calls.Count("GetEventByID:f985507"))
	assert.Equal(t, 1, f.References.Calls.Count("GetEntityPicture:t153:standard"))
}

func TestResolve_LanguageOverride(t *testing.T) {
	f := testutil.NewFixture()
	req := matchRequest()
	req.Language = "EN"

	_, err := newEngine(t, f).Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.References.Calls.Count("GetLabel:total_pass:EN:soccer"))
	assert.Zero(t, f.References.Calls.Count("GetLabel:total_pass:FR:soccer"))
}

func TestResolve_HTML(t *testing.T) {
	f := testutil.NewFixture()
	tmpl := f.Definitions.Templates["dsa_fbl_mt_duel"]
	tmpl.Kind = model.KindHTML
	tmpl.HTML = `<body data-src="${DATASOURCE}"><img src="${CDN_ROOT_URL}/logo.png"></body>`
	tmpl.Datasource = "duel.json"

	got, err := newEngine(t, f).Resolve(context.Background(), matchRequest())
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypeHTML, got.ContentType)
	assert.Equal(t, `<body data-src="https://cdn.example.test/duel.json"><img src="https://static.example.test/logo.png"></body>`, got.Body)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *testutil.Fixture, req *ResolveRequest)
		want  error
	}{
		{
			name:  "user not allowed",
			setup: func(_ *testutil.Fixture, req *ResolveRequest) { req.User = "intruder" },
			want:  errs.ErrNotFound,
		},
		{
			name:  "unknown template",
			setup: func(_ *testutil.Fixture, req *ResolveRequest) { req.TemplateID = "nope" },
			want:  errs.ErrNotFound,
		},
		{
			name: "empty query",
			setup: func(f *testutil.Fixture, _ *ResolveRequest) {
				f.Queries.Results[testutil.TeamStatsSQL] = nil
			},
			want: errs.ErrEmptyResult,
		},
		{
			name: "placeholder missing",
			setup: func(f *testutil.Fixture, _ *ResolveRequest) {
				tmpl := f.Definitions.Templates["dsa_fbl_mt_duel"]
				tmpl.Kind = model.KindHTML
				tmpl.HTML = "<body></body>"
			},
			want: errs.ErrPlaceholderMissing,
		},
		{
			name: "composition failure",
			setup: func(f *testutil.Fixture, _ *ResolveRequest) {
				f.Composer.MergeErr = errs.Composition(nil, "unbalanced markup")
			},
			want: errs.ErrComposition,
		},
		{
			name: "malformed merge input",
			setup: func(f *testutil.Fixture, _ *ResolveRequest) {
				f.Composer.MergeErr = errors.New("malformed jsonpath in template")
			},
			want: errs.ErrComposition,
		},
		{
			name: "collaborator failure",
			setup: func(f *testutil.Fixture, _ *ResolveRequest) {
				f.Definitions.Err = testutil.ErrBoom
			},
			want: errs.ErrNetwork,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewFixture()
			req := matchRequest()
			tt.setup(f, &req)

			got, err := newEngine(t, f).Resolve(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)
		})
	}
}

func TestHandleContentChanged(t *testing.T) {
	f := testutil.NewFixture()
	trigger := model.Trigger{
		ID:       "t1",
		Name:     "Post match",
		On:       model.MatchKey{Source: "opta", Type: "F9"},
		Template: model.TriggerTemplate{ID: "dsa_fbl_mt_duel", Referential: model.ReferentialSpec{"match": {FromEvent: true}}},
		User:     "my_user",
		Export:   model.ExportDirective{Format: "png"},
	}
	orphan := trigger
	orphan.ID = "t2"
	orphan.User = "nobody"
	f.Definitions.Triggers = []model.Trigger{trigger, orphan}

	e := newEngine(t, f)
	assert.NotPanics(t, func() {
		e.HandleContentChanged(context.Background(), []byte(`{"id": "f985507", "meta": {"source": "opta", "type": "F9"}}`))
	})

	_, exports, notices := f.Delivery.Snapshot()
	assert.Len(t, exports, 1)
	require.Len(t, notices, 1)
	assert.Equal(t, "t1", notices[0].Context)
}

func TestResolve_LogsTemplateOnce(t *testing.T) {
	f := testutil.NewFixture()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	_, err := newEngine(t, f).Resolve(ctx, matchRequest())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, strings.Count(line, `"template":`), 1, line)
	}
}
