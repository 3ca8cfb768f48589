package cascade

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reportgrid/internal/assembler"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/render"
	"github.com/vk/reportgrid/internal/testutil"
)

var onF9 = model.MatchKey{Source: "opta", Type: "F9"}

const payload = `{"id": "f985507", "meta": {"source": "opta", "type": "F9"}}`

func matchTrigger(id, user string) model.Trigger {
	return model.Trigger{
		ID:       id,
		Name:     "Post match " + id,
		On:       onF9,
		Selector: []string{"t153"},
		Template: model.TriggerTemplate{
			ID: "dsa_fbl_mt_duel",
			Referential: model.ReferentialSpec{
				"match": {FromEvent: true},
			},
		},
		User:   user,
		Export: model.ExportDirective{Format: "png"},
	}
}

func newProcessor(t *testing.T, f *testutil.Fixture) *Processor {
	t.Helper()
	set := f.Set()
	p, err := New(set, assembler.New(set), render.New(set.Composer, set.Delivery, ""), 2)
	require.NoError(t, err)
	return p
}

func outcomes(r *Report) map[string]Outcome {
	out := make(map[string]Outcome, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out[o.TriggerID] = o
	}
	return out
}

func TestHandleContentChanged_SkipsTriggerWithoutExportConfig(t *testing.T) {
	f := testutil.NewFixture()
	f.Definitions.Triggers = []model.Trigger{
		matchTrigger("t1", "my_user"),
		matchTrigger("t2", "nobody"),
	}

	report := newProcessor(t, f).HandleContentChanged(context.Background(), []byte(payload))
	require.False(t, report.Dropped)
	got := outcomes(report)
	assert.Equal(t, StatusDone, got["t1"].Status)
	assert.Equal(t, StatusSkipped, got["t2"].Status)
	assert.Empty(t, report.Failed())

	_, exports, notices := f.Delivery.Snapshot()
	require.Len(t, exports, 1)
	assert.True(t, strings.HasSuffix(exports[0].Filename, ".png"), exports[0].Filename)
	assert.True(t, strings.HasPrefix(exports[0].Content, "<!-- paths -->"))
	assert.Equal(t, "my_bucket", exports[0].Dest.Target.Config["bucket"])

	require.Len(t, notices, 1)
	assert.Equal(t, model.CompletionNotice{
		Channel:  "#my_channel",
		Title:    "Post match t1",
		ImageURL: got["t1"].URL,
		Context:  "t1",
	}, notices[0])
}

func TestHandleContentChanged_DropsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{"id":`},
		{name: "missing id", payload: `{"meta": {"source": "opta", "type": "F9"}}`},
		{name: "missing meta", payload: `{"id": "f1"}`},
		{name: "missing type", payload: `{"id": "f1", "meta": {"source": "opta"}}`},
		{name: "numeric source", payload: `{"id": "f1", "meta": {"source": 3, "type": "F9"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewFixture()
			report := newProcessor(t, f).HandleContentChanged(context.Background(), []byte(tt.payload))
			assert.True(t, report.Dropped)
			assert.Zero(t, f.Definitions.Calls.Total("GetFiredTriggers"))
		})
	}
}

func TestHandleContentChanged_IsolatesFailures(t *testing.T) {
	f := testutil.NewFixture()
	broken := matchTrigger("broken", "my_user")
	broken.Template.ID = "unknown_template"
	f.Definitions.Triggers = []model.Trigger{broken, matchTrigger("ok", "my_user")}

	report := newProcessor(t, f).HandleContentChanged(context.Background(), []byte(payload))
	got := outcomes(report)
	assert.Equal(t, StatusDone, got["ok"].Status)
	assert.Equal(t, StatusFailed, got["broken"].Status)
	assert.ErrorIs(t, got["broken"].Err, errs.ErrNotFound)
	assert.Len(t, report.Failed(), 1)
}

func TestHandleContentChanged_QueryFailureStaysInTrigger(t *testing.T) {
	f := testutil.NewFixture()
	f.Queries.Errs = map[string]error{testutil.TeamStatsSQL: testutil.ErrBoom}
	f.Definitions.Triggers = []model.Trigger{matchTrigger("t1", "my_user")}

	report := newProcessor(t, f).HandleContentChanged(context.Background(), []byte(payload))
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0].Err, errs.ErrQueryExecution)

	_, exports, notices := f.Delivery.Snapshot()
	assert.Empty(t, exports)
	assert.Empty(t, notices)
}

func TestHandleContentChanged_DataExport(t *testing.T) {
	f := testutil.NewFixture()
	tr := matchTrigger("t1", "my_user")
	tr.Template.DataOnly = true
	tr.Export = model.ExportDirective{Format: "json", Filename: "match.json"}
	f.Definitions.Triggers = []model.Trigger{tr}

	report := newProcessor(t, f).HandleContentChanged(context.Background(), []byte(payload))
	assert.Equal(t, StatusDone, outcomes(report)["t1"].Status)

	uploads, exports, notices := f.Delivery.Snapshot()
	require.Len(t, uploads, 1)
	assert.Equal(t, "match.json", uploads[0].Filename)
	assert.Contains(t, uploads[0].Content, `"referential"`)
	assert.Empty(t, exports)
	assert.Empty(t, notices)
	assert.Zero(t, f.References.Calls.Total("GetEntityPicture"))
}

func TestHandleContentChanged_TriggerSettings(t *testing.T) {
	f := testutil.NewFixture()
	off := false
	tr := matchTrigger("t1", "my_user")
	tr.Template.Language = "EN"
	tr.Template.Picture = &model.PictureConfig{Context: "dark"}
	tr.Export = model.ExportDirective{Format: "svg", Filename: "duel.svg", TextToPath: &off}
	f.Definitions.Triggers = []model.Trigger{tr}

	report := newProcessor(t, f).HandleContentChanged(context.Background(),
		[]byte(`{"id": "msg-1", "meta": {"source": "opta", "type": "F9", "content_id": "f985507"}}`))
	assert.Equal(t, StatusDone, outcomes(report)["t1"].Status)

	assert.Equal(t, 1, f.References.Calls.Count("GetEventFiltered:f985507:my_user"))
	assert.Equal(t, 1, f.References.Calls.Count("GetEventByID:f985507"))
	assert.Equal(t, 1, f.References.Calls.Count("GetLabel:total_pass:EN:soccer"))
	assert.Equal(t, 1, f.Composer.Calls.Count("PlainSVG"))
	assert.Zero(t, f.Composer.Calls.Count("TextToPath"))

	_, exports, _ := f.Delivery.Snapshot()
	require.Len(t, exports, 1)
	assert.Equal(t, "duel.svg", exports[0].Filename)
}

func TestHandleContentChanged_NoMatchingEvent(t *testing.T) {
	f := testutil.NewFixture()
	f.References.Filtered = nil
	f.Definitions.Triggers = []model.Trigger{matchTrigger("t1", "my_user")}

	report := newProcessor(t, f).HandleContentChanged(context.Background(), []byte(payload))
	assert.Equal(t, StatusSkipped, outcomes(report)["t1"].Status)
	assert.Zero(t, f.Definitions.Calls.Total("GetTemplate"))
}

func TestHandleContentChanged_NoTriggers(t *testing.T) {
	f := testutil.NewFixture()
	report := newProcessor(t, f).HandleContentChanged(context.Background(), []byte(payload))
	assert.False(t, report.Dropped)
	assert.Empty(t, report.Outcomes)
	assert.Equal(t, 1, f.Definitions.Calls.Count("GetFiredTriggers:opta/F9"))
}
