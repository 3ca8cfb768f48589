package labeler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reportgrid/internal/errs"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/resolver"
	"github.com/vk/reportgrid/internal/testutil"
)

func setup(dataOnly bool) (*testutil.Fixture, *Labeler, *resolver.Scope) {
	f := testutil.NewFixture()
	l := New(f.References, resolver.New(f.References))
	return f, l, resolver.NewScope("my_user", "FR", "soccer", "default", dataOnly)
}

func TestLabel(t *testing.T) {
	f, l, scope := setup(false)
	spec := model.QuerySpec{
		ID: "q",
		Labels: []model.LabelRule{
			{Column: "type", Kind: model.LabelCode},
			{Column: "team_id", Kind: model.LabelEntity},
			{Column: "absent", Kind: model.LabelCode},
		},
	}
	row := model.Row{"type": "total_pass", "team_id": "t144", "home_value": 412}

	got, err := l.Label(context.Background(), scope, spec, row)
	require.NoError(t, err)
	assert.Equal(t, model.Row{"type": "Passes", "team_id": "Marseille", "home_value": 412}, got)
	assert.Equal(t, "total_pass", row["type"], "input row must not change")
	assert.Equal(t, 1, f.References.Calls.Count("GetLabel:total_pass:FR:soccer"))
}

func TestLabel_MissingLabel(t *testing.T) {
	_, l, scope := setup(false)
	spec := model.QuerySpec{ID: "q", Labels: []model.LabelRule{{Column: "type", Kind: model.LabelCode}}}

	_, err := l.Label(context.Background(), scope, spec, model.Row{"type": "offsides"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLabel_EntityFetchedOnce(t *testing.T) {
	f, l, scope := setup(false)
	spec := model.QuerySpec{ID: "q", Labels: []model.LabelRule{{Column: "team_id", Kind: model.LabelEntity}}}

	for i := 0; i < 3; i++ {
		_, err := l.Label(context.Background(), scope, spec, model.Row{"team_id": "t153"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.References.Calls.Count("GetEntityByID:t153"))
}

func TestEnrich(t *testing.T) {
	f, l, scope := setup(false)
	spec := testutil.MatchTemplate().Queries[1]
	ctx := context.Background()

	for _, row := range f.Queries.Results[testutil.TeamInfosSQL] {
		require.NoError(t, l.Enrich(ctx, scope, spec, row))
	}

	home, ok := scope.Refs.Get("Home")
	require.True(t, ok)
	assert.Equal(t, "Strasbourg", home[model.FieldDisplayName])
	assert.Equal(t, map[string]any{"standard": "picture"}, home[model.FieldPicture])

	away, ok := scope.Refs.Get("Away")
	require.True(t, ok)
	assert.Equal(t, "t144", away.ID())

	comp, ok := scope.Refs.Get("competition")
	require.True(t, ok)
	assert.Equal(t, "c24", comp.ID())

	assert.Equal(t, 1, f.References.Calls.Count("GetEntityByID:c24"))
	assert.Equal(t, 1, f.References.Calls.Count("GetEntityPicture:c24:standard"))
}

func TestEnrich_DataOnlySkipsPictures(t *testing.T) {
	f, l, scope := setup(true)
	spec := testutil.MatchTemplate().Queries[1]

	row := model.Row{"side": "Home", "team_id": "t153", "competition_id": "c24", "competition_flag": "competition"}
	require.NoError(t, l.Enrich(context.Background(), scope, spec, row))

	home, _ := scope.Refs.Get("Home")
	assert.NotContains(t, home, model.FieldPicture)
	assert.Zero(t, f.References.Calls.Total("GetEntityPicture"))
}

func TestEnrich_Errors(t *testing.T) {
	spec := model.QuerySpec{
		ID:                 "q",
		ReferentialResults: []model.ReferentialResult{{Column: "team_id", Kind: model.RefEntity, ColumnID: "side"}},
	}
	tests := []struct {
		name string
		row  model.Row
		want error
	}{
		{name: "missing key column", row: model.Row{"team_id": "t153"}, want: errs.ErrMalformedSpec},
		{name: "missing id column", row: model.Row{"side": "Home"}, want: errs.ErrMalformedSpec},
		{name: "unknown entity", row: model.Row{"team_id": "t0", "side": "Home"}, want: errs.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, l, scope := setup(false)
			err := l.Enrich(context.Background(), scope, spec, tt.row)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
