package binder

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

func setup(t *testing.T) (*testutil.Fixture, *Binder, *resolver.Scope) {
	t.Helper()
	f := testutil.NewFixture()
	r := resolver.New(f.References)
	scope := resolver.NewScope("my_user", "FR", "soccer", "default", false)
	require.NoError(t, r.ResolveAll(context.Background(), scope, model.ReferentialSpec{
		"match": {ID: "f985507", Kind: model.RefEvent},
		"team":  {ID: "t153", Kind: model.RefEntity},
	}))
	return f, New(r), scope
}

func TestBind(t *testing.T) {
	_, b, scope := setup(t)
	def := &model.QueryDefinition{ID: "q", Parameters: []string{"season", "match_id", "team_id", "match_id"}}
	spec := model.QuerySpec{
		ID: "q",
		ReferentialParameters: []model.ReferentialParameter{
			{Parameter: "match_id", Key: "match"},
			{Parameter: "team_id", Key: "team"},
		},
	}
	user := model.UserParameters{"q": {"season": 2024, "team_id": "t1"}}

	params, err := b.Bind(context.Background(), scope, spec, def, user)
	require.NoError(t, err)
	assert.Equal(t, []any{2024, "f985507", "t1", "t153", "f985507"}, params)
}

func TestBind_NoParameters(t *testing.T) {
	_, b, scope := setup(t)
	params, err := b.Bind(context.Background(), scope, model.QuerySpec{ID: "q"}, &model.QueryDefinition{ID: "q"}, nil)
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestBind_UnknownKey(t *testing.T) {
	_, b, scope := setup(t)
	spec := model.QuerySpec{
		ID:                    "q",
		ReferentialParameters: []model.ReferentialParameter{{Parameter: "player_id", Key: "player"}},
	}
	_, err := b.Bind(context.Background(), scope, spec, &model.QueryDefinition{Parameters: []string{"player_id"}}, nil)
	assert.ErrorIs(t, err, errs.ErrMalformedSpec)
}

func TestBind_AttachesPicture(t *testing.T) {
	f, b, scope := setup(t)
	spec := model.QuerySpec{
		ID: "q",
		ReferentialParameters: []model.ReferentialParameter{
			{Parameter: "team_id", Key: "team", Picture: &model.PictureSpec{Format: "standard"}},
		},
	}
	def := &model.QueryDefinition{Parameters: []string{"team_id"}}

	_, err := b.Bind(context.Background(), scope, spec, def, nil)
	require.NoError(t, err)
	_, err = b.Bind(context.Background(), scope, spec, def, nil)
	require.NoError(t, err)

	team, _ := scope.Refs.Get("team")
	assert.Equal(t, map[string]any{"standard": "picture"}, team[model.FieldPicture])
	assert.Equal(t, 1, f.References.Calls.Count("GetEntityPicture:t153:standard"))
}

func TestBind_PictureWithoutFormat(t *testing.T) {
	_, b, scope := setup(t)
	spec := model.QuerySpec{
		ID: "q",
		ReferentialParameters: []model.ReferentialParameter{
			{Parameter: "team_id", Key: "team", Picture: &model.PictureSpec{Kind: "vectorial"}},
		},
	}
	_, err := b.Bind(context.Background(), scope, spec, &model.QueryDefinition{Parameters: []string{"team_id"}}, nil)
	assert.ErrorIs(t, err, errs.ErrMalformedSpec)
}
