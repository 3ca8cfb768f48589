package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reportgrid/internal/model"
)

func validModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel()
	require.NoError(t, m.AddQuery(&model.QueryDefinition{ID: "q1", Text: "SELECT 1"}))
	require.NoError(t, m.AddTemplate(&model.Template{
		ID:      "t1",
		Kind:    model.KindImage,
		Queries: []model.QuerySpec{{ID: "q1"}},
	}))
	require.NoError(t, m.AddTrigger(&model.Trigger{ID: "tr1", User: "u", Template: model.TriggerTemplate{ID: "t1"}}))
	return m
}

func TestModel_Validate(t *testing.T) {
	require.NoError(t, validModel(t).Validate())

	tests := []struct {
		name    string
		mutate  func(m *Model)
		wantErr string
	}{
		{
			name: "unknown query",
			mutate: func(m *Model) {
				m.Templates["t1"].Queries = append(m.Templates["t1"].Queries, model.QuerySpec{ID: "q2"})
			},
			wantErr: `query "q2" is not defined`,
		},
		{
			name:    "unknown kind",
			mutate:  func(m *Model) { m.Templates["t1"].Kind = "pdf" },
			wantErr: `unknown kind "pdf"`,
		},
		{
			name:    "trigger template",
			mutate:  func(m *Model) { m.Triggers[0].Template.ID = "t2" },
			wantErr: `template "t2" is not defined`,
		},
		{
			name:    "trigger user",
			mutate:  func(m *Model) { m.Triggers[0].User = "" },
			wantErr: "user is required",
		},
		{
			name: "from_event in template",
			mutate: func(m *Model) {
				m.Templates["t1"].Referential = model.ReferentialSpec{"match": {FromEvent: true}}
			},
			wantErr: "from_event is only valid in triggers",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel(t)
			tt.mutate(m)
			assert.ErrorContains(t, m.Validate(), tt.wantErr)
		})
	}
}

func TestModel_RejectsDuplicates(t *testing.T) {
	m := validModel(t)
	assert.Error(t, m.AddQuery(&model.QueryDefinition{ID: "q1"}))
	assert.Error(t, m.AddTemplate(&model.Template{ID: "t1"}))
	assert.Error(t, m.AddTrigger(&model.Trigger{ID: "tr1"}))
}
