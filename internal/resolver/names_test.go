package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/testutil"
)

func TestDecorate_KnownPlayer(t *testing.T) {
	e := testutil.Entities()["p177840"]
	Decorate(e, "FR")

	assert.Equal(t, "Nuno da Costa", e[model.FieldDisplayName])
	assert.Equal(t, "Nuno da Costa", e[model.FieldShortName])
	assert.Equal(t, map[string]any{"first_name": "Nuno Miguel", "last_name": "da Costa Jóia"}, e[model.FieldMultilineName])
}

func TestDecorate_LanguageOverride(t *testing.T) {
	e := model.Entry{
		"id":                   "t1",
		"common_name":          "Bayern Munich",
		"internationalization": map[string]any{"DE": "FC Bayern"},
	}
	Decorate(e, "DE")

	assert.Equal(t, "FC Bayern", e[model.FieldDisplayName])
	assert.Equal(t, "FC Bayern", e[model.FieldShortName])
	assert.Equal(t, map[string]any{"first_name": "", "last_name": "FC Bayern"}, e[model.FieldMultilineName])

	Decorate(e, "EN")
	assert.Equal(t, "Bayern Munich", e[model.FieldDisplayName])
}

func TestShortName(t *testing.T) {
	tests := []struct {
		name  string
		entry model.Entry
		want  string
	}{
		{
			name:  "last name without nickname",
			entry: model.Entry{"common_name": "Dimitri Payet", "informations": map[string]any{"last_name": "Payet"}},
			want:  "Payet",
		},
		{
			name:  "empty nickname falls back to last name",
			entry: model.Entry{"common_name": "Dimitri Payet", "informations": map[string]any{"known": "", "last_name": "Payet"}},
			want:  "Payet",
		},
		{
			name:  "no informations",
			entry: model.Entry{"common_name": "Marseille"},
			want:  "Marseille",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortName(tt.entry, "FR"))
		})
	}
}

func TestMultilineName_ExplicitOverride(t *testing.T) {
	custom := map[string]any{"first_name": "Olympique", "last_name": "de Marseille"}
	e := model.Entry{"common_name": "Marseille", "multiline": custom}
	assert.Equal(t, custom, MultilineName(e, "FR"))
}
