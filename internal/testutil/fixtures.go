package testutil

import (
	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/model"
)

// Query texts of the soccer fixture.
const (
	MatchInfosSQL = "SELECT M.ATTENDANCE, M.POOL FROM SOCCER_MATCHINFO M WHERE M.ID = $1"
	TeamInfosSQL  = "SELECT SIDE, TEAM_ID, SCORE, COMPETITION_ID, 'competition' AS COMPETITION_FLAG FROM SOCCER_TEAMSTAT WHERE MATCH_ID = $1"
	TeamStatsSQL  = "WITH STATS AS (SELECT TYPE, HOME_VALUE, AWAY_VALUE FROM SOCCER_TEAMSTAT WHERE MATCH_ID = $1) SELECT * FROM STATS"
)

// Fixture bundles fakes pre-loaded with a small soccer post-match report.
type Fixture struct {
	Definitions *FakeDefinitions
	Queries     *FakeQueries
	References  *FakeReferences
	Composer    *FakeComposer
	Delivery    *FakeDelivery
}

// Set returns the fixture's fakes as a collaborator set.
func (f *Fixture) Set() collab.Set {
	return collab.Set{
		Definitions: f.Definitions,
		Queries:     f.Queries,
		References:  f.References,
		Composer:    f.Composer,
		Delivery:    f.Delivery,
	}
}

func intPtr(v int) *int { return &v }

// MatchTemplate returns the image template of the fixture.
func MatchTemplate() *model.Template {
	return &model.Template{
		ID:       "dsa_fbl_mt_duel",
		Name:     "Statistiques du match",
		Kind:     model.KindImage,
		Language: "FR",
		Context:  "soccer",
		Picture:  &model.PictureConfig{Context: "default"},
		Queries: []model.QuerySpec{
			{
				ID:    "soccer_match_infos",
				Limit: intPtr(50),
				ReferentialParameters: []model.ReferentialParameter{
					{Parameter: "match_id", Key: "match"},
				},
			},
			{
				ID: "soccer_match_team_infos",
				ReferentialParameters: []model.ReferentialParameter{
					{Parameter: "match_id", Key: "match"},
				},
				ReferentialResults: []model.ReferentialResult{
					{Column: "team_id", Kind: model.RefEntity, ColumnID: "side", Picture: &model.PictureSpec{Format: "standard"}},
					{Column: "competition_id", Kind: model.RefEntity, ColumnID: "competition_flag", Picture: &model.PictureSpec{Format: "standard", Kind: "vectorial"}},
				},
			},
			{
				ID: "soccer_match_team_stats",
				ReferentialParameters: []model.ReferentialParameter{
					{Parameter: "match_id", Key: "match"},
				},
				Labels: []model.LabelRule{{Column: "type", Kind: model.LabelCode}},
			},
		},
		AllowedUsers: []string{"my_user"},
		SVG:          "<svg></svg>",
	}
}

// MatchEvent returns the fixture's match event.
func MatchEvent() model.Entry {
	return model.Entry{
		"id":          "f985507",
		"type":        "game",
		"common_name": "Strasbourg - Marseille",
	}
}

// Entities returns the fixture's entities keyed by id.
func Entities() map[string]model.Entry {
	return map[string]model.Entry{
		"t153": {
			"id":           "t153",
			"common_name":  "Strasbourg",
			"informations": map[string]any{"id": "t153", "name": "Strasbourg"},
		},
		"t144": {
			"id":           "t144",
			"common_name":  "Marseille",
			"informations": map[string]any{"id": "t144", "name": "Marseille"},
		},
		"c24": {
			"id":          "c24",
			"common_name": "French Ligue 1",
		},
		"p177840": {
			"id":          "p177840",
			"common_name": "Nuno da Costa",
			"informations": map[string]any{
				"first_name": "Nuno Miguel",
				"last_name":  "da Costa Jóia",
				"known":      "Nuno da Costa",
			},
		},
	}
}

// NewFixture returns fresh fakes for the soccer report. User "my_user" has
// export and notification configuration.
func NewFixture() *Fixture {
	return &Fixture{
		Definitions: &FakeDefinitions{
			Templates: map[string]*model.Template{"dsa_fbl_mt_duel": MatchTemplate()},
			Queries: map[string]*model.QueryDefinition{
				"soccer_match_infos":      {ID: "soccer_match_infos", Text: MatchInfosSQL, Parameters: []string{"match_id"}},
				"soccer_match_team_infos": {ID: "soccer_match_team_infos", Text: TeamInfosSQL, Parameters: []string{"match_id"}},
				"soccer_match_team_stats": {ID: "soccer_match_team_stats", Text: TeamStatsSQL, Parameters: []string{"match_id"}},
			},
		},
		Queries: &FakeQueries{Results: map[string][]model.Row{
			MatchInfosSQL: {
				{"attendance": 25962, "pool": nil},
			},
			TeamInfosSQL: {
				{"side": "Home", "team_id": "t153", "score": 1, "competition_id": "c24", "competition_flag": "competition"},
				{"side": "Away", "team_id": "t144", "score": 1, "competition_id": "c24", "competition_flag": "competition"},
			},
			TeamStatsSQL: {
				{"type": "possession_percentage", "home_value": 0.435, "away_value": 0.565},
				{"type": "total_pass", "home_value": 412, "away_value": 533},
			},
		}},
		References: &FakeReferences{
			Entities:       Entities(),
			Events:         map[string]model.Entry{"f985507": MatchEvent()},
			Filtered:       map[string]model.Entry{"f985507": MatchEvent()},
			Labels:         map[string]string{"possession_percentage": "Possession", "total_pass": "Passes"},
			DefaultPicture: "picture",
		},
		Composer: &FakeComposer{},
		Delivery: &FakeDelivery{Subscriptions: map[string]*model.Subscription{
			"my_user": {
				User:         "my_user",
				Export:       &model.ExportConfig{Target: model.ExportTarget{Type: "s3", Config: map[string]any{"bucket": "my_bucket"}}},
				Notification: &model.NotificationConfig{Type: "slack", Channel: "my_channel"},
			},
		}},
	}
}
