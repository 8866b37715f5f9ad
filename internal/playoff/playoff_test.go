package playoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/laxsim/internal/config"
	"github.com/derekprior/laxsim/internal/match"
	"github.com/derekprior/laxsim/internal/standings"
)

func conferenceSeeds(conf string, teams ...string) []Seed {
	var out []Seed
	for i, t := range teams {
		out = append(out, Seed{Team: t, Conference: conf, Rank: i + 1})
	}
	return out
}

func twoConferenceSeeds() map[string][]Seed {
	return map[string][]Seed{
		"Eastern": conferenceSeeds("Eastern", "E1", "E2", "E3", "E4"),
		"Western": conferenceSeeds("Western", "W1", "W2", "W3", "W4"),
	}
}

// win records a result for g where winner beats the other team.
func win(t *testing.T, b *Bracket, g *Game, winner string, overtime bool) {
	t.Helper()
	r := match.Result{Home: g.Home(), Away: g.Away(), HomeScore: 8, AwayScore: 5, Overtime: overtime}
	if winner == g.Away() {
		r.HomeScore, r.AwayScore = 5, 8
	}
	require.NoError(t, b.Record(r))
}

func TestBracketOrder(t *testing.T) {
	assert.Equal(t, []int{1, 2}, bracketOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, bracketOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, bracketOrder(8))
}

func TestBracketProgression(t *testing.T) {
	b, err := New(twoConferenceSeeds(), []string{"Eastern", "Western"})
	require.NoError(t, err)

	semis := b.Current()
	require.NotNil(t, semis)
	assert.Equal(t, "Conference Semifinal", semis.Name)
	require.Len(t, semis.Games, 4)
	assert.Equal(t, "E1", semis.Games[0].Home())
	assert.Equal(t, "E4", semis.Games[0].Away())
	assert.Equal(t, "E2", semis.Games[1].Home())
	assert.Equal(t, "E3", semis.Games[1].Away())

	t.Run("cannot advance with unplayed games", func(t *testing.T) {
		win(t, b, semis.Games[0], "E1", false)
		assert.ErrorIs(t, b.Advance(), ErrRoundIncomplete)
	})

	win(t, b, semis.Games[1], "E3", true) // upset
	win(t, b, semis.Games[2], "W1", false)
	win(t, b, semis.Games[3], "W2", false)
	require.NoError(t, b.Advance())

	finals := b.Current()
	assert.Equal(t, "Conference Final", finals.Name)
	require.Len(t, finals.Games, 2)
	assert.Equal(t, "E1", finals.Games[0].Home(), "higher seed hosts")
	assert.Equal(t, "E3", finals.Games[0].Away())
	win(t, b, finals.Games[0], "E3", false)
	win(t, b, finals.Games[1], "W2", false)
	require.NoError(t, b.Advance())

	champ := b.Current()
	assert.Equal(t, "Championship", champ.Name)
	require.Len(t, champ.Games, 1)
	assert.Equal(t, "E3", champ.Games[0].Home(), "first conference hosts the championship")
	assert.Equal(t, "W2", champ.Games[0].Away())

	_, done := b.Champion()
	assert.False(t, done)
	win(t, b, champ.Games[0], "W2", false)
	require.NoError(t, b.Advance())

	winner, ok := b.Champion()
	require.True(t, ok)
	assert.Equal(t, "W2", winner.Team)
	assert.True(t, b.Done())
	assert.Nil(t, b.Current())
	assert.Len(t, b.Rounds(), 3)
	assert.ErrorIs(t, b.Advance(), ErrBracketComplete)
}

func TestSingleConferenceFinalIsChampionship(t *testing.T) {
	seeds := map[string][]Seed{"League": conferenceSeeds("League", "A", "B", "C", "D")}
	b, err := New(seeds, []string{"League"})
	require.NoError(t, err)

	for _, g := range b.Current().Games {
		win(t, b, g, g.Home(), false)
	}
	require.NoError(t, b.Advance())
	assert.Equal(t, "Championship", b.Current().Name)

	win(t, b, b.Current().Games[0], "B", false)
	require.NoError(t, b.Advance())
	champ, ok := b.Champion()
	require.True(t, ok)
	assert.Equal(t, "B", champ.Team)
	assert.Len(t, b.Rounds(), 2)
}

func TestRecordRejectsUnknownGames(t *testing.T) {
	b, err := New(twoConferenceSeeds(), []string{"Eastern", "Western"})
	require.NoError(t, err)

	assert.Error(t, b.Record(match.Result{Home: "E4", Away: "E1", HomeScore: 3, AwayScore: 2}))
	assert.Error(t, b.Record(match.Result{Home: "E1", Away: "E4", HomeScore: 3, AwayScore: 3}))

	g := b.Current().Games[0]
	win(t, b, g, g.Home(), false)
	assert.Error(t, b.Record(match.Result{Home: "E1", Away: "E4", HomeScore: 3, AwayScore: 2}), "already played")
}

func TestNewValidatesSeeds(t *testing.T) {
	_, err := New(map[string][]Seed{"League": conferenceSeeds("League", "A", "B", "C")}, []string{"League"})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)

	uneven := twoConferenceSeeds()
	uneven["Western"] = uneven["Western"][:2]
	_, err = New(uneven, []string{"Eastern", "Western"})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)

	_, err = New(twoConferenceSeeds(), []string{"Eastern", "Western", "Central"})
	assert.Error(t, err)
}

func TestSeeding(t *testing.T) {
	table := standings.NewTable([]config.TeamInfo{
		{Name: "Buffalo Glacier", Conference: "Eastern", Division: "North"},
		{Name: "Toronto Ironhawks", Conference: "Eastern", Division: "North"},
		{Name: "Richmond Rebellion", Conference: "Eastern", Division: "South"},
		{Name: "Denver Rapids", Conference: "Western", Division: "South"},
		{Name: "Seattle Storm", Conference: "Western", Division: "North"},
	})
	require.NoError(t, table.Record(match.Result{Home: "Richmond Rebellion", Away: "Buffalo Glacier", HomeScore: 9, AwayScore: 4}))
	require.NoError(t, table.Record(match.Result{Home: "Seattle Storm", Away: "Denver Rapids", HomeScore: 6, AwayScore: 5, Overtime: true}))

	seeds, err := Seeding(table, []string{"Eastern", "Western"}, 2)
	require.NoError(t, err)
	require.Len(t, seeds["Eastern"], 2)
	assert.Equal(t, Seed{Team: "Richmond Rebellion", Conference: "Eastern", Rank: 1}, seeds["Eastern"][0])
	assert.Equal(t, "Toronto Ironhawks", seeds["Eastern"][1].Team, "0 points beats a regulation loss on goal differential")
	assert.Equal(t, "Seattle Storm", seeds["Western"][0].Team)
	assert.Equal(t, "(1) Seattle Storm", seeds["Western"][0].String())

	_, err = Seeding(table, []string{"Eastern", "Western"}, 4)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}
