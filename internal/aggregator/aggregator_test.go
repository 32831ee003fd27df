package aggregator

import (
	"errors"
	"math"
	"testing"

	"github.com/pable/gridscout/internal/geom"
	"github.com/pable/gridscout/internal/model"
)

// IDs for test players and teams.
const (
	target = "p-target"
	mate   = "p-mate"
	enemy  = "p-enemy"
	teamUs = "team-us"
	teamEn = "team-them"
)

type roundSpec struct {
	kills, deaths int
	won           bool
	dropPlayer    bool // round-end state without the target player
}

func bp(b bool) *bool { return &b }

// snapshot is a series state with the target attacking from the west.
func snapshot(x float64, alive bool) *model.SeriesState {
	return &model.SeriesState{Games: []model.GameState{{
		Map: &model.GameMap{Name: "haven", Bounds: &model.MapBounds{Max: geom.Vec2{X: 100, Y: 100}}},
		Teams: []model.TeamState{
			{ID: teamUs, Side: "attacker", Players: []model.PlayerState{
				{ID: target, Position: &geom.Vec2{X: x, Y: 50}, Alive: bp(alive)},
				{ID: mate, Position: &geom.Vec2{X: x, Y: 60}, Alive: bp(true)},
			}},
			{ID: teamEn, Side: "defender", Players: []model.PlayerState{
				{ID: enemy, Position: &geom.Vec2{X: 90, Y: 50}},
			}},
		},
	}}}
}

func event(ts int64, typ string) model.FlatEvent {
	return model.FlatEvent{Timestamp: ts, SequenceNumber: ts, Type: typ, Payload: &model.Payload{Type: typ}}
}

// makeRound builds one round of events starting at ts: a start snapshot, a
// mid-round kill snapshot and the closing event carrying the round stats.
func makeRound(ts int64, spec roundSpec) []model.FlatEvent {
	start := event(ts, model.TypeGameStartedRound)
	start.Payload.SeriesState = snapshot(10, true)

	mid := event(ts+10, "player-killed-player")
	mid.Payload.SeriesState = snapshot(20, spec.deaths == 0)

	end := event(ts+20, model.TypeGameEndedRound)
	us := model.TeamState{ID: teamUs, Name: "Us", Side: "attacker", Won: spec.won}
	if !spec.dropPlayer {
		us.Players = []model.PlayerState{{
			ID: target, Name: "tgt", Kills: spec.kills, Deaths: spec.deaths,
			KillAssistsGiven: 1, DamageDealt: 100 * spec.kills, Alive: bp(spec.deaths == 0),
		}}
	}
	end.Payload.Target = &model.Entity{Type: "round", State: &model.EntityState{Teams: []model.TeamState{
		us,
		{ID: teamEn, Name: "Them", Side: "defender", Won: !spec.won},
	}}}
	return []model.FlatEvent{start, mid, end}
}

// makeMatch builds a one-game series starting at base.
func makeMatch(id string, base int64, rounds ...roundSpec) model.MatchEvents {
	events := []model.FlatEvent{event(base, model.TypeSeriesStartedGame)}
	for i, r := range rounds {
		events = append(events, makeRound(base+100*int64(i+1), r)...)
	}
	events = append(events, event(base+100*int64(len(rounds)+1), model.TypeSeriesEndedGame))
	return model.MatchEvents{Series: model.Series{ID: id}, Events: events}
}

var standardRounds = []roundSpec{
	{kills: 2, deaths: 1, won: true},
	{kills: 0, deaths: 2, won: false},
	{kills: 3, deaths: 0, won: true},
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEndToEndTwoMatches(t *testing.T) {
	matches := []model.MatchEvents{
		makeMatch("s1", 0, standardRounds...),
		makeMatch("s2", 10_000, standardRounds...),
	}
	a := AnalysePlayerEvents(target, matches)

	st := a.SeriesTrends
	if st.TotalKills != 10 {
		t.Errorf("totalKills: want 10, got %d", st.TotalKills)
	}
	if st.TotalDeaths != 6 {
		t.Errorf("totalDeaths: want 6, got %d", st.TotalDeaths)
	}
	if st.GamesPlayed != 2 || st.GamesWon != 2 {
		t.Errorf("games: want 2/2, got %d/%d", st.GamesWon, st.GamesPlayed)
	}
	if st.WinRate != 1.0 {
		t.Errorf("winRate: want 1.0, got %f", st.WinRate)
	}
	if st.SeriesPlayed != 2 || st.RoundsPlayed != 6 || st.RoundsWon != 4 {
		t.Errorf("series/rounds: %+v", st)
	}
	if len(a.RoundTrends) != 6 || len(a.GameTrends) != 2 {
		t.Fatalf("trend arrays: rounds=%d games=%d", len(a.RoundTrends), len(a.GameTrends))
	}
	if a.PlayerName != "tgt" {
		t.Errorf("player name: got %q", a.PlayerName)
	}
	if a.Range.Start != 0 || a.Range.End != 10_400 {
		t.Errorf("time window: %+v", a.Range)
	}
	if len(a.SeriesIDs) != 2 || a.SeriesIDs[1] != "s2" {
		t.Errorf("series ids: %v", a.SeriesIDs)
	}

	g := a.GameTrends[0]
	if g.Rounds != 3 || g.RoundsWon != 2 || !g.Won || g.MapName != "haven" {
		t.Errorf("game trend: %+v", g)
	}
	if !approx(g.AvgKills, 5.0/3) {
		t.Errorf("avg kills: got %f", g.AvgKills)
	}

	r := a.RoundTrends[2]
	if r.GameNumber != 1 || r.RoundNumber != 3 || r.SeriesID != "s1" {
		t.Errorf("round labels: %+v", r)
	}
	if r.Positioning == nil || r.Positioning.Samples != 2 {
		t.Fatalf("round positioning: %+v", r.Positioning)
	}
	if !approx(r.Positioning.DistanceToTeammates, 10) {
		t.Errorf("teammate distance: got %f", r.Positioning.DistanceToTeammates)
	}
	if a.PositioningTrends.Rounds != 6 || !approx(a.PositioningTrends.DefenderHoldRate, 1) {
		t.Errorf("positioning trends: %+v", a.PositioningTrends)
	}
}

func TestAlivePercent(t *testing.T) {
	a := AnalysePlayerEvents(target, []model.MatchEvents{makeMatch("s1", 0, standardRounds...)})
	// Died at the mid-round snapshot: 10ms into a 20ms round.
	if got := a.RoundTrends[0].AlivePercent; !approx(got, 0.5) {
		t.Errorf("round 1 alivePercent: want 0.5, got %f", got)
	}
	if got := a.RoundTrends[2].AlivePercent; got != 1 {
		t.Errorf("round 3 alivePercent: want 1, got %f", got)
	}
}

// swappedSnapshot has the teams changed over: the target's team now defends
// from the east. The target itself is not positioned yet.
func swappedSnapshot() *model.SeriesState {
	return &model.SeriesState{Games: []model.GameState{{
		Map: &model.GameMap{Name: "haven", Bounds: &model.MapBounds{Max: geom.Vec2{X: 100, Y: 100}}},
		Teams: []model.TeamState{
			{ID: teamUs, Side: "defender", Players: []model.PlayerState{
				{ID: target, Alive: bp(true)},
				{ID: mate, Position: &geom.Vec2{X: 90, Y: 60}, Alive: bp(true)},
			}},
			{ID: teamEn, Side: "attacker", Players: []model.PlayerState{
				{ID: enemy, Position: &geom.Vec2{X: 10, Y: 50}},
			}},
		},
	}}}
}

func TestRoundStartRecapturedEachRound(t *testing.T) {
	spec := roundSpec{kills: 1, won: true}
	events := []model.FlatEvent{event(0, model.TypeSeriesStartedGame)}
	events = append(events, makeRound(100, spec)...)

	// Sides swap: standing west at x=20 is now the attackers' half.
	swapped := makeRound(200, spec)
	swapped[0].Payload.SeriesState = swappedSnapshot()
	events = append(events, swapped...)

	// No snapshot at round start: the previous round's sides still apply.
	blind := makeRound(300, spec)
	blind[0].Payload.SeriesState = nil
	events = append(events, blind...)

	events = append(events, event(400, model.TypeSeriesEndedGame))
	a, err := AnalyseMatch(target, model.MatchEvents{Series: model.Series{ID: "swap"}, Events: events})
	if err != nil {
		t.Fatalf("AnalyseMatch: %v", err)
	}
	if len(a.RoundTrends) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(a.RoundTrends))
	}

	cases := []struct {
		name        string
		aggr, hold  float64
		wantSamples int
	}{
		{"attacking round", 0, 1, 2},
		{"swapped sides", 1, 0, 1},
		{"start without snapshot", 1, 0, 1},
	}
	for i, c := range cases {
		p := a.RoundTrends[i].Positioning
		if p == nil {
			t.Errorf("%s: no positioning", c.name)
			continue
		}
		if p.Samples != c.wantSamples || !approx(p.AttackerSideAggression, c.aggr) || !approx(p.DefenderSideHold, c.hold) {
			t.Errorf("%s: want aggression %.0f hold %.0f over %d samples, got %+v",
				c.name, c.aggr, c.hold, c.wantSamples, p)
		}
	}
}

func TestRoundSkippedOnMissingSnapshot(t *testing.T) {
	m := makeMatch("s1", 0,
		roundSpec{kills: 2, deaths: 1, won: true},
		roundSpec{kills: 5, deaths: 5, won: true, dropPlayer: true},
		roundSpec{kills: 3, deaths: 0, won: true},
	)
	a := AnalysePlayerEvents(target, []model.MatchEvents{m})
	if len(a.RoundTrends) != 2 {
		t.Fatalf("expected 2 round trends, got %d", len(a.RoundTrends))
	}
	if a.SeriesTrends.TotalKills != 5 || a.SeriesTrends.TotalDeaths != 1 {
		t.Errorf("dropped round leaked into totals: %+v", a.SeriesTrends)
	}
	if a.RoundTrends[1].RoundNumber != 3 {
		t.Errorf("later rounds must still be processed, got round %d", a.RoundTrends[1].RoundNumber)
	}
}

func TestGameSkippedWhenPlayerAbsent(t *testing.T) {
	a := AnalysePlayerEvents("someone-else", []model.MatchEvents{
		makeMatch("s1", 0, standardRounds...),
		makeMatch("s2", 1000, standardRounds...),
	})
	if len(a.GameTrends) != 0 || a.SeriesTrends.GamesPlayed != 0 || a.SeriesTrends.SeriesPlayed != 0 {
		t.Errorf("absent player should contribute nothing: %+v", a.SeriesTrends)
	}
	if a.SeriesTrends.WinRate != 0 || a.Trends.ConsistencyScore != 0 {
		t.Error("empty analysis must not divide by zero")
	}
	if a.Trends.RoundPerformance.Direction != model.TrendStable {
		t.Errorf("empty trend: got %s", a.Trends.RoundPerformance.Direction)
	}
}

func TestMergeMatchesSingleCall(t *testing.T) {
	A := makeMatch("a", 0, standardRounds...)
	B := makeMatch("b", 1000,
		roundSpec{kills: 1, deaths: 1},
		roundSpec{kills: 1, deaths: 2},
		roundSpec{kills: 0, deaths: 1, won: true},
	)
	C := makeMatch("c", 2000,
		roundSpec{kills: 4, won: true},
		roundSpec{kills: 2, deaths: 1, won: true},
		roundSpec{kills: 1, deaths: 1},
	)

	whole := AnalysePlayerEvents(target, []model.MatchEvents{A, B, C})

	merged := AnalysePlayerEvents(target, []model.MatchEvents{A})
	merged = MergePlayerAnalysis(merged, AnalysePlayerEvents(target, []model.MatchEvents{B}))
	merged = MergePlayerAnalysis(merged, AnalysePlayerEvents(target, []model.MatchEvents{C}))

	ws, ms := whole.SeriesTrends, merged.SeriesTrends
	if ws.TotalKills != ms.TotalKills || ws.TotalDeaths != ms.TotalDeaths ||
		ws.GamesPlayed != ms.GamesPlayed || ws.WinRate != ms.WinRate {
		t.Errorf("series totals differ:\nwhole  %+v\nmerged %+v", ws, ms)
	}
	if ws.GamesWon != 2 || ws.GamesPlayed != 3 {
		t.Errorf("games: want 2/3, got %d/%d", ws.GamesWon, ws.GamesPlayed)
	}
	if whole.Trends.RoundPerformance != merged.Trends.RoundPerformance {
		t.Errorf("round trend differs: %+v vs %+v", whole.Trends.RoundPerformance, merged.Trends.RoundPerformance)
	}
	if whole.Trends.GamePerformance != merged.Trends.GamePerformance {
		t.Errorf("game trend differs: %+v vs %+v", whole.Trends.GamePerformance, merged.Trends.GamePerformance)
	}
	if !approx(whole.Trends.ConsistencyScore, merged.Trends.ConsistencyScore) {
		t.Errorf("consistency differs: %f vs %f", whole.Trends.ConsistencyScore, merged.Trends.ConsistencyScore)
	}
	if merged.Range != whole.Range || len(merged.RoundTrends) != 9 {
		t.Errorf("merged window/rounds: %+v %d", merged.Range, len(merged.RoundTrends))
	}
	if !approx(whole.PositioningTrends.AvgDistanceToTeammates, merged.PositioningTrends.AvgDistanceToTeammates) {
		t.Error("positioning means differ")
	}
}

func TestMergeNil(t *testing.T) {
	a := AnalysePlayerEvents(target, []model.MatchEvents{makeMatch("a", 0, standardRounds...)})
	m := MergePlayerAnalysis(nil, a)
	if m.SeriesTrends.TotalKills != 5 || m.PlayerID != target {
		t.Errorf("merge into nil: %+v", m.SeriesTrends)
	}
	m.RoundTrends[0].Stats.Kills = 99
	if a.RoundTrends[0].Stats.Kills == 99 {
		t.Error("merge must not alias its inputs")
	}
	if got := MergePlayerAnalysis(a, nil); got.SeriesTrends.TotalKills != 5 {
		t.Errorf("merge nil into analysis: %+v", got.SeriesTrends)
	}
}

func TestMergePositioningWeighted(t *testing.T) {
	a := model.PositioningTrendData{Rounds: 1, AvgDistanceToTeammates: 10, AvgVelocity: geom.Vec2{X: 3}}
	b := model.PositioningTrendData{Rounds: 3, AvgDistanceToTeammates: 30, AvgVelocity: geom.Vec2{X: 7}}
	m := mergePositioning(a, b)
	if m.Rounds != 4 || !approx(m.AvgDistanceToTeammates, 25) || !approx(m.AvgVelocity.X, 6) {
		t.Errorf("weighted merge: %+v", m)
	}
	if got := mergePositioning(model.PositioningTrendData{}, model.PositioningTrendData{}); got.Rounds != 0 {
		t.Errorf("empty merge: %+v", got)
	}
}

func TestAnalyseMatchRejectsUnordered(t *testing.T) {
	m := makeMatch("s9", 0, standardRounds...)
	m.Events[2], m.Events[3] = m.Events[3], m.Events[2]
	_, err := AnalyseMatch(target, m)
	var me *MatchError
	if !errors.As(err, &me) {
		t.Fatalf("expected MatchError, got %v", err)
	}
	if me.SeriesID != "s9" || !errors.Is(err, ErrUnordered) {
		t.Errorf("unexpected error %v", err)
	}

	a, err := AnalyseMatch(target, makeMatch("ok", 0, standardRounds...))
	if err != nil || a.SeriesTrends.TotalKills != 5 {
		t.Errorf("ordered match: %v %+v", err, a)
	}
}

func TestMatchErrorMessage(t *testing.T) {
	base := errors.New("boom")
	cases := []struct {
		err  *MatchError
		want string
	}{
		{&MatchError{SeriesID: "1", Err: base}, "series 1: boom"},
		{&MatchError{SeriesID: "1", Game: 2, Err: base}, "series 1 game 2: boom"},
		{&MatchError{SeriesID: "1", Game: 2, Round: 7, Err: base}, "series 1 game 2 round 7: boom"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("want %q, got %q", c.want, got)
		}
		if !errors.Is(c.err, base) {
			t.Error("MatchError must unwrap")
		}
	}
}
