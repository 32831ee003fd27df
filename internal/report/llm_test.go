package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pable/gridscout/internal/model"
	"github.com/pable/gridscout/internal/parser"
)

func sampleAnalysis() *model.PlayerAnalysis {
	a := &model.PlayerAnalysis{
		PlayerID:   "p1",
		PlayerName: "ace",
		Range:      model.TimeRange{Start: 1714557600000, End: 1717236000000},
		GameTrends: []model.GameTrendData{{SeriesID: "s1", GameNumber: 1, MapName: "ascent", Rounds: 3, RoundsWon: 2, Kills: 20, Won: true}},
		RoundTrends: []model.RoundTrendData{{
			SeriesID: "s1", GameNumber: 1, RoundNumber: 1, AlivePercent: 0.5,
			Stats:       model.PlayerRoundCombatStats{Kills: 2, Deaths: 1, FirstKill: true, RoundWon: true, Side: model.SideAttacker},
			Positioning: &model.RoundPositioning{DistanceToTeammates: 2500, AttackerSideAggression: 0.8, DefenderSideHold: 0.2, Samples: 5},
		}},
		SeriesTrends: model.SeriesTrendData{
			SeriesPlayed: 1, GamesPlayed: 1, GamesWon: 1, RoundsPlayed: 3, RoundsWon: 2,
			TotalKills: 20, TotalDeaths: 10, TotalHeadshots: 8, TotalFirstKills: 1,
		},
		PositioningTrends: model.PositioningTrendData{Rounds: 1, AvgDistanceToTeammates: 2500, AttackerAggressionRate: 0.8, DefenderHoldRate: 0.2},
		Trends: model.Trends{
			RoundPerformance: model.TrendResult{Direction: model.TrendImproving, Correlation: 0.6},
			ConsistencyScore: 0.8,
		},
	}
	a.SeriesTrends.Recompute()
	return a
}

func TestFormatCompactSections(t *testing.T) {
	out := FormatCompact(sampleAnalysis())
	for _, want := range []string{
		"PLAYER: ace (id p1)",
		"PERIOD: 2024-05-01 to 2024-06-01",
		"SERIES STATS",
		"win rate 100%",
		"K/D 2.00",
		"POSITIONING",
		"plays isolated",
		"aggressive, takes space",
		"TRENDS",
		"round performance: improving (r=0.60)",
		"highly consistent",
		"KEY OBSERVATIONS",
		"strong fragger",
		"high kill output, 20.0 kills per series",
		"precise aim, 40% headshot kills",
		"frequently plays away from the team",
		"round-by-round form is improving",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("compact output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "ROUND BREAKDOWN") {
		t.Error("compact output should not include the round breakdown")
	}
}

func TestFormatVerboseBreakdown(t *testing.T) {
	out := FormatVerbose(sampleAnalysis())
	for _, want := range []string{"GAME BREAKDOWN", "series s1 game 1 ascent [W]", "ROUND BREAKDOWN", "s1 g1 r1 W attacker", "first kill", "aggr 80%"} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose output missing %q", want)
		}
	}
}

func TestFormatEmptyAnalysis(t *testing.T) {
	a := &model.PlayerAnalysis{PlayerID: "nobody"}
	out := FormatVerbose(a)
	for _, want := range []string{"PLAYER: unknown", "PERIOD: no events", "no positional data", "not enough data", "no games", "no rounds"} {
		if !strings.Contains(out, want) {
			t.Errorf("empty output missing %q", want)
		}
	}
	if strings.Contains(out, "NaN") || strings.Contains(out, "Inf") {
		t.Errorf("empty analysis produced non-finite numbers:\n%s", out)
	}
	if Observations(a) != nil {
		t.Error("no games should mean no observations")
	}
}

func TestObservationBands(t *testing.T) {
	a := &model.PlayerAnalysis{SeriesTrends: model.SeriesTrendData{
		SeriesPlayed: 2, GamesPlayed: 4, GamesWon: 1, RoundsPlayed: 40, TotalKills: 10, TotalDeaths: 20,
	}}
	a.SeriesTrends.Recompute()
	obs := strings.Join(Observations(a), "\n")
	if !strings.Contains(obs, "win rate at or below even (25%)") {
		t.Errorf("low win rate not reported:\n%s", obs)
	}
	if !strings.Contains(obs, "loses more duels") {
		t.Errorf("low K/D not reported:\n%s", obs)
	}
	if strings.Contains(obs, "high kill output") || strings.Contains(obs, "opening duel") {
		t.Errorf("unexpected observation:\n%s", obs)
	}
}

func TestTablesRender(t *testing.T) {
	a := sampleAnalysis()
	var buf bytes.Buffer
	PrintAnalysisHeader(&buf, a)
	PrintSeriesTable(&buf, a.SeriesTrends)
	PrintGameTable(&buf, a.GameTrends)
	PrintRoundTable(&buf, a.RoundTrends)
	PrintPositioningTable(&buf, a.PositioningTrends)
	PrintTrendTable(&buf, a.Trends)
	PrintSegmentTable(&buf, []model.GameSegment{{
		EndPos: 100, EndTime: 95_000, WinningTeam: &model.Team{ID: "t1", Name: "Alpha"},
		Rounds: []model.RoundSegment{{EndPos: 50, EndTime: 45_000}},
	}})
	out := buf.String()
	for _, want := range []string{"Player: ace (p1)", "ascent", "Alpha", "1m35s", "consistency"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q", want)
		}
	}

	buf.Reset()
	PrintPositioningTable(&buf, model.PositioningTrendData{})
	if !strings.Contains(buf.String(), "—") {
		t.Error("empty positioning should render dashes")
	}
}

func TestChainTableSpan(t *testing.T) {
	var buf bytes.Buffer
	PrintChainTable(&buf, []parser.CorrelationChain{{
		CorrelationID: "corr-1",
		Events: []model.FlatEvent{
			{Timestamp: 3_600_000, Type: "player-killed-player"},
			{Timestamp: 3_605_000, Type: "player-damaged-player"},
		},
	}, {CorrelationID: "empty"}})
	out := buf.String()
	for _, want := range []string{"corr-1", "01:00:00", "0m05s", "player-killed-player"} {
		if !strings.Contains(out, want) {
			t.Errorf("chain table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "empty") {
		t.Error("chains without events should be skipped")
	}
}
