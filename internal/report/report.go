package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/gridscout/internal/model"
	"github.com/pable/gridscout/internal/parser"
	"github.com/pable/gridscout/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintAnalysisHeader prints a one-line summary of the player and period.
func PrintAnalysisHeader(w io.Writer, a *model.PlayerAnalysis) {
	period := "—"
	if !a.Range.IsZero() {
		period = fmtDay(a.Range.Start) + " – " + fmtDay(a.Range.End)
	}
	fmt.Fprintf(w, "\nPlayer: %s (%s)  |  Period: %s  |  Series: %d\n\n",
		orDash(a.PlayerName), a.PlayerID, period, a.SeriesTrends.SeriesPlayed)
}

// PrintSeriesTable prints the series-level totals and rates.
func PrintSeriesTable(w io.Writer, s model.SeriesTrendData) {
	table := newTable(w)
	table.Header("SERIES", "GAMES", "W", "WIN%", "ROUNDS", "RWIN%", "K", "D", "A", "K/D", "HS%", "FK", "K/G", "DMG/G", "ADR")

	kd := "—"
	if s.TotalKills > 0 || s.TotalDeaths > 0 {
		kd = fmt.Sprintf("%.2f", s.KDRatio)
	}
	table.Append(
		strconv.Itoa(s.SeriesPlayed),
		strconv.Itoa(s.GamesPlayed),
		strconv.Itoa(s.GamesWon),
		pctOrDash(s.WinRate, s.GamesPlayed),
		strconv.Itoa(s.RoundsPlayed),
		pctOrDash(s.RoundWinRate, s.RoundsPlayed),
		strconv.Itoa(s.TotalKills),
		strconv.Itoa(s.TotalDeaths),
		strconv.Itoa(s.TotalAssists),
		kd,
		fmt.Sprintf("%.0f%%", s.HeadshotPct),
		strconv.Itoa(s.TotalFirstKills),
		fmt.Sprintf("%.1f", s.AvgKillsPerGame),
		fmt.Sprintf("%.0f", s.AvgDamagePerGame),
		fmt.Sprintf("%.1f", s.AvgDamagePerRound),
	)
	table.Render()
}

// PrintGameTable prints one row per analysed game.
func PrintGameTable(w io.Writer, games []model.GameTrendData) {
	table := newTable(w)
	table.Header("SERIES", "GAME", "MAP", "RESULT", "ROUNDS", "K", "D", "A", "K/R", "D/R", "ADR", "ALIVE%", "PERF")
	for _, g := range games {
		result := "L"
		if g.Won {
			result = "W"
		}
		table.Append(
			g.SeriesID,
			strconv.Itoa(g.GameNumber),
			orDash(g.MapName),
			result,
			fmt.Sprintf("%d/%d", g.RoundsWon, g.Rounds),
			strconv.Itoa(g.Kills),
			strconv.Itoa(g.Deaths),
			strconv.Itoa(g.Assists),
			fmt.Sprintf("%.2f", g.AvgKills),
			fmt.Sprintf("%.2f", g.AvgDeaths),
			fmt.Sprintf("%.1f", g.AvgDamage),
			fmt.Sprintf("%.0f%%", 100*g.AvgAlivePercent),
			fmt.Sprintf("%+.2f", g.Performance()),
		)
	}
	table.Render()
}

// PrintRoundTable prints one row per analysed round.
func PrintRoundTable(w io.Writer, rounds []model.RoundTrendData) {
	table := newTable(w)
	table.Header("SERIES", "GAME", "ROUND", "SIDE", "WON", "K", "D", "A", "HS", "DMG", "FK", "ALIVE%", "AGGR%", "MATE_DIST")
	for _, r := range rounds {
		s := r.Stats
		won := "—"
		if s.RoundWon {
			won = "✓"
		}
		fk := ""
		if s.FirstKill {
			fk = "✓"
		}
		aggr, dist := "—", "—"
		if p := r.Positioning; p != nil {
			aggr = fmt.Sprintf("%.0f%%", 100*p.AttackerSideAggression)
			dist = fmt.Sprintf("%.0f", p.DistanceToTeammates)
		}
		table.Append(
			r.SeriesID,
			strconv.Itoa(r.GameNumber),
			strconv.Itoa(r.RoundNumber),
			s.Side.String(),
			won,
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Deaths),
			strconv.Itoa(s.KillAssistsGiven),
			strconv.Itoa(s.Headshots),
			strconv.Itoa(s.DamageDealt),
			fk,
			fmt.Sprintf("%.0f%%", 100*r.AlivePercent),
			aggr,
			dist,
		)
	}
	table.Render()
}

// PrintPositioningTable prints the series-wide positioning means.
func PrintPositioningTable(w io.Writer, p model.PositioningTrendData) {
	table := newTable(w)
	table.Header("ROUNDS", "MATE_DIST", "AGGR%", "HOLD%", "SPEED", "STYLE")
	if p.Rounds == 0 {
		table.Append("0", "—", "—", "—", "—", "—")
	} else {
		table.Append(
			strconv.Itoa(p.Rounds),
			fmt.Sprintf("%.0f", p.AvgDistanceToTeammates),
			fmt.Sprintf("%.0f%%", 100*p.AttackerAggressionRate),
			fmt.Sprintf("%.0f%%", 100*p.DefenderHoldRate),
			fmt.Sprintf("%.0f", p.AvgVelocity.Len()),
			stylePhrase(p.AttackerAggressionRate, p.DefenderHoldRate),
		)
	}
	table.Render()
}

// PrintTrendTable prints every trend direction with its correlation.
func PrintTrendTable(w io.Writer, t model.Trends) {
	table := newTable(w)
	table.Header("METRIC", "DIRECTION", "R")
	rows := []struct {
		name string
		tr   model.TrendResult
	}{
		{"round performance", t.RoundPerformance},
		{"game performance", t.GamePerformance},
		{"aggression", t.Aggression},
		{"defensive holds", t.Defense},
		{"teammate distance", t.TeammateDistance},
		{"movement speed", t.Velocity},
	}
	for _, r := range rows {
		table.Append(r.name, string(r.tr.Direction), fmt.Sprintf("%+.2f", r.tr.Correlation))
	}
	table.Append("consistency", consistencyPhrase(t.ConsistencyScore), fmt.Sprintf("%.2f", t.ConsistencyScore))
	table.Render()
}

// PrintSegmentTable prints the game/round segmentation of one event stream.
func PrintSegmentTable(w io.Writer, games []model.GameSegment) {
	table := newTable(w)
	table.Header("GAME", "ROUND", "START%", "END%", "START", "DURATION", "WINNER", "EVENTS")
	for gi, g := range games {
		events := len(g.GameEvents)
		for _, r := range g.Rounds {
			events += len(r.RoundEvents)
		}
		table.Append(
			strconv.Itoa(gi+1), "",
			fmt.Sprintf("%.1f", g.StartPos),
			fmt.Sprintf("%.1f", g.EndPos),
			fmtClock(g.StartTime),
			fmtDuration(g.EndTime-g.StartTime),
			teamName(g.WinningTeam),
			strconv.Itoa(events),
		)
		for ri, r := range g.Rounds {
			table.Append(
				"", strconv.Itoa(ri+1),
				fmt.Sprintf("%.1f", r.StartPos),
				fmt.Sprintf("%.1f", r.EndPos),
				fmtClock(r.StartTime),
				fmtDuration(r.EndTime-r.StartTime),
				teamName(r.WinningTeam),
				strconv.Itoa(len(r.RoundEvents)),
			)
		}
	}
	table.Render()
}

// PrintEventCounts prints event-type counts with their categories.
func PrintEventCounts(w io.Writer, counts []parser.TypeCount) {
	table := newTable(w)
	table.Header("TYPE", "CATEGORY", "COUNT")
	for _, c := range counts {
		table.Append(c.Type, parser.Classify(c.Type).String(), strconv.Itoa(c.Count))
	}
	table.Render()
}

// PrintChainTable prints the longest correlation chains.
func PrintChainTable(w io.Writer, chains []parser.CorrelationChain) {
	table := newTable(w)
	table.Header("CORRELATION", "EVENTS", "FIRST", "SPAN", "FIRST_TYPE")
	for _, c := range chains {
		if len(c.Events) == 0 {
			continue
		}
		first, last := c.Events[0], c.Events[len(c.Events)-1]
		table.Append(
			c.CorrelationID,
			strconv.Itoa(len(c.Events)),
			first.Time().UTC().Format("15:04:05"),
			fmtDuration(last.Time().Sub(first.Time()).Milliseconds()),
			first.Type,
		)
	}
	table.Render()
}

// PrintTimeline prints event counts per time bucket.
func PrintTimeline(w io.Writer, buckets []parser.TimeBucket) {
	table := newTable(w)
	table.Header("FROM", "EVENTS")
	for _, b := range buckets {
		table.Append(fmtClock(b.Start), strconv.Itoa(b.Count))
	}
	table.Render()
}

// PrintReportList prints stored scouting reports, newest first as given.
func PrintReportList(w io.Writer, reports []storage.Report) {
	table := newTable(w)
	table.Header("ID", "PLAYER", "WINDOW", "MODEL", "PROMPT", "SERIES", "LAST_SERIES", "CREATED")
	for _, r := range reports {
		last := "—"
		if !r.LastSeriesDate.IsZero() {
			last = r.LastSeriesDate.UTC().Format("2006-01-02")
		}
		table.Append(
			r.ID.String()[:8],
			r.PlayerID,
			string(r.TimeWindow),
			r.Model,
			r.PromptVersion,
			strconv.Itoa(r.SeriesCount),
			last,
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
		)
	}
	table.Render()
}

func pctOrDash(v float64, n int) string {
	if n == 0 {
		return "—"
	}
	return fmt.Sprintf("%.0f%%", 100*v)
}

func teamName(t *model.Team) string {
	if t == nil {
		return "—"
	}
	return t.Name
}

func fmtClock(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("15:04:05")
}

func fmtDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%dm%02ds", ms/60000, (ms/1000)%60)
}
