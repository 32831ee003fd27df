package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pable/gridscout/internal/model"
)

// Distance bands in map units for teammate spacing.
const (
	tightSpacing = 800.0
	wideSpacing  = 2000.0
)

// FormatCompact renders an analysis as the plain-text block sent to the
// scouting-report model.
func FormatCompact(a *model.PlayerAnalysis) string {
	var b strings.Builder
	writeHeader(&b, a)
	writeSeries(&b, a)
	writePositioning(&b, a)
	writeTrends(&b, a)
	writeObservations(&b, a)
	return b.String()
}

// FormatVerbose is FormatCompact followed by per-game and per-round breakdowns.
func FormatVerbose(a *model.PlayerAnalysis) string {
	var b strings.Builder
	b.WriteString(FormatCompact(a))

	b.WriteString("\nGAME BREAKDOWN\n")
	if len(a.GameTrends) == 0 {
		b.WriteString("- no games\n")
	}
	for _, g := range a.GameTrends {
		result := "L"
		if g.Won {
			result = "W"
		}
		fmt.Fprintf(&b, "- series %s game %d %s [%s] rounds %d/%d | K %d D %d A %d | avg/round K %.2f D %.2f DMG %.1f | alive %.0f%%\n",
			g.SeriesID, g.GameNumber, orDash(g.MapName), result, g.RoundsWon, g.Rounds,
			g.Kills, g.Deaths, g.Assists, g.AvgKills, g.AvgDeaths, g.AvgDamage, 100*g.AvgAlivePercent)
	}

	b.WriteString("\nROUND BREAKDOWN\n")
	if len(a.RoundTrends) == 0 {
		b.WriteString("- no rounds\n")
	}
	for _, r := range a.RoundTrends {
		s := r.Stats
		result := "L"
		if s.RoundWon {
			result = "W"
		}
		line := fmt.Sprintf("- %s g%d r%d %s %s | K %d D %d A %d HS %d DMG %d/%d | alive %.0f%%",
			r.SeriesID, r.GameNumber, r.RoundNumber, result, s.Side, s.Kills, s.Deaths,
			s.KillAssistsGiven, s.Headshots, s.DamageDealt, s.DamageTaken, 100*r.AlivePercent)
		if s.FirstKill {
			line += " | first kill"
		}
		if p := r.Positioning; p != nil {
			line += fmt.Sprintf(" | mate dist %.0f aggr %.0f%% hold %.0f%%",
				p.DistanceToTeammates, 100*p.AttackerSideAggression, 100*p.DefenderSideHold)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func writeHeader(b *strings.Builder, a *model.PlayerAnalysis) {
	name := a.PlayerName
	if name == "" {
		name = "unknown"
	}
	fmt.Fprintf(b, "PLAYER: %s (id %s)\n", name, a.PlayerID)
	if a.Range.IsZero() {
		b.WriteString("PERIOD: no events\n")
	} else {
		fmt.Fprintf(b, "PERIOD: %s to %s\n", fmtDay(a.Range.Start), fmtDay(a.Range.End))
	}
}

func writeSeries(b *strings.Builder, a *model.PlayerAnalysis) {
	s := a.SeriesTrends
	b.WriteString("\nSERIES STATS\n")
	fmt.Fprintf(b, "- series %d, games %d (won %d, win rate %.0f%%), rounds %d (round win rate %.0f%%)\n",
		s.SeriesPlayed, s.GamesPlayed, s.GamesWon, 100*s.WinRate, s.RoundsPlayed, 100*s.RoundWinRate)
	fmt.Fprintf(b, "- kills %d, deaths %d, assists %d, K/D %.2f, headshot %.0f%%, first kills %d\n",
		s.TotalKills, s.TotalDeaths, s.TotalAssists, s.KDRatio, s.HeadshotPct, s.TotalFirstKills)
	fmt.Fprintf(b, "- per game: %.1f kills, %.1f deaths, %.1f assists, %.0f damage\n",
		s.AvgKillsPerGame, s.AvgDeathsPerGame, s.AvgAssistsPerGame, s.AvgDamagePerGame)
	fmt.Fprintf(b, "- per round: %.2f kills, %.1f damage\n", s.AvgKillsPerRound, s.AvgDamagePerRound)
}

func writePositioning(b *strings.Builder, a *model.PlayerAnalysis) {
	p := a.PositioningTrends
	b.WriteString("\nPOSITIONING\n")
	if p.Rounds == 0 {
		b.WriteString("- no positional data\n")
		return
	}
	fmt.Fprintf(b, "- rounds sampled: %d\n", p.Rounds)
	fmt.Fprintf(b, "- avg distance to teammates: %.0f units (%s)\n", p.AvgDistanceToTeammates, spacingPhrase(p.AvgDistanceToTeammates))
	fmt.Fprintf(b, "- opponent-half presence %.0f%% vs own-half hold %.0f%%: %s\n",
		100*p.AttackerAggressionRate, 100*p.DefenderHoldRate, stylePhrase(p.AttackerAggressionRate, p.DefenderHoldRate))
	fmt.Fprintf(b, "- avg movement: %.0f units/s\n", p.AvgVelocity.Len())
}

func writeTrends(b *strings.Builder, a *model.PlayerAnalysis) {
	t := a.Trends
	b.WriteString("\nTRENDS\n")
	fmt.Fprintf(b, "- round performance: %s\n", trendPhrase(t.RoundPerformance))
	fmt.Fprintf(b, "- game performance: %s\n", trendPhrase(t.GamePerformance))
	fmt.Fprintf(b, "- consistency: %.2f (%s)\n", t.ConsistencyScore, consistencyPhrase(t.ConsistencyScore))
	fmt.Fprintf(b, "- aggression: %s\n", trendPhrase(t.Aggression))
	fmt.Fprintf(b, "- defensive holds: %s\n", trendPhrase(t.Defense))
	fmt.Fprintf(b, "- teammate distance: %s\n", trendPhrase(t.TeammateDistance))
	fmt.Fprintf(b, "- movement speed: %s\n", trendPhrase(t.Velocity))
}

func writeObservations(b *strings.Builder, a *model.PlayerAnalysis) {
	b.WriteString("\nKEY OBSERVATIONS\n")
	obs := Observations(a)
	if len(obs) == 0 {
		b.WriteString("- not enough data\n")
		return
	}
	for _, o := range obs {
		b.WriteString("- " + o + "\n")
	}
}

// Observations derives short textual findings from fixed thresholds.
func Observations(a *model.PlayerAnalysis) []string {
	s := a.SeriesTrends
	if s.GamesPlayed == 0 {
		return nil
	}
	var out []string

	if s.WinRate > 0.5 {
		out = append(out, fmt.Sprintf("wins more games than it loses (%.0f%% win rate)", 100*s.WinRate))
	} else {
		out = append(out, fmt.Sprintf("win rate at or below even (%.0f%%)", 100*s.WinRate))
	}

	switch {
	case s.KDRatio > 1.2:
		out = append(out, fmt.Sprintf("strong fragger, K/D %.2f", s.KDRatio))
	case s.KDRatio < 0.8:
		out = append(out, fmt.Sprintf("loses more duels than it wins, K/D %.2f", s.KDRatio))
	}

	if s.SeriesPlayed > 0 {
		perSeries := float64(s.TotalKills) / float64(s.SeriesPlayed)
		if perSeries > 15 {
			out = append(out, fmt.Sprintf("high kill output, %.1f kills per series", perSeries))
		}
	}
	if s.TotalKills > 0 && s.HeadshotPct > 25 {
		out = append(out, fmt.Sprintf("precise aim, %.0f%% headshot kills", s.HeadshotPct))
	}
	if s.RoundsPlayed > 0 {
		if rate := float64(s.TotalFirstKills) / float64(s.RoundsPlayed); rate > 0.15 {
			out = append(out, fmt.Sprintf("often wins the opening duel (%.0f%% of rounds)", 100*rate))
		}
	}

	p := a.PositioningTrends
	if p.Rounds > 0 {
		if p.AttackerAggressionRate > p.DefenderHoldRate+0.1 {
			out = append(out, "spends most of the round in the opponents' half")
		}
		if p.AvgDistanceToTeammates > wideSpacing {
			out = append(out, "frequently plays away from the team")
		}
	}

	switch a.Trends.RoundPerformance.Direction {
	case model.TrendImproving:
		out = append(out, "round-by-round form is improving")
	case model.TrendDeclining:
		out = append(out, "round-by-round form is declining")
	}
	return out
}

func spacingPhrase(d float64) string {
	switch {
	case d < tightSpacing:
		return "plays close to teammates"
	case d < wideSpacing:
		return "balanced spacing"
	default:
		return "plays isolated, lurking or flanking"
	}
}

func stylePhrase(aggression, hold float64) string {
	switch {
	case aggression > hold+0.1:
		return "aggressive, takes space from the opponents"
	case hold > aggression+0.1:
		return "disciplined, holds their own side"
	default:
		return "mixed between taking space and holding"
	}
}

func consistencyPhrase(score float64) string {
	switch {
	case score >= 0.75:
		return "highly consistent"
	case score >= 0.5:
		return "moderately consistent"
	case score > 0:
		return "inconsistent"
	default:
		return "no data"
	}
}

func trendPhrase(t model.TrendResult) string {
	return fmt.Sprintf("%s (r=%.2f)", t.Direction, t.Correlation)
}

func fmtDay(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
