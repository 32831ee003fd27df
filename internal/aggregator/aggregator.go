package aggregator

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pable/gridscout/internal/extract"
	"github.com/pable/gridscout/internal/model"
	"github.com/pable/gridscout/internal/segment"
)

var log = logrus.WithField("component", "aggregator")

// ErrUnordered is returned by AnalyseMatch when a match's events are not
// ordered by (timestamp, sequence number).
var ErrUnordered = errors.New("events not in chronological order")

// MatchError tags an error with the match (and, when known, the game and
// round, both 1-based) being processed.
type MatchError struct {
	SeriesID string
	Game     int
	Round    int
	Err      error
}

func (e *MatchError) Error() string {
	switch {
	case e.Round > 0:
		return fmt.Sprintf("series %s game %d round %d: %v", e.SeriesID, e.Game, e.Round, e.Err)
	case e.Game > 0:
		return fmt.Sprintf("series %s game %d: %v", e.SeriesID, e.Game, e.Err)
	default:
		return fmt.Sprintf("series %s: %v", e.SeriesID, e.Err)
	}
}

func (e *MatchError) Unwrap() error { return e.Err }

// AnalysePlayerEvents analyses playerID over every match. Events of each
// match must already be flattened and ordered. Rounds or games without a
// usable snapshot of the player are skipped.
func AnalysePlayerEvents(playerID string, matches []model.MatchEvents) *model.PlayerAnalysis {
	acc := &model.PlayerAnalysis{PlayerID: playerID}
	for _, m := range matches {
		combine(acc, analyseMatch(playerID, m))
	}
	computeTrends(acc)
	return acc
}

// AnalyseMatch is AnalysePlayerEvents for a single match, checking the
// ordering of its events first.
func AnalyseMatch(playerID string, m model.MatchEvents) (*model.PlayerAnalysis, error) {
	for i := 1; i < len(m.Events); i++ {
		prev, cur := m.Events[i-1], m.Events[i]
		if cur.Timestamp < prev.Timestamp ||
			(cur.Timestamp == prev.Timestamp && cur.SequenceNumber < prev.SequenceNumber) {
			return nil, &MatchError{SeriesID: m.Series.ID, Err: fmt.Errorf("event %d: %w", i, ErrUnordered)}
		}
	}
	return AnalysePlayerEvents(playerID, []model.MatchEvents{m}), nil
}

// analyseMatch builds the untrended partial analysis of one match.
func analyseMatch(playerID string, m model.MatchEvents) *model.PlayerAnalysis {
	part := &model.PlayerAnalysis{PlayerID: playerID}
	if len(m.Events) == 0 {
		return part
	}
	part.Range = model.TimeRange{Start: m.Events[0].Timestamp, End: m.Events[len(m.Events)-1].Timestamp}

	var positioning []model.RoundPositioning
	for gi, g := range segment.ExtractGameSegments(m.Events) {
		entry := log.WithFields(logrus.Fields{"series": m.Series.ID, "game": gi + 1})

		var (
			start  *model.RoundStartData
			rounds []model.RoundTrendData
		)
		for ri, r := range g.Rounds {
			if len(r.RoundEvents) == 0 {
				continue
			}
			start = extract.CaptureRoundStart(r.RoundEvents[0], start)
			rt, ok := analyseRound(playerID, r, start)
			if !ok {
				entry.WithField("round", ri+1).Debug("player missing from round-end state, skipping round")
				continue
			}
			rt.SeriesID = m.Series.ID
			rt.GameNumber = gi + 1
			rt.RoundNumber = ri + 1
			if part.PlayerName == "" {
				part.PlayerName = rt.Stats.PlayerName
			}
			if rt.Positioning != nil {
				positioning = append(positioning, *rt.Positioning)
			}
			rounds = append(rounds, rt)
		}
		if len(rounds) == 0 {
			entry.Debug("no rounds with player data, skipping game")
			continue
		}

		gt := gameTrend(rounds)
		gt.SeriesID = m.Series.ID
		gt.GameNumber = gi + 1
		gt.Timestamp = g.StartTime
		if start != nil && start.Map != nil {
			gt.MapName = start.Map.Name
		}
		part.RoundTrends = append(part.RoundTrends, rounds...)
		part.GameTrends = append(part.GameTrends, gt)
		part.SeriesTrends.AddGame(gt)
	}

	if len(part.GameTrends) > 0 {
		part.SeriesTrends.SeriesPlayed = 1
		if m.Series.ID != "" {
			part.SeriesIDs = []string{m.Series.ID}
		}
	}
	part.SeriesTrends.Recompute()
	part.PositioningTrends = positioningTrend(positioning)
	return part
}

// analyseRound runs the positioning analyzer over every event of the round
// and reads the combat snapshot from its final event.
func analyseRound(playerID string, r model.RoundSegment, start *model.RoundStartData) (model.RoundTrendData, bool) {
	var (
		pos     *model.PositioningStats
		seen    bool
		deathTs int64 = -1
	)
	for _, e := range r.RoundEvents {
		if s := extract.Analyze(playerID, e, start, pos); s != nil {
			pos = s
		}
		alive, found := extract.PlayerAlive(playerID, e)
		if !found {
			continue
		}
		seen = true
		// The round starts with the player alive; the first dead reading is the death.
		if !alive && deathTs < 0 {
			deathTs = e.Timestamp
		}
	}

	combat := extract.Combat(playerID, r.RoundEvents[len(r.RoundEvents)-1])
	if combat == nil {
		return model.RoundTrendData{}, false
	}

	return model.RoundTrendData{
		Timestamp:    r.StartTime,
		Stats:        *combat,
		AlivePercent: alivePercent(r, seen, deathTs, combat.Alive),
		Positioning:  extract.Finalize(pos),
	}, true
}

func alivePercent(r model.RoundSegment, seen bool, deathTs int64, aliveAtEnd bool) float64 {
	if !seen {
		if aliveAtEnd {
			return 1
		}
		return 0
	}
	if deathTs < 0 {
		return 1
	}
	duration := r.EndTime - r.StartTime
	if duration < 1 {
		duration = 1
	}
	f := float64(deathTs-r.StartTime) / float64(duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// gameTrend sums a game's rounds. A game is won when the player's team won
// the majority of the rounds recorded for the player.
func gameTrend(rounds []model.RoundTrendData) model.GameTrendData {
	var g model.GameTrendData
	var alive float64
	for i := range rounds {
		s := &rounds[i].Stats
		g.Rounds++
		if s.RoundWon {
			g.RoundsWon++
		}
		g.Kills += s.Kills
		g.Deaths += s.Deaths
		g.Assists += s.KillAssistsGiven
		g.Headshots += s.Headshots
		g.DamageDealt += s.DamageDealt
		g.DamageTaken += s.DamageTaken
		if s.FirstKill {
			g.FirstKills++
		}
		alive += rounds[i].AlivePercent
	}
	n := float64(g.Rounds)
	g.AvgKills = float64(g.Kills) / n
	g.AvgDeaths = float64(g.Deaths) / n
	g.AvgAssists = float64(g.Assists) / n
	g.AvgDamage = float64(g.DamageDealt) / n
	g.AvgAlivePercent = alive / n
	g.Won = g.RoundsWon*2 > g.Rounds
	return g
}

// positioningTrend is the plain mean over per-round positioning.
func positioningTrend(rounds []model.RoundPositioning) model.PositioningTrendData {
	var t model.PositioningTrendData
	if len(rounds) == 0 {
		return t
	}
	for _, r := range rounds {
		t.AvgDistanceToTeammates += r.DistanceToTeammates
		t.AttackerAggressionRate += r.AttackerSideAggression
		t.DefenderHoldRate += r.DefenderSideHold
		t.AvgVelocity = t.AvgVelocity.Add(r.Velocity)
	}
	n := float64(len(rounds))
	t.Rounds = len(rounds)
	t.AvgDistanceToTeammates /= n
	t.AttackerAggressionRate /= n
	t.DefenderHoldRate /= n
	t.AvgVelocity = t.AvgVelocity.Div(n)
	return t
}
