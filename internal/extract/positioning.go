package extract

import (
	"github.com/pable/gridscout/internal/geom"
	"github.com/pable/gridscout/internal/model"
)

// findPlayer locates playerID in a team → players snapshot.
func findPlayer(snapshot map[string][]model.PlayerState, playerID string) (teamID string, idx int, ok bool) {
	for tid, players := range snapshot {
		for i := range players {
			if players[i].ID == playerID {
				return tid, i, true
			}
		}
	}
	return "", 0, false
}

// Analyze folds one event into the round's positioning accumulator and
// returns the updated copy. prev is nil for the first sample of a round.
// It returns nil when the event carries no positioned snapshot of the player;
// the caller keeps its previous accumulator in that case.
//
// Side counters: a sample counts as aggression when the player stands in the
// half of the map belonging to the side opposite the one their team was
// assigned at round start, and as a hold otherwise. Neither is counted when
// the round start data cannot place a center line.
func Analyze(playerID string, e model.FlatEvent, start *model.RoundStartData, prev *model.PositioningStats) *model.PositioningStats {
	snapshot := e.Payload.TeamPlayers()
	if snapshot == nil {
		return nil
	}
	teamID, idx, ok := findPlayer(snapshot, playerID)
	if !ok {
		return nil
	}
	me := snapshot[teamID][idx]
	if me.Position == nil || !me.Position.IsFinite() {
		return nil
	}
	pos := *me.Position

	var next model.PositioningStats
	if prev != nil {
		next = *prev
	}

	velocity := geom.Zero()
	if prev != nil && prev.Samples > 0 {
		dt := float64(e.Timestamp-prev.Timestamp) / 1000
		if dt > 0 {
			velocity = pos.Sub(prev.Position).Div(dt)
		}
	}

	if start != nil {
		if line, ok := NewSideLine(start); ok {
			assigned := start.Sides[teamID]
			if assigned != model.SideUnknown {
				if line.Classify(pos) == assigned.Opposite() {
					next.AttackerSideAggression++
				} else {
					next.DefenderSideHold++
				}
			}
		}
	}

	var bounds *model.MapBounds
	if g := e.Payload.SeriesState.LastGame(); g != nil && g.Map != nil && g.Map.Bounds != nil {
		bounds = g.Map.Bounds
	} else if start != nil && start.Map != nil {
		bounds = start.Map.Bounds
	}

	next.Timestamp = e.Timestamp
	next.Position = pos
	next.NormalizedPosition = bounds.Normalize(pos)
	next.Velocity = next.Velocity.Add(velocity)
	next.DistanceToTeammates += teammateDistance(snapshot[teamID], idx, pos)
	next.Samples++
	return &next
}

// teammateDistance is the mean distance from pos to every living, positioned
// teammate other than the player at self. 0 when there is none.
func teammateDistance(team []model.PlayerState, self int, pos geom.Vec2) float64 {
	var sum float64
	n := 0
	for i := range team {
		if i == self || team[i].Position == nil || !team[i].IsAlive() {
			continue
		}
		sum += pos.Dist(*team[i].Position)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Finalize divides the accumulated sums by the number of samples.
func Finalize(s *model.PositioningStats) *model.RoundPositioning {
	if s == nil || s.Samples == 0 {
		return nil
	}
	n := float64(s.Samples)
	return &model.RoundPositioning{
		Velocity:               s.Velocity.Div(n),
		DistanceToTeammates:    s.DistanceToTeammates / n,
		AttackerSideAggression: s.AttackerSideAggression / n,
		DefenderSideHold:       s.DefenderSideHold / n,
		Samples:                s.Samples,
	}
}

// PlayerAlive reports the player's alive flag in the event's snapshot.
// found is false when the snapshot is missing or does not contain the player.
func PlayerAlive(playerID string, e model.FlatEvent) (alive, found bool) {
	snapshot := e.Payload.TeamPlayers()
	teamID, idx, ok := findPlayer(snapshot, playerID)
	if !ok {
		return false, false
	}
	return snapshot[teamID][idx].IsAlive(), true
}

// CaptureRoundStart builds the round start data from a round-start event.
// When the event has no usable snapshot, fallback is returned; missing map or
// side assignments are also taken from fallback.
func CaptureRoundStart(e model.FlatEvent, fallback *model.RoundStartData) *model.RoundStartData {
	if e.Payload == nil {
		return fallback
	}
	g := e.Payload.SeriesState.LastGame()
	if g == nil || len(g.Teams) == 0 {
		return fallback
	}
	rs := &model.RoundStartData{
		Timestamp: e.Timestamp,
		Map:       g.Map,
		Players:   make(map[string][]model.PlayerState, len(g.Teams)),
		Sides:     make(map[string]model.Side, len(g.Teams)),
	}
	for _, t := range g.Teams {
		rs.Players[t.ID] = t.Players
		if s := model.ParseSide(t.Side); s != model.SideUnknown {
			rs.Sides[t.ID] = s
		}
	}
	if fallback != nil {
		if rs.Map == nil {
			rs.Map = fallback.Map
		}
		if len(rs.Sides) == 0 {
			rs.Sides = fallback.Sides
		}
	}
	return rs
}
