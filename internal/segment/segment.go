// Package segment splits a flat event stream into games and rounds.
package segment

import (
	"strings"

	"github.com/pable/gridscout/internal/model"
)

// ExtractGameSegments walks events once (they must already be ordered by
// timestamp and sequence number) and returns one GameSegment per game.
// Games or rounds still open when the stream ends are emitted with their end
// clamped to the last event.
func ExtractGameSegments(events []model.FlatEvent) []model.GameSegment {
	if len(events) == 0 {
		return nil
	}

	minTs := events[0].Timestamp
	maxTs := events[len(events)-1].Timestamp
	duration := maxTs - minTs
	if duration < 1 {
		duration = 1
	}
	pos := func(ts int64) float64 {
		return float64(ts-minTs) / float64(duration) * 100
	}

	var (
		games []model.GameSegment

		inGame     bool
		gameStart  int64
		rounds     []model.RoundSegment
		gameEvents []model.FlatEvent
		hasRounds  bool

		inRound     bool
		roundStart  int64
		roundEvents []model.FlatEvent
	)

	closeRound := func(end model.FlatEvent, winner *model.Team) {
		rounds = append(rounds, model.RoundSegment{
			StartPos:    pos(roundStart),
			EndPos:      pos(end.Timestamp),
			StartTime:   roundStart,
			EndTime:     end.Timestamp,
			WinningTeam: winner,
			RoundEvents: roundEvents,
		})
		inRound = false
		roundEvents = nil
	}

	// closeGame emits the open game. A game closed by its own end event keeps
	// its game-level events; an implicitly closed one keeps them only when it
	// never had rounds.
	closeGame := func(endTs int64, winner *model.Team, ended bool) {
		g := model.GameSegment{
			StartPos:    pos(gameStart),
			EndPos:      pos(endTs),
			StartTime:   gameStart,
			EndTime:     endTs,
			WinningTeam: winner,
			Rounds:      rounds,
		}
		if ended || !hasRounds {
			g.GameEvents = gameEvents
		}
		games = append(games, g)
		inGame = false
		rounds = nil
		gameEvents = nil
		hasRounds = false
	}

	var prev model.FlatEvent
	for i, e := range events {
		if i > 0 {
			prev = events[i-1]
		}
		typ := strings.ToLower(e.Type)
		switch {
		case typ == model.TypeSeriesStartedGame:
			// A start without a matching end closes the previous game at this point.
			if inGame {
				if inRound {
					closeRound(prev, nil)
				}
				closeGame(prev.Timestamp, nil, false)
			}
			inGame = true
			gameStart = e.Timestamp
			rounds = nil
			gameEvents = []model.FlatEvent{e}
			hasRounds = false

		case typ == model.TypeSeriesEndedGame:
			if !inGame {
				continue
			}
			winner := WinningTeam(e)
			if inRound {
				roundEvents = append(roundEvents, e)
				closeRound(e, nil)
			}
			gameEvents = append(gameEvents, e)
			closeGame(e.Timestamp, winner, true)

		case typ == model.TypeGameStartedRound && inGame:
			if inRound {
				closeRound(prev, nil)
			}
			inRound = true
			hasRounds = true
			roundStart = e.Timestamp
			roundEvents = []model.FlatEvent{e}

		case typ == model.TypeGameEndedRound && inRound:
			roundEvents = append(roundEvents, e)
			closeRound(e, WinningTeam(e))

		case inGame:
			if inRound {
				roundEvents = append(roundEvents, e)
			} else {
				gameEvents = append(gameEvents, e)
			}
		}
	}

	if inGame {
		last := events[len(events)-1]
		if inRound {
			closeRound(last, nil)
		}
		closeGame(last.Timestamp, nil, false)
	}
	return games
}

// WinningTeam returns the team marked as winner in a round- or game-closing
// event's target state, or nil when it cannot be determined.
func WinningTeam(e model.FlatEvent) *model.Team {
	if !e.Payload.TargetIs("round", "game") {
		return nil
	}
	for _, t := range e.Payload.TargetTeams() {
		if t.Won && t.ID != "" && t.Name != "" {
			return &model.Team{ID: t.ID, Name: t.Name}
		}
	}
	return nil
}
