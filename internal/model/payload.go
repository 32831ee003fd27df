package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pable/gridscout/internal/geom"
)

// EventCategory tags a decoded event payload by the family its type belongs to.
type EventCategory int

const (
	CategoryUnknown EventCategory = iota
	CategoryCombat
	CategoryRoundLifecycle
	CategoryGameLifecycle
	CategoryEnvironment
	CategorySupport
)

func (c EventCategory) String() string {
	switch c {
	case CategoryCombat:
		return "combat"
	case CategoryRoundLifecycle:
		return "round"
	case CategoryGameLifecycle:
		return "game"
	case CategoryEnvironment:
		return "environment"
	case CategorySupport:
		return "support"
	default:
		return "unknown"
	}
}

// Event type tags used by the segmenter.
const (
	TypeSeriesStartedGame = "series-started-game"
	TypeSeriesEndedGame   = "series-ended-game"
	TypeGameStartedRound  = "game-started-round"
	TypeGameEndedRound    = "game-ended-round"
)

// Payload is the decoded body of one nested event.
// Unparsed payloads carry only Type and Raw.
type Payload struct {
	Category EventCategory `json:"-"`
	Unparsed bool          `json:"-"`

	Type        string       `json:"type"`
	Action      string       `json:"action"`
	Actor       *Entity      `json:"actor"`
	Target      *Entity      `json:"target"`
	SeriesState *SeriesState `json:"seriesState"`

	Raw json.RawMessage `json:"-"`
}

// Entity is the actor or target of an event (a player, team, round, game...).
type Entity struct {
	Type  string       `json:"type"`
	ID    string       `json:"id"`
	State *EntityState `json:"state"`
}

// EntityState is the state snapshot attached to an entity. Which fields are
// populated depends on Entity.Type.
type EntityState struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	TeamID string      `json:"teamId"`
	Side   string      `json:"side"`
	Teams  []TeamState `json:"teams"`
	Map    *GameMap    `json:"map"`
}

type SeriesState struct {
	ID    string      `json:"id"`
	Games []GameState `json:"games"`
}

// LastGame returns the most recent game in the series state, or nil.
func (s *SeriesState) LastGame() *GameState {
	if s == nil || len(s.Games) == 0 {
		return nil
	}
	return &s.Games[len(s.Games)-1]
}

type GameState struct {
	ID       string      `json:"id"`
	Sequence int         `json:"sequenceNumber"`
	Started  bool        `json:"started"`
	Finished bool        `json:"finished"`
	Map      *GameMap    `json:"map"`
	Teams    []TeamState `json:"teams"`
}

type GameMap struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Bounds *MapBounds `json:"bounds"`
}

type MapBounds struct {
	Min geom.Vec2 `json:"min"`
	Max geom.Vec2 `json:"max"`
}

// Normalize maps p into [0,1]×[0,1] relative to the bounds. Degenerate
// extents leave the corresponding component unchanged.
func (b *MapBounds) Normalize(p geom.Vec2) geom.Vec2 {
	if b == nil {
		return p
	}
	out := p
	if w := b.Max.X - b.Min.X; w != 0 {
		out.X = (p.X - b.Min.X) / w
	}
	if h := b.Max.Y - b.Min.Y; h != 0 {
		out.Y = (p.Y - b.Min.Y) / h
	}
	return out
}

type TeamState struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Side    string        `json:"side"`
	Won     bool          `json:"won"`
	Score   int           `json:"score"`
	Players []PlayerState `json:"players"`
}

// PlayerState is a player entry inside a team snapshot. Round-scoped
// snapshots carry the per-round counters; game-scoped ones carry position.
type PlayerState struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Position      *geom.Vec2 `json:"position"`
	Alive         *bool      `json:"alive"`
	CurrentHealth *int       `json:"currentHealth"`
	CurrentArmor  *int       `json:"currentArmor"`

	Money        int `json:"money"`
	LoadoutValue int `json:"loadoutValue"`
	NetWorth     int `json:"netWorth"`

	Kills               int         `json:"kills"`
	Deaths              int         `json:"deaths"`
	KillAssistsGiven    int         `json:"killAssistsGiven"`
	KillAssistsReceived int         `json:"killAssistsReceived"`
	Headshots           int         `json:"headshots"`
	DamageDealt         int         `json:"damageDealt"`
	DamageTaken         int         `json:"damageTaken"`
	FirstKill           bool        `json:"firstKill"`
	WeaponKills         WeaponKills `json:"weaponKills"`
	Objectives          []Objective `json:"objectives"`
}

// IsAlive treats an absent flag as alive.
func (p *PlayerState) IsAlive() bool {
	return p.Alive == nil || *p.Alive
}

type Objective struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	CompletionCount int    `json:"completionCount"`
}

// WeaponKills maps weapon name to kill count. The feed encodes it either as
// an object or as a list of {weaponName, count} entries; both decode.
type WeaponKills map[string]int

func (w *WeaponKills) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*w = nil
		return nil
	}
	if data[0] == '{' {
		var m map[string]int
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*w = m
		return nil
	}
	var list []struct {
		ID         string `json:"id"`
		WeaponName string `json:"weaponName"`
		Count      int    `json:"count"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	m := make(map[string]int, len(list))
	for _, e := range list {
		name := e.WeaponName
		if name == "" {
			name = e.ID
		}
		m[name] += e.Count
	}
	*w = m
	return nil
}

// TeamPlayers returns the current team → players snapshot from the event's
// series state, or nil when the payload carries none.
func (p *Payload) TeamPlayers() map[string][]PlayerState {
	if p == nil {
		return nil
	}
	g := p.SeriesState.LastGame()
	if g == nil || len(g.Teams) == 0 {
		return nil
	}
	out := make(map[string][]PlayerState, len(g.Teams))
	for _, t := range g.Teams {
		out[t.ID] = t.Players
	}
	return out
}

// TargetTeams returns the team list of the target's state, if any.
func (p *Payload) TargetTeams() []TeamState {
	if p == nil || p.Target == nil || p.Target.State == nil {
		return nil
	}
	return p.Target.State.Teams
}

// TargetIs reports whether the target entity has one of the given types.
func (p *Payload) TargetIs(types ...string) bool {
	if p == nil || p.Target == nil {
		return false
	}
	for _, t := range types {
		if strings.EqualFold(p.Target.Type, t) {
			return true
		}
	}
	return false
}
