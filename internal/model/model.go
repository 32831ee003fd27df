package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pable/gridscout/internal/geom"
)

// Side is the round-scoped role of a team.
type Side int

const (
	SideUnknown  Side = 0
	SideAttacker Side = 1
	SideDefender Side = 2
)

func (s Side) String() string {
	switch s {
	case SideAttacker:
		return "attacker"
	case SideDefender:
		return "defender"
	default:
		return "?"
	}
}

// Opposite returns the other side; SideUnknown maps to itself.
func (s Side) Opposite() Side {
	switch s {
	case SideAttacker:
		return SideDefender
	case SideDefender:
		return SideAttacker
	default:
		return SideUnknown
	}
}

// ParseSide maps the feed's side strings ("attacker", "attacking", "defender", ...) to a Side.
func ParseSide(s string) Side {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attacker", "attackers", "attacking", "attack":
		return SideAttacker
	case "defender", "defenders", "defending", "defend":
		return SideDefender
	default:
		return SideUnknown
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	*s = ParseSide(string(b))
	return nil
}

// ---- Raw event records and the flattened stream ----

// EventRecord is one line of a GRID series events file.
type EventRecord struct {
	ID             string            `json:"id"`
	CorrelationID  string            `json:"correlationId"`
	OccurredAt     time.Time         `json:"occurredAt"`
	SequenceNumber int64             `json:"sequenceNumber"`
	SeriesID       string            `json:"seriesId"`
	Events         []json.RawMessage `json:"events"`
}

// FlatEvent is one atomic event. Timestamp is epoch milliseconds.
type FlatEvent struct {
	Timestamp      int64
	Type           string
	CorrelationID  string
	SequenceNumber int64
	Payload        *Payload
}

func (e FlatEvent) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// ---- Segmentation ----

// Team identifies a team by id and display name.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoundSegment struct {
	StartPos, EndPos   float64 // 0–100 along the stream timeline
	StartTime, EndTime int64
	WinningTeam        *Team
	RoundEvents        []FlatEvent
}

// GameSegment is one game of a series. GameEvents holds the events outside
// any round, including the start and end events. A game that is never ended
// explicitly keeps them only when no round was observed.
type GameSegment struct {
	StartPos, EndPos   float64
	StartTime, EndTime int64
	WinningTeam        *Team
	Rounds             []RoundSegment
	GameEvents         []FlatEvent
}

// ---- Per-round extraction ----

// RoundStartData is the map and team layout captured when a round starts.
type RoundStartData struct {
	Timestamp int64
	Map       *GameMap
	Players   map[string][]PlayerState // team id → players at round start
	Sides     map[string]Side          // team id → side
}

// PositioningStats accumulates one round of positioning samples. Velocity,
// DistanceToTeammates and the two side counters are sums until finalized.
type PositioningStats struct {
	Timestamp              int64
	Position               geom.Vec2 // last raw position
	NormalizedPosition     geom.Vec2
	Velocity               geom.Vec2
	DistanceToTeammates    float64
	AttackerSideAggression float64
	DefenderSideHold       float64
	Samples                int
}

// RoundPositioning is a finalized PositioningStats (per-sample means).
type RoundPositioning struct {
	Velocity               geom.Vec2 `json:"velocity"`
	DistanceToTeammates    float64   `json:"distanceToTeammates"`
	AttackerSideAggression float64   `json:"attackerSideAggression"`
	DefenderSideHold       float64   `json:"defenderSideHold"`
	Samples                int       `json:"samples"`
}

type PlayerRoundCombatStats struct {
	PlayerID            string         `json:"playerId"`
	PlayerName          string         `json:"playerName"`
	TeamID              string         `json:"teamId"`
	TeamName            string         `json:"teamName"`
	Side                Side           `json:"side"`
	Kills               int            `json:"kills"`
	Deaths              int            `json:"deaths"`
	KillAssistsGiven    int            `json:"killAssistsGiven"`
	KillAssistsReceived int            `json:"killAssistsReceived"`
	Headshots           int            `json:"headshots"`
	WeaponKills         map[string]int `json:"weaponKills,omitempty"`
	DamageDealt         int            `json:"damageDealt"`
	DamageTaken         int            `json:"damageTaken"`
	FirstKill           bool           `json:"firstKill"`
	Alive               bool           `json:"alive"`
	CurrentHealth       int            `json:"currentHealth"`
	CurrentArmor        int            `json:"currentArmor"`
	RoundWon            bool           `json:"roundWon"`
	Objectives          map[string]int `json:"objectives,omitempty"`
}

// ---- Aggregated trend data ----

type RoundTrendData struct {
	SeriesID     string                 `json:"seriesId"`
	GameNumber   int                    `json:"gameNumber"`
	RoundNumber  int                    `json:"roundNumber"`
	Timestamp    int64                  `json:"timestamp"`
	Stats        PlayerRoundCombatStats `json:"stats"`
	AlivePercent float64                `json:"alivePercent"`
	Positioning  *RoundPositioning      `json:"positioning,omitempty"`
}

// Performance is the per-round value the round trend is computed over.
func (r *RoundTrendData) Performance() float64 {
	s := r.Stats
	return float64(s.Kills) - float64(s.Deaths) + 0.5*float64(s.KillAssistsGiven) + float64(s.DamageDealt)/100
}

type GameTrendData struct {
	SeriesID        string  `json:"seriesId"`
	GameNumber      int     `json:"gameNumber"`
	MapName         string  `json:"mapName,omitempty"`
	Timestamp       int64   `json:"timestamp"`
	Rounds          int     `json:"rounds"`
	RoundsWon       int     `json:"roundsWon"`
	Kills           int     `json:"kills"`
	Deaths          int     `json:"deaths"`
	Assists         int     `json:"assists"`
	Headshots       int     `json:"headshots"`
	DamageDealt     int     `json:"damageDealt"`
	DamageTaken     int     `json:"damageTaken"`
	FirstKills      int     `json:"firstKills"`
	AvgKills        float64 `json:"avgKills"`
	AvgDeaths       float64 `json:"avgDeaths"`
	AvgAssists      float64 `json:"avgAssists"`
	AvgDamage       float64 `json:"avgDamage"`
	AvgAlivePercent float64 `json:"avgAlivePercent"`
	Won             bool    `json:"won"`
}

// Performance is the per-game value the game trend is computed over.
func (g *GameTrendData) Performance() float64 {
	return g.AvgKills - g.AvgDeaths + g.AvgDamage/100
}

// SeriesTrendData sums every game of every processed series. Averages and
// rates are derived from the sums by Recompute.
type SeriesTrendData struct {
	SeriesPlayed     int `json:"seriesPlayed"`
	GamesPlayed      int `json:"gamesPlayed"`
	GamesWon         int `json:"gamesWon"`
	RoundsPlayed     int `json:"roundsPlayed"`
	RoundsWon        int `json:"roundsWon"`
	TotalKills       int `json:"totalKills"`
	TotalDeaths      int `json:"totalDeaths"`
	TotalAssists     int `json:"totalAssists"`
	TotalHeadshots   int `json:"totalHeadshots"`
	TotalDamageDealt int `json:"totalDamageDealt"`
	TotalDamageTaken int `json:"totalDamageTaken"`
	TotalFirstKills  int `json:"totalFirstKills"`

	AvgKillsPerGame   float64 `json:"avgKillsPerGame"`
	AvgDeathsPerGame  float64 `json:"avgDeathsPerGame"`
	AvgAssistsPerGame float64 `json:"avgAssistsPerGame"`
	AvgDamagePerGame  float64 `json:"avgDamagePerGame"`
	AvgKillsPerRound  float64 `json:"avgKillsPerRound"`
	AvgDamagePerRound float64 `json:"avgDamagePerRound"`
	WinRate           float64 `json:"winRate"`
	RoundWinRate      float64 `json:"roundWinRate"`
	KDRatio           float64 `json:"kdRatio"`
	HeadshotPct       float64 `json:"headshotPct"`
}

// Add folds o's sums into s and recomputes the derived fields.
func (s *SeriesTrendData) Add(o SeriesTrendData) {
	s.SeriesPlayed += o.SeriesPlayed
	s.GamesPlayed += o.GamesPlayed
	s.GamesWon += o.GamesWon
	s.RoundsPlayed += o.RoundsPlayed
	s.RoundsWon += o.RoundsWon
	s.TotalKills += o.TotalKills
	s.TotalDeaths += o.TotalDeaths
	s.TotalAssists += o.TotalAssists
	s.TotalHeadshots += o.TotalHeadshots
	s.TotalDamageDealt += o.TotalDamageDealt
	s.TotalDamageTaken += o.TotalDamageTaken
	s.TotalFirstKills += o.TotalFirstKills
	s.Recompute()
}

// AddGame folds one game's totals into s. Call Recompute afterwards.
func (s *SeriesTrendData) AddGame(g GameTrendData) {
	s.GamesPlayed++
	if g.Won {
		s.GamesWon++
	}
	s.RoundsPlayed += g.Rounds
	s.RoundsWon += g.RoundsWon
	s.TotalKills += g.Kills
	s.TotalDeaths += g.Deaths
	s.TotalAssists += g.Assists
	s.TotalHeadshots += g.Headshots
	s.TotalDamageDealt += g.DamageDealt
	s.TotalDamageTaken += g.DamageTaken
	s.TotalFirstKills += g.FirstKills
}

// Recompute derives every average and rate from the sums. Zero denominators give 0.
func (s *SeriesTrendData) Recompute() {
	s.AvgKillsPerGame = ratio(s.TotalKills, s.GamesPlayed)
	s.AvgDeathsPerGame = ratio(s.TotalDeaths, s.GamesPlayed)
	s.AvgAssistsPerGame = ratio(s.TotalAssists, s.GamesPlayed)
	s.AvgDamagePerGame = ratio(s.TotalDamageDealt, s.GamesPlayed)
	s.AvgKillsPerRound = ratio(s.TotalKills, s.RoundsPlayed)
	s.AvgDamagePerRound = ratio(s.TotalDamageDealt, s.RoundsPlayed)
	s.WinRate = ratio(s.GamesWon, s.GamesPlayed)
	s.RoundWinRate = ratio(s.RoundsWon, s.RoundsPlayed)
	s.HeadshotPct = 100 * ratio(s.TotalHeadshots, s.TotalKills)
	// K/D with zero deaths is reported as the kill count.
	if s.TotalDeaths == 0 {
		s.KDRatio = float64(s.TotalKills)
	} else {
		s.KDRatio = float64(s.TotalKills) / float64(s.TotalDeaths)
	}
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// PositioningTrendData holds series-wide means over per-round positioning.
type PositioningTrendData struct {
	Rounds                 int       `json:"rounds"`
	AvgDistanceToTeammates float64   `json:"avgDistanceToTeammates"`
	AttackerAggressionRate float64   `json:"attackerAggressionRate"`
	DefenderHoldRate       float64   `json:"defenderHoldRate"`
	AvgVelocity            geom.Vec2 `json:"avgVelocity"`
}

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

type TrendResult struct {
	Direction   TrendDirection `json:"direction"`
	Correlation float64        `json:"correlation"`
}

type Trends struct {
	RoundPerformance TrendResult `json:"roundPerformanceTrend"`
	GamePerformance  TrendResult `json:"gamePerformanceTrend"`
	ConsistencyScore float64     `json:"consistencyScore"`
	Aggression       TrendResult `json:"aggressionTrend"`
	Defense          TrendResult `json:"defenseTrend"`
	TeammateDistance TrendResult `json:"teammateDistanceTrend"`
	Velocity         TrendResult `json:"velocityTrend"`
}

// TimeRange is the [Start, End] span of processed events in epoch milliseconds.
// A zero range means no event was seen.
type TimeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func (r TimeRange) IsZero() bool { return r.Start == 0 && r.End == 0 }

// Union returns the smallest range covering r and o.
func (r TimeRange) Union(o TimeRange) TimeRange {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	out := r
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// PlayerAnalysis is the full trend analysis of one player over a set of series.
type PlayerAnalysis struct {
	PlayerID          string               `json:"playerId"`
	PlayerName        string               `json:"playerName"`
	Range             TimeRange            `json:"timeWindow"`
	SeriesIDs         []string             `json:"seriesIds"`
	RoundTrends       []RoundTrendData     `json:"roundTrends"`
	GameTrends        []GameTrendData      `json:"gameTrends"`
	SeriesTrends      SeriesTrendData      `json:"seriesTrends"`
	PositioningTrends PositioningTrendData `json:"positioningTrends"`
	Trends            Trends               `json:"trends"`
}

// ---- Match descriptors ----

// Series describes a match; only ID is needed for analysis, the rest labels output.
type Series struct {
	ID             string    `json:"id"`
	Title          string    `json:"title,omitempty"`
	TournamentName string    `json:"tournamentName,omitempty"`
	Teams          []Team    `json:"teams,omitempty"`
	StartTime      time.Time `json:"startTime,omitempty"`
}

// MatchEvents pairs a series with its flattened, ordered event stream.
type MatchEvents struct {
	Series Series
	Events []FlatEvent
}
