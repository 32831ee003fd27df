// Package extract pulls per-event positioning and per-round combat state for
// one player out of decoded event payloads.
package extract

import (
	"github.com/pable/gridscout/internal/geom"
	"github.com/pable/gridscout/internal/model"
)

const sideEpsilon = 1e-9

// SideLine is the map's center line: perpendicular to the attacker→defender
// centroid direction, through their midpoint.
type SideLine struct {
	Start, End geom.Vec2
}

// NewSideLine builds the center line from the starting positions in rs.
// ok is false when either side has no positioned player or both centroids coincide.
func NewSideLine(rs *model.RoundStartData) (SideLine, bool) {
	if rs == nil {
		return SideLine{}, false
	}
	var attack, defend []geom.Vec2
	for teamID, players := range rs.Players {
		side := rs.Sides[teamID]
		for _, p := range players {
			if p.Position == nil {
				continue
			}
			switch side {
			case model.SideAttacker:
				attack = append(attack, *p.Position)
			case model.SideDefender:
				defend = append(defend, *p.Position)
			}
		}
	}
	ac, ok := geom.Centroid(attack)
	if !ok {
		return SideLine{}, false
	}
	dc, ok := geom.Centroid(defend)
	if !ok {
		return SideLine{}, false
	}
	return LineBetween(ac, dc)
}

// LineBetween builds the center line for the given attacker and defender centroids.
func LineBetween(attack, defend geom.Vec2) (SideLine, bool) {
	dir := defend.Sub(attack).Normalize()
	if dir == geom.Zero() {
		return SideLine{}, false
	}
	center := attack.Add(defend).Div(2)
	perp := dir.Perp()
	return SideLine{Start: center.Sub(perp), End: center.Add(perp)}, true
}

// Classify returns the half of the map p lies in. Points on the line belong
// to the defender half.
func (l SideLine) Classify(p geom.Vec2) model.Side {
	cross := l.End.Sub(l.Start).Cross(p.Sub(l.Start))
	if cross > sideEpsilon {
		return model.SideAttacker
	}
	return model.SideDefender
}
