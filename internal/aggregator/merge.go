package aggregator

import "github.com/pable/gridscout/internal/model"

// MergePlayerAnalysis combines two analyses of the same player into a new one.
// incoming must cover matches played after existing's for the trend
// directions to stay meaningful. Series sums are added, positioning means are
// weighted by round count, and every trend is recomputed over the
// concatenated round and game arrays. Either argument may be nil.
func MergePlayerAnalysis(existing, incoming *model.PlayerAnalysis) *model.PlayerAnalysis {
	out := &model.PlayerAnalysis{}
	combine(out, existing)
	combine(out, incoming)
	computeTrends(out)
	return out
}

// combine folds b's data into acc without touching acc's trends.
func combine(acc, b *model.PlayerAnalysis) {
	if b == nil {
		return
	}
	if acc.PlayerID == "" {
		acc.PlayerID = b.PlayerID
	}
	if acc.PlayerName == "" {
		acc.PlayerName = b.PlayerName
	}
	acc.Range = acc.Range.Union(b.Range)
	acc.SeriesIDs = append(acc.SeriesIDs, b.SeriesIDs...)
	acc.RoundTrends = append(acc.RoundTrends, b.RoundTrends...)
	acc.GameTrends = append(acc.GameTrends, b.GameTrends...)
	acc.SeriesTrends.Add(b.SeriesTrends)
	acc.PositioningTrends = mergePositioning(acc.PositioningTrends, b.PositioningTrends)
}

func mergePositioning(a, b model.PositioningTrendData) model.PositioningTrendData {
	total := a.Rounds + b.Rounds
	if total == 0 {
		return model.PositioningTrendData{}
	}
	wa := float64(a.Rounds) / float64(total)
	wb := float64(b.Rounds) / float64(total)
	return model.PositioningTrendData{
		Rounds:                 total,
		AvgDistanceToTeammates: a.AvgDistanceToTeammates*wa + b.AvgDistanceToTeammates*wb,
		AttackerAggressionRate: a.AttackerAggressionRate*wa + b.AttackerAggressionRate*wb,
		DefenderHoldRate:       a.DefenderHoldRate*wa + b.DefenderHoldRate*wb,
		AvgVelocity:            a.AvgVelocity.Mul(wa).Add(b.AvgVelocity.Mul(wb)),
	}
}

// computeTrends recomputes every trend field from the round and game arrays.
func computeTrends(a *model.PlayerAnalysis) {
	roundPerf := make([]float64, 0, len(a.RoundTrends))
	var aggression, hold, distance, velocity []float64
	for i := range a.RoundTrends {
		r := &a.RoundTrends[i]
		roundPerf = append(roundPerf, r.Performance())
		if p := r.Positioning; p != nil {
			aggression = append(aggression, p.AttackerSideAggression)
			hold = append(hold, p.DefenderSideHold)
			distance = append(distance, p.DistanceToTeammates)
			velocity = append(velocity, p.Velocity.Len())
		}
	}

	gamePerf := make([]float64, 0, len(a.GameTrends))
	pooled := make([]float64, 0, 3*len(a.GameTrends))
	for i := range a.GameTrends {
		g := &a.GameTrends[i]
		gamePerf = append(gamePerf, g.Performance())
		pooled = append(pooled, g.AvgKills, g.AvgDeaths, g.AvgDamage)
	}

	a.Trends = model.Trends{
		RoundPerformance: CalculateLinearTrend(roundPerf),
		GamePerformance:  CalculateLinearTrend(gamePerf),
		ConsistencyScore: CalculateConsistency(pooled),
		Aggression:       CalculateLinearTrend(aggression),
		Defense:          CalculateLinearTrend(hold),
		TeammateDistance: CalculateLinearTrend(distance),
		Velocity:         CalculateLinearTrend(velocity),
	}
}
