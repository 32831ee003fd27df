package extract

import "github.com/pable/gridscout/internal/model"

// Combat reads the player's round stats from a round-closing event's target
// state. It returns nil when the state is missing or does not list the player.
func Combat(playerID string, e model.FlatEvent) *model.PlayerRoundCombatStats {
	return CombatFromTeams(playerID, e.Payload.TargetTeams())
}

// CombatFromTeams is Combat over an already extracted team list.
func CombatFromTeams(playerID string, teams []model.TeamState) *model.PlayerRoundCombatStats {
	for _, t := range teams {
		for i := range t.Players {
			p := &t.Players[i]
			if p.ID != playerID {
				continue
			}
			s := &model.PlayerRoundCombatStats{
				PlayerID:            p.ID,
				PlayerName:          p.Name,
				TeamID:              t.ID,
				TeamName:            t.Name,
				Side:                model.ParseSide(t.Side),
				Kills:               p.Kills,
				Deaths:              p.Deaths,
				KillAssistsGiven:    p.KillAssistsGiven,
				KillAssistsReceived: p.KillAssistsReceived,
				Headshots:           p.Headshots,
				DamageDealt:         p.DamageDealt,
				DamageTaken:         p.DamageTaken,
				FirstKill:           p.FirstKill,
				Alive:               p.Alive != nil && *p.Alive,
				CurrentHealth:       deref(p.CurrentHealth),
				CurrentArmor:        deref(p.CurrentArmor),
				RoundWon:            t.Won,
			}
			if len(p.WeaponKills) > 0 {
				s.WeaponKills = make(map[string]int, len(p.WeaponKills))
				for w, n := range p.WeaponKills {
					s.WeaponKills[w] = n
				}
			}
			if len(p.Objectives) > 0 {
				s.Objectives = make(map[string]int, len(p.Objectives))
				for _, o := range p.Objectives {
					key := o.Type
					if key == "" {
						key = o.ID
					}
					s.Objectives[key] += o.CompletionCount
				}
			}
			return s
		}
	}
	return nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
