package parser

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/gridscout/internal/model"
)

var categories = map[string]model.EventCategory{
	// combat
	"player-killed-player":        model.CategoryCombat,
	"player-teamkilled-player":    model.CategoryCombat,
	"player-selfkilled-player":    model.CategoryCombat,
	"player-damaged-player":       model.CategoryCombat,
	"player-teamdamaged-player":   model.CategoryCombat,
	"player-selfdamaged-player":   model.CategoryCombat,
	"player-killed-player-assist": model.CategoryCombat,
	"player-revived-player":       model.CategoryCombat,

	// rounds
	"game-started-round":       model.CategoryRoundLifecycle,
	"game-ended-round":         model.CategoryRoundLifecycle,
	"round-started-freezetime": model.CategoryRoundLifecycle,
	"round-ended-freezetime":   model.CategoryRoundLifecycle,
	"team-won-round":           model.CategoryRoundLifecycle,
	"round-set-winner":         model.CategoryRoundLifecycle,

	// games and series
	"series-started-game": model.CategoryGameLifecycle,
	"series-ended-game":   model.CategoryGameLifecycle,
	"series-started":      model.CategoryGameLifecycle,
	"series-ended":        model.CategoryGameLifecycle,
	"series-paused":       model.CategoryGameLifecycle,
	"series-resumed":      model.CategoryGameLifecycle,
	"game-started":        model.CategoryGameLifecycle,
	"game-ended":          model.CategoryGameLifecycle,
	"team-won-game":       model.CategoryGameLifecycle,
	"team-won-series":     model.CategoryGameLifecycle,

	// map objectives
	"player-completed-plantbomb":             model.CategoryEnvironment,
	"player-completed-defusebomb":            model.CategoryEnvironment,
	"player-completed-beginplantbomb":        model.CategoryEnvironment,
	"player-completed-begindefusewithkit":    model.CategoryEnvironment,
	"player-completed-begindefusewithoutkit": model.CategoryEnvironment,
	"player-completed-explodebomb":           model.CategoryEnvironment,
	"team-completed-plantbomb":               model.CategoryEnvironment,
	"team-completed-defusebomb":              model.CategoryEnvironment,
	"team-completed-explodebomb":             model.CategoryEnvironment,
	"game-set-clock":                         model.CategoryEnvironment,

	// economy and utility
	"player-purchased-item": model.CategorySupport,
	"player-picked-up-item": model.CategorySupport,
	"player-dropped-item":   model.CategorySupport,
	"player-used-ability":   model.CategorySupport,
	"player-acquired-item":  model.CategorySupport,
	"player-equipped-item":  model.CategorySupport,
	"player-sold-item":      model.CategorySupport,
	"player-used-item":      model.CategorySupport,
	"player-activated-item": model.CategorySupport,
}

// Classify maps an event type to its category. Matching ignores case;
// unrecognized types are CategoryUnknown.
func Classify(typ string) model.EventCategory {
	t := strings.ToLower(strings.TrimSpace(typ))
	if c, ok := categories[t]; ok {
		return c
	}
	// Objective completions the table does not list explicitly.
	if strings.HasPrefix(t, "player-completed-") || strings.HasPrefix(t, "team-completed-") {
		return model.CategoryEnvironment
	}
	return model.CategoryUnknown
}

// DecodePayload decodes one nested event. It never fails: a payload that
// cannot be decoded is returned as Unparsed with its type and raw bytes.
func DecodePayload(raw json.RawMessage) *model.Payload {
	var p model.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return &model.Payload{
			Category: model.CategoryUnknown,
			Unparsed: true,
			Type:     gjson.GetBytes(raw, "type").String(),
			Raw:      raw,
		}
	}
	p.Category = Classify(p.Type)
	p.Raw = raw
	return &p
}
