package parser

import (
	"sort"
	"time"

	"github.com/pable/gridscout/internal/model"
)

// TypeCount is the number of events of one type.
type TypeCount struct {
	Type  string
	Count int
}

// CountByType returns per-type counts, most frequent first (ties by name).
func CountByType(events []model.FlatEvent) []TypeCount {
	counts := make(map[string]int)
	for i := range events {
		counts[events[i].Type]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// GroupByCorrelation groups events by correlation id, preserving stream order within each group.
func GroupByCorrelation(events []model.FlatEvent) map[string][]model.FlatEvent {
	out := make(map[string][]model.FlatEvent)
	for _, e := range events {
		out[e.CorrelationID] = append(out[e.CorrelationID], e)
	}
	return out
}

// CorrelationChain is every event sharing one correlation id.
type CorrelationChain struct {
	CorrelationID string
	Events        []model.FlatEvent
}

// LongestCorrelationChains returns up to n chains ordered by length, longest first.
func LongestCorrelationChains(events []model.FlatEvent, n int) []CorrelationChain {
	groups := GroupByCorrelation(events)
	out := make([]CorrelationChain, 0, len(groups))
	for id, evs := range groups {
		out = append(out, CorrelationChain{CorrelationID: id, Events: evs})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Events) != len(out[j].Events) {
			return len(out[i].Events) > len(out[j].Events)
		}
		return out[i].CorrelationID < out[j].CorrelationID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TimeBucket counts the events whose timestamp falls in [Start, Start+bucket).
type TimeBucket struct {
	Start int64
	Count int
}

// EventsOverTime buckets the stream into fixed-width intervals starting at
// the first event. Empty intervals are included. events must be ordered.
func EventsOverTime(events []model.FlatEvent, bucket time.Duration) []TimeBucket {
	if len(events) == 0 {
		return nil
	}
	width := bucket.Milliseconds()
	if width <= 0 {
		width = time.Minute.Milliseconds()
	}
	first := events[0].Timestamp
	last := events[len(events)-1].Timestamp
	out := make([]TimeBucket, int((last-first)/width)+1)
	for i := range out {
		out[i].Start = first + int64(i)*width
	}
	for _, e := range events {
		idx := int((e.Timestamp - first) / width)
		if idx < 0 || idx >= len(out) {
			continue
		}
		out[idx].Count++
	}
	return out
}
