package store

import (
	"sort"
	"sync"

	"eol_simulator/internal/model"
)

// ResultBuffer collects scenario results from concurrent variant runs.
// Insertion order is irrelevant; Sorted returns a stable view.
type ResultBuffer struct {
	mu        sync.Mutex
	byVariant map[string][]model.ScenarioResult
}

func NewResultBuffer() *ResultBuffer {
	return &ResultBuffer{byVariant: make(map[string][]model.ScenarioResult)}
}

// Append adds results.
func (b *ResultBuffer) Append(results ...model.ScenarioResult) {
	if len(results) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range results {
		b.byVariant[r.Variant] = append(b.byVariant[r.Variant], r)
	}
}

// Len returns the total number of results.
func (b *ResultBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, rs := range b.byVariant {
		n += len(rs)
	}
	return n
}

// Variants returns variant names sorted by name.
func (b *ResultBuffer) Variants() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.byVariant))
	for v := range b.byVariant {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Sorted returns a copy of one variant's results ordered by key, then
// scenario, then battery type.
func (b *ResultBuffer) Sorted(variant string) []model.ScenarioResult {
	b.mu.Lock()
	rs := append([]model.ScenarioResult(nil), b.byVariant[variant]...)
	b.mu.Unlock()

	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Key != rs[j].Key {
			return rs[i].Key.Less(rs[j].Key)
		}
		if rs[i].Scenario != rs[j].Scenario {
			return rs[i].Scenario < rs[j].Scenario
		}
		return rs[i].BatteryType < rs[j].BatteryType
	})
	return rs
}
