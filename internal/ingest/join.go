package ingest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"eol_simulator/internal/model"
)

// ErrUnmatchedRows is returned when retired rows have no recycling mix.
var ErrUnmatchedRows = errors.New("unmatched rows")

// UnmatchedError lists every key of the primary table that has no side
// table row.
type UnmatchedError struct {
	Keys []model.RowKey
}

func (e *UnmatchedError) Error() string {
	const show = 20
	parts := make([]string, 0, show)
	for i, k := range e.Keys {
		if i == show {
			parts = append(parts, fmt.Sprintf("... %d more", len(e.Keys)-show))
			break
		}
		parts = append(parts, k.String())
	}
	return fmt.Sprintf("%d retired row key(s) without a recycling mix: %s", len(e.Keys), strings.Join(parts, ", "))
}

func (e *UnmatchedError) Unwrap() error { return ErrUnmatchedRows }

// JoinMix attaches each retired row's recycling mix by (Year, Province,
// City). Any unmatched row aborts the join; the error names all of them.
// Each flow row gets its own copy of the mix.
func JoinMix(retired []model.RetirementRecord, mixes ProcessMixTable) ([]model.FlowRow, error) {
	rows := make([]model.FlowRow, 0, len(retired))
	missing := make(map[model.RowKey]bool)
	for _, r := range retired {
		mix, ok := mixes[r.Key]
		if !ok {
			missing[r.Key] = true
			continue
		}
		rows = append(rows, model.FlowRow{Retirement: r, Mix: mix.Clone()})
	}

	if len(missing) > 0 {
		keys := make([]model.RowKey, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
		return nil, &UnmatchedError{Keys: keys}
	}
	return rows, nil
}
