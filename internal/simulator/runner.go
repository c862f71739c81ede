package simulator

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"eol_simulator/internal/model"
	"eol_simulator/internal/store"
)

// Runner evaluates variants over joined rows. Variants run concurrently;
// each resolves its own mix copies and only shares the result buffer.
type Runner struct {
	Tolerance float64
	// Workers bounds concurrent variants; <= 0 means one per variant.
	Workers int
	Logger  *log.Logger
}

// Run evaluates every variant and appends its results to buf. The first
// error cancels the remaining variants.
func (r *Runner) Run(ctx context.Context, rows []model.FlowRow, variants []Variant, buf *store.ResultBuffer) error {
	g, ctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for _, v := range variants {
		g.Go(func() error {
			results, err := r.runVariant(ctx, rows, v)
			if err != nil {
				return fmt.Errorf("variant %s: %w", v.ID(), err)
			}
			buf.Append(results...)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) runVariant(ctx context.Context, rows []model.FlowRow, v Variant) ([]model.ScenarioResult, error) {
	resolver := &Resolver{Policy: v.Policy, Tolerance: r.Tolerance, Logger: r.Logger}
	engine := *v.Engine
	if engine.Logger == nil {
		engine.Logger = r.Logger
	}

	results := make([]model.ScenarioResult, 0, len(rows))
	for i, row := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec := row.Retirement
		if !v.Accepts(rec.Scenario) {
			continue
		}
		res, err := resolver.Resolve(rec, row.Mix)
		if err != nil {
			return nil, err
		}
		totals := engine.ComputeRow(rec, res)

		out := model.NewScenarioResult(v.ID(), rec)
		out.Impacts, out.Metals = totals.Impacts, totals.Metals
		results = append(results, out)
	}
	return results, nil
}
