package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"eol_simulator/internal/export"
)

func main() {
	dbPath := flag.String("db", "output/runs.db", "SQLite database written by impact-sim or eol-forecast")
	runID := flag.String("run", "", "report only this run (default: all runs)")
	flag.Parse()

	db, err := export.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("Opening %s: %v", *dbPath, err)
	}
	err = report(context.Background(), os.Stdout, db, *runID)
	db.Close()
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}
}

func report(ctx context.Context, w io.Writer, db *export.DB, only string) error {
	runs, err := db.Runs(ctx)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if only != "" {
		runs = filterRuns(runs, only)
		if len(runs) == 0 {
			return fmt.Errorf("run %q not found", only)
		}
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	for _, r := range runs {
		totals, err := db.Totals(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("run %s: %w", r.ID, err)
		}
		printRun(w, r, totals)
	}
	return nil
}

func filterRuns(runs []export.Run, id string) []export.Run {
	for _, r := range runs {
		if r.ID == id {
			return []export.Run{r}
		}
	}
	return nil
}

func printRun(w io.Writer, r export.Run, totals []export.VariantTotal) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run %s (%s, %s)\n", r.ID, r.Kind, r.CreatedAt)
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %-24s │ %-44s │ %16s\n", "Variant", "Metric", "Total")
	fmt.Fprintf(w, "──────────────────────────┼──────────────────────────────────────────────┼─────────────────\n")
	for _, t := range totals {
		fmt.Fprintf(w, " %-24s │ %-44s │ %16.4f\n", t.Variant, t.Metric, t.Value)
	}
}
