package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"eol_simulator/internal/config"
	"eol_simulator/internal/export"
	"eol_simulator/internal/ingest"
	"eol_simulator/internal/model"
	"eol_simulator/internal/simulator"
	"eol_simulator/internal/store"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "scenario configuration file (empty for built-in defaults)")
	scenarioFlag := flag.String("scenario", "all", "scenario families to run: bs, ar, to, su, es, comma-separated, or all")
	outDir := flag.String("out-dir", "", "output directory (overrides output_dir)")
	sqlitePath := flag.String("sqlite", "", "also record results in this SQLite database (overrides sqlite_path)")
	workers := flag.Int("workers", -1, "concurrent variants, 0 for one per variant (overrides workers)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Loading config %s: %v", *configPath, err)
		}
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *sqlitePath != "" {
		cfg.SQLitePath = *sqlitePath
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}

	kinds, err := parseKinds(*scenarioFlag)
	if err != nil {
		log.Fatalf("Invalid -scenario %q: %v", *scenarioFlag, err)
	}

	if err := run(context.Background(), cfg, kinds, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run simulates every requested kind, writes one workbook per kind and
// records each written kind when a result database is configured.
func run(ctx context.Context, cfg *config.Config, kinds []simulator.Kind, w io.Writer) error {
	rows, err := loadFlows(cfg.Inputs)
	if err != nil {
		return fmt.Errorf("loading inputs: %w", err)
	}
	factors, err := loadFactors(cfg.Inputs.ImpactFactors)
	if err != nil {
		return fmt.Errorf("loading impact factors: %w", err)
	}
	log.Printf("Loaded %d retired rows and %d impact factors", len(rows), factors.Len())

	set := simulator.VariantSet{Factors: factors, Start: cfg.PolicyStartYear}
	variants, err := buildVariants(set, kinds, cfg)
	if err != nil {
		return fmt.Errorf("building scenarios: %w", err)
	}

	runner := &simulator.Runner{Tolerance: cfg.ProportionTolerance, Workers: cfg.Workers}
	buf := store.NewResultBuffer()
	if err := runner.Run(ctx, rows, variants, buf); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	var db *export.DB
	if cfg.SQLitePath != "" {
		if db, err = export.OpenDB(cfg.SQLitePath); err != nil {
			return fmt.Errorf("opening %s: %w", cfg.SQLitePath, err)
		}
		defer db.Close()
	}

	for _, kind := range kinds {
		sheets := resultSheets(kind, variants, buf)
		path := filepath.Join(cfg.OutputDir, export.ScenarioFileName(kind.Title()))
		switch err := export.WriteScenarioWorkbook(path, sheets); {
		case errors.Is(err, export.ErrEmptyWorkbook):
			log.Printf("%s: no results, nothing written", kind.Title())
			continue
		case err != nil:
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "  %s written to %s\n", kind.Title(), path)

		printTotals(w, kind, sheets)
		if kind == simulator.KindSecondUse {
			printYearTotals(w, sheets)
		}

		if db != nil {
			runID, err := db.RecordRun(ctx, string(kind), sheets)
			if err != nil {
				return fmt.Errorf("recording %s run: %w", kind.Title(), err)
			}
			log.Printf("%s recorded as run %s", kind.Title(), runID)
		}
	}
	return nil
}

func parseKinds(s string) ([]simulator.Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return simulator.Kinds, nil
	}
	seen := make(map[simulator.Kind]bool)
	var kinds []simulator.Kind
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := simulator.ParseKind(part)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no scenarios specified")
	}
	return kinds, nil
}

func readSheet(path string) (*ingest.Sheet, error) {
	if path == "" {
		return nil, fmt.Errorf("no input file configured")
	}
	return ingest.ReadSheetFile(path, "")
}

func loadFlows(in config.Inputs) ([]model.FlowRow, error) {
	s, err := readSheet(in.Retired)
	if err != nil {
		return nil, fmt.Errorf("retired: %w", err)
	}
	retired, err := ingest.ParseRetired(s)
	if err != nil {
		return nil, fmt.Errorf("retired: %w", err)
	}

	s, err = readSheet(in.RecyclingMix)
	if err != nil {
		return nil, fmt.Errorf("recycling mix: %w", err)
	}
	mixes, err := ingest.ParseProcessMix(s)
	if err != nil {
		return nil, fmt.Errorf("recycling mix: %w", err)
	}

	return ingest.JoinMix(retired, mixes)
}

func loadFactors(path string) (*simulator.ImpactFactors, error) {
	s, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	entries, err := ingest.ParseImpactFactors(s)
	if err != nil {
		return nil, err
	}
	return simulator.NewImpactFactors(entries), nil
}

func buildVariants(set simulator.VariantSet, kinds []simulator.Kind, cfg *config.Config) ([]simulator.Variant, error) {
	var variants []simulator.Variant
	for _, kind := range kinds {
		switch kind {
		case simulator.KindBaseline:
			variants = append(variants, set.Baseline()...)
		case simulator.KindAcceleration:
			variants = append(variants, set.Acceleration(cfg.AccelerationRatios)...)
		case simulator.KindTargeted:
			variants = append(variants, set.Targeted(cfg.TargetedRatios)...)
		case simulator.KindSecondUse:
			variants = append(variants, set.SecondUse(cfg.SecondUseRatios)...)
		case simulator.KindPathway:
			pathways := make([]simulator.Pathway, 0, len(cfg.Inputs.Pathways))
			for _, p := range cfg.Inputs.Pathways {
				f, err := loadFactors(p.ImpactFactors)
				if err != nil {
					return nil, fmt.Errorf("pathway %s: %w", p.Name, err)
				}
				pathways = append(pathways, simulator.Pathway{Name: p.Name, Factors: f})
			}
			es, err := set.Pathways(pathways, cfg.PathwayWindow.Start, cfg.PathwayWindow.End)
			if err != nil {
				return nil, err
			}
			variants = append(variants, es...)
		}
	}
	return variants, nil
}

func resultSheets(kind simulator.Kind, variants []simulator.Variant, buf *store.ResultBuffer) []export.ResultSheet {
	var sheets []export.ResultSheet
	for _, v := range variants {
		if v.Kind != kind {
			continue
		}
		sheets = append(sheets, export.ResultSheet{Name: v.Sheet, Results: buf.Sorted(v.ID())})
	}
	return sheets
}

func printTotals(w io.Writer, kind simulator.Kind, sheets []export.ResultSheet) {
	if len(sheets) == 0 {
		return
	}
	totals := make([]simulator.Totals, len(sheets))
	for i, s := range sheets {
		totals[i] = simulator.Summarize(s.Results)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s scenario totals\n", kind.Title())
	fmt.Fprintln(w)

	const labelWidth = 34
	fmt.Fprintf(w, " %-*s", labelWidth, "Metric")
	for _, s := range sheets {
		fmt.Fprintf(w, " │ %18s", s.Name)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, strings.Repeat("─", labelWidth+2))
	for range sheets {
		fmt.Fprint(w, "┼"+strings.Repeat("─", 20))
	}
	fmt.Fprintln(w)

	for _, ind := range model.ImpactIndicators {
		fmt.Fprintf(w, " %-*s", labelWidth, ind)
		for _, t := range totals {
			fmt.Fprintf(w, " │ %18.6g", t.Impacts[ind])
		}
		fmt.Fprintln(w)
	}
	for _, m := range model.Metals {
		fmt.Fprintf(w, " %-*s", labelWidth, string(m)+" (kg)")
		for _, t := range totals {
			fmt.Fprintf(w, " │ %18.6g", t.Metals[m])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func printYearTotals(w io.Writer, sheets []export.ResultSheet) {
	for _, s := range sheets {
		fmt.Fprintf(w, "Per-year totals, secondary use ratio %s\n", s.Name)
		fmt.Fprintf(w, " %4s │ %18s │ %14s │ %14s\n", "Year", string(model.ImpactGlobalWarming), "lithium (kg)", "nickel (kg)")
		fmt.Fprintf(w, "──────┼────────────────────┼────────────────┼────────────────\n")
		for _, y := range simulator.SummarizeByYear(s.Results) {
			fmt.Fprintf(w, " %4d │ %18.6g │ %14.6g │ %14.6g\n",
				y.Year,
				y.Impacts[model.ImpactGlobalWarming],
				y.Metals[model.MetalLithium],
				y.Metals[model.MetalNickel],
			)
		}
		fmt.Fprintln(w)
	}
}
