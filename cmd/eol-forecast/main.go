package main

import (
	"context"
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
	"eol_simulator/internal/predictor"
	"eol_simulator/internal/store"
)

type options struct {
	segment     model.Segment
	convention  predictor.MixConvention
	scenario    string
	seed        uint64
	salesColumn string
	mixPath     string
	family      bool
	sensitivity bool
	factors     []float64
}

func main() {
	configPath := flag.String("config", "", "scenario configuration file (forecast section)")
	salesPath := flag.String("sales", "", "sales forecast workbook (overrides inputs.sales)")
	salesColumn := flag.String("sales-column", "", "sales column name (default: first non-key column)")
	segmentFlag := flag.String("segment", "", "vehicle segment: PEV or CEV (overrides forecast.segment)")
	conventionFlag := flag.String("convention", "", "mix convention: ed (retirement year) or tp (sales year)")
	mixPath := flag.String("mix", "", "chemistry mix workbook overriding post-cutoff baseline years")
	scenario := flag.String("scenario", "", "scenario tag for output rows (default: convention tag)")
	seed := flag.Uint64("seed", 0, "random seed for parameter draws (0 keeps forecast.seed)")
	outDir := flag.String("out", "output", "output directory")
	sensitivity := flag.Bool("sensitivity", false, "also run the energy-density sensitivity sweep")
	family := flag.Bool("family", false, "roll class rows up into LFP/NCM rows for impact-sim")
	sqlitePath := flag.String("sqlite", "", "also record the forecast in this SQLite database")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Loading config %s: %v", *configPath, err)
		}
	}
	if *salesPath != "" {
		cfg.Inputs.Sales = *salesPath
	}
	if *segmentFlag != "" {
		cfg.Forecast.Segment = *segmentFlag
	}
	if *conventionFlag != "" {
		cfg.Forecast.Convention = *conventionFlag
	}
	if *seed != 0 {
		cfg.Forecast.Seed = *seed
	}
	if *mixPath == "" {
		*mixPath = cfg.Inputs.ChemistryMix
	}

	opts, err := resolveOptions(cfg, *scenario, *salesColumn, *mixPath, *family, *sensitivity)
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}
	if cfg.Inputs.Sales == "" {
		log.Fatal("No sales workbook given (-sales or inputs.sales)")
	}

	sales, err := loadSales(cfg.Inputs.Sales, opts.salesColumn)
	if err != nil {
		log.Fatalf("Loading sales %s: %v", cfg.Inputs.Sales, err)
	}
	if n := sales.MissingCount(); n > 0 {
		log.Printf("%d sales cohort(s) have no value and are excluded", n)
	}

	agg, err := newAggregator(cfg, opts)
	if err != nil {
		log.Fatalf("Preparing forecast: %v", err)
	}

	sheets, sens, err := forecast(agg, sales, opts)
	if err != nil {
		log.Fatalf("Forecast failed: %v", err)
	}

	path := filepath.Join(*outDir, outputName(opts))
	if err := export.WriteRetirementWorkbook(path, sheets); err != nil {
		log.Fatalf("Writing %s: %v", path, err)
	}
	fmt.Fprintf(os.Stderr, "  forecast written to %s\n", path)

	if len(sens) > 0 {
		sensPath := filepath.Join(*outDir, sensitivityName(opts))
		if err := export.WriteRetirementWorkbook(sensPath, sens); err != nil {
			log.Fatalf("Writing %s: %v", sensPath, err)
		}
		fmt.Fprintf(os.Stderr, "  sensitivity written to %s\n", sensPath)
	}

	all := append(sheets, sens...)
	printSummary(os.Stdout, opts, all)

	if *sqlitePath != "" {
		runID, err := record(context.Background(), *sqlitePath, all)
		if err != nil {
			log.Fatalf("Recording forecast: %v", err)
		}
		log.Printf("Forecast recorded as run %s", runID)
	}
}

func record(ctx context.Context, path string, sheets []export.RetirementSheet) (string, error) {
	db, err := export.OpenDB(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()
	return db.RecordRetirement(ctx, "forecast", sheets)
}

func resolveOptions(cfg *config.Config, scenario, salesColumn, mixPath string, family, sensitivity bool) (options, error) {
	seg, err := model.ParseSegment(cfg.Forecast.Segment)
	if err != nil {
		return options{}, err
	}
	conv, err := predictor.ParseConvention(cfg.Forecast.Convention)
	if err != nil {
		return options{}, err
	}
	return options{
		segment:     seg,
		convention:  conv,
		scenario:    strings.TrimSpace(scenario),
		seed:        cfg.Forecast.Seed,
		salesColumn: salesColumn,
		mixPath:     mixPath,
		family:      family,
		sensitivity: sensitivity,
		factors:     cfg.Forecast.SensitivityFactors,
	}, nil
}

func loadSales(path, column string) (*store.Store, error) {
	s, err := ingest.ReadSheetFile(path, "")
	if err != nil {
		return nil, err
	}
	records, err := ingest.ParseSales(s, ingest.SalesOptions{ValueColumn: column})
	if err != nil {
		return nil, err
	}
	st := store.New()
	st.AddSales(records)
	return st, nil
}

// newAggregator builds the profile, mix and parameter table for a run. The
// sales-year convention keeps every year on the historical parameters.
func newAggregator(cfg *config.Config, opts options) (*predictor.Aggregator, error) {
	profile, err := predictor.ProfileFor(opts.segment)
	if err != nil {
		return nil, err
	}

	drift := cfg.Drift()
	if opts.convention == predictor.MixAtSalesYear {
		drift.Drift = false
	}

	mix := profile.Mix
	if opts.mixPath != "" {
		s, err := ingest.ReadSheetFile(opts.mixPath, "")
		if err != nil {
			return nil, fmt.Errorf("chemistry mix: %w", err)
		}
		override, err := ingest.ParseChemistryMix(s, profile.ClassList())
		if err != nil {
			return nil, fmt.Errorf("chemistry mix: %w", err)
		}
		mix = predictor.MergeMix(profile.Mix, override, drift.Cutoff)
		if err := mix.Validate(cfg.ProportionTolerance); err != nil {
			log.Printf("warning: chemistry mix: %v", err)
		}
	}

	params, err := predictor.NewParameterTable(profile, drift, opts.seed)
	if err != nil {
		return nil, err
	}
	return &predictor.Aggregator{
		Profile:    profile,
		Mix:        mix,
		Params:     params,
		Convention: opts.convention,
	}, nil
}

func forecast(agg *predictor.Aggregator, sales *store.Store, opts options) (primary, sens []export.RetirementSheet, err error) {
	years := agg.Profile.Years()
	records := agg.Aggregate(sales, years, opts.scenario)
	if opts.family {
		records = predictor.RollupFamilies(records)
	}
	primary = []export.RetirementSheet{{Name: opts.convention.String(), Records: records}}

	if !opts.sensitivity {
		return primary, nil, nil
	}
	runs, err := predictor.Sensitivity(agg, sales, years, opts.scenario, opts.factors)
	if err != nil {
		return nil, nil, err
	}
	for _, run := range runs {
		recs := run.Records
		if opts.family {
			recs = predictor.RollupFamilies(recs)
		}
		sens = append(sens, export.RetirementSheet{Name: run.SheetName(), Records: recs})
	}
	return primary, sens, nil
}

func outputName(opts options) string {
	seg := "EV"
	if opts.segment == model.SegmentCommercial {
		seg = "CEV"
	}
	return fmt.Sprintf("%s_EOL power battery from %s.xlsx", opts.convention, seg)
}

func sensitivityName(opts options) string {
	return fmt.Sprintf("%s_%s_sensitivity analysis results.xlsx", opts.convention, opts.segment)
}

func printSummary(w io.Writer, opts options, sheets []export.RetirementSheet) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Retirement forecast, %s, %s convention (seed %d)\n", opts.segment, opts.convention, opts.seed)
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %-12s │ %4s │ %14s │ %14s\n", "Sheet", "Year", "Weight (kt)", "Capacity (GWh)")
	fmt.Fprintf(w, "──────────────┼──────┼────────────────┼────────────────\n")
	for _, s := range sheets {
		for _, y := range yearTotals(s.Records) {
			fmt.Fprintf(w, " %-12s │ %4d │ %14.4f │ %14.4f\n", s.Name, y.year, y.massKt, y.energyGWh)
		}
	}
	fmt.Fprintln(w)
}

type yearTotal struct {
	year      int
	massKt    float64
	energyGWh float64
}

// yearTotals sums records per year; records must be in year order.
func yearTotals(records []model.RetirementRecord) []yearTotal {
	var out []yearTotal
	for _, r := range records {
		if len(out) == 0 || out[len(out)-1].year != r.Key.Year {
			out = append(out, yearTotal{year: r.Key.Year})
		}
		t := &out[len(out)-1]
		t.massKt += r.MassKt
		t.energyGWh += r.EnergyGWh
	}
	return out
}
