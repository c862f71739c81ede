package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"eol_simulator/internal/model"
	"eol_simulator/internal/predictor"
)

// DefaultConfigPath is the scenario configuration shipped with the repo.
const DefaultConfigPath = "config/scenarios.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root of the scenario configuration file. Fields omitted
// from the file keep the values from Default.
type Config struct {
	Inputs    Inputs `yaml:"inputs"`
	OutputDir string `yaml:"output_dir"`
	// SQLitePath enables the result database when set.
	SQLitePath string `yaml:"sqlite_path"`

	PolicyStartYear     int     `yaml:"policy_start_year"`
	ProportionTolerance float64 `yaml:"proportion_tolerance"`
	Workers             int     `yaml:"workers"`

	AccelerationRatios []float64 `yaml:"acceleration_ratios"`
	TargetedRatios     []float64 `yaml:"targeted_ratios"`
	SecondUseRatios    []float64 `yaml:"second_use_ratios"`
	PathwayWindow      Window    `yaml:"pathway_window"`

	Forecast Forecast `yaml:"forecast"`
}

// Inputs names the spreadsheets a run reads. Relative paths are resolved
// against the configuration file's directory.
type Inputs struct {
	Sales         string    `yaml:"sales"`
	ChemistryMix  string    `yaml:"chemistry_mix"`
	Retired       string    `yaml:"retired"`
	RecyclingMix  string    `yaml:"recycling_mix"`
	ImpactFactors string    `yaml:"impact_factors"`
	Pathways      []Pathway `yaml:"pathways"`
}

// Pathway is a named destination impact-factor workbook.
type Pathway struct {
	Name          string `yaml:"name"`
	ImpactFactors string `yaml:"impact_factors"`
}

// Window is a half-open year range [Start, End).
type Window struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Range mirrors predictor.Range in the file.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Forecast configures the retirement forecast.
type Forecast struct {
	Segment            string    `yaml:"segment"`
	Convention         string    `yaml:"convention"`
	Cutoff             int       `yaml:"cutoff"`
	DensityFactor      float64   `yaml:"density_factor"`
	HistoricalCapacity Range     `yaml:"historical_capacity"`
	ProjectedCapacity  Range     `yaml:"projected_capacity"`
	ProjectedMass      Range     `yaml:"projected_mass"`
	Seed               uint64    `yaml:"seed"`
	SensitivityFactors []float64 `yaml:"sensitivity_factors"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	drift := predictor.DefaultDrift()
	return &Config{
		OutputDir:           "output",
		PolicyStartYear:     2024,
		ProportionTolerance: 1e-6,
		AccelerationRatios:  []float64{0.2, 0.4, 0.6},
		TargetedRatios:      []float64{0.2, 0.4, 0.6},
		SecondUseRatios:     []float64{0.2, 0.4, 0.6},
		PathwayWindow:       Window{Start: 2024, End: 2030},
		Forecast: Forecast{
			Segment:            "PEV",
			Convention:         "ED",
			Cutoff:             drift.Cutoff,
			DensityFactor:      drift.DensityFactor,
			HistoricalCapacity: Range(drift.HistoricalCapacity),
			ProjectedCapacity:  Range(drift.ProjectedCapacity),
			ProjectedMass:      Range(drift.ProjectedMass),
			Seed:               1,
			SensitivityFactors: append([]float64(nil), predictor.DefaultSensitivityFactors...),
		},
	}
}

// Load reads a YAML configuration over Default. The file must have a .yaml
// or .yml extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolve(filepath.Dir(cleanPath))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default without validating. Unknown keys are an
// error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	in := &c.Inputs
	in.Sales = abs(in.Sales)
	in.ChemistryMix = abs(in.ChemistryMix)
	in.Retired = abs(in.Retired)
	in.RecyclingMix = abs(in.RecyclingMix)
	in.ImpactFactors = abs(in.ImpactFactors)
	for i := range in.Pathways {
		in.Pathways[i].ImpactFactors = abs(in.Pathways[i].ImpactFactors)
	}
	c.OutputDir = abs(c.OutputDir)
	c.SQLitePath = abs(c.SQLitePath)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.ProportionTolerance <= 0 {
		return fmt.Errorf("%w: proportion_tolerance must be positive, got %g", ErrInvalidConfig, c.ProportionTolerance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	for name, ratios := range map[string][]float64{
		"acceleration_ratios": c.AccelerationRatios,
		"targeted_ratios":     c.TargetedRatios,
		"second_use_ratios":   c.SecondUseRatios,
	} {
		for _, r := range ratios {
			if r < 0 || r > 1 {
				return fmt.Errorf("%w: %s must be within [0, 1], got %g", ErrInvalidConfig, name, r)
			}
		}
	}
	if c.PathwayWindow.End <= c.PathwayWindow.Start {
		return fmt.Errorf("%w: pathway_window [%d, %d) is empty", ErrInvalidConfig, c.PathwayWindow.Start, c.PathwayWindow.End)
	}
	seen := make(map[string]bool, len(c.Inputs.Pathways))
	for _, p := range c.Inputs.Pathways {
		if p.Name == "" || p.ImpactFactors == "" {
			return fmt.Errorf("%w: pathway needs name and impact_factors", ErrInvalidConfig)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate pathway %q", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = true
	}
	if _, err := model.ParseSegment(c.Forecast.Segment); err != nil {
		return fmt.Errorf("%w: forecast: %v", ErrInvalidConfig, err)
	}
	if _, err := predictor.ParseConvention(c.Forecast.Convention); err != nil {
		return fmt.Errorf("%w: forecast: %v", ErrInvalidConfig, err)
	}
	if err := c.Drift().Validate(); err != nil {
		return fmt.Errorf("%w: forecast: %v", ErrInvalidConfig, err)
	}
	for _, f := range c.Forecast.SensitivityFactors {
		if !(f > 0) {
			return fmt.Errorf("%w: sensitivity factor must be positive, got %g", ErrInvalidConfig, f)
		}
	}
	return nil
}

// Drift converts the forecast section into predictor settings.
func (c *Config) Drift() predictor.DriftConfig {
	f := c.Forecast
	return predictor.DriftConfig{
		Cutoff:             f.Cutoff,
		DensityFactor:      f.DensityFactor,
		HistoricalCapacity: predictor.Range(f.HistoricalCapacity),
		ProjectedCapacity:  predictor.Range(f.ProjectedCapacity),
		ProjectedMass:      predictor.Range(f.ProjectedMass),
		Drift:              true,
	}
}
