package contract

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/treebench/iqstat/core/extract"
	"github.com/treebench/iqstat/schema"
)

// Default values for configuration.
const (
	DefaultThreshold    = 0.1
	DefaultPrecision    = 4
	MaxPrecision        = 8
	DefaultLogLevel     = "warn"
	DefaultLogSuffix    = ".log"
	DefaultReportSuffix = ".iqtree"
	DefaultMatrixSuffix = ".rfdist"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Threshold  float64 // Cut height for topology clustering
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	LogLevel   zerolog.Level

	LogSuffix    string
	ReportSuffix string
	MatrixSuffix string

	// Metrics are the named queries run against every run, presets first unless overridden
	Metrics []schema.MetricSpec

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Threshold         float64 `mapstructure:"threshold"`
	Workers           int     `mapstructure:"workers"`
	Precision         int     `mapstructure:"precision"`
	Output            string  `mapstructure:"output"`
	OutputFile        string  `mapstructure:"output-file"`
	Width             int     `mapstructure:"width"`
	Color             string  `mapstructure:"color"`
	LogLevel          string  `mapstructure:"log-level"`
	AnalysisBackend   string  `mapstructure:"analysis-backend"`
	AnalysisDBConnect string  `mapstructure:"analysis-db-connect"`

	// --- Run file naming ---
	LogSuffix    string `mapstructure:"log-suffix"`
	ReportSuffix string `mapstructure:"report-suffix"`
	MatrixSuffix string `mapstructure:"rfdist-suffix"`

	// --- Custom metric queries from config file ---
	Metrics []schema.MetricSpec `mapstructure:"metrics"`
}

// DefaultMetricSpecs returns the preset queries of an IQ-TREE run log.
func DefaultMetricSpecs() []schema.MetricSpec {
	return []schema.MetricSpec{
		{Name: schema.MetricOptimalLLH, Marker: extract.OptimalLogLikelihood.Marker, Mode: string(extract.SingleRequired), Source: schema.LogSource},
		{Name: schema.MetricStartingLLH, Marker: extract.InitialLogLikelihood.Marker, Mode: string(extract.SingleOptional), Source: schema.LogSource},
		{Name: schema.MetricBestLLH, Marker: extract.AllLogLikelihoods.Marker, Mode: string(extract.MultipleRequired), Source: schema.LogSource},
	}
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Metrics = slices.Clone(c.Metrics)
	return &clone
}

// ConfigParams returns the settings worth recording alongside a stored analysis.
func (c *Config) ConfigParams() map[string]any {
	names := make([]string, 0, len(c.Metrics))
	for _, m := range c.Metrics {
		names = append(names, m.Name)
	}
	return map[string]any{
		"threshold":     c.Threshold,
		"workers":       c.Workers,
		"log_suffix":    c.LogSuffix,
		"report_suffix": c.ReportSuffix,
		"rfdist_suffix": c.MatrixSuffix,
		"metrics":       names,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRunSuffixes(cfg, input); err != nil {
		return err
	}
	if err := processMetricSpecs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("analysis-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("analysis-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the analysis backend configuration.
// An empty backend disables history tracking.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	return ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect)
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Threshold Validation ---
	if math.IsNaN(input.Threshold) || math.IsInf(input.Threshold, 0) || input.Threshold < 0 {
		return fmt.Errorf("threshold must be a finite number >= 0 (received %v)", input.Threshold)
	}
	cfg.Threshold = input.Threshold

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	if input.Width < 0 {
		return fmt.Errorf("width must be 0 (auto) or positive (received %d)", input.Width)
	}
	cfg.Width = input.Width

	// --- 4. Log Level ---
	levelStr := input.LogLevel
	if levelStr == "" {
		levelStr = DefaultLogLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", input.LogLevel, err)
	}
	cfg.LogLevel = level

	return nil
}

// processRunSuffixes fills in the file suffixes used to resolve a run prefix.
func processRunSuffixes(cfg *Config, input *ConfigRawInput) error {
	cfg.LogSuffix = strings.TrimSpace(input.LogSuffix)
	if cfg.LogSuffix == "" {
		return fmt.Errorf("log-suffix cannot be empty")
	}
	cfg.ReportSuffix = strings.TrimSpace(input.ReportSuffix)
	cfg.MatrixSuffix = strings.TrimSpace(input.MatrixSuffix)
	return nil
}

// processMetricSpecs merges config-file queries over the presets.
// A custom query with a preset name replaces that preset.
func processMetricSpecs(cfg *Config, input *ConfigRawInput) error {
	specs := DefaultMetricSpecs()
	seen := make(map[string]bool, len(input.Metrics))
	for i, raw := range input.Metrics {
		spec, err := normalizeMetricSpec(raw)
		if err != nil {
			return fmt.Errorf("invalid metric #%d: %w", i+1, err)
		}
		if seen[spec.Name] {
			return fmt.Errorf("duplicate metric name '%s'", spec.Name)
		}
		seen[spec.Name] = true

		idx := slices.IndexFunc(specs, func(s schema.MetricSpec) bool { return s.Name == spec.Name })
		if idx >= 0 {
			specs[idx] = spec
		} else {
			specs = append(specs, spec)
		}
	}
	cfg.Metrics = specs
	return nil
}

// normalizeMetricSpec validates one configured query and applies defaults.
func normalizeMetricSpec(raw schema.MetricSpec) (schema.MetricSpec, error) {
	spec := schema.MetricSpec{
		Name:   strings.TrimSpace(raw.Name),
		Marker: raw.Marker,
		Source: schema.MetricSource(strings.ToLower(strings.TrimSpace(string(raw.Source)))),
	}
	if spec.Name == "" {
		return spec, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(spec.Marker) == "" {
		return spec, fmt.Errorf("marker is required for '%s'", spec.Name)
	}
	mode := raw.Mode
	if mode == "" {
		mode = string(extract.SingleRequired)
	}
	card, err := extract.ParseCardinality(mode)
	if err != nil {
		return spec, fmt.Errorf("metric '%s': %w", spec.Name, err)
	}
	spec.Mode = string(card)
	if spec.Source == "" {
		spec.Source = schema.ReportSource
	}
	if _, ok := schema.ValidMetricSources[spec.Source]; !ok {
		return spec, fmt.Errorf("invalid source '%s' for '%s'. must be report, log", raw.Source, spec.Name)
	}
	return spec, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
