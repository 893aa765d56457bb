// Package config loads chronicle configuration from TOML, YAML or JSON files
// and converts it into analyzer options.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/pkg/analyzer/burnout"
	"github.com/panbanda/chronicle/pkg/analyzer/funcdiff"
	"github.com/panbanda/chronicle/pkg/analyzer/ownership"
	"github.com/panbanda/chronicle/pkg/analyzer/risk"
	"github.com/panbanda/chronicle/pkg/analyzer/satd"
	"github.com/panbanda/chronicle/pkg/analyzer/trend"
)

// EnvConfigPath names an explicit config file when set.
const EnvConfigPath = "CHRONICLE_CONFIG"

// Config holds all configuration options for chronicle.
type Config struct {
	History    HistoryConfig    `koanf:"history" toml:"history"`
	Complexity ComplexityConfig `koanf:"complexity" toml:"complexity"`
	Ownership  OwnershipConfig  `koanf:"ownership" toml:"ownership"`
	Burnout    BurnoutConfig    `koanf:"burnout" toml:"burnout"`
	Risk       RiskConfig       `koanf:"risk" toml:"risk"`
	Todos      TodoConfig       `koanf:"todos" toml:"todos"`
	GitHub     GitHubConfig     `koanf:"github" toml:"github"`
	Cache      CacheConfig      `koanf:"cache" toml:"cache"`
	Exclude    ExcludeConfig    `koanf:"exclude" toml:"exclude"`
	Output     OutputConfig     `koanf:"output" toml:"output"`
}

// HistoryConfig bounds the commit history read from the repository.
type HistoryConfig struct {
	SinceDays  int    `koanf:"since_days" toml:"since_days"` // 0 reads the full history
	MaxCommits int    `koanf:"max_commits" toml:"max_commits"`
	Branch     string `koanf:"branch" toml:"branch"`
	Workers    int    `koanf:"workers" toml:"workers"`
}

// ComplexityConfig controls the complexity differ and trend tracker.
type ComplexityConfig struct {
	GrowthThreshold     float64             `koanf:"growth_threshold" toml:"growth_threshold"`
	DiffContext         int                 `koanf:"diff_context" toml:"diff_context"`
	DeclarationPatterns []string            `koanf:"declaration_patterns" toml:"declaration_patterns"`
	Thresholds          funcdiff.Thresholds `koanf:"thresholds" toml:"thresholds"`
}

// OwnershipConfig controls ownership drift detection.
type OwnershipConfig struct {
	WindowDays      float64                    `koanf:"window_days" toml:"window_days"`
	ChangeThreshold int                        `koanf:"change_threshold" toml:"change_threshold"`
	MinCommits      int                        `koanf:"min_commits" toml:"min_commits"`
	Weights         ownership.StabilityWeights `koanf:"weights" toml:"weights"`
	RapidPenalty    float64                    `koanf:"rapid_penalty" toml:"rapid_penalty"`
	DurationCapDays float64                    `koanf:"duration_cap_days" toml:"duration_cap_days"`
	HighThreshold   float64                    `koanf:"high_threshold" toml:"high_threshold"`
	MediumThreshold float64                    `koanf:"medium_threshold" toml:"medium_threshold"`
}

// BurnoutConfig controls author burnout scoring.
type BurnoutConfig struct {
	OffHoursStart   int     `koanf:"off_hours_start" toml:"off_hours_start"`
	OffHoursEnd     int     `koanf:"off_hours_end" toml:"off_hours_end"`
	MinCommits      int     `koanf:"min_commits" toml:"min_commits"`
	OffHoursWeight  float64 `koanf:"off_hours_weight" toml:"off_hours_weight"`
	WeekendWeight   float64 `koanf:"weekend_weight" toml:"weekend_weight"`
	HighThreshold   float64 `koanf:"high_threshold" toml:"high_threshold"`
	MediumThreshold float64 `koanf:"medium_threshold" toml:"medium_threshold"`
	// Timezone is an IANA name. Empty uses each commit's own offset.
	Timezone string `koanf:"timezone" toml:"timezone"`
}

// RiskConfig controls file and function risk scoring.
type RiskConfig struct {
	ChurnWeight         float64 `koanf:"churn_weight" toml:"churn_weight"`
	ComplexityWeight    float64 `koanf:"complexity_weight" toml:"complexity_weight"`
	TrendBoost          float64 `koanf:"trend_boost" toml:"trend_boost"`
	ChurnDivisor        float64 `koanf:"churn_divisor" toml:"churn_divisor"`
	ComplexityDivisor   float64 `koanf:"complexity_divisor" toml:"complexity_divisor"`
	HighThreshold       float64 `koanf:"high_threshold" toml:"high_threshold"`
	MediumThreshold     float64 `koanf:"medium_threshold" toml:"medium_threshold"`
	CandidateComposite  float64 `koanf:"candidate_composite" toml:"candidate_composite"`
	CandidateComplexity float64 `koanf:"candidate_complexity" toml:"candidate_complexity"`
	CandidateChurn      float64 `koanf:"candidate_churn" toml:"candidate_churn"`
}

// TodoConfig controls the TODO inventory.
type TodoConfig struct {
	Enabled   bool `koanf:"enabled" toml:"enabled"`
	StaleDays int  `koanf:"stale_days" toml:"stale_days"`
	Strict    bool `koanf:"strict" toml:"strict"`
}

// GitHubConfig controls pull request enrichment. The token is read from
// GITHUB_TOKEN and never stored in config.
type GitHubConfig struct {
	Enabled           bool    `koanf:"enabled" toml:"enabled"`
	Owner             string  `koanf:"owner" toml:"owner"`
	Repo              string  `koanf:"repo" toml:"repo"`
	BaseURL           string  `koanf:"base_url" toml:"base_url"`
	RequestsPerSecond float64 `koanf:"requests_per_second" toml:"requests_per_second"`
	Concurrency       int     `koanf:"concurrency" toml:"concurrency"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Backend string `koanf:"backend" toml:"backend"` // file, bolt, memory
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
	Top     int    `koanf:"top" toml:"top"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	own := ownership.DefaultOptions()
	burn := burnout.DefaultOptions()
	rk := risk.DefaultOptions()

	return &Config{
		History: HistoryConfig{
			SinceDays: 365,
		},
		Complexity: ComplexityConfig{
			GrowthThreshold: trend.DefaultGrowthThreshold,
			DiffContext:     3,
			Thresholds:      funcdiff.DefaultThresholds(),
		},
		Ownership: OwnershipConfig{
			WindowDays:      own.Window.Hours() / 24,
			ChangeThreshold: own.ChangeThreshold,
			MinCommits:      own.MinCommits,
			Weights:         own.Weights,
			RapidPenalty:    own.RapidPenalty,
			DurationCapDays: own.DurationCapDays,
			HighThreshold:   own.HighThreshold,
			MediumThreshold: own.MediumThreshold,
		},
		Burnout: BurnoutConfig{
			OffHoursStart:   burn.OffHoursStart,
			OffHoursEnd:     burn.OffHoursEnd,
			MinCommits:      burn.MinCommits,
			OffHoursWeight:  burn.OffHoursWeight,
			WeekendWeight:   burn.WeekendWeight,
			HighThreshold:   burn.HighThreshold,
			MediumThreshold: burn.MediumThreshold,
		},
		Risk: RiskConfig{
			ChurnWeight:         rk.ChurnWeight,
			ComplexityWeight:    rk.ComplexityWeight,
			TrendBoost:          rk.TrendBoost,
			ChurnDivisor:        rk.ChurnDivisor,
			ComplexityDivisor:   rk.ComplexityDivisor,
			HighThreshold:       rk.HighThreshold,
			MediumThreshold:     rk.MediumThreshold,
			CandidateComposite:  rk.CandidateComposite,
			CandidateComplexity: rk.CandidateComplexity,
			CandidateChurn:      rk.CandidateChurn,
		},
		Todos: TodoConfig{
			Enabled:   true,
			StaleDays: satd.DefaultStaleDays,
		},
		GitHub: GitHubConfig{
			RequestsPerSecond: 10,
			Concurrency:       4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "file",
			Dir:     ".chronicle/cache",
			TTL:     24,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".chronicle",
				"dist",
				"build",
				"__pycache__",
			},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
			Top:    20,
		},
	}
}

// LoadResult is a loaded configuration and where it came from. Source is
// empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath loads an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// Standard config file names, searched in the current directory and in
// .chronicle/.
var configNames = []string{
	"chronicle.toml",
	"chronicle.yaml",
	"chronicle.yml",
	"chronicle.json",
	".chronicle.toml",
	".chronicle.yaml",
	".chronicle.yml",
	".chronicle.json",
}

// LoadConfig loads, schema-checks and validates configuration. The path is
// taken from WithPath, then CHRONICLE_CONFIG, then the standard locations.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.path == "" {
		o.path = os.Getenv(EnvConfigPath)
	}
	if o.path == "" {
		o.path = findConfig()
	}

	if o.path == "" {
		cfg := DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg}, nil
	}

	cfg, err := Load(o.path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: o.path}, nil
}

func findConfig() string {
	for _, dir := range []string{".", ".chronicle"} {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Load loads configuration from a file over the defaults and checks it
// against the schema. Semantic checks are left to Validate.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}

	if err := validateSchema(path, k.Raw()); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns
// defaults when nothing usable is found.
func LoadOrDefault() *Config {
	res, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	path = filepath.ToSlash(path)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

// TrendOptions converts the complexity settings. Declaration patterns must
// already be valid; see Validate. The logger is shared by the trend analyzer
// and its differ; nil discards.
func (c *Config) TrendOptions(logger logrus.FieldLogger) (trend.Options, error) {
	patterns, err := funcdiff.CompilePatterns(c.Complexity.DeclarationPatterns)
	if err != nil {
		return trend.Options{}, err
	}
	return trend.Options{
		GrowthThreshold: c.Complexity.GrowthThreshold,
		Differ: funcdiff.New(
			funcdiff.WithThresholds(c.Complexity.Thresholds),
			funcdiff.WithDeclarations(patterns),
			funcdiff.WithLogger(logger),
		),
		Exclude: c.ShouldExclude,
		Logger:  logger,
	}, nil
}

// OwnershipOptions converts the ownership settings.
func (c *Config) OwnershipOptions() ownership.Options {
	return ownership.Options{
		Window:          time.Duration(c.Ownership.WindowDays * float64(24*time.Hour)),
		ChangeThreshold: c.Ownership.ChangeThreshold,
		MinCommits:      c.Ownership.MinCommits,
		Weights:         c.Ownership.Weights,
		RapidPenalty:    c.Ownership.RapidPenalty,
		DurationCapDays: c.Ownership.DurationCapDays,
		HighThreshold:   c.Ownership.HighThreshold,
		MediumThreshold: c.Ownership.MediumThreshold,
	}
}

// BurnoutOptions converts the burnout settings.
func (c *Config) BurnoutOptions() (burnout.Options, error) {
	o := burnout.Options{
		OffHoursStart:   c.Burnout.OffHoursStart,
		OffHoursEnd:     c.Burnout.OffHoursEnd,
		MinCommits:      c.Burnout.MinCommits,
		OffHoursWeight:  c.Burnout.OffHoursWeight,
		WeekendWeight:   c.Burnout.WeekendWeight,
		HighThreshold:   c.Burnout.HighThreshold,
		MediumThreshold: c.Burnout.MediumThreshold,
	}
	if c.Burnout.Timezone != "" {
		loc, err := time.LoadLocation(c.Burnout.Timezone)
		if err != nil {
			return o, invalid("burnout.timezone", err.Error())
		}
		o.Location = loc
	}
	return o, nil
}

// RiskOptions converts the risk settings.
func (c *Config) RiskOptions() risk.Options {
	return risk.Options{
		ChurnWeight:         c.Risk.ChurnWeight,
		ComplexityWeight:    c.Risk.ComplexityWeight,
		TrendBoost:          c.Risk.TrendBoost,
		ChurnDivisor:        c.Risk.ChurnDivisor,
		ComplexityDivisor:   c.Risk.ComplexityDivisor,
		HighThreshold:       c.Risk.HighThreshold,
		MediumThreshold:     c.Risk.MediumThreshold,
		CandidateComposite:  c.Risk.CandidateComposite,
		CandidateComplexity: c.Risk.CandidateComplexity,
		CandidateChurn:      c.Risk.CandidateChurn,
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Hour
}
