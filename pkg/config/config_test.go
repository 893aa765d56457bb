package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/burnout"
	"github.com/panbanda/chronicle/pkg/analyzer/ownership"
	"github.com/panbanda/chronicle/pkg/analyzer/risk"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ownership.DefaultOptions().Window, cfg.OwnershipOptions().Window)
	assert.Equal(t, 3, cfg.Ownership.ChangeThreshold)
	assert.Equal(t, 22, cfg.Burnout.OffHoursStart)
	assert.Equal(t, 6, cfg.Burnout.OffHoursEnd)
	assert.Equal(t, 5, cfg.Burnout.MinCommits)
	assert.Equal(t, 1.5, cfg.Complexity.GrowthThreshold)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "chronicle.toml", `
[ownership]
window_days = 7
change_threshold = 2

[burnout]
off_hours_start = 20
off_hours_end = 7
timezone = "UTC"

[complexity.thresholds]
refactor_increase = 8

[output]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 7*24*time.Hour, cfg.OwnershipOptions().Window)
	assert.Equal(t, 2, cfg.Ownership.ChangeThreshold)
	assert.Equal(t, 8, cfg.Complexity.Thresholds.RefactorIncrease)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Complexity.Thresholds.SignificantIncrease)
	assert.Equal(t, 0.3, cfg.Ownership.RapidPenalty)
	assert.Equal(t, "json", cfg.Output.Format)

	bo, err := cfg.BurnoutOptions()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, bo.Location)
	assert.True(t, bo.IsOffHours(21))
}

func TestLoad_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	y := writeFile(t, dir, "c.yaml", "risk:\n  trend_boost: 3\n")
	cfg, err := Load(y)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Risk.TrendBoost)

	j := writeFile(t, dir, "c.json", `{"history": {"since_days": 30, "workers": 2}}`)
	cfg, err = Load(j)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.History.SinceDays)
	assert.Equal(t, 2, cfg.History.Workers)
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown key", "[ownership]\nwindo_days = 3\n", "ownership"},
		{"hour out of range", "[burnout]\noff_hours_start = 25\n", "burnout.off_hours_start"},
		{"negative window", "[ownership]\nwindow_days = -1\n", "ownership.window_days"},
		{"wrong type", "[risk]\nchurn_weight = \"heavy\"\n", "risk.churn_weight"},
		{"unknown format", "[output]\nformat = \"png\"\n", "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "chronicle.toml", tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, analyzer.ErrInvalidConfig))

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, path, cerr.Source)
			assert.Contains(t, cerr.Fields, tt.field)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, analyzer.ErrInvalidConfig))
}

func TestValidate_SemanticErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"ownership weights", func(c *Config) { c.Ownership.Weights.Authors = 0.9 }, "ownership"},
		{"burnout weights", func(c *Config) { c.Burnout.WeekendWeight = 0.9 }, "burnout"},
		{"risk thresholds", func(c *Config) { c.Risk.MediumThreshold = 9 }, "risk"},
		{"bad pattern", func(c *Config) { c.Complexity.DeclarationPatterns = []string{`func (\w+)`} }, "complexity.declaration_patterns"},
		{"unknown zone", func(c *Config) { c.Burnout.Timezone = "Mars/Olympus" }, "burnout.timezone"},
		{"negative since", func(c *Config) { c.History.SinceDays = -1 }, "history.since_days"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"github rate", func(c *Config) { c.GitHub.Enabled = true; c.GitHub.RequestsPerSecond = 0 }, "github.requests_per_second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, analyzer.ErrInvalidConfig)

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, []string{tt.field}, cerr.Fields)
		})
	}
}

func TestLoadConfig_Discovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".chronicle/chronicle.toml", "[output]\ntop = 5\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(EnvConfigPath, "")

	res, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".chronicle", "chronicle.toml"), res.Source)
	assert.Equal(t, 5, res.Config.Output.Top)
}

func TestLoadConfig_EnvAndExplicitPath(t *testing.T) {
	dir := t.TempDir()
	fromEnv := writeFile(t, dir, "env.toml", "[output]\ntop = 7\n")
	explicit := writeFile(t, dir, "explicit.toml", "[output]\ntop = 9\n")
	t.Setenv(EnvConfigPath, fromEnv)

	res, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, res.Config.Output.Top)

	res, err = LoadConfig(WithPath(explicit))
	require.NoError(t, err)
	assert.Equal(t, 9, res.Config.Output.Top)
	assert.Equal(t, explicit, res.Source)
}

func TestLoadConfig_RejectsInvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.toml", "[risk]\nchurn_weight = 0.9\n")
	_, err := LoadConfig(WithPath(path))
	assert.ErrorIs(t, err, analyzer.ErrInvalidConfig)
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, risk.DefaultOptions().CandidateChurn, cfg.RiskOptions().CandidateChurn)
	bo, err := cfg.BurnoutOptions()
	require.NoError(t, err)
	assert.Nil(t, bo.Location)
	assert.Equal(t, burnout.DefaultOptions().OffHoursWeight, bo.OffHoursWeight)

	to, err := cfg.TrendOptions(nil)
	require.NoError(t, err)
	assert.NotNil(t, to.Differ)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
}

func TestTrendOptions_SharesLogger(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	to, err := DefaultConfig().TrendOptions(logger)
	require.NoError(t, err)
	assert.Equal(t, logrus.FieldLogger(logger), to.Logger)

	// a malformed hunk header makes the differ fall back to raw hunks
	to.Differ.SplitHunks("--- a/x.go\n+++ b/x.go\n@@ not a range @@\n+x\n")
	require.NotEmpty(t, hook.AllEntries())
	assert.Contains(t, hook.LastEntry().Message, "not a multi-file unified diff")
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		path string
		want bool
	}{
		{"vendor/github.com/x/y.go", true},
		{"web/node_modules/react/index.js", true},
		{"go.sum", true},
		{"static/app.min.js", true},
		{"pkg/analyzer/risk/risk.go", false},
		{"vendored.go", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ShouldExclude(tt.path))
		})
	}
}
