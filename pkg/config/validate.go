package config

import (
	"bytes"
	_ "embed"
	encjson "encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/funcdiff"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "chronicle.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// ConfigError reports an unreadable or invalid configuration. Fields lists
// the offending keys when they are known.
type ConfigError struct {
	Source string
	Fields []string
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
	}
	if len(e.Fields) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func invalid(field, msg string) error {
	return &ConfigError{Fields: []string{field}, Err: fmt.Errorf("%w: %s", analyzer.ErrInvalidConfig, msg)}
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// validateSchema checks raw parsed config against the embedded schema.
func validateSchema(source string, raw map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// round-trip through JSON so every number is a json.Number
	data, err := encjson.Marshal(raw)
	if err != nil {
		return &ConfigError{Source: source, Err: err}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ConfigError{Source: source, Err: err}
	}

	if err := sch.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		fields := []string{}
		if errors.As(err, &verr) {
			fields = leafLocations(verr)
		}
		return &ConfigError{
			Source: source,
			Fields: fields,
			Err:    fmt.Errorf("%w: %v", analyzer.ErrInvalidConfig, err),
		}
	}
	return nil
}

func leafLocations(verr *jsonschema.ValidationError) []string {
	seen := make(map[string]bool)
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			seen[strings.Join(e.InstanceLocation, ".")] = true
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)

	out := make([]string, 0, len(seen))
	for loc := range seen {
		if loc == "" {
			loc = "(root)"
		}
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// Validate checks semantic constraints the schema cannot express: weights
// summing to one, ordered thresholds, compilable patterns, known time zones.
// Every error wraps analyzer.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.History.SinceDays < 0 {
		return invalid("history.since_days", "must not be negative")
	}
	if c.History.MaxCommits < 0 {
		return invalid("history.max_commits", "must not be negative")
	}
	if c.History.Workers < 0 {
		return invalid("history.workers", "must not be negative")
	}
	if c.Complexity.DiffContext < 0 {
		return invalid("complexity.diff_context", "must not be negative")
	}
	if err := c.Complexity.Thresholds.Validate(); err != nil {
		return &ConfigError{Fields: []string{"complexity.thresholds"}, Err: err}
	}
	if _, err := funcdiff.CompilePatterns(c.Complexity.DeclarationPatterns); err != nil {
		return &ConfigError{Fields: []string{"complexity.declaration_patterns"}, Err: err}
	}
	to, err := c.TrendOptions(nil)
	if err != nil {
		return &ConfigError{Fields: []string{"complexity"}, Err: err}
	}
	if err := to.Validate(); err != nil {
		return &ConfigError{Fields: []string{"complexity.growth_threshold"}, Err: err}
	}
	if err := c.OwnershipOptions().Validate(); err != nil {
		return &ConfigError{Fields: []string{"ownership"}, Err: err}
	}
	bo, err := c.BurnoutOptions()
	if err != nil {
		return err
	}
	if err := bo.Validate(); err != nil {
		return &ConfigError{Fields: []string{"burnout"}, Err: err}
	}
	if err := c.RiskOptions().Validate(); err != nil {
		return &ConfigError{Fields: []string{"risk"}, Err: err}
	}
	if c.Todos.StaleDays < 1 {
		return invalid("todos.stale_days", "must be at least 1")
	}
	if c.GitHub.Enabled {
		if c.GitHub.RequestsPerSecond <= 0 {
			return invalid("github.requests_per_second", "must be positive")
		}
		if c.GitHub.Concurrency < 1 {
			return invalid("github.concurrency", "must be at least 1")
		}
	}
	switch c.Cache.Backend {
	case "file", "bolt", "memory":
	default:
		return invalid("cache.backend", fmt.Sprintf("unknown backend %q", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		return invalid("cache.ttl", "must not be negative")
	}
	switch c.Output.Format {
	case "text", "json", "markdown", "toon", "yaml":
	default:
		return invalid("output.format", fmt.Sprintf("unknown format %q", c.Output.Format))
	}
	return nil
}
