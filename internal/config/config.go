// Package config loads the dwload settings file: the ordered type rule
// catalog and the per-stage retry budgets. All validation happens here, at
// load time; a malformed settings file means the pipeline must not start.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/dwload/internal/typemap"
)

// Config holds all runtime configuration for a dwload run.
type Config struct {
	DSN          string
	SettingsPath string
	LogFormat    string // "text" or "json"
	OutDir       string
	Listen       string

	rules *typemap.Table
	retry RetryPolicy
}

// RetryPolicy is the per-stage retry budget: the number of additional
// attempts after the first failure, per stage. Zero disables retries for a
// stage. The policy defines the budget only; counting attempts against it
// is the stage executor's job.
type RetryPolicy struct {
	ExtractRetries    int
	CopyDataRetries   int
	InsertDataRetries int
}

// settingsFile is the on-disk YAML structure. The rule mappings are kept as
// raw nodes so that their declaration order survives decoding: the catalog
// is matched first-rule-wins, so order is load-bearing.
type settingsFile struct {
	AsIs    yaml.Node `yaml:"as_is_att_type"`
	Cast    yaml.Node `yaml:"cast_needed_att_type"`
	Default []string  `yaml:"default_att_type"`
	Retry   *struct {
		ExtractRetries    *int `yaml:"extract_retries"`
		CopyDataRetries   *int `yaml:"copy_data_retries"`
		InsertDataRetries *int `yaml:"insert_data_retries"`
	} `yaml:"retry"`
}

// LoadFromFile reads the settings YAML and builds the validated rule table
// and retry policy. Any malformed entry fails the load; no resolver is
// available afterwards.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}
	var sf settingsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse settings file: %w", err)
	}

	rules, err := parseRules(&sf)
	if err != nil {
		return err
	}
	def, err := parseDefault(sf.Default)
	if err != nil {
		return err
	}
	table, err := typemap.NewTable(rules, def)
	if err != nil {
		return fmt.Errorf("rule table: %w", err)
	}

	retry, err := parseRetry(&sf)
	if err != nil {
		return err
	}

	c.rules = table
	c.retry = retry
	return nil
}

// parseRules walks the two rule mappings in declaration order. As-is rules
// are listed before cast rules, matching how the source catalog is probed.
func parseRules(sf *settingsFile) ([]typemap.Rule, error) {
	var rules []typemap.Rule

	err := eachMappingEntry(&sf.AsIs, "as_is_att_type", func(pattern string, value *yaml.Node) error {
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("as_is_att_type %q: value must be a serialization format name", pattern)
		}
		format, err := typemap.ParseFormat(value.Value)
		if err != nil {
			return fmt.Errorf("as_is_att_type %q: %w", pattern, err)
		}
		rule, err := typemap.NewAsIsRule(pattern, format)
		if err != nil {
			return fmt.Errorf("as_is_att_type: %w", err)
		}
		rules = append(rules, rule)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachMappingEntry(&sf.Cast, "cast_needed_att_type", func(pattern string, value *yaml.Node) error {
		var triple []string
		if err := value.Decode(&triple); err != nil {
			return fmt.Errorf("cast_needed_att_type %q: %w", pattern, err)
		}
		if len(triple) != 3 {
			return fmt.Errorf("cast_needed_att_type %q: want [target_type, cast_template, format], got %d element(s)", pattern, len(triple))
		}
		format, err := typemap.ParseFormat(triple[2])
		if err != nil {
			return fmt.Errorf("cast_needed_att_type %q: %w", pattern, err)
		}
		rule, err := typemap.NewCastRule(pattern, triple[0], triple[1], format)
		if err != nil {
			return fmt.Errorf("cast_needed_att_type: %w", err)
		}
		rules = append(rules, rule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func parseDefault(triple []string) (typemap.Rule, error) {
	if len(triple) == 0 {
		return typemap.Rule{}, fmt.Errorf("default_att_type is required")
	}
	if len(triple) != 3 {
		return typemap.Rule{}, fmt.Errorf("default_att_type: want [target_type, cast_template, format], got %d element(s)", len(triple))
	}
	format, err := typemap.ParseFormat(triple[2])
	if err != nil {
		return typemap.Rule{}, fmt.Errorf("default_att_type: %w", err)
	}
	return typemap.NewDefaultRule(triple[0], triple[1], format)
}

// parseRetry requires the retry section and all three counters to be
// explicitly present. Zero means fail-on-first-error, which is distinct
// from "not configured"; nothing here is defaulted silently.
func parseRetry(sf *settingsFile) (RetryPolicy, error) {
	r := sf.Retry
	if r == nil {
		return RetryPolicy{}, fmt.Errorf("retry section is required")
	}
	counters := []struct {
		name  string
		value *int
	}{
		{"extract_retries", r.ExtractRetries},
		{"copy_data_retries", r.CopyDataRetries},
		{"insert_data_retries", r.InsertDataRetries},
	}
	for _, c := range counters {
		if c.value == nil {
			return RetryPolicy{}, fmt.Errorf("retry.%s is required", c.name)
		}
		if *c.value < 0 {
			return RetryPolicy{}, fmt.Errorf("retry.%s must be non-negative, got %d", c.name, *c.value)
		}
	}
	return RetryPolicy{
		ExtractRetries:    *r.ExtractRetries,
		CopyDataRetries:   *r.CopyDataRetries,
		InsertDataRetries: *r.InsertDataRetries,
	}, nil
}

// eachMappingEntry visits a YAML mapping's entries in declaration order.
// An absent section is fine and visits nothing.
func eachMappingEntry(node *yaml.Node, section string, fn func(key string, value *yaml.Node) error) error {
	if node.IsZero() {
		return nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s must be a mapping", section)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if err := fn(key.Value, value); err != nil {
			return err
		}
	}
	return nil
}

// Rules returns the validated rule table, or nil before LoadFromFile
// succeeds.
func (c *Config) Rules() *typemap.Table { return c.rules }

// Retry returns the per-stage retry budgets loaded from the settings file.
func (c *Config) Retry() RetryPolicy { return c.retry }

// Validate checks that a settings file was named and exists.
func (c *Config) Validate() error {
	if c.SettingsPath == "" {
		return fmt.Errorf("--config is required")
	}
	if _, err := os.Stat(c.SettingsPath); err != nil {
		return fmt.Errorf("settings file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks both the settings file and the DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}
