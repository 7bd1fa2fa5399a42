// Package typemap resolves source column types to warehouse column types,
// cast expressions, and staging-file serialization formats.
//
// The rule catalog is an ordered list: the first rule whose pattern matches
// the source type string wins, so catalog order is a semantic property of
// the configuration, not an implementation detail. Patterns always match
// the whole type string (a bare `numeric` pattern never matches
// `numeric(18,4)`).
package typemap

import (
	"fmt"
	"regexp"
	"strings"
)

// Format is the primitive wire type used when a column's values are written
// into the intermediate staging files.
type Format string

const (
	Boolean Format = "boolean"
	Int     Format = "int"
	Long    Format = "long"
	Float   Format = "float"
	Double  Format = "double"
	String  Format = "string"
)

var knownFormats = []Format{Boolean, Int, Long, Float, Double, String}

// ParseFormat returns the Format for its configuration name.
func ParseFormat(name string) (Format, error) {
	for _, f := range knownFormats {
		if name == string(f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown serialization format %q", name)
}

// CastTemplate pairs a raw cast template with its validated substitution.
// A template holds exactly one %s slot that receives the quoted source
// column reference, e.g. "%s::varchar(10000)".
type CastTemplate struct {
	raw string
}

// NewCastTemplate validates that the template carries exactly one
// substitution slot. Zero or multiple slots is a configuration error and is
// rejected here, at load time, rather than surfacing at first resolution.
func NewCastTemplate(raw string) (CastTemplate, error) {
	verbs := strings.Count(raw, "%")
	slots := strings.Count(raw, "%s")
	if slots != 1 || verbs != 1 {
		return CastTemplate{}, fmt.Errorf("cast template %q must contain exactly one %%s placeholder", raw)
	}
	return CastTemplate{raw: raw}, nil
}

// Render substitutes the quoted column reference into the template.
func (t CastTemplate) Render(columnRef string) string {
	return strings.Replace(t.raw, "%s", columnRef, 1)
}

// String returns the raw template text.
func (t CastTemplate) String() string { return t.raw }

// Rule is one entry in the catalog. A nil pattern marks the default rule,
// which only the table constructor may produce.
type Rule struct {
	pattern    *regexp.Regexp
	source     string // pattern as written in the configuration
	asIs       bool
	targetType string // empty for as-is rules: target is the source type
	cast       CastTemplate
	format     Format
}

// compile anchors the pattern to the whole type string. The source
// configuration left anchoring ambiguous for cast rules; we settle on
// full-string matching for every pattern.
func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return re, nil
}

// NewAsIsRule builds a rule for types the warehouse accepts unchanged.
// The resolved target type is the source type itself; only the
// serialization format is attached.
func NewAsIsRule(pattern string, format Format) (Rule, error) {
	re, err := compile(pattern)
	if err != nil {
		return Rule{}, err
	}
	return Rule{pattern: re, source: pattern, asIs: true, format: format}, nil
}

// NewCastRule builds a rule for types that need an explicit conversion
// expression to become warehouse-compatible.
func NewCastRule(pattern, targetType, template string, format Format) (Rule, error) {
	re, err := compile(pattern)
	if err != nil {
		return Rule{}, err
	}
	tmpl, err := NewCastTemplate(template)
	if err != nil {
		return Rule{}, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return Rule{pattern: re, source: pattern, targetType: targetType, cast: tmpl, format: format}, nil
}

// NewDefaultRule builds the fallback applied when no pattern matches.
func NewDefaultRule(targetType, template string, format Format) (Rule, error) {
	tmpl, err := NewCastTemplate(template)
	if err != nil {
		return Rule{}, fmt.Errorf("default rule: %w", err)
	}
	return Rule{targetType: targetType, cast: tmpl, format: format}, nil
}

// Pattern returns the pattern as written in the configuration.
func (r Rule) Pattern() string { return r.source }

// Table is the ordered, immutable rule catalog plus its single default
// rule. It is safe for concurrent use once constructed.
type Table struct {
	rules []Rule
	def   Rule
}

// NewTable validates the catalog and returns a resolver over it. Every
// listed rule must carry a pattern; the default rule must not.
func NewTable(rules []Rule, def Rule) (*Table, error) {
	for i, r := range rules {
		if r.pattern == nil {
			return nil, fmt.Errorf("rule %d has no pattern; only the default rule may omit one", i)
		}
	}
	if def.pattern != nil {
		return nil, fmt.Errorf("default rule must not carry a pattern (got %q)", def.source)
	}
	if def.cast == (CastTemplate{}) {
		return nil, fmt.Errorf("missing default rule")
	}
	t := &Table{rules: make([]Rule, len(rules)), def: def}
	copy(t.rules, rules)
	return t, nil
}

// Len returns the number of declared rules, excluding the default.
func (t *Table) Len() int { return len(t.rules) }

// Mapping is the resolution outcome for one source type. It is an
// immutable value; each column produces its own instance.
type Mapping struct {
	TargetType string
	Format     Format

	asIs bool
	cast CastTemplate
}

// AsIs reports whether the source value passes through without a cast.
func (m Mapping) AsIs() bool { return m.asIs }

// Expr returns the SQL expression producing the target type from the named
// source column. For as-is mappings this is the quoted column reference
// unchanged.
func (m Mapping) Expr(column string) string {
	ref := QuoteIdent(column)
	if m.asIs {
		return ref
	}
	return m.cast.Render(ref)
}

// Resolve maps a source type string to its warehouse mapping. It is total:
// rules are tried in catalog order, the first match wins, and the default
// rule applies when nothing matches. Resolution is a pure function of the
// table and its input.
func (t *Table) Resolve(sourceType string) Mapping {
	for _, r := range t.rules {
		if !r.pattern.MatchString(sourceType) {
			continue
		}
		if r.asIs {
			return Mapping{TargetType: sourceType, Format: r.format, asIs: true}
		}
		return Mapping{TargetType: r.targetType, Format: r.format, cast: r.cast}
	}
	return Mapping{TargetType: t.def.targetType, Format: t.def.format, cast: t.def.cast}
}

// QuoteIdent returns the double-quoted SQL identifier for name.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
