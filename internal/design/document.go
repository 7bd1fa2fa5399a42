package design

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk table design: the starting point for warehouse
// table definitions, reviewed and extended by hand afterwards.
type Document struct {
	Name       string        `yaml:"name"`
	SourceName string        `yaml:"source_name"`
	Fields     []FieldDesign `yaml:"fields"`
	Constraints struct {
		PrimaryKey []string `yaml:"primary_key"`
	} `yaml:"table_constraints"`
	Attributes struct {
		Diststyle string   `yaml:"diststyle"`
		Sortkey   []string `yaml:"sortkey"`
	} `yaml:"table_attributes"`
}

// FieldDesign is one column in a design document. Expression is omitted
// for as-is columns; SourceType is omitted when it equals the target type.
type FieldDesign struct {
	Name       string `yaml:"name"`
	SQLType    string `yaml:"sql_type"`
	SourceType string `yaml:"source_sql_type,omitempty"`
	Expression string `yaml:"expression,omitempty"`
	// Type is the serialization format, or [null, format] for nullable
	// columns.
	Type    any  `yaml:"type"`
	NotNull bool `yaml:"not_null"`
}

// NewDocument assembles the design document for one resolved relation.
func NewDocument(sourceName, relation string, cols []ResolvedColumn) *Document {
	doc := &Document{
		Name:       fmt.Sprintf("%s.%s", sourceName, relation),
		SourceName: fmt.Sprintf("%s.%s", sourceName, relation),
		Fields:     make([]FieldDesign, 0, len(cols)),
	}
	for _, c := range cols {
		f := FieldDesign{
			Name:    c.Name,
			SQLType: c.TargetType,
			NotNull: c.NotNull,
		}
		if c.SourceType != c.TargetType {
			f.SourceType = c.SourceType
		}
		if !c.AsIs {
			f.Expression = c.Expr
		}
		if c.NotNull {
			f.Type = string(c.Format)
		} else {
			f.Type = []string{"null", string(c.Format)}
		}
		doc.Fields = append(doc.Fields, f)
	}
	doc.Constraints.PrimaryKey = []string{"id"}
	doc.Attributes.Diststyle = "even"
	doc.Attributes.Sortkey = []string{"id"}
	return doc
}

// Write serializes the document as YAML.
func (d *Document) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode table design: %w", err)
	}
	return enc.Close()
}
