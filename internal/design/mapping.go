package design

import (
	"github.com/gyeh/dwload/internal/typemap"
)

// Synthetic id column values, injected when the source relation has no id
// column of its own. Every warehouse table is expected to carry an id
// column usable as its primary key.
const (
	missingSourceType = "<missing>"
	idExpression      = "row_number() OVER()"
)

// ResolvedColumn is one column after type resolution: the warehouse type,
// the SQL expression that produces it from the source row, and the staging
// serialization format.
type ResolvedColumn struct {
	Name       string
	SourceType string
	TargetType string
	Expr       string
	Format     typemap.Format
	NotNull    bool
	AsIs       bool
}

// MapColumns resolves every source column through the rule table. Each
// column yields its own independent mapping. If the relation has no "id"
// column, a synthetic numbering column is prepended.
func MapColumns(table *typemap.Table, cols []Column) []ResolvedColumn {
	out := make([]ResolvedColumn, 0, len(cols)+1)
	foundID := false
	for _, c := range cols {
		if c.Name == "id" {
			foundID = true
		}
		m := table.Resolve(c.SourceType)
		out = append(out, ResolvedColumn{
			Name:       c.Name,
			SourceType: c.SourceType,
			TargetType: m.TargetType,
			Expr:       m.Expr(c.Name),
			Format:     m.Format,
			NotNull:    c.NotNull,
			AsIs:       m.AsIs(),
		})
	}
	if !foundID {
		out = append([]ResolvedColumn{{
			Name:       "id",
			SourceType: missingSourceType,
			TargetType: "bigint",
			Expr:       idExpression,
			Format:     typemap.Long,
			NotNull:    true,
		}}, out...)
	}
	return out
}
