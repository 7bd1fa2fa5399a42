package design

import (
	"fmt"
	"strings"

	"github.com/gyeh/dwload/internal/typemap"
)

// Format options for the staging CSV written by the extraction COPY.
const csvWriteFormat = `FORMAT csv, HEADER true, NULL '\N'`

// AssembleDDL returns the CREATE TABLE statement for the warehouse-side
// relation with resolved column types.
func AssembleDDL(tableName string, cols []ResolvedColumn) string {
	lines := make([]string, 0, len(cols))
	for _, c := range cols {
		line := fmt.Sprintf("%s %s", typemap.QuoteIdent(c.Name), c.TargetType)
		if c.NotNull {
			line += " NOT NULL"
		}
		lines = append(lines, "    "+line)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", tableName, strings.Join(lines, ",\n"))
}

// CopyStatement returns the COPY statement text that extracts the relation
// with each column already converted to its warehouse type. The statement
// is never executed here; the extraction executor owns that.
func CopyStatement(tableName string, cols []ResolvedColumn, rowLimit int) string {
	selects := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.AsIs {
			selects = append(selects, typemap.QuoteIdent(c.Name))
		} else {
			selects = append(selects, fmt.Sprintf("%s AS %s", c.Expr, typemap.QuoteIdent(c.Name)))
		}
	}
	limit := ""
	if rowLimit > 0 {
		limit = fmt.Sprintf("LIMIT %d", rowLimit)
	}
	return fmt.Sprintf("COPY (SELECT %s\n  FROM %s\n%s) TO STDOUT WITH (%s)",
		strings.Join(selects, ",\n"), tableName, limit, csvWriteFormat)
}
