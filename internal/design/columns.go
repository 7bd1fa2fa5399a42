// Package design prepares warehouse schemas for upstream relations: it
// introspects source columns, resolves their types through the rule table,
// and assembles the CREATE TABLE DDL, extraction COPY statement, staging
// file schema, and table design documents consumed downstream.
package design

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx used for catalog introspection; both
// *pgx.Conn and *pgxpool.Pool satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Column is one source column as reported by the catalog.
type Column struct {
	Name       string
	SourceType string
	NotNull    bool
}

// FetchColumns retrieves the column definitions for one source relation,
// in attribute order, skipping system and dropped columns.
func FetchColumns(ctx context.Context, q Querier, schemaName, tableName string) ([]Column, error) {
	rows, err := q.Query(ctx, `
		SELECT ca.attname,
		       pg_catalog.format_type(ca.atttypid, ca.atttypmod),
		       ca.attnotnull
		  FROM pg_catalog.pg_attribute AS ca
		  JOIN pg_catalog.pg_class AS cls ON ca.attrelid = cls.oid
		  JOIN pg_catalog.pg_namespace AS ns ON cls.relnamespace = ns.oid
		 WHERE ca.attnum > 0
		   AND NOT ca.attisdropped
		   AND ns.nspname = $1
		   AND cls.relname = $2
		 ORDER BY ca.attnum`,
		schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schemaName, tableName, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.SourceType, &c.NotNull); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("relation %s.%s has no columns (does it exist?)", schemaName, tableName)
	}
	return cols, nil
}

// FetchTables lists ordinary tables and materialized views in a source
// schema, skipping tmp-prefixed scratch relations.
func FetchTables(ctx context.Context, q Querier, schemaName string) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT cls.relname
		  FROM pg_catalog.pg_class AS cls
		  JOIN pg_catalog.pg_namespace AS nsp ON cls.relnamespace = nsp.oid
		 WHERE cls.relname NOT LIKE 'tmp%'
		   AND cls.relkind IN ('r', 'm')
		   AND nsp.nspname = $1
		 ORDER BY cls.relname`,
		schemaName)
	if err != nil {
		return nil, fmt.Errorf("query tables in %s: %w", schemaName, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return tables, nil
}
