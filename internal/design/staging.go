package design

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/dwload/internal/typemap"
)

// StagingSchema builds the Parquet schema for a relation's staging files.
// Leaf types follow each column's serialization format; nullable columns
// become optional leaves.
func StagingSchema(relation string, cols []ResolvedColumn) (*parquet.Schema, error) {
	group := parquet.Group{}
	for _, c := range cols {
		node, err := formatNode(c.Format)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		if !c.NotNull {
			node = parquet.Optional(node)
		}
		group[c.Name] = node
	}
	return parquet.NewSchema(relation, group), nil
}

func formatNode(f typemap.Format) (parquet.Node, error) {
	switch f {
	case typemap.Boolean:
		return parquet.Leaf(parquet.BooleanType), nil
	case typemap.Int:
		return parquet.Int(32), nil
	case typemap.Long:
		return parquet.Int(64), nil
	case typemap.Float:
		return parquet.Leaf(parquet.FloatType), nil
	case typemap.Double:
		return parquet.Leaf(parquet.DoubleType), nil
	case typemap.String:
		return parquet.String(), nil
	}
	return nil, fmt.Errorf("no parquet node for serialization format %q", f)
}
