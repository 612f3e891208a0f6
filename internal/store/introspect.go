package store

import (
	"context"
	"fmt"

	"crud-admin/internal/logger"
	"crud-admin/internal/metadata"
)

// Introspector reads table metadata from the live database. It implements
// metadata.Provider; wrap it in a metadata.Registry to memoize results.
type Introspector struct {
	q       Querier
	dialect Dialect
	schema  string
}

func NewIntrospector(s *Store) *Introspector {
	return &Introspector{q: s.DB, dialect: s.Dialect, schema: s.schema}
}

// TableSchema implements metadata.Provider.
func (in *Introspector) TableSchema(ctx context.Context, table string) (*metadata.TableSchema, error) {
	ts, err := in.dialect.LoadTable(ctx, in.q, in.schema, table)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	if ts == nil {
		return nil, fmt.Errorf("%w: %s", metadata.ErrUnknownTable, table)
	}

	// Keep only foreign keys that resolve to a single referenced column.
	fks := ts.ForeignKeys[:0]
	for _, fk := range ts.ForeignKeys {
		if fk.ForeignColumnName == "" || !ts.HasColumn(fk.ColumnName) {
			logger.Warn("Skipping unresolvable foreign key %s.%s -> %s", table, fk.ColumnName, fk.ForeignTableName)
			continue
		}
		fks = append(fks, fk)
	}
	ts.ForeignKeys = fks

	if err := ts.Validate(); err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	return ts, nil
}

// ListTables returns the names of all user tables.
func (in *Introspector) ListTables(ctx context.Context) ([]string, error) {
	tables, err := in.dialect.ListTables(ctx, in.q, in.schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}
