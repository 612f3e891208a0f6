package metadata

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTable is returned by a Provider when the requested table does not exist.
var ErrUnknownTable = errors.New("unknown table")

// Provider returns the schema of a table. Implementations must return an error
// wrapping ErrUnknownTable when the table does not exist.
type Provider interface {
	TableSchema(ctx context.Context, table string) (*TableSchema, error)
}

// softDeleteColumns are the column names recognized as a boolean "hidden" flag.
var softDeleteColumns = map[string]bool{
	"esta_borrado": true,
	"deleted":      true,
	"is_deleted":   true,
}

// TableSchema is an immutable snapshot of a table's columns and foreign keys.
type TableSchema struct {
	TableName   string       `json:"table_name"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	PrimaryKey  string       `json:"primary_key,omitempty"` // empty when the table has none
}

type ForeignKey struct {
	ColumnName        string `json:"column_name"`
	ForeignTableName  string `json:"foreign_table_name"`
	ForeignColumnName string `json:"foreign_column_name"`
}

// Column returns a pointer to the column with the given name, or nil.
func (s *TableSchema) Column(name string) *Column {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// HasColumn returns true if the table has a column with the given name.
func (s *TableSchema) HasColumn(name string) bool {
	return s.Column(name) != nil
}

// ColumnNames returns all column names in declared order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ForeignKey returns the foreign key declared on the given column, or nil.
func (s *TableSchema) ForeignKey(column string) *ForeignKey {
	for i := range s.ForeignKeys {
		if s.ForeignKeys[i].ColumnName == column {
			return &s.ForeignKeys[i]
		}
	}
	return nil
}

// HasPrimaryKey reports whether the table declares a single-column primary key.
func (s *TableSchema) HasPrimaryKey() bool {
	return s.PrimaryKey != ""
}

// PrimaryKeyColumn returns the primary key column, or nil.
func (s *TableSchema) PrimaryKeyColumn() *Column {
	if s.PrimaryKey == "" {
		return nil
	}
	return s.Column(s.PrimaryKey)
}

// SoftDeleteColumn returns the first column (in declared order) recognized as a
// soft-delete flag, or nil.
func (s *TableSchema) SoftDeleteColumn() *Column {
	for i := range s.Columns {
		if softDeleteColumns[s.Columns[i].Name] {
			return &s.Columns[i]
		}
	}
	return nil
}

// DisplayColumn returns the column used to label rows of this table.
func (s *TableSchema) DisplayColumn() string {
	return DisplayColumn(s.Columns, s.PrimaryKey)
}

// Validate checks the structural invariants of the snapshot.
func (s *TableSchema) Validate() error {
	if s.TableName == "" {
		return fmt.Errorf("table name is required")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", s.TableName)
	}
	if s.PrimaryKey != "" && !s.HasColumn(s.PrimaryKey) {
		return fmt.Errorf("table %s: primary key %s is not a column", s.TableName, s.PrimaryKey)
	}
	for _, fk := range s.ForeignKeys {
		if !s.HasColumn(fk.ColumnName) {
			return fmt.Errorf("table %s: foreign key column %s is not a column", s.TableName, fk.ColumnName)
		}
		if fk.ForeignTableName == "" || fk.ForeignColumnName == "" {
			return fmt.Errorf("table %s: foreign key %s has no target", s.TableName, fk.ColumnName)
		}
	}
	return nil
}
