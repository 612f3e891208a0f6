package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"crud-admin/internal/metadata"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }
func (d *SQLiteDialect) ILike() string      { return "LIKE" }
func (d *SQLiteDialect) NeedsBoolFix() bool { return true }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &paramBuilder{placeholder: d.Placeholder}
}

func (d *SQLiteDialect) QuoteIdent(name string) string {
	return quoteIdent(name)
}

// ListTables ignores schema: a SQLite database file is a single namespace.
func (d *SQLiteDialect) ListTables(ctx context.Context, q Querier, _ string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (d *SQLiteDialect) LoadTable(ctx context.Context, q Querier, _ string, table string) (*metadata.TableSchema, error) {
	columns, pks, err := d.loadColumns(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, nil
	}

	ts := &metadata.TableSchema{TableName: table, Columns: columns}
	if len(pks) == 1 {
		ts.PrimaryKey = pks[0]
		// INTEGER PRIMARY KEY is an alias for the rowid and is assigned on insert.
		if pk := ts.Column(pks[0]); pk != nil && strings.EqualFold(pk.RawType, "INTEGER") {
			pk.IsIdentity = true
		}
	}

	ts.ForeignKeys, err = d.loadForeignKeys(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	return ts, nil
}

func (d *SQLiteDialect) loadColumns(ctx context.Context, q Querier, table string) ([]metadata.Column, []string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?1) ORDER BY cid`, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []metadata.Column
	pkOrder := map[int]string{}
	for rows.Next() {
		var (
			name, colType string
			notNull, pk   int
			def           sql.NullString
		)
		if err := rows.Scan(&name, &colType, &notNull, &def, &pk); err != nil {
			return nil, nil, err
		}
		col := metadata.Column{
			Name:         name,
			DataType:     metadata.NormalizeType(colType),
			RawType:      colType,
			IsNullable:   notNull == 0 && pk == 0,
			IsPrimaryKey: pk > 0,
		}
		if def.Valid {
			v := def.String
			col.Default = &v
		}
		if pk > 0 {
			pkOrder[pk] = name
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pks := make([]string, 0, len(pkOrder))
	for i := 1; i <= len(pkOrder); i++ {
		pks = append(pks, pkOrder[i])
	}
	return columns, pks, nil
}

func (d *SQLiteDialect) loadForeignKeys(ctx context.Context, q Querier, table string) ([]metadata.ForeignKey, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT "from", "table", "to" FROM pragma_foreign_key_list(?1) ORDER BY id, seq`, table)
	if err != nil {
		return nil, err
	}

	var fks []metadata.ForeignKey
	for rows.Next() {
		var fk metadata.ForeignKey
		var to sql.NullString
		if err := rows.Scan(&fk.ColumnName, &fk.ForeignTableName, &to); err != nil {
			rows.Close()
			return nil, err
		}
		fk.ForeignColumnName = to.String
		fks = append(fks, fk)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// "REFERENCES parent" without a column targets the parent's primary key.
	for i := range fks {
		if fks[i].ForeignColumnName != "" {
			continue
		}
		_, pks, err := d.loadColumns(ctx, q, fks[i].ForeignTableName)
		if err != nil {
			return nil, err
		}
		if len(pks) == 1 {
			fks[i].ForeignColumnName = pks[0]
		}
	}
	return fks, nil
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "constraint failed: UNIQUE") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}
	return err
}
