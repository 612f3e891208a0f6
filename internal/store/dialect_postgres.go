package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"crud-admin/internal/metadata"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) ILike() string      { return "ILIKE" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &paramBuilder{placeholder: d.Placeholder}
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return quoteIdent(name)
}

func (d *PostgresDialect) ListTables(ctx context.Context, q Querier, schema string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schema)
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

func (d *PostgresDialect) LoadTable(ctx context.Context, q Querier, schema, table string) (*metadata.TableSchema, error) {
	columns, err := d.loadColumns(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, nil
	}

	pks, err := d.loadPrimaryKeys(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("primary keys: %w", err)
	}
	fks, err := d.loadForeignKeys(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}

	ts := &metadata.TableSchema{TableName: table, Columns: columns, ForeignKeys: fks}
	for _, pk := range pks {
		if c := ts.Column(pk); c != nil {
			c.IsPrimaryKey = true
		}
	}
	// Composite keys are not addressable by a single id.
	if len(pks) == 1 {
		ts.PrimaryKey = pks[0]
	}
	return ts, nil
}

func (d *PostgresDialect) loadColumns(ctx context.Context, q Querier, schema, table string) ([]metadata.Column, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT column_name, data_type, udt_name, is_nullable, column_default,
			is_identity, character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []metadata.Column
	for rows.Next() {
		var (
			name, dataType, udtName, nullable string
			def, identity                      sql.NullString
			maxLen                             sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &udtName, &nullable, &def, &identity, &maxLen); err != nil {
			return nil, err
		}

		raw := dataType
		if dataType == "USER-DEFINED" {
			raw = udtName
		}
		col := metadata.Column{
			Name:       name,
			DataType:   metadata.NormalizeType(raw),
			RawType:    raw,
			IsNullable: nullable == "YES",
			IsIdentity: identity.Valid && identity.String == "YES",
		}
		if def.Valid {
			v := def.String
			col.Default = &v
		}
		if maxLen.Valid {
			v := int(maxLen.Int64)
			col.MaxLength = &v
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (d *PostgresDialect) loadPrimaryKeys(ctx context.Context, q Querier, schema, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return nil, err
		}
		pks = append(pks, pk)
	}
	return pks, rows.Err()
}

func (d *PostgresDialect) loadForeignKeys(ctx context.Context, q Querier, schema, table string) ([]metadata.ForeignKey, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []metadata.ForeignKey
	for rows.Next() {
		var fk metadata.ForeignKey
		if err := rows.Scan(&fk.ColumnName, &fk.ForeignTableName, &fk.ForeignColumnName); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		case "23503":
			return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
		}
	}
	return err
}
