package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crud-admin/internal/config"
	"crud-admin/internal/metadata"
)

func newSQLiteStore(t *testing.T, ddl string) *Store {
	t.Helper()
	s, err := New(context.Background(), config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	_, err = s.DB.ExecContext(context.Background(), ddl)
	require.NoError(t, err)
	return s
}

func TestIntrospector_SQLite(t *testing.T) {
	s := newSQLiteStore(t, `
		CREATE TABLE roles (id INTEGER PRIMARY KEY, nombre VARCHAR(50) NOT NULL);
		CREATE TABLE usuarios (
			id INTEGER PRIMARY KEY,
			nombre TEXT NOT NULL,
			saldo DECIMAL(10,2) DEFAULT 0,
			alta DATETIME,
			id_rol INTEGER REFERENCES roles,
			id_jefe INTEGER REFERENCES usuarios(id),
			deleted BOOLEAN NOT NULL DEFAULT 0
		);
		CREATE TABLE pares (a TEXT, b TEXT, PRIMARY KEY (a, b));
	`)
	in := NewIntrospector(s)
	ctx := context.Background()

	tables, err := in.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pares", "roles", "usuarios"}, tables)

	ts, err := in.TableSchema(ctx, "usuarios")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "nombre", "saldo", "alta", "id_rol", "id_jefe", "deleted"}, ts.ColumnNames())
	assert.Equal(t, "id", ts.PrimaryKey)
	assert.True(t, ts.PrimaryKeyColumn().IsAutoIncrement())
	assert.Equal(t, metadata.TypeNumeric, ts.Column("saldo").DataType)
	assert.Equal(t, metadata.TypeTimestamp, ts.Column("alta").DataType)
	assert.Equal(t, metadata.TypeBoolean, ts.Column("deleted").DataType)
	assert.False(t, ts.Column("nombre").IsNullable)
	require.NotNil(t, ts.Column("saldo").Default)
	assert.Equal(t, "0", *ts.Column("saldo").Default)
	assert.Equal(t, "deleted", ts.SoftDeleteColumn().Name)

	require.Len(t, ts.ForeignKeys, 2)
	rol := ts.ForeignKey("id_rol")
	require.NotNil(t, rol)
	assert.Equal(t, metadata.ForeignKey{ColumnName: "id_rol", ForeignTableName: "roles", ForeignColumnName: "id"}, *rol)
	jefe := ts.ForeignKey("id_jefe")
	require.NotNil(t, jefe)
	assert.Equal(t, "usuarios", jefe.ForeignTableName)

	roles, err := in.TableSchema(ctx, "roles")
	require.NoError(t, err)
	assert.Equal(t, "nombre", roles.DisplayColumn())
	assert.Equal(t, metadata.TypeText, roles.Column("nombre").DataType)

	pares, err := in.TableSchema(ctx, "pares")
	require.NoError(t, err)
	assert.False(t, pares.HasPrimaryKey())
	assert.True(t, pares.Column("a").IsPrimaryKey)
}

func TestIntrospector_UnknownTable(t *testing.T) {
	s := newSQLiteStore(t, `CREATE TABLE roles (id INTEGER PRIMARY KEY)`)
	_, err := NewIntrospector(s).TableSchema(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, metadata.ErrUnknownTable))
}

func TestQueryRow_NotFound(t *testing.T) {
	s := newSQLiteStore(t, `CREATE TABLE roles (id INTEGER PRIMARY KEY)`)
	_, err := QueryRow(context.Background(), s.DB, `SELECT * FROM roles WHERE id = ?1`, 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.DB.ExecContext(context.Background(), `INSERT INTO roles (id) VALUES (?1)`, 5)
	require.NoError(t, err)

	row, err := QueryRow(context.Background(), s.DB, `SELECT id FROM roles WHERE id = ?1`, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), row["id"])
}
