package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crud-admin/internal/config"
	"crud-admin/internal/metadata"
	"crud-admin/internal/store"
)

const sqliteFixture = `
CREATE TABLE roles (
	id INTEGER PRIMARY KEY,
	nombre TEXT NOT NULL UNIQUE
);
CREATE TABLE usuarios (
	id INTEGER PRIMARY KEY,
	nombre TEXT NOT NULL,
	email TEXT,
	edad INTEGER,
	activo BOOLEAN NOT NULL DEFAULT 1,
	id_rol INTEGER REFERENCES roles(id),
	esta_borrado BOOLEAN NOT NULL DEFAULT 0
);
INSERT INTO roles (id, nombre) VALUES (1, 'Admin'), (2, 'Editor');
INSERT INTO usuarios (id, nombre, email, edad, id_rol) VALUES
	(1, 'Ana', 'ana@acme.io', 28, 1),
	(2, 'Luis', 'luis@acme.io', 35, 2);
`

func newSQLiteService(t *testing.T) (*Service, *metadata.Registry) {
	t.Helper()
	return newSQLiteServiceWith(t, sqliteFixture)
}

func newSQLiteServiceWith(t *testing.T, fixture string) (*Service, *metadata.Registry) {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.DB.ExecContext(ctx, fixture)
	require.NoError(t, err)

	in := store.NewIntrospector(s)
	reg := metadata.NewRegistry(in)
	return NewService(s, reg, in, config.QueryConfig{DefaultLimit: 50, MaxLimit: 1000, OptionsLimit: 1000}), reg
}

func TestSQLite_ReadJoinsDisplayValues(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	result, err := svc.Read(ctx, "usuarios", ListOptions{})
	require.NoError(t, err)
	require.Len(t, result.Data, 2)

	ana := result.Data[0]
	assert.Equal(t, "Ana", ana["nombre"])
	assert.Equal(t, "Admin", ana["id_rol_display"])
	assert.Equal(t, true, ana["activo"])
	assert.Equal(t, false, ana["esta_borrado"])
	assert.NotContains(t, ana, "id_rol_data_display")
	assert.Equal(t, "Editor", result.Data[1]["id_rol_display"])

	assert.Equal(t, int64(2), result.Pagination.Total)
	assert.Equal(t, 1, result.Pagination.TotalPages)
	assert.False(t, result.Pagination.HasNext)
}

func TestSQLite_Filters(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	result, err := svc.Read(ctx, "usuarios", ListOptions{Filters: Filters{Equals: map[string]any{"nombre": "AN"}}})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "Ana", result.Data[0]["nombre"])

	filters, err := ParseFilters([]byte(`{"groups":[{"conditions":[
		{"field":"edad","operator":"BETWEEN","value":"30,40"}]}]}`))
	require.NoError(t, err)
	result, err = svc.Read(ctx, "usuarios", ListOptions{Filters: filters})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "Luis", result.Data[0]["nombre"])
	assert.Equal(t, int64(1), result.Pagination.Total)
}

func TestSQLite_CreateUpdateDelete(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "usuarios", Record{"nombre": "Eva", "edad": "31", "id_rol": "2", "email": ""})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created["id"])
	assert.Equal(t, int64(31), created["edad"])
	assert.Nil(t, created["email"])
	assert.Equal(t, true, created["activo"])

	_, err = svc.Create(ctx, "usuarios", Record{})
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = svc.Create(ctx, "usuarios", Record{"nombre": "Eva", "edad": "treinta"})
	assert.True(t, errors.Is(err, ErrValidation))

	updated, err := svc.Update(ctx, "usuarios", "1", Record{"nombre": "Ana Maria", "email": ""})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated["nombre"])
	assert.Equal(t, "", updated["email"])

	_, err = svc.Update(ctx, "usuarios", "999", Record{"nombre": "x"})
	assert.True(t, errors.Is(err, ErrNotFound))

	deleted, err := svc.Delete(ctx, "usuarios", "2")
	require.NoError(t, err)
	assert.Equal(t, true, deleted["esta_borrado"])

	_, err = svc.ReadOne(ctx, "usuarios", "2", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = svc.Delete(ctx, "usuarios", "2")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = svc.Delete(ctx, "usuarios", "999")
	assert.True(t, errors.Is(err, ErrNotFound))

	result, err := svc.Read(ctx, "usuarios", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Pagination.Total)

	// Clearing the flag restores the row.
	_, err = svc.Update(ctx, "usuarios", "2", Record{"esta_borrado": false})
	require.NoError(t, err)
	restored, err := svc.ReadOne(ctx, "usuarios", "2", nil)
	require.NoError(t, err)
	assert.Equal(t, "Luis", restored["nombre"])
	assert.Equal(t, "Editor", restored["id_rol_display"])
}

const sqliteSharedTargetFixture = `
CREATE TABLE personas (
	id INTEGER PRIMARY KEY,
	nombre TEXT NOT NULL,
	id_jefe INTEGER REFERENCES personas(id)
);
CREATE TABLE tareas (
	id INTEGER PRIMARY KEY,
	titulo TEXT NOT NULL,
	id_creador INTEGER NOT NULL REFERENCES personas(id),
	id_editor INTEGER REFERENCES personas(id)
);
INSERT INTO personas (id, nombre, id_jefe) VALUES (1, 'Ana', NULL), (2, 'Luis', 1);
INSERT INTO tareas (id, titulo, id_creador, id_editor) VALUES
	(1, 'Informe', 1, 2),
	(2, 'Borrador', 2, NULL);
`

func TestSQLite_ForeignKeysSharingTarget(t *testing.T) {
	svc, _ := newSQLiteServiceWith(t, sqliteSharedTargetFixture)
	ctx := context.Background()

	result, err := svc.Read(ctx, "tareas", ListOptions{})
	require.NoError(t, err)
	require.Len(t, result.Data, 2)

	informe := result.Data[0]
	assert.Equal(t, "Ana", informe["id_creador_display"])
	assert.Equal(t, "Luis", informe["id_editor_display"])
	assert.NotContains(t, informe, "id_creador_data_display")
	assert.NotContains(t, informe, "id_editor_data_id")

	borrador := result.Data[1]
	assert.Equal(t, "Luis", borrador["id_creador_display"])
	assert.NotContains(t, borrador, "id_editor_display")

	people, err := svc.Read(ctx, "personas", ListOptions{})
	require.NoError(t, err)
	require.Len(t, people.Data, 2)
	assert.NotContains(t, people.Data[0], "id_jefe_display")
	assert.Equal(t, "Ana", people.Data[1]["id_jefe_display"])
	assert.Equal(t, "Luis", people.Data[1]["nombre"])

	luis, err := svc.ReadOne(ctx, "personas", "2", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana", luis["id_jefe_display"])
}

func TestSQLite_HardDeleteAndConflicts(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "roles", Record{"nombre": "Admin"})
	require.Error(t, err)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.Status)

	_, err = svc.Delete(ctx, "roles", "1")
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)

	tmp, err := svc.Create(ctx, "roles", Record{"nombre": "Temporal"})
	require.NoError(t, err)
	_, err = svc.Delete(ctx, "roles", tmp["id"])
	require.NoError(t, err)
	_, err = svc.ReadOne(ctx, "roles", tmp["id"], nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ForeignKeyOptions(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	opts, err := svc.ForeignKeyOptions(ctx, "usuarios", "id_rol")
	require.NoError(t, err)
	require.Len(t, opts.Options, 2)
	assert.Equal(t, "Admin", opts.Options[0].Label)
	assert.Equal(t, int64(1), opts.Options[0].Value)
	assert.Equal(t, "Editor", opts.Options[1].Label)

	_, err = svc.ForeignKeyOptions(ctx, "usuarios", "nombre")
	assert.True(t, errors.Is(err, ErrSchema))
	_, err = svc.ForeignKeyOptions(ctx, "nope", "id_rol")
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestSQLite_SchemaAndTables(t *testing.T) {
	svc, reg := newSQLiteService(t)
	ctx := context.Background()

	tables, err := svc.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"roles", "usuarios"}, tables)

	ts, err := svc.Schema(ctx, "usuarios")
	require.NoError(t, err)
	assert.Equal(t, "id", ts.PrimaryKey)
	assert.True(t, ts.PrimaryKeyColumn().IsAutoIncrement())
	assert.Equal(t, "esta_borrado", ts.SoftDeleteColumn().Name)
	assert.Contains(t, reg.Tables(), "usuarios")

	_, err = svc.Schema(ctx, "nope")
	assert.True(t, errors.Is(err, ErrSchema))
}
