package engine

import (
	"context"
	"fmt"

	"crud-admin/internal/metadata"
)

func strPtr(s string) *string { return &s }

func usuariosSchema() *metadata.TableSchema {
	return &metadata.TableSchema{
		TableName: "usuarios",
		Columns: []metadata.Column{
			{Name: "id", DataType: metadata.TypeInteger, IsPrimaryKey: true, Default: strPtr("nextval('usuarios_id_seq'::regclass)")},
			{Name: "nombre", DataType: metadata.TypeText},
			{Name: "email", DataType: metadata.TypeText, IsNullable: true},
			{Name: "edad", DataType: metadata.TypeInteger, IsNullable: true},
			{Name: "activo", DataType: metadata.TypeBoolean},
			{Name: "id_rol", DataType: metadata.TypeInteger, IsNullable: true},
			{Name: "datos", DataType: metadata.TypeJSON, IsNullable: true},
			{Name: "esta_borrado", DataType: metadata.TypeBoolean},
		},
		ForeignKeys: []metadata.ForeignKey{
			{ColumnName: "id_rol", ForeignTableName: "roles", ForeignColumnName: "id"},
		},
		PrimaryKey: "id",
	}
}

func rolesSchema() *metadata.TableSchema {
	return &metadata.TableSchema{
		TableName: "roles",
		Columns: []metadata.Column{
			{Name: "id", DataType: metadata.TypeInteger, IsPrimaryKey: true, IsIdentity: true},
			{Name: "nombre", DataType: metadata.TypeText},
		},
		PrimaryKey: "id",
	}
}

// logsSchema has no primary key and no soft-delete flag.
func logsSchema() *metadata.TableSchema {
	return &metadata.TableSchema{
		TableName: "logs",
		Columns: []metadata.Column{
			{Name: "mensaje", DataType: metadata.TypeText},
			{Name: "nivel", DataType: metadata.TypeInteger},
		},
	}
}

// personasSchema references itself through id_jefe.
func personasSchema() *metadata.TableSchema {
	return &metadata.TableSchema{
		TableName: "personas",
		Columns: []metadata.Column{
			{Name: "id", DataType: metadata.TypeInteger, IsPrimaryKey: true, IsIdentity: true},
			{Name: "nombre", DataType: metadata.TypeText},
			{Name: "id_jefe", DataType: metadata.TypeInteger, IsNullable: true},
		},
		ForeignKeys: []metadata.ForeignKey{
			{ColumnName: "id_jefe", ForeignTableName: "personas", ForeignColumnName: "id"},
		},
		PrimaryKey: "id",
	}
}

// tareasSchema has two foreign keys onto personas.
func tareasSchema() *metadata.TableSchema {
	return &metadata.TableSchema{
		TableName: "tareas",
		Columns: []metadata.Column{
			{Name: "id", DataType: metadata.TypeInteger, IsPrimaryKey: true, IsIdentity: true},
			{Name: "titulo", DataType: metadata.TypeText},
			{Name: "id_creador", DataType: metadata.TypeInteger},
			{Name: "id_editor", DataType: metadata.TypeInteger, IsNullable: true},
		},
		ForeignKeys: []metadata.ForeignKey{
			{ColumnName: "id_creador", ForeignTableName: "personas", ForeignColumnName: "id"},
			{ColumnName: "id_editor", ForeignTableName: "personas", ForeignColumnName: "id"},
		},
		PrimaryKey: "id",
	}
}

type staticProvider map[string]*metadata.TableSchema

func (p staticProvider) TableSchema(_ context.Context, table string) (*metadata.TableSchema, error) {
	s, ok := p[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", metadata.ErrUnknownTable, table)
	}
	return s, nil
}

func (p staticProvider) ListTables(context.Context) ([]string, error) {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	return names, nil
}

func testProvider() staticProvider {
	return staticProvider{
		"usuarios": usuariosSchema(),
		"roles":    rolesSchema(),
		"logs":     logsSchema(),
	}
}
