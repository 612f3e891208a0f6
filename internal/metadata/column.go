package metadata

import "strings"

// ColumnType is the normalized kind of a column's SQL data type.
type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeInteger   ColumnType = "integer"
	TypeNumeric   ColumnType = "numeric"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
	TypeUUID      ColumnType = "uuid"
	TypeJSON      ColumnType = "json"
	TypeOther     ColumnType = "other"
)

type Column struct {
	Name         string     `json:"name"`
	DataType     ColumnType `json:"data_type"`
	RawType      string     `json:"raw_type,omitempty"`
	IsNullable   bool       `json:"is_nullable"`
	Default      *string    `json:"column_default,omitempty"`
	IsPrimaryKey bool       `json:"is_primary_key"`
	IsIdentity   bool       `json:"is_identity,omitempty"` // GENERATED AS IDENTITY or sqlite rowid alias
	MaxLength    *int       `json:"max_length,omitempty"`
}

// IsAutoIncrement returns true if the column is a primary key whose value is
// assigned by the database.
func (c Column) IsAutoIncrement() bool {
	if !c.IsPrimaryKey {
		return false
	}
	if c.IsIdentity {
		return true
	}
	return c.Default != nil && strings.Contains(strings.ToLower(*c.Default), "nextval(")
}

// IsText returns true for free-text columns.
func (t ColumnType) IsText() bool {
	return t == TypeText
}

// IsOrdered returns true for types that support range comparisons.
func (t ColumnType) IsOrdered() bool {
	switch t {
	case TypeInteger, TypeNumeric, TypeDate, TypeTimestamp:
		return true
	}
	return false
}

// IsFilterable returns true for types that can appear in a filter condition.
func (t ColumnType) IsFilterable() bool {
	switch t {
	case TypeJSON, TypeOther:
		return false
	}
	return true
}

// NormalizeType maps a raw SQL type name (postgres information_schema data_type,
// or a sqlite declared type) to a ColumnType.
func NormalizeType(raw string) ColumnType {
	t := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "text", "character varying", "varchar", "character", "char", "bpchar",
		"citext", "name", "nvarchar", "nchar", "clob", "string":
		return TypeText
	case "integer", "int", "int2", "int4", "int8", "smallint", "bigint", "tinyint",
		"mediumint", "serial", "bigserial", "smallserial":
		return TypeInteger
	case "numeric", "decimal", "real", "double precision", "double", "float",
		"float4", "float8", "money":
		return TypeNumeric
	case "boolean", "bool":
		return TypeBoolean
	case "date":
		return TypeDate
	case "timestamp", "timestamp without time zone", "timestamp with time zone",
		"timestamptz", "datetime":
		return TypeTimestamp
	case "uuid":
		return TypeUUID
	case "json", "jsonb":
		return TypeJSON
	}

	// sqlite type affinity rules for anything else
	switch {
	case strings.Contains(t, "int"):
		return TypeInteger
	case strings.Contains(t, "char"), strings.Contains(t, "clob"), strings.Contains(t, "text"):
		return TypeText
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"):
		return TypeNumeric
	}
	return TypeOther
}
