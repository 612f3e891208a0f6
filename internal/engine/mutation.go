package engine

import (
	"fmt"
	"strings"

	"crud-admin/internal/metadata"
	"crud-admin/internal/store"
)

// Record is one row keyed by column name.
type Record = map[string]any

// Statement is a parameterized SQL statement.
type Statement struct {
	SQL    string
	Params []any
}

// BuildInsert builds an INSERT ... RETURNING * from the known columns in data.
// Nil and empty-string values are omitted so column defaults apply, as are
// database-assigned primary keys. Unknown keys are ignored.
func BuildInsert(d store.Dialect, schema *metadata.TableSchema, data Record) (Statement, error) {
	pb := d.NewParamBuilder()
	var cols, placeholders []string
	var details []ErrorDetail

	for i := range schema.Columns {
		col := &schema.Columns[i]
		v, ok := data[col.Name]
		if !ok || isEmptyValue(v) || col.IsAutoIncrement() {
			continue
		}
		coerced, err := coerceValue(col, v)
		if err != nil {
			details = append(details, invalidValue(col, err))
			continue
		}
		cols = append(cols, d.QuoteIdent(col.Name))
		placeholders = append(placeholders, pb.Add(coerced))
	}

	if len(details) > 0 {
		return Statement{}, ValidationError(fmt.Sprintf("Invalid values for table %s", schema.TableName), details...)
	}
	if len(cols) == 0 {
		return Statement{}, NoValidDataError(schema.TableName)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		d.QuoteIdent(schema.TableName), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return Statement{SQL: sql, Params: pb.Params()}, nil
}

// BuildUpdate builds an UPDATE ... RETURNING * keyed by primary key. Empty
// strings are written (as NULL for non-text columns); nil values and the
// primary key itself are skipped. No soft-delete guard applies, so the flag
// column can be cleared to restore a row.
func BuildUpdate(d store.Dialect, schema *metadata.TableSchema, id any, data Record) (Statement, error) {
	pk := schema.PrimaryKeyColumn()
	if pk == nil {
		return Statement{}, NoPrimaryKeyError(schema.TableName)
	}
	idValue, err := primaryKeyValue(pk, id)
	if err != nil {
		return Statement{}, err
	}

	pb := d.NewParamBuilder()
	var sets []string
	var details []ErrorDetail

	for i := range schema.Columns {
		col := &schema.Columns[i]
		v, ok := data[col.Name]
		if !ok || v == nil || col.IsPrimaryKey {
			continue
		}
		var value any
		if s, isString := v.(string); isString && s == "" && !col.DataType.IsText() {
			value = nil
		} else if value, err = coerceValue(col, v); err != nil {
			details = append(details, invalidValue(col, err))
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent(col.Name), pb.Add(value)))
	}

	if len(details) > 0 {
		return Statement{}, ValidationError(fmt.Sprintf("Invalid values for table %s", schema.TableName), details...)
	}
	if len(sets) == 0 {
		return Statement{}, NoValidDataError(schema.TableName)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING *",
		d.QuoteIdent(schema.TableName), strings.Join(sets, ", "), d.QuoteIdent(pk.Name), pb.Add(idValue))
	return Statement{SQL: sql, Params: pb.Params()}, nil
}

// BuildDelete flags the row when the table has a soft-delete column, and
// removes it otherwise. The soft variant only matches rows not yet flagged.
func BuildDelete(d store.Dialect, schema *metadata.TableSchema, id any) (Statement, error) {
	pk := schema.PrimaryKeyColumn()
	if pk == nil {
		return Statement{}, NoPrimaryKeyError(schema.TableName)
	}
	idValue, err := primaryKeyValue(pk, id)
	if err != nil {
		return Statement{}, err
	}

	pb := d.NewParamBuilder()
	table := d.QuoteIdent(schema.TableName)
	key := d.QuoteIdent(pk.Name)

	if flag := schema.SoftDeleteColumn(); flag != nil {
		col := d.QuoteIdent(flag.Name)
		sql := fmt.Sprintf("UPDATE %s SET %s = TRUE WHERE %s = %s AND %s = FALSE RETURNING *",
			table, col, key, pb.Add(idValue), col)
		return Statement{SQL: sql, Params: pb.Params()}, nil
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s RETURNING *", table, key, pb.Add(idValue))
	return Statement{SQL: sql, Params: pb.Params()}, nil
}

// primaryKeyValue converts a path id to the key column's type.
func primaryKeyValue(pk *metadata.Column, id any) (any, error) {
	if isEmptyValue(id) {
		return nil, ValidationError("Missing id")
	}
	v, err := coerceValue(pk, id)
	if err != nil {
		return nil, ValidationError(fmt.Sprintf("Invalid id %v", id),
			ErrorDetail{Field: pk.Name, Rule: "type", Message: err.Error()})
	}
	return v, nil
}

func invalidValue(col *metadata.Column, err error) ErrorDetail {
	return ErrorDetail{
		Field:   col.Name,
		Rule:    "type",
		Message: fmt.Sprintf("expected %s: %v", col.DataType, err),
	}
}
