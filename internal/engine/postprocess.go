package engine

import (
	"crud-admin/internal/metadata"
	"crud-admin/internal/store"
)

// postProcess replaces the synthetic join columns with <column>_display
// shadow fields and normalizes dialect-specific values in place.
func postProcess(d store.Dialect, schema *metadata.TableSchema, rows []Record, joins []JoinSpec) {
	for _, row := range rows {
		for _, j := range joins {
			display, hasDisplay := row[j.DisplayKey()]
			joinedID := row[j.IDKey()]
			delete(row, j.DisplayKey())
			delete(row, j.IDKey())
			if hasDisplay && display != nil && joinedID != nil {
				row[j.ShadowField()] = display
			}
		}
	}
	normalizeRecords(d, schema, rows)
}

// normalizeRecords converts integer booleans back to bool for dialects that
// store them as integers.
func normalizeRecords(d store.Dialect, schema *metadata.TableSchema, rows []Record) {
	if !d.NeedsBoolFix() {
		return
	}
	var boolCols []string
	for _, c := range schema.Columns {
		if c.DataType == metadata.TypeBoolean {
			boolCols = append(boolCols, c.Name)
		}
	}
	store.NormalizeBooleans(rows, boolCols)
}
