package metadata

import "strings"

// displayKeywords mark a column as a human-readable label for its row.
var displayKeywords = []string{"name", "nombre", "title", "titulo", "description", "descripcion"}

// DisplayColumn picks the column that best labels a row: the first column whose
// name contains a display keyword, else the first text column, else the primary
// key. First match in declared order wins.
func DisplayColumn(columns []Column, primaryKey string) string {
	for _, c := range columns {
		name := strings.ToLower(c.Name)
		for _, kw := range displayKeywords {
			if strings.Contains(name, kw) {
				return c.Name
			}
		}
	}
	for _, c := range columns {
		if c.DataType.IsText() {
			return c.Name
		}
	}
	return primaryKey
}
