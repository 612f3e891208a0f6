package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"crud-admin/internal/logger"
	"crud-admin/internal/metadata"
	"crud-admin/internal/store"
)

type Operator string

const (
	OpEquals     Operator = "="
	OpNotEquals  Operator = "!="
	OpGreater    Operator = ">"
	OpLess       Operator = "<"
	OpGreaterEq  Operator = ">="
	OpLessEq     Operator = "<="
	OpLike       Operator = "LIKE"
	OpNotLike    Operator = "NOT_LIKE"
	OpStartsWith Operator = "STARTS_WITH"
	OpEndsWith   Operator = "ENDS_WITH"
	OpIsNull     Operator = "IS_NULL"
	OpIsNotNull  Operator = "IS_NOT_NULL"
	OpBetween    Operator = "BETWEEN"
)

// Connective joins a condition or group to the one before it.
type Connective string

const (
	And Connective = "AND"
	Or  Connective = "OR"
)

// FilterCondition is a single predicate. Connective joins it to the next
// condition in the same group and is ignored on the last one.
type FilterCondition struct {
	Field      string     `json:"field"`
	Operator   Operator   `json:"operator"`
	Value      any        `json:"value,omitempty"`
	Connective Connective `json:"logicalOperator,omitempty"`
}

// FilterGroup is a list of conditions. Connective joins the group to the
// previous group and is ignored on the first one.
type FilterGroup struct {
	Connective Connective        `json:"operator,omitempty"`
	Conditions []FilterCondition `json:"conditions"`
}

type FilterSpec struct {
	Groups []FilterGroup `json:"groups"`
}

// Filters holds the caller's filters in either (or both) accepted shapes.
// Equals is the flat field -> value shorthand: text columns match as a
// case-insensitive substring, anything else by equality.
type Filters struct {
	Equals map[string]any
	Spec   *FilterSpec
}

// IsEmpty reports whether no filter of either shape is present.
func (f Filters) IsEmpty() bool {
	return len(f.Equals) == 0 && (f.Spec == nil || len(f.Spec.Groups) == 0)
}

// References reports whether any filter names the given column.
func (f Filters) References(column string) bool {
	if _, ok := f.Equals[column]; ok {
		return true
	}
	if f.Spec == nil {
		return false
	}
	for _, g := range f.Spec.Groups {
		for _, c := range g.Conditions {
			if c.Field == column {
				return true
			}
		}
	}
	return false
}

// ParseFilters decodes the JSON filter parameter. An object with a "groups"
// key is a structured FilterSpec; any other object is the flat shorthand.
func ParseFilters(raw []byte) (Filters, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Filters{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return Filters{}, ValidationError("Malformed filters: invalid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Filters{}, ValidationError("Malformed filters: expected an object")
	}

	groups := doc.Get("groups")
	if !groups.Exists() {
		var flat map[string]any
		if err := json.Unmarshal(raw, &flat); err != nil {
			return Filters{}, ValidationError("Malformed filters: " + err.Error())
		}
		return Filters{Equals: flat}, nil
	}

	if !groups.IsArray() {
		return Filters{}, ValidationError("Malformed filters: groups must be an array")
	}
	for i, g := range groups.Array() {
		if !g.IsObject() || !g.Get("conditions").IsArray() {
			return Filters{}, ValidationError(fmt.Sprintf("Malformed filters: group %d must have a conditions array", i))
		}
	}

	var spec FilterSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return Filters{}, ValidationError("Malformed filters: " + err.Error())
	}
	return Filters{Spec: &spec}, nil
}

// WhereClause is a compiled predicate list. Conditions are ANDed.
type WhereClause struct {
	Conditions []string
	Params     []any
}

// SQL returns the conditions joined with AND, or "" when there are none.
func (w WhereClause) SQL() string {
	return strings.Join(w.Conditions, " AND ")
}

// CompileFilters translates filters into a parameterized predicate for the
// table. The soft-delete guard comes first unless the filters name the flag
// column. Unknown fields, incompatible operators and values that cannot be
// coerced are dropped.
func CompileFilters(d store.Dialect, schema *metadata.TableSchema, filters Filters) (WhereClause, error) {
	fc := newFilterCompiler(d, schema, d.NewParamBuilder())
	fc.softDelete(filters)
	if err := fc.compile(filters); err != nil {
		return WhereClause{}, err
	}
	return WhereClause{Conditions: fc.where, Params: fc.pb.Params()}, nil
}

type filterCompiler struct {
	dialect store.Dialect
	schema  *metadata.TableSchema
	pb      store.ParamBuilder
	where   []string
}

func newFilterCompiler(d store.Dialect, schema *metadata.TableSchema, pb store.ParamBuilder) *filterCompiler {
	return &filterCompiler{dialect: d, schema: schema, pb: pb}
}

func (fc *filterCompiler) column(name string) string {
	return fc.dialect.QuoteIdent(fc.schema.TableName) + "." + fc.dialect.QuoteIdent(name)
}

func (fc *filterCompiler) softDelete(filters Filters) {
	col := fc.schema.SoftDeleteColumn()
	if col == nil || filters.References(col.Name) {
		return
	}
	fc.where = append(fc.where, fmt.Sprintf("%s = %s", fc.column(col.Name), fc.pb.Add(false)))
}

func (fc *filterCompiler) primaryKey(id any) {
	fc.where = append(fc.where, fmt.Sprintf("%s = %s", fc.column(fc.schema.PrimaryKey), fc.pb.Add(id)))
}

func (fc *filterCompiler) compile(filters Filters) error {
	fc.compileEquals(filters.Equals)
	if filters.Spec == nil {
		return nil
	}
	expr, err := fc.compileSpec(filters.Spec)
	if err != nil {
		return err
	}
	if expr != "" {
		fc.where = append(fc.where, expr)
	}
	return nil
}

// compileEquals walks columns in declared order so placeholders are stable.
func (fc *filterCompiler) compileEquals(values map[string]any) {
	if len(values) == 0 {
		return
	}
	for i := range fc.schema.Columns {
		col := &fc.schema.Columns[i]
		v, ok := values[col.Name]
		if !ok || isEmptyValue(v) {
			continue
		}
		if s, isString := v.(string); isString && col.DataType.IsText() {
			fc.where = append(fc.where, fmt.Sprintf("%s %s %s",
				fc.column(col.Name), fc.dialect.ILike(), fc.pb.Add("%"+s+"%")))
			continue
		}
		coerced, err := coerceValue(col, v)
		if err != nil {
			logger.Debug("Dropping filter on %s.%s: %v", fc.schema.TableName, col.Name, err)
			continue
		}
		fc.where = append(fc.where, fmt.Sprintf("%s = %s", fc.column(col.Name), fc.pb.Add(coerced)))
	}
}

// compileSpec folds conditions and then groups left to right, parenthesizing
// every binary step so AND/OR precedence never depends on the database.
func (fc *filterCompiler) compileSpec(spec *FilterSpec) (string, error) {
	var expr string
	for gi, g := range spec.Groups {
		groupConn, err := parseConnective(g.Connective)
		if err != nil {
			return "", ValidationError(fmt.Sprintf("Malformed filters: group %d: %v", gi, err))
		}

		var groupExpr string
		var pending Connective
		for ci, c := range g.Conditions {
			conn, err := parseConnective(c.Connective)
			if err != nil {
				return "", ValidationError(fmt.Sprintf("Malformed filters: group %d condition %d: %v", gi, ci, err))
			}
			cond := fc.condition(c)
			if cond == "" {
				continue
			}
			if groupExpr == "" {
				groupExpr = cond
			} else {
				groupExpr = fmt.Sprintf("(%s %s %s)", groupExpr, pending, cond)
			}
			pending = conn
		}

		if groupExpr == "" {
			continue
		}
		if expr == "" {
			expr = groupExpr
		} else {
			expr = fmt.Sprintf("(%s %s %s)", expr, groupConn, groupExpr)
		}
	}
	return expr, nil
}

func parseConnective(c Connective) (Connective, error) {
	switch Connective(strings.ToUpper(strings.TrimSpace(string(c)))) {
	case "", And:
		return And, nil
	case Or:
		return Or, nil
	}
	return "", fmt.Errorf("unknown logical operator %q", c)
}

// condition returns the SQL for one structured condition, or "" when it is dropped.
func (fc *filterCompiler) condition(c FilterCondition) string {
	col := fc.schema.Column(c.Field)
	if col == nil || col.IsPrimaryKey || !col.DataType.IsFilterable() {
		return ""
	}
	op := Operator(strings.ToUpper(strings.TrimSpace(string(c.Operator))))
	ref := fc.column(col.Name)

	switch op {
	case OpIsNull:
		return ref + " IS NULL"
	case OpIsNotNull:
		return ref + " IS NOT NULL"
	}

	if isEmptyValue(c.Value) {
		return ""
	}

	switch op {
	case OpEquals, OpNotEquals:
		v, err := coerceValue(col, c.Value)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s %s %s", ref, op, fc.pb.Add(v))

	case OpLike, OpNotLike, OpStartsWith, OpEndsWith:
		if !col.DataType.IsText() {
			return ""
		}
		s, err := coerceValue(col, c.Value)
		if err != nil {
			return ""
		}
		ilike := fc.dialect.ILike()
		switch op {
		case OpLike:
			return fmt.Sprintf("%s %s %s", ref, ilike, fc.pb.Add(fmt.Sprintf("%%%v%%", s)))
		case OpNotLike:
			return fmt.Sprintf("%s NOT %s %s", ref, ilike, fc.pb.Add(fmt.Sprintf("%%%v%%", s)))
		case OpStartsWith:
			return fmt.Sprintf("%s %s %s", ref, ilike, fc.pb.Add(fmt.Sprintf("%v%%", s)))
		default:
			return fmt.Sprintf("%s %s %s", ref, ilike, fc.pb.Add(fmt.Sprintf("%%%v", s)))
		}

	case OpGreater, OpLess, OpGreaterEq, OpLessEq:
		if !col.DataType.IsOrdered() {
			return ""
		}
		v, err := coerceValue(col, c.Value)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s %s %s", ref, op, fc.pb.Add(v))

	case OpBetween:
		if !col.DataType.IsOrdered() {
			return ""
		}
		lo, hi, ok := betweenBounds(c.Value)
		if !ok {
			return ""
		}
		lv, err := coerceValue(col, lo)
		if err != nil {
			return ""
		}
		hv, err := coerceValue(col, hi)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", ref, fc.pb.Add(lv), fc.pb.Add(hv))
	}
	return ""
}

// betweenBounds accepts "low,high" or a two-element array.
func betweenBounds(v any) (any, any, bool) {
	switch val := v.(type) {
	case string:
		parts := strings.Split(val, ",")
		if len(parts) != 2 {
			return nil, nil, false
		}
		lo, hi := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if lo == "" || hi == "" {
			return nil, nil, false
		}
		return lo, hi, true
	case []any:
		if len(val) != 2 || isEmptyValue(val[0]) || isEmptyValue(val[1]) {
			return nil, nil, false
		}
		return val[0], val[1], true
	}
	return nil, nil, false
}
