package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"crud-admin/internal/logger"
	"crud-admin/internal/metadata"
	"crud-admin/internal/store"
)

const DefaultLimit = 50

// ListOptions controls a list read. The zero value reads the first page with
// DefaultLimit rows, no filters and every foreign key joined.
type ListOptions struct {
	Page    int
	Limit   int
	Filters Filters
	// Include names referenced tables (or foreign key columns) to join.
	Include        []string
	OrderBy        string
	OrderDirection string
	// DisableAutoInclude joins only the foreign keys named in Include.
	DisableAutoInclude bool

	lookup   bool
	lookupID any
}

func (o *ListOptions) normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	// The offset (Page-1)*Limit must not overflow.
	if maxPage := math.MaxInt / o.Limit; o.Page > maxPage {
		o.Page = maxPage
	}
}

func (o ListOptions) includes(fk metadata.ForeignKey) bool {
	if !o.DisableAutoInclude {
		return true
	}
	return slices.Contains(o.Include, fk.ForeignTableName) || slices.Contains(o.Include, fk.ColumnName)
}

// JoinSpec is one LEFT JOIN onto a referenced table.
type JoinSpec struct {
	ForeignKey    metadata.ForeignKey
	Alias         string
	DisplayColumn string
}

func newJoinSpec(fk metadata.ForeignKey, display string) JoinSpec {
	return JoinSpec{ForeignKey: fk, Alias: fk.ColumnName + "_data", DisplayColumn: display}
}

// DisplayKey is the synthetic result column carrying the joined display value.
func (j JoinSpec) DisplayKey() string { return j.Alias + "_display" }

// IDKey is the synthetic result column carrying the joined row's key.
func (j JoinSpec) IDKey() string { return j.Alias + "_id" }

// ShadowField is the key the display value is exposed under on the record.
func (j JoinSpec) ShadowField() string { return j.ForeignKey.ColumnName + "_display" }

// QueryFragments accumulates the pieces of a SELECT before assembly.
type QueryFragments struct {
	Select  []string
	Joins   []string
	Where   []string
	OrderBy string

	pb store.ParamBuilder
}

// Params returns the bound values in placeholder order.
func (f *QueryFragments) Params() []any {
	return f.pb.Params()
}

func (f *QueryFragments) from(d store.Dialect, table string) string {
	sql := " FROM " + d.QuoteIdent(table)
	for _, j := range f.Joins {
		sql += " " + j
	}
	if len(f.Where) > 0 {
		sql += " WHERE " + strings.Join(f.Where, " AND ")
	}
	return sql
}

// ListQuery is a page query plus the matching count query.
type ListQuery struct {
	SQL         string
	Params      []any
	CountSQL    string
	CountParams []any
	Joins       []JoinSpec
	Page        int
	Limit       int
}

// BuildListQuery assembles the paginated SELECT and its COUNT for a table.
// Foreign key targets are resolved through provider to pick display columns.
func BuildListQuery(ctx context.Context, d store.Dialect, provider metadata.Provider, schema *metadata.TableSchema, opts ListOptions) (*ListQuery, error) {
	opts.normalize()
	table := schema.TableName

	frag := &QueryFragments{pb: d.NewParamBuilder()}
	frag.Select = append(frag.Select, d.QuoteIdent(table)+".*")

	joins, err := resolveJoins(ctx, d, provider, schema, opts)
	if err != nil {
		return nil, err
	}
	for _, j := range joins {
		alias := d.QuoteIdent(j.Alias)
		frag.Joins = append(frag.Joins, fmt.Sprintf("LEFT JOIN %s AS %s ON %s.%s = %s.%s",
			d.QuoteIdent(j.ForeignKey.ForeignTableName), alias,
			d.QuoteIdent(table), d.QuoteIdent(j.ForeignKey.ColumnName),
			alias, d.QuoteIdent(j.ForeignKey.ForeignColumnName)))
		frag.Select = append(frag.Select,
			fmt.Sprintf("%s.%s AS %s", alias, d.QuoteIdent(j.DisplayColumn), d.QuoteIdent(j.DisplayKey())),
			fmt.Sprintf("%s.%s AS %s", alias, d.QuoteIdent(j.ForeignKey.ForeignColumnName), d.QuoteIdent(j.IDKey())))
	}

	fc := newFilterCompiler(d, schema, frag.pb)
	fc.softDelete(opts.Filters)
	if opts.lookup {
		fc.primaryKey(opts.lookupID)
	}
	if err := fc.compile(opts.Filters); err != nil {
		return nil, err
	}
	frag.Where = fc.where

	if order := orderColumn(schema, opts.OrderBy); order != "" {
		frag.OrderBy = fmt.Sprintf("%s.%s %s", d.QuoteIdent(table), d.QuoteIdent(order), orderDirection(opts.OrderDirection))
	}

	from := frag.from(d, table)
	countParams := slices.Clone(frag.Params())

	sql := "SELECT " + strings.Join(frag.Select, ", ") + from
	if frag.OrderBy != "" {
		sql += " ORDER BY " + frag.OrderBy
	}
	limit := frag.pb.Add(opts.Limit)
	offset := frag.pb.Add((opts.Page - 1) * opts.Limit)
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)

	return &ListQuery{
		SQL:         sql,
		Params:      frag.Params(),
		CountSQL:    "SELECT COUNT(*) AS total" + from,
		CountParams: countParams,
		Joins:       joins,
		Page:        opts.Page,
		Limit:       opts.Limit,
	}, nil
}

func resolveJoins(ctx context.Context, d store.Dialect, provider metadata.Provider, schema *metadata.TableSchema, opts ListOptions) ([]JoinSpec, error) {
	for _, name := range opts.Include {
		if !slices.ContainsFunc(schema.ForeignKeys, func(fk metadata.ForeignKey) bool {
			return fk.ForeignTableName == name || fk.ColumnName == name
		}) {
			logger.Debug("Ignoring include %q: %s has no such foreign key", name, schema.TableName)
		}
	}

	var joins []JoinSpec
	for _, fk := range schema.ForeignKeys {
		if !opts.includes(fk) {
			continue
		}
		foreign, err := provider.TableSchema(ctx, fk.ForeignTableName)
		if err != nil {
			if errors.Is(err, metadata.ErrUnknownTable) {
				return nil, SchemaError(fmt.Sprintf("Foreign key %s.%s references unknown table %s",
					schema.TableName, fk.ColumnName, fk.ForeignTableName), err)
			}
			return nil, StorageError("introspect", fk.ForeignTableName, err)
		}
		if !foreign.HasColumn(fk.ForeignColumnName) {
			return nil, SchemaError(fmt.Sprintf("Foreign key %s.%s references unknown column %s.%s",
				schema.TableName, fk.ColumnName, fk.ForeignTableName, fk.ForeignColumnName), nil)
		}
		display := foreign.DisplayColumn()
		if display == "" {
			display = fk.ForeignColumnName
		}
		joins = append(joins, newJoinSpec(fk, display))
	}
	return joins, nil
}

// orderColumn validates the requested sort column, falling back to the
// primary key. Returns "" when neither is usable.
func orderColumn(schema *metadata.TableSchema, requested string) string {
	if requested != "" && schema.HasColumn(requested) {
		return requested
	}
	return schema.PrimaryKey
}

func orderDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "DESC") {
		return "DESC"
	}
	return "ASC"
}
