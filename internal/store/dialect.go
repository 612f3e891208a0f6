package store

import (
	"context"
	"strings"

	"crud-admin/internal/metadata"
)

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// QuoteIdent quotes a table or column name. Callers must only pass names
	// that were validated against introspected metadata.
	QuoteIdent(name string) string

	// ILike returns the case-insensitive pattern match operator.
	// PostgreSQL: "ILIKE". SQLite: "LIKE" (case-insensitive for ASCII).
	ILike() string

	// ListTables returns the user tables visible in the given schema.
	ListTables(ctx context.Context, q Querier, schema string) ([]string, error)

	// LoadTable introspects one table. Returns nil, nil when it does not exist.
	LoadTable(ctx context.Context, q Querier, schema, table string) (*metadata.TableSchema, error)

	// MapError inspects a driver error and returns a well-known sentinel error if applicable.
	MapError(err error) error

	// NeedsBoolFix returns true if boolean columns come back as integers (SQLite).
	NeedsBoolFix() bool
}

// ParamBuilder accumulates query parameters and generates dialect-specific placeholders.
type ParamBuilder interface {
	// Add appends a value and returns the placeholder string.
	Add(v any) string

	// Params returns all accumulated parameter values.
	Params() []any
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

// quoteIdent wraps an identifier in double quotes, doubling embedded quotes.
// Both supported dialects accept standard SQL quoting.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// paramBuilder numbers parameters with the owning dialect's placeholder style.
type paramBuilder struct {
	placeholder func(index int) string
	params      []any
}

func (p *paramBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return p.placeholder(len(p.params))
}

func (p *paramBuilder) Params() []any { return p.params }
