package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"crud-admin/internal/config"
	"crud-admin/internal/logger"
	"crud-admin/internal/metadata"
	"crud-admin/internal/store"
)

// TableLister enumerates the tables a Service can operate on.
type TableLister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// Service runs CRUD operations against any introspected table.
type Service struct {
	db       store.Querier
	dialect  store.Dialect
	provider metadata.Provider
	tables   TableLister
	limits   config.QueryConfig
}

// NewService builds a Service over the store. provider supplies table
// schemas, normally a metadata.Registry wrapping a store.Introspector.
func NewService(s *store.Store, provider metadata.Provider, tables TableLister, limits config.QueryConfig) *Service {
	if limits.DefaultLimit < 1 {
		limits.DefaultLimit = DefaultLimit
	}
	if limits.OptionsLimit < 1 {
		limits.OptionsLimit = 1000
	}
	return &Service{
		db:       s.DB,
		dialect:  s.Dialect,
		provider: provider,
		tables:   tables,
		limits:   limits,
	}
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func newPagination(total int64, page, limit int) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type ListResult struct {
	Data       []Record   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Schema returns the table's schema, mapping unknown tables to UnknownTableError.
func (s *Service) Schema(ctx context.Context, table string) (*metadata.TableSchema, error) {
	ts, err := s.provider.TableSchema(ctx, table)
	if err != nil {
		if errors.Is(err, metadata.ErrUnknownTable) {
			return nil, UnknownTableError(table, err)
		}
		return nil, StorageError("introspect", table, err)
	}
	return ts, nil
}

// ListTables returns the names of all user tables.
func (s *Service) ListTables(ctx context.Context) ([]string, error) {
	if s.tables == nil {
		return []string{}, nil
	}
	tables, err := s.tables.ListTables(ctx)
	if err != nil {
		return nil, StorageError("list", "tables", err)
	}
	return tables, nil
}

// Create inserts a row and returns it as stored.
func (s *Service) Create(ctx context.Context, table string, data Record) (Record, error) {
	schema, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	stmt, err := BuildInsert(s.dialect, schema, data)
	if err != nil {
		return nil, err
	}
	row, err := s.queryOne(ctx, "create", schema, stmt)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, StorageError("create", table, err)
		}
		return nil, err
	}
	return row, nil
}

// Read returns one page of rows with joined display values and pagination.
// The page and count queries run concurrently.
func (s *Service) Read(ctx context.Context, table string, opts ListOptions) (*ListResult, error) {
	schema, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	if opts.Limit < 1 {
		opts.Limit = s.limits.DefaultLimit
	}
	q, err := BuildListQuery(ctx, s.dialect, s.provider, schema, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("list %s: %s %v", table, q.SQL, q.Params)

	var rows []Record
	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = logger.HandlePanic("list "+table, r)
			}
		}()
		rows, err = store.QueryRows(gctx, s.db, q.SQL, q.Params...)
		return err
	})
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = logger.HandlePanic("count "+table, r)
			}
		}()
		row, err := store.QueryRow(gctx, s.db, q.CountSQL, q.CountParams...)
		if err != nil {
			return err
		}
		total, err = cast.ToInt64E(row["total"])
		if err != nil {
			return fmt.Errorf("decode count: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, StorageError("read", table, s.dialect.MapError(err))
	}

	if rows == nil {
		rows = []Record{}
	}
	postProcess(s.dialect, schema, rows, q.Joins)
	return &ListResult{Data: rows, Pagination: newPagination(total, q.Page, q.Limit)}, nil
}

// ReadOne returns the visible row with the given primary key, joined like Read.
func (s *Service) ReadOne(ctx context.Context, table string, id any, include []string) (Record, error) {
	schema, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	pk := schema.PrimaryKeyColumn()
	if pk == nil {
		return nil, NoPrimaryKeyError(table)
	}
	idValue, err := primaryKeyValue(pk, id)
	if err != nil {
		return nil, err
	}

	opts := ListOptions{Page: 1, Limit: 1, Include: include, lookup: true, lookupID: idValue}
	q, err := BuildListQuery(ctx, s.dialect, s.provider, schema, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("read %s: %s %v", table, q.SQL, q.Params)

	rows, err := store.QueryRows(ctx, s.db, q.SQL, q.Params...)
	if err != nil {
		return nil, StorageError("read", table, s.dialect.MapError(err))
	}
	if len(rows) == 0 {
		return nil, NotFoundError(table, id)
	}
	postProcess(s.dialect, schema, rows, q.Joins)
	return rows[0], nil
}

// Update writes the given columns of a row and returns it as stored.
func (s *Service) Update(ctx context.Context, table string, id any, data Record) (Record, error) {
	schema, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	stmt, err := BuildUpdate(s.dialect, schema, id, data)
	if err != nil {
		return nil, err
	}
	row, err := s.queryOne(ctx, "update", schema, stmt)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError(table, id)
	}
	return row, err
}

// Delete soft-deletes the row when the table supports it, or removes it.
// Deleting an already soft-deleted row reports NotFound.
func (s *Service) Delete(ctx context.Context, table string, id any) (Record, error) {
	schema, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	stmt, err := BuildDelete(s.dialect, schema, id)
	if err != nil {
		return nil, err
	}
	row, err := s.queryOne(ctx, "delete", schema, stmt)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError(table, id)
	}
	return row, err
}

// queryOne runs a RETURNING statement. store.ErrNotFound is returned as is
// when no row came back; driver errors become StorageError.
func (s *Service) queryOne(ctx context.Context, op string, schema *metadata.TableSchema, stmt Statement) (Record, error) {
	logger.Debug("%s %s: %s %v", op, schema.TableName, stmt.SQL, stmt.Params)
	row, err := store.QueryRow(ctx, s.db, stmt.SQL, stmt.Params...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, StorageError(op, schema.TableName, s.dialect.MapError(err))
	}
	normalizeRecords(s.dialect, schema, []Record{row})
	return row, nil
}
