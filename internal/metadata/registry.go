package metadata

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Registry memoizes table schemas loaded from an underlying Provider.
// Snapshots are never mutated after they are stored, so callers may share them.
type Registry struct {
	mu     sync.RWMutex
	source Provider
	tables map[string]*TableSchema
}

func NewRegistry(source Provider) *Registry {
	return &Registry{
		source: source,
		tables: make(map[string]*TableSchema),
	}
}

// TableSchema returns the cached schema for table, loading it on first use.
func (r *Registry) TableSchema(ctx context.Context, table string) (*TableSchema, error) {
	r.mu.RLock()
	s, ok := r.tables[table]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	// Names from request routing may alias a reused buffer; the cache must own its keys.
	table = strings.Clone(table)
	s, err := r.source.TableSchema(ctx, table)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have loaded it meanwhile; keep the first snapshot.
	if existing, ok := r.tables[table]; ok {
		return existing, nil
	}
	r.tables[table] = s
	return s, nil
}

// Tables returns the names of all cached tables, sorted.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invalidate drops the cached schema of a single table.
func (r *Registry) Invalidate(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, table)
}

// Reset drops all cached schemas. Called after DDL changes.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = make(map[string]*TableSchema)
}
