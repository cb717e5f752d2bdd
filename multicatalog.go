package sagesearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
)

// MultiCatalog serves several catalogs as one, routing each resource type
// to the catalog that serves it. Catalogs can be added and removed at
// runtime; a resource type may be served by only one catalog at a time.
//
// MultiCatalog implements catalog.FilterPushdown and catalog.Writer by
// delegating to the routed catalog when it supports them.
type MultiCatalog struct {
	mu      sync.RWMutex
	names   []string
	members map[string]catalog.Catalog
	routes  map[catalog.ResourceType]string
	logger  *slog.Logger
}

var (
	_ catalog.Catalog        = (*MultiCatalog)(nil)
	_ catalog.FilterPushdown = (*MultiCatalog)(nil)
	_ catalog.Writer         = (*MultiCatalog)(nil)
)

// NewMultiCatalog creates an empty MultiCatalog.
// A nil logger uses slog.Default().
//
// Example:
//
//	mc := sagesearch.NewMultiCatalog(logger)
//	mc.AddCatalog(ctx, "static", staticCatalog)
//	mc.AddCatalog(ctx, "duck", store)
func NewMultiCatalog(logger *slog.Logger) *MultiCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiCatalog{
		members: make(map[string]catalog.Catalog),
		routes:  make(map[catalog.ResourceType]string),
		logger:  logger,
	}
}

// AddCatalog adds a catalog under a unique name at runtime.
// Returns error if the name is taken or a resource type of cat is already
// served by another catalog.
func (m *MultiCatalog) AddCatalog(ctx context.Context, name string, cat catalog.Catalog) error {
	if cat == nil {
		return fmt.Errorf("%w: catalog %q is nil", ErrInvalidConfig, name)
	}
	types, err := cat.ResourceTypes(ctx)
	if err != nil {
		return fmt.Errorf("catalog %q: resource types: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.members[name]; exists {
		return fmt.Errorf("%w: duplicate catalog name %q", ErrInvalidConfig, name)
	}
	for _, rt := range types {
		if owner, ok := m.routes[rt]; ok {
			return fmt.Errorf("%w: %s is served by %q and %q", ErrDuplicateResourceType, rt, owner, name)
		}
	}

	m.members[name] = cat
	m.names = append(m.names, name)
	for _, rt := range types {
		m.routes[rt] = name
	}

	m.logger.Info("Catalog added", "catalog", name, "resource_types", len(types))
	return nil
}

// RemoveCatalog removes a catalog by name at runtime.
func (m *MultiCatalog) RemoveCatalog(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.members[name]; !exists {
		return fmt.Errorf("catalog %q not found", name)
	}
	delete(m.members, name)
	m.names = slices.DeleteFunc(m.names, func(n string) bool { return n == name })
	for rt, owner := range m.routes {
		if owner == name {
			delete(m.routes, rt)
		}
	}

	m.logger.Info("Catalog removed", "catalog", name)
	return nil
}

// IsExists checks if a catalog with the given name exists.
func (m *MultiCatalog) IsExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[name]
	return ok
}

// route returns the catalog serving rt, or nil.
func (m *MultiCatalog) route(rt catalog.ResourceType) catalog.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.members[m.routes[rt]]
}

// member is a named catalog.
type member struct {
	name string
	cat  catalog.Catalog
}

// snapshot returns the member catalogs in insertion order.
func (m *MultiCatalog) snapshot() []member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]member, len(m.names))
	for i, name := range m.names {
		out[i] = member{name: name, cat: m.members[name]}
	}
	return out
}

// owns reports whether the named catalog serves rt.
func (m *MultiCatalog) owns(name string, rt catalog.ResourceType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.routes[rt]
	return ok && owner == name
}

// ResourceTypes implements catalog.Catalog. Types are listed in
// declaration order.
func (m *MultiCatalog) ResourceTypes(ctx context.Context) ([]catalog.ResourceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]catalog.ResourceType, 0, len(m.routes))
	for _, rt := range catalog.ResourceTypes() {
		if _, ok := m.routes[rt]; ok {
			result = append(result, rt)
		}
	}
	return result, nil
}

// Schema implements catalog.Catalog.
func (m *MultiCatalog) Schema(ctx context.Context, rt catalog.ResourceType) (*filter.Schema, error) {
	cat := m.route(rt)
	if cat == nil {
		return nil, nil
	}
	return cat.Schema(ctx, rt)
}

// Resources implements catalog.Catalog.
func (m *MultiCatalog) Resources(ctx context.Context, rt catalog.ResourceType) ([]*catalog.Resource, error) {
	cat := m.route(rt)
	if cat == nil {
		return []*catalog.Resource{}, nil
	}
	return cat.Resources(ctx, rt)
}

// Resource implements catalog.Catalog. Member catalogs are asked in
// insertion order; only a resource of a type the member serves counts.
func (m *MultiCatalog) Resource(ctx context.Context, arn string) (*catalog.Resource, error) {
	for _, mem := range m.snapshot() {
		r, err := mem.cat.Resource(ctx, arn)
		if err != nil {
			return nil, err
		}
		if r != nil && m.owns(mem.name, r.Type) {
			return r, nil
		}
	}
	return nil, nil
}

// SearchResources implements catalog.FilterPushdown, falling back to the
// full resource list when the routed catalog cannot pre-filter.
func (m *MultiCatalog) SearchResources(ctx context.Context, rt catalog.ResourceType, expr *filter.Compiled) ([]*catalog.Resource, error) {
	cat := m.route(rt)
	if cat == nil {
		return []*catalog.Resource{}, nil
	}
	if pd, ok := cat.(catalog.FilterPushdown); ok {
		return pd.SearchResources(ctx, rt, expr)
	}
	return cat.Resources(ctx, rt)
}

// Put implements catalog.Writer, routing each resource by its type.
func (m *MultiCatalog) Put(ctx context.Context, resources ...*catalog.Resource) error {
	groups := make(map[catalog.Writer][]*catalog.Resource)
	var order []catalog.Writer
	for _, r := range resources {
		if r == nil {
			return errors.New("resource is nil")
		}
		cat := m.route(r.Type)
		if cat == nil {
			return fmt.Errorf("resource %s: resource type %s is not served", r.ARN, r.Type)
		}
		w, ok := cat.(catalog.Writer)
		if !ok {
			return fmt.Errorf("resource %s: %w", r.ARN, catalog.ErrReadOnly)
		}
		if _, seen := groups[w]; !seen {
			order = append(order, w)
		}
		groups[w] = append(groups[w], r)
	}
	for _, w := range order {
		if err := w.Put(ctx, groups[w]...); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements catalog.Writer. The resource is removed from the
// catalog holding it; deleting an unknown ARN is not an error.
func (m *MultiCatalog) Delete(ctx context.Context, arn string) error {
	r, err := m.Resource(ctx, arn)
	if err != nil || r == nil {
		return err
	}
	w, ok := m.route(r.Type).(catalog.Writer)
	if !ok {
		return fmt.Errorf("resource %s: %w", arn, catalog.ErrReadOnly)
	}
	return w.Delete(ctx, arn)
}
