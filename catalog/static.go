package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/hugr-lab/sagesearch/filter"
)

// staticCatalog is an immutable catalog implementation built from CatalogBuilder.
type staticCatalog struct {
	types     map[ResourceType]*staticType
	byARN     map[string]*Resource
	typeOrder []ResourceType
}

// staticType holds one resource type's schema and resources, sorted by ARN.
type staticType struct {
	schema    *filter.Schema
	resources []*Resource
}

// NewStaticCatalog creates a static catalog.
// This is exported for use by the sagesearch package builder.
func NewStaticCatalog() *staticCatalog {
	return &staticCatalog{
		types: make(map[ResourceType]*staticType),
		byARN: make(map[string]*Resource),
	}
}

// AddResourceType adds a resource type with its schema and resources to the
// static catalog. This is used during catalog building.
// A nil schema means DefaultSchema(rt).
func (c *staticCatalog) AddResourceType(rt ResourceType, schema *filter.Schema, resources []*Resource) error {
	if _, exists := c.types[rt]; exists {
		return fmt.Errorf("duplicate resource type %q", rt)
	}
	if schema == nil {
		schema = DefaultSchema(rt)
	}
	if schema == nil {
		return fmt.Errorf("resource type %q has no schema", rt)
	}

	// Check every resource before registering any, so a failed call leaves
	// the catalog unchanged.
	seen := make(map[string]struct{}, len(resources))
	for i, r := range resources {
		if r == nil {
			return fmt.Errorf("resource %d of %q is nil", i, rt)
		}
		if r.Type != rt {
			return fmt.Errorf("resource %s has type %q, expected %q", r.ARN, r.Type, rt)
		}
		_, dup := c.byARN[r.ARN]
		if _, again := seen[r.ARN]; dup || again {
			return fmt.Errorf("duplicate resource ARN %s", r.ARN)
		}
		seen[r.ARN] = struct{}{}
	}

	sorted := make([]*Resource, len(resources))
	copy(sorted, resources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ARN < sorted[j].ARN })
	for _, r := range sorted {
		c.byARN[r.ARN] = r
	}

	c.types[rt] = &staticType{schema: schema, resources: sorted}
	c.typeOrder = append(c.typeOrder, rt)
	return nil
}

// ResourceTypes implements Catalog interface.
func (c *staticCatalog) ResourceTypes(ctx context.Context) ([]ResourceType, error) {
	result := make([]ResourceType, len(c.typeOrder))
	copy(result, c.typeOrder)
	return result, nil
}

// Schema implements Catalog interface.
func (c *staticCatalog) Schema(ctx context.Context, rt ResourceType) (*filter.Schema, error) {
	t, ok := c.types[rt]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return t.schema, nil
}

// Resources implements Catalog interface.
func (c *staticCatalog) Resources(ctx context.Context, rt ResourceType) ([]*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := c.types[rt]
	if !ok {
		return []*Resource{}, nil
	}
	result := make([]*Resource, len(t.resources))
	copy(result, t.resources)
	return result, nil
}

// Resource implements Catalog interface.
func (c *staticCatalog) Resource(ctx context.Context, arn string) (*Resource, error) {
	r, ok := c.byARN[arn]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return r, nil
}
