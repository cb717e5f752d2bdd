package sagesearch

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
)

// CatalogBuilder builds static catalogs using fluent API.
// Not thread-safe - use only during initialization.
type CatalogBuilder struct {
	types []*resourceTypeBuilder
	built bool
}

// NewCatalogBuilder creates a new fluent catalog builder.
// Returns builder in "empty" state (no resource types).
//
// Example:
//
//	cat, err := sagesearch.NewCatalogBuilder().
//	    ResourceType(catalog.TrainingJob).
//	        Document("arn:aws:sagemaker:us-east-1:123:training-job/a", doc).
//	    ResourceType(catalog.Endpoint).
//	    Build()
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		types: make([]*resourceTypeBuilder, 0),
	}
}

// ResourceType starts defining a served resource type.
// Returns ResourceTypeBuilder for adding resources of this type.
// Each resource type may be added once.
func (cb *CatalogBuilder) ResourceType(rt catalog.ResourceType) *ResourceTypeBuilder {
	tb := &resourceTypeBuilder{
		rt:             rt,
		catalogBuilder: cb,
	}
	cb.types = append(cb.types, tb)
	return &ResourceTypeBuilder{builder: tb}
}

// Build finalizes the catalog and returns immutable Catalog implementation.
// Can only be called once. Further modifications return error.
// Returns error if catalog is invalid (e.g., duplicate resource types,
// unknown types, or resources failing validation).
func (cb *CatalogBuilder) Build() (catalog.Catalog, error) {
	if cb.built {
		return nil, fmt.Errorf("catalog already built")
	}

	seen := make(map[catalog.ResourceType]bool)
	for _, tb := range cb.types {
		if !tb.rt.IsValid() {
			return nil, fmt.Errorf("unknown resource type %q", tb.rt)
		}
		if seen[tb.rt] {
			return nil, fmt.Errorf("duplicate resource type: %s", tb.rt)
		}
		seen[tb.rt] = true
		if len(tb.errs) > 0 {
			return nil, fmt.Errorf("resource type %s: %w", tb.rt, errors.Join(tb.errs...))
		}
		for _, r := range tb.resources {
			if err := r.Validate(); err != nil {
				return nil, err
			}
		}
	}

	cb.built = true

	cat := catalog.NewStaticCatalog()
	for _, tb := range cb.types {
		if err := cat.AddResourceType(tb.rt, tb.schema, tb.resources); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// ResourceTypeBuilder builds one resource type within a catalog.
// Not thread-safe - use only during initialization.
type ResourceTypeBuilder struct {
	builder *resourceTypeBuilder
}

type resourceTypeBuilder struct {
	rt             catalog.ResourceType
	schema         *filter.Schema
	resources      []*catalog.Resource
	errs           []error
	catalogBuilder *CatalogBuilder
}

// Schema overrides the declared searchable properties of this type.
// Without it the type uses catalog.DefaultSchema.
func (tb *ResourceTypeBuilder) Schema(schema *filter.Schema) *ResourceTypeBuilder {
	tb.builder.schema = schema
	return tb
}

// Resource adds already-flattened resources of this type.
func (tb *ResourceTypeBuilder) Resource(resources ...*catalog.Resource) *ResourceTypeBuilder {
	tb.builder.resources = append(tb.builder.resources, resources...)
	return tb
}

// Document adds a resource from a nested document such as a decoded
// Describe* response. Property types follow the type's schema, so call
// Schema first when overriding it. Errors are reported by Build.
//
// Example:
//
//	tb.Document(arn, map[string]any{
//	    "TrainingJobStatus": "Completed",
//	    "Metrics":           map[string]any{"accuracy": 0.93},
//	})
func (tb *ResourceTypeBuilder) Document(arn string, doc map[string]any) *ResourceTypeBuilder {
	schema := tb.builder.schema
	if schema == nil {
		schema = catalog.DefaultSchema(tb.builder.rt)
	}
	if schema == nil {
		tb.builder.errs = append(tb.builder.errs, fmt.Errorf("resource %s: no schema for %q", arn, tb.builder.rt))
		return tb
	}
	r, err := catalog.NewResource(arn, tb.builder.rt, doc, schema)
	if err != nil {
		tb.builder.errs = append(tb.builder.errs, err)
		return tb
	}
	tb.builder.resources = append(tb.builder.resources, r)
	return tb
}

// ResourceType starts a new resource type (returns to CatalogBuilder).
func (tb *ResourceTypeBuilder) ResourceType(rt catalog.ResourceType) *ResourceTypeBuilder {
	return tb.builder.catalogBuilder.ResourceType(rt)
}

// Build finalizes the catalog (returns to CatalogBuilder).
// Same as calling catalogBuilder.Build().
func (tb *ResourceTypeBuilder) Build() (catalog.Catalog, error) {
	return tb.builder.catalogBuilder.Build()
}
