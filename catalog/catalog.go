// Package catalog provides the resource property catalog: the store of
// searchable resources and the declared type of every searchable property.
//
// The catalog package follows an interface-based design to support both static and dynamic implementations:
//   - Static catalogs: Built using NewCatalogBuilder() fluent API (immutable, fast lookup)
//   - Dynamic catalogs: Custom implementations such as the DuckDB-backed store/duck
//
// All interfaces are goroutine-safe and support context-based cancellation.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugr-lab/sagesearch/filter"
)

var (
	// ErrResourceNotFound is returned when an ARN is not in the catalog.
	ErrResourceNotFound = errors.New("catalog: resource not found")

	// ErrReadOnly is returned when a write reaches a catalog that is not a
	// Writer.
	ErrReadOnly = errors.New("catalog: read-only")
)

// Catalog represents the searchable resources and their property schemas.
// Implementations can be static (from builder) or dynamic (user-provided).
// All methods MUST be goroutine-safe.
type Catalog interface {
	// ResourceTypes returns the resource types this catalog can search.
	// Returns empty slice (not nil) if none are available.
	// MUST respect context cancellation and deadlines.
	ResourceTypes(ctx context.Context) ([]ResourceType, error)

	// Schema returns the declared properties of a resource type.
	// Returns (nil, nil) if the type is not served (not an error).
	Schema(ctx context.Context, rt ResourceType) (*filter.Schema, error)

	// Resources returns every resource of the given type.
	// Returns empty slice (not nil) if none exist.
	// MUST respect context cancellation.
	Resources(ctx context.Context, rt ResourceType) ([]*Resource, error)

	// Resource returns a resource by ARN.
	// Returns (nil, nil) if it doesn't exist.
	Resource(ctx context.Context, arn string) (*Resource, error)
}

// FilterPushdown is implemented by catalogs that can pre-filter resources
// before in-process evaluation. The result may contain resources that do
// not match the expression; it must contain every resource that does.
type FilterPushdown interface {
	SearchResources(ctx context.Context, rt ResourceType, expr *filter.Compiled) ([]*Resource, error)
}

// Writer is implemented by mutable catalogs that accept resources over
// the wire. Put inserts or replaces by ARN; deleting an unknown ARN is not
// an error.
type Writer interface {
	Put(ctx context.Context, resources ...*Resource) error
	Delete(ctx context.Context, arn string) error
}

// PropertyLookup is the result of LookupProperty.
type PropertyLookup struct {
	// Value is the property value. Zero when Present is false.
	Value filter.Value
	// Declared is the type the resource schema declares for the property.
	Declared filter.PropertyType
	// Present reports whether the resource carries the property.
	Present bool
}

// LookupProperty resolves a property of one resource instance: its value
// (if present) and its declared type.
//
// Errors:
//   - ErrResourceNotFound if arn is unknown
//   - *filter.UnknownPropertyError if the resource type does not declare name
func LookupProperty(ctx context.Context, cat Catalog, arn, name string) (PropertyLookup, error) {
	res, err := cat.Resource(ctx, arn)
	if err != nil {
		return PropertyLookup{}, fmt.Errorf("catalog: lookup %s: %w", arn, err)
	}
	if res == nil {
		return PropertyLookup{}, fmt.Errorf("%w: %s", ErrResourceNotFound, arn)
	}
	schema, err := cat.Schema(ctx, res.Type)
	if err != nil {
		return PropertyLookup{}, fmt.Errorf("catalog: schema %s: %w", res.Type, err)
	}
	declared, err := schema.Resolve(name)
	if err != nil {
		return PropertyLookup{}, err
	}
	v, ok := res.Property(name)
	return PropertyLookup{Value: v, Declared: declared, Present: ok}, nil
}
