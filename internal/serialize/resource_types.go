package serialize

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/sagesearch/catalog"
)

// ResourceTypesSchema is the Arrow schema of a resource type listing:
// one row per declared property or property prefix.
var ResourceTypesSchema = arrow.NewSchema([]arrow.Field{
	{Name: "resource_type", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "property_name", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "property_type", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "is_prefix", Type: arrow.FixedWidthTypes.Boolean, Nullable: false},
}, nil)

// SerializeResourceTypes serializes the searchable resource types of a
// catalog and their declared properties to Arrow IPC stream format.
// Rows are ordered by resource type (catalog order) then property name.
func SerializeResourceTypes(ctx context.Context, cat catalog.Catalog, allocator memory.Allocator) ([]byte, error) {
	types, err := cat.ResourceTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get resource types: %w", err)
	}

	builder := array.NewRecordBuilder(allocator, ResourceTypesSchema)
	defer builder.Release()

	typeBuilder := builder.Field(0).(*array.StringBuilder)
	nameBuilder := builder.Field(1).(*array.StringBuilder)
	kindBuilder := builder.Field(2).(*array.StringBuilder)
	prefixBuilder := builder.Field(3).(*array.BooleanBuilder)

	for _, rt := range types {
		schema, err := cat.Schema(ctx, rt)
		if err != nil {
			return nil, fmt.Errorf("failed to get schema for %s: %w", rt, err)
		}
		decls := schema.Declarations()
		names := make([]string, 0, len(decls))
		for name := range decls {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			typeBuilder.Append(string(rt))
			nameBuilder.Append(name)
			kindBuilder.Append(decls[name].String())
			prefixBuilder.Append(strings.HasSuffix(name, "."))
		}
	}

	record := builder.NewRecordBatch()
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(ResourceTypesSchema), ipc.WithAllocator(allocator))
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write IPC record: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close IPC writer: %w", err)
	}

	return buf.Bytes(), nil
}

// CompressResourceTypes serializes and compresses the listing with ZStandard.
// It also returns the uncompressed size, which clients need to size the
// decompression buffer.
func CompressResourceTypes(ctx context.Context, cat catalog.Catalog, allocator memory.Allocator) ([]byte, int, error) {
	data, err := SerializeResourceTypes(ctx, cat, allocator)
	if err != nil {
		return nil, 0, err
	}

	codec, err := NewCodec(0)
	if err != nil {
		return nil, 0, err
	}
	defer codec.Close()

	return codec.Compress(data), len(data), nil
}
