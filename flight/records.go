package flight

import (
	"encoding/json"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/sagesearch/catalog"
)

// MetadataNextToken is the schema metadata key carrying the NextToken of a
// DoGet result stream. It is absent on the last page.
const MetadataNextToken = "sagesearch.next_token"

// ResultSchema is the Arrow schema of search results: one row per
// resource, properties as a JSON object of literals.
var ResultSchema = arrow.NewSchema([]arrow.Field{
	{Name: "arn", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "resource_type", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "properties", Type: arrow.BinaryTypes.String, Nullable: false},
}, nil)

// resultSchema returns ResultSchema with the page token in its metadata.
func resultSchema(nextToken string) *arrow.Schema {
	if nextToken == "" {
		return ResultSchema
	}
	md := arrow.NewMetadata([]string{MetadataNextToken}, []string{nextToken})
	return arrow.NewSchema(ResultSchema.Fields(), &md)
}

// buildResultRecord converts resources to a record batch of schema.
// The caller must release the record.
func buildResultRecord(allocator memory.Allocator, schema *arrow.Schema, results []*catalog.Resource) (arrow.RecordBatch, error) {
	builder := array.NewRecordBuilder(allocator, schema)
	defer builder.Release()

	arnBuilder := builder.Field(0).(*array.StringBuilder)
	typeBuilder := builder.Field(1).(*array.StringBuilder)
	propsBuilder := builder.Field(2).(*array.StringBuilder)

	for _, r := range results {
		props, err := json.Marshal(r.PropertyStrings())
		if err != nil {
			return nil, fmt.Errorf("failed to encode properties of %s: %w", r.ARN, err)
		}
		arnBuilder.Append(r.ARN)
		typeBuilder.Append(string(r.Type))
		propsBuilder.Append(string(props))
	}

	return builder.NewRecordBatch(), nil
}

// ResultItem is the wire form of one search result in DoAction responses.
type ResultItem struct {
	ARN          string            `msgpack:"arn"`
	ResourceType string            `msgpack:"resource_type"`
	Properties   map[string]string `msgpack:"properties"`
}

func resultItems(results []*catalog.Resource) []ResultItem {
	items := make([]ResultItem, len(results))
	for i, r := range results {
		items[i] = ResultItem{
			ARN:          r.ARN,
			ResourceType: string(r.Type),
			Properties:   r.PropertyStrings(),
		}
	}
	return items
}
