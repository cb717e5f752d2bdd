package flight

import (
	"encoding/json"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
)

func TestBuildResultRecord(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	results := []*catalog.Resource{
		{ARN: "arn:job/a", Type: catalog.TrainingJob, Properties: filter.Properties{
			"TrainingJobStatus": filter.Text("Completed"),
			"Metrics.accuracy":  filter.MustNumber("0.93"),
		}},
		{ARN: "arn:job/b", Type: catalog.TrainingJob, Properties: filter.Properties{}},
	}

	schema := resultSchema("tok")
	if idx := schema.Metadata().FindKey(MetadataNextToken); idx < 0 || schema.Metadata().Values()[idx] != "tok" {
		t.Errorf("next token metadata missing: %v", schema.Metadata())
	}
	if resultSchema("") != ResultSchema {
		t.Error("last page should use the plain result schema")
	}

	record, err := buildResultRecord(allocator, schema, results)
	if err != nil {
		t.Fatalf("buildResultRecord() failed: %v", err)
	}
	defer record.Release()

	if record.NumRows() != 2 || record.NumCols() != 3 {
		t.Fatalf("record shape = %dx%d", record.NumRows(), record.NumCols())
	}
	arns := record.Column(0).(*array.String)
	types := record.Column(1).(*array.String)
	props := record.Column(2).(*array.String)
	if arns.Value(0) != "arn:job/a" || types.Value(1) != "TrainingJob" {
		t.Errorf("unexpected row values %q %q", arns.Value(0), types.Value(1))
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(props.Value(0)), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["Metrics.accuracy"] != "0.93" || decoded["TrainingJobStatus"] != "Completed" {
		t.Errorf("properties = %v", decoded)
	}
	if props.Value(1) != "{}" {
		t.Errorf("empty properties = %q, want {}", props.Value(1))
	}
}

func TestResultItems(t *testing.T) {
	items := resultItems([]*catalog.Resource{
		{ARN: "arn:endpoint/a", Type: catalog.Endpoint, Properties: filter.Properties{"EndpointStatus": filter.Text("InService")}},
	})
	if len(items) != 1 || items[0].ResourceType != "Endpoint" || items[0].Properties["EndpointStatus"] != "InService" {
		t.Errorf("resultItems() = %+v", items)
	}
}
