package duck

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "", Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func job(t *testing.T, arn string, doc map[string]any) *catalog.Resource {
	t.Helper()
	r, err := catalog.NewResource(arn, catalog.TrainingJob, doc, catalog.DefaultSchema(catalog.TrainingJob))
	if err != nil {
		t.Fatalf("NewResource() failed: %v", err)
	}
	return r
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.Put(context.Background(),
		job(t, "arn:job/a", map[string]any{
			"TrainingJobName":   "a",
			"TrainingJobStatus": "Completed",
			"CreationTime":      "2024-05-01T10:00:00Z",
			"Metrics":           map[string]any{"accuracy": "0.92"},
			"Tags":              map[string]any{"team": "vision"},
		}),
		job(t, "arn:job/b", map[string]any{
			"TrainingJobName":   "b",
			"TrainingJobStatus": "Failed",
			"CreationTime":      "2024-06-01T10:00:00Z",
			"Metrics":           map[string]any{"accuracy": "0.5"},
		}),
		job(t, "arn:job/c", map[string]any{
			"TrainingJobName":   "c-vision",
			"TrainingJobStatus": "InProgress",
		}),
	)
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
}

func arns(res []*catalog.Resource) []string {
	out := make([]string, len(res))
	for i, r := range res {
		out[i] = r.ARN
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	res, err := s.Resources(ctx, catalog.TrainingJob)
	if err != nil {
		t.Fatalf("Resources() failed: %v", err)
	}
	if got := arns(res); !equalStrings(got, []string{"arn:job/a", "arn:job/b", "arn:job/c"}) {
		t.Fatalf("Resources() = %v", got)
	}

	a, err := s.Resource(ctx, "arn:job/a")
	if err != nil || a == nil {
		t.Fatalf("Resource() = %v, %v", a, err)
	}
	acc, ok := a.Property("Metrics.accuracy")
	if !ok || acc.Type() != filter.TypeNumber || acc.String() != "0.92" {
		t.Errorf("Metrics.accuracy = %v %q", acc.Type(), acc.String())
	}
	created, ok := a.Property("CreationTime")
	if tm, _ := created.Time(); !ok || !tm.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreationTime = %v", created.String())
	}

	missing, err := s.Resource(ctx, "arn:nope")
	if err != nil || missing != nil {
		t.Errorf("Resource(missing) = %v, %v", missing, err)
	}

	empty, err := s.Resources(ctx, catalog.Endpoint)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Resources(Endpoint) = %v, %v; want empty slice", empty, err)
	}
}

func TestStorePutReplacesProperties(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	err := s.Put(ctx, job(t, "arn:job/a", map[string]any{"TrainingJobStatus": "Stopped"}))
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	a, err := s.Resource(ctx, "arn:job/a")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Properties) != 1 {
		t.Errorf("expected stale properties removed, got %v", a.PropertyNames())
	}

	bad := &catalog.Resource{ARN: "arn:job/x", Type: catalog.TrainingJob, Properties: filter.Properties{
		"TrainingJobStatus": filter.Text("Done"),
	}}
	if err := s.Put(ctx, bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	if err := s.Delete(ctx, "arn:job/b"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := s.Delete(ctx, "arn:job/b"); err != nil {
		t.Fatalf("Delete() of missing ARN failed: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats[catalog.TrainingJob] != 2 {
		t.Errorf("Stats() = %v", stats)
	}
}

func TestStoreSearchResources(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()
	schema := catalog.DefaultSchema(catalog.TrainingJob)

	tests := []struct {
		name string
		expr filter.SearchExpression
		want []string
	}{
		{
			name: "empty expression",
			want: []string{"arn:job/a", "arn:job/b", "arn:job/c"},
		},
		{
			name: "text equals",
			expr: filter.AllOf(filter.NewFilter("TrainingJobStatus", filter.OpEquals, "Failed")),
			want: []string{"arn:job/b"},
		},
		{
			name: "number greater than",
			expr: filter.AllOf(filter.NewFilter("Metrics.accuracy", filter.OpGreaterThan, "0.9")),
			want: []string{"arn:job/a"},
		},
		{
			name: "timestamp and tag",
			expr: filter.AllOf(
				filter.NewFilter("CreationTime", filter.OpLessThan, "2024-05-15T00:00:00Z"),
				filter.NewFilter("Tags.team", filter.OpEquals, "vision"),
			),
			want: []string{"arn:job/a"},
		},
		{
			name: "contains or not exists",
			expr: filter.AnyOf(
				filter.NewFilter("TrainingJobName", filter.OpContains, "vision"),
				filter.NotExists("Metrics.accuracy"),
			),
			want: []string{"arn:job/c"},
		},
		{
			name: "in",
			expr: filter.AllOf(filter.NewFilter("TrainingJobStatus", filter.OpIn, "Completed,InProgress")),
			want: []string{"arn:job/a", "arn:job/c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := filter.CompileExpression(tt.expr, schema)
			if err != nil {
				t.Fatalf("CompileExpression() failed: %v", err)
			}
			res, err := s.SearchResources(ctx, catalog.TrainingJob, c)
			if err != nil {
				t.Fatalf("SearchResources() failed: %v", err)
			}
			var matched []string
			for _, r := range res {
				if c.Match(r) {
					matched = append(matched, r.ARN)
				}
			}
			if !equalStrings(matched, tt.want) {
				t.Errorf("matched %v, want %v (pre-filter returned %v)", matched, tt.want, arns(res))
			}
		})
	}
}

func TestStoreCatalog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	types, err := s.ResourceTypes(ctx)
	if err != nil || len(types) != len(catalog.ResourceTypes()) {
		t.Errorf("ResourceTypes() = %v, %v", types, err)
	}
	schema, err := s.Schema(ctx, catalog.Endpoint)
	if err != nil || schema == nil {
		t.Errorf("Schema(Endpoint) = %v, %v", schema, err)
	}
	if err := s.CheckLayout(ctx); err != nil {
		t.Errorf("CheckLayout() failed: %v", err)
	}
}

func TestStoreLimitedSchemas(t *testing.T) {
	s, err := Open(context.Background(), "", Options{
		Schemas: map[catalog.ResourceType]*filter.Schema{
			catalog.TrainingJob: catalog.DefaultSchema(catalog.TrainingJob),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	types, _ := s.ResourceTypes(ctx)
	if len(types) != 1 || types[0] != catalog.TrainingJob {
		t.Errorf("ResourceTypes() = %v", types)
	}
	ep := &catalog.Resource{ARN: "arn:ep", Type: catalog.Endpoint}
	if err := s.Put(ctx, ep); err == nil {
		t.Error("expected error storing a type that is not served")
	}
}

func TestTypedColumns(t *testing.T) {
	tests := []struct {
		name    string
		v       filter.Value
		wantNum bool
		wantTS  bool
	}{
		{"text", filter.Text("Completed"), false, false},
		{"numeric text", filter.Text("42"), true, true},
		{"number", filter.MustNumber("0.5"), true, true},
		{"timestamp", filter.Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), false, true},
		{"timestamp text", filter.Text("2024-01-01T00:00:00Z"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, ts := typedColumns(tt.v)
			if num.Valid != tt.wantNum || ts.Valid != tt.wantTS {
				t.Errorf("typedColumns() num=%v ts=%v", num.Valid, ts.Valid)
			}
		})
	}
}
