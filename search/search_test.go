package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
	"github.com/hugr-lab/sagesearch/internal/recovery"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob(t *testing.T, arn string, doc map[string]any) *catalog.Resource {
	t.Helper()
	r, err := catalog.NewResource(arn, catalog.TrainingJob, doc, catalog.DefaultSchema(catalog.TrainingJob))
	if err != nil {
		t.Fatalf("NewResource() failed: %v", err)
	}
	return r
}

// testCatalog serves five training jobs:
//
//	job/1 Completed accuracy 0.95 created 2024-01-01
//	job/2 Completed accuracy 0.85 created 2024-02-01
//	job/3 Failed    accuracy 0.50 created 2024-03-01
//	job/4 Completed               created 2024-04-01
//	job/5 Stopped   accuracy 0.99 (no CreationTime)
func testCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	jobs := []*catalog.Resource{
		testJob(t, "arn:job/1", map[string]any{"TrainingJobStatus": "Completed", "CreationTime": "2024-01-01T00:00:00Z", "Metrics": map[string]any{"accuracy": 0.95}}),
		testJob(t, "arn:job/2", map[string]any{"TrainingJobStatus": "Completed", "CreationTime": "2024-02-01T00:00:00Z", "Metrics": map[string]any{"accuracy": 0.85}}),
		testJob(t, "arn:job/3", map[string]any{"TrainingJobStatus": "Failed", "CreationTime": "2024-03-01T00:00:00Z", "Metrics": map[string]any{"accuracy": 0.5}}),
		testJob(t, "arn:job/4", map[string]any{"TrainingJobStatus": "Completed", "CreationTime": "2024-04-01T00:00:00Z", "Tags": map[string]any{"team": "nlp"}}),
		testJob(t, "arn:job/5", map[string]any{"TrainingJobStatus": "Stopped", "Metrics": map[string]any{"accuracy": 0.99, "loss": 0.1}}),
	}
	cat := catalog.NewStaticCatalog()
	if err := cat.AddResourceType(catalog.TrainingJob, nil, jobs); err != nil {
		t.Fatal(err)
	}
	return cat
}

func newSearcher(t *testing.T, cat catalog.Catalog, opts Options) *Searcher {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	s, err := New(cat, opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func resultARNs(resp *Response) []string {
	out := make([]string, len(resp.Results))
	for i, r := range resp.Results {
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

func expr(e filter.SearchExpression) *filter.SearchExpression { return &e }

func TestSearch(t *testing.T) {
	s := newSearcher(t, testCatalog(t), Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "no expression default sort",
			req:  Request{Resource: catalog.TrainingJob},
			want: []string{"arn:job/4", "arn:job/3", "arn:job/2", "arn:job/1", "arn:job/5"},
		},
		{
			name: "ascending keeps missing last",
			req:  Request{Resource: catalog.TrainingJob, SortOrder: Ascending},
			want: []string{"arn:job/1", "arn:job/2", "arn:job/3", "arn:job/4", "arn:job/5"},
		},
		{
			name: "status equals",
			req: Request{
				Resource:         catalog.TrainingJob,
				SearchExpression: expr(filter.AllOf(filter.NewFilter("TrainingJobStatus", filter.OpEquals, "Completed"))),
			},
			want: []string{"arn:job/4", "arn:job/2", "arn:job/1"},
		},
		{
			name: "metric threshold sorted by metric",
			req: Request{
				Resource:         catalog.TrainingJob,
				SearchExpression: expr(filter.AllOf(filter.NewFilter("Metrics.accuracy", filter.OpGreaterThanOrEqualTo, "0.85"))),
				SortBy:           "Metrics.accuracy",
				SortOrder:        Descending,
			},
			want: []string{"arn:job/5", "arn:job/1", "arn:job/2"},
		},
		{
			name: "or with not exists",
			req: Request{
				Resource: catalog.TrainingJob,
				SearchExpression: expr(filter.AnyOf(
					filter.NotExists("Metrics.accuracy"),
					filter.NewFilter("TrainingJobStatus", filter.OpEquals, "Failed"),
				)),
			},
			want: []string{"arn:job/4", "arn:job/3"},
		},
		{
			name: "nested expression",
			req: Request{
				Resource: catalog.TrainingJob,
				SearchExpression: &filter.SearchExpression{
					Operator: filter.And,
					Filters:  []filter.Filter{filter.Exists("Metrics.accuracy")},
					SubExpressions: []filter.SearchExpression{
						filter.AnyOf(
							filter.NewFilter("TrainingJobStatus", filter.OpIn, "Stopped,Failed"),
							filter.NewFilter("CreationTime", filter.OpLessThan, "2024-01-15T00:00:00Z"),
						),
					},
				},
				SortOrder: Ascending,
			},
			want: []string{"arn:job/1", "arn:job/3", "arn:job/5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Search(ctx, tt.req)
			if err != nil {
				t.Fatalf("Search() failed: %v", err)
			}
			if got := resultARNs(resp); !equalStrings(got, tt.want) {
				t.Errorf("Search() = %v, want %v", got, tt.want)
			}
			if resp.NextToken != "" {
				t.Errorf("unexpected NextToken on a single page")
			}
		})
	}
}

func TestSearchPagination(t *testing.T) {
	s := newSearcher(t, testCatalog(t), Options{DefaultMaxResults: 2})
	ctx := context.Background()

	req := Request{Resource: catalog.TrainingJob, SortOrder: Ascending}
	var pages [][]string
	for i := 0; i < 5; i++ {
		resp, err := s.Search(ctx, req)
		if err != nil {
			t.Fatalf("Search() page %d failed: %v", i, err)
		}
		pages = append(pages, resultARNs(resp))
		if resp.NextToken == "" {
			break
		}
		req.NextToken = resp.NextToken
	}
	want := [][]string{
		{"arn:job/1", "arn:job/2"},
		{"arn:job/3", "arn:job/4"},
		{"arn:job/5"},
	}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages, want %d: %v", len(pages), len(want), pages)
	}
	for i := range want {
		if !equalStrings(pages[i], want[i]) {
			t.Errorf("page %d = %v, want %v", i, pages[i], want[i])
		}
	}

	first, err := s.Search(ctx, Request{Resource: catalog.TrainingJob, SortOrder: Ascending})
	if err != nil {
		t.Fatal(err)
	}

	// Page size may change between pages.
	resp, err := s.Search(ctx, Request{Resource: catalog.TrainingJob, SortOrder: Ascending, MaxResults: 10, NextToken: first.NextToken})
	if err != nil {
		t.Fatalf("Search() with new MaxResults failed: %v", err)
	}
	if got := resultARNs(resp); !equalStrings(got, []string{"arn:job/3", "arn:job/4", "arn:job/5"}) {
		t.Errorf("Search() = %v", got)
	}

	// A token only applies to the request it was issued for.
	_, err = s.Search(ctx, Request{Resource: catalog.TrainingJob, SortOrder: Descending, NextToken: first.NextToken})
	if !errors.Is(err, ErrInvalidNextToken) {
		t.Errorf("expected ErrInvalidNextToken for a different request, got %v", err)
	}

	for _, bad := range []string{"not a token!", "AAAA", "KLUv_QBYAQAA"} {
		_, err = s.Search(ctx, Request{Resource: catalog.TrainingJob, NextToken: bad})
		if !errors.Is(err, ErrInvalidNextToken) {
			t.Errorf("NextToken %q: expected ErrInvalidNextToken, got %v", bad, err)
		}
	}
}

func TestSearchErrors(t *testing.T) {
	s := newSearcher(t, testCatalog(t), Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown resource type", Request{Resource: "Robot"}, ErrInvalidRequest},
		{"type not served", Request{Resource: catalog.Endpoint}, ErrResourceTypeNotFound},
		{"max results too large", Request{Resource: catalog.TrainingJob, MaxResults: 101}, ErrInvalidRequest},
		{"negative max results", Request{Resource: catalog.TrainingJob, MaxResults: -1}, ErrInvalidRequest},
		{"bad sort order", Request{Resource: catalog.TrainingJob, SortOrder: "Sideways"}, ErrInvalidRequest},
		{"unknown sort property", Request{Resource: catalog.TrainingJob, SortBy: "Nope"}, ErrInvalidRequest},
		{
			"unknown filter property",
			Request{Resource: catalog.TrainingJob, SearchExpression: expr(filter.AllOf(filter.NewFilter("Nope", filter.OpEquals, "x")))},
			filter.ErrInvalidFilter,
		},
		{
			"ordering on text",
			Request{Resource: catalog.TrainingJob, SearchExpression: expr(filter.AllOf(filter.NewFilter("TrainingJobStatus", filter.OpGreaterThan, "A")))},
			filter.ErrInvalidFilter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Search(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Search() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSearchCancelled(t *testing.T) {
	s := newSearcher(t, testCatalog(t), Options{Parallelism: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, Request{Resource: catalog.TrainingJob})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSearchLargeCatalog(t *testing.T) {
	var jobs []*catalog.Resource
	for i := 0; i < 1000; i++ {
		status := "Completed"
		if i%3 == 0 {
			status = "Failed"
		}
		jobs = append(jobs, testJob(t, fmt.Sprintf("arn:job/%04d", i), map[string]any{
			"TrainingJobStatus": status,
			"Metrics":           map[string]any{"accuracy": float64(i) / 1000},
		}))
	}
	cat := catalog.NewStaticCatalog()
	if err := cat.AddResourceType(catalog.TrainingJob, nil, jobs); err != nil {
		t.Fatal(err)
	}
	s := newSearcher(t, cat, Options{Parallelism: 4})

	req := Request{
		Resource:         catalog.TrainingJob,
		SearchExpression: expr(filter.AllOf(filter.NewFilter("TrainingJobStatus", filter.OpEquals, "Failed"))),
		SortBy:           "Metrics.accuracy",
		MaxResults:       100,
	}
	total := 0
	prev := ""
	for {
		resp, err := s.Search(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range resp.Results {
			if prev != "" && r.ARN >= prev {
				t.Fatalf("results out of order: %s after %s", r.ARN, prev)
			}
			prev = r.ARN
		}
		total += len(resp.Results)
		if resp.NextToken == "" {
			break
		}
		req.NextToken = resp.NextToken
	}
	if total != 334 {
		t.Errorf("matched %d resources, want 334", total)
	}
}

type pushdownCatalog struct {
	catalog.Catalog
	calls int
}

func (c *pushdownCatalog) SearchResources(ctx context.Context, rt catalog.ResourceType, expr *filter.Compiled) ([]*catalog.Resource, error) {
	c.calls++
	return c.Resources(ctx, rt)
}

func TestSearchUsesPushdown(t *testing.T) {
	cat := &pushdownCatalog{Catalog: testCatalog(t)}
	s := newSearcher(t, cat, Options{})

	resp, err := s.Search(context.Background(), Request{
		Resource:         catalog.TrainingJob,
		SearchExpression: expr(filter.AllOf(filter.NewFilter("TrainingJobStatus", filter.OpEquals, "Failed"))),
	})
	if err != nil {
		t.Fatal(err)
	}
	if cat.calls != 1 {
		t.Errorf("SearchResources called %d times", cat.calls)
	}
	// Pushdown results are re-matched.
	if got := resultARNs(resp); !equalStrings(got, []string{"arn:job/3"}) {
		t.Errorf("Search() = %v", got)
	}
}

type panickingCatalog struct {
	catalog.Catalog
}

func (panickingCatalog) Resources(ctx context.Context, rt catalog.ResourceType) ([]*catalog.Resource, error) {
	panic("catalog bug")
}

func TestSearchRecoversCatalogPanic(t *testing.T) {
	s := newSearcher(t, panickingCatalog{Catalog: testCatalog(t)}, Options{})
	_, err := s.Search(context.Background(), Request{Resource: catalog.TrainingJob})
	if !errors.Is(err, recovery.ErrPanic) {
		t.Errorf("expected recovered panic, got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	s := newSearcher(t, testCatalog(t), Options{})
	ctx := context.Background()

	got, err := s.Suggest(ctx, catalog.TrainingJob, "Metrics.", 0)
	if err != nil {
		t.Fatalf("Suggest() failed: %v", err)
	}
	want := []string{"Metrics.", "Metrics.accuracy", "Metrics.loss"}
	if !equalStrings(got, want) {
		t.Errorf("Suggest(Metrics.) = %v, want %v", got, want)
	}

	got, err = s.Suggest(ctx, catalog.TrainingJob, "Training", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("Suggest() limit not applied: %v", got)
	}

	if _, err := s.Suggest(ctx, catalog.Endpoint, "", 5); !errors.Is(err, ErrResourceTypeNotFound) {
		t.Errorf("expected ErrResourceTypeNotFound, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	s := newSearcher(t, testCatalog(t), Options{})
	ctx := context.Background()

	tests := []struct {
		name    string
		arn     string
		f       filter.Filter
		want    bool
		wantErr error
	}{
		{"match", "arn:job/1", filter.NewFilter("Metrics.accuracy", filter.OpGreaterThan, "0.9"), true, nil},
		{"no match", "arn:job/3", filter.NewFilter("Metrics.accuracy", filter.OpGreaterThan, "0.9"), false, nil},
		{"absent not exists", "arn:job/4", filter.NotExists("Metrics.accuracy"), true, nil},
		{"absent equals", "arn:job/4", filter.NewFilter("Metrics.accuracy", filter.OpEquals, "1"), false, nil},
		{"unknown property", "arn:job/1", filter.Exists("Nope"), false, filter.ErrInvalidFilter},
		{"unknown resource", "arn:nope", filter.Exists("TrainingJobStatus"), false, catalog.ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Evaluate(ctx, tt.arn, tt.f)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Evaluate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{
		"Resource": "trainingjob",
		"SearchExpression": {"Filters": [{"Name": "Metrics.accuracy", "Operator": "GreaterThan", "Value": 0.9}]},
		"SortBy": "Metrics.accuracy",
		"SortOrder": "Ascending",
		"MaxResults": 10
	}`))
	if err != nil {
		t.Fatalf("ParseRequest() failed: %v", err)
	}
	if req.Resource != catalog.TrainingJob || req.MaxResults != 10 || req.SortOrder != Ascending {
		t.Errorf("ParseRequest() = %+v", req)
	}
	if req.SearchExpression == nil || len(req.SearchExpression.Filters) != 1 || req.SearchExpression.Filters[0].ValueOrEmpty() != "0.9" {
		t.Errorf("SearchExpression = %+v", req.SearchExpression)
	}

	req, err = ParseRequest([]byte(`{"Resource": "Endpoint"}`))
	if err != nil || req.SearchExpression != nil {
		t.Errorf("ParseRequest(no expression) = %+v, %v", req, err)
	}

	for _, bad := range []string{`{`, `{"Resource": "Robot"}`, `{"Resource": "Endpoint", "SearchExpression": {"Operator": "Xor"}}`} {
		if _, err := ParseRequest([]byte(bad)); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("ParseRequest(%s) error = %v", bad, err)
		}
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Error("expected error for nil catalog")
	}
	if _, err := New(testCatalog(t), Options{DefaultMaxResults: 500}); err == nil {
		t.Error("expected error for default max results above 100")
	}
}

func TestValidate(t *testing.T) {
	s := newSearcher(t, testCatalog(t), Options{})
	ctx := context.Background()

	if err := s.Validate(ctx, Request{Resource: catalog.TrainingJob, SortBy: "Metrics.accuracy"}); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	err := s.Validate(ctx, Request{
		Resource:         catalog.TrainingJob,
		SearchExpression: expr(filter.AllOf(filter.NewFilter("Metrics.accuracy", filter.OpEquals, "high"))),
	})
	var malformed *filter.MalformedLiteralError
	if !errors.As(err, &malformed) {
		t.Errorf("expected MalformedLiteralError, got %v", err)
	}
}
