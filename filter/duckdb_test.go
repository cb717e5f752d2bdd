package filter

import (
	"strings"
	"testing"
)

func mustCompile(t *testing.T, expr SearchExpression) *Compiled {
	t.Helper()
	c, err := CompileExpression(expr, testSchema())
	if err != nil {
		t.Fatalf("CompileExpression() error = %v", err)
	}
	return c
}

func TestDuckDBEncodePredicate(t *testing.T) {
	enc := NewDuckDBEncoder(nil)
	prefix := "EXISTS (SELECT 1 FROM properties p WHERE p.arn = r.arn AND p.name = "

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name:   "text equals",
			filter: NewFilter("TrainingJobStatus", OpEquals, "Completed"),
			want:   prefix + "'TrainingJobStatus' AND p.text_value = 'Completed')",
		},
		{
			name:   "text not equals",
			filter: NewFilter("TrainingJobStatus", OpNotEquals, "Failed"),
			want:   prefix + "'TrainingJobStatus' AND p.text_value <> 'Failed')",
		},
		{
			name:   "escapes quotes",
			filter: NewFilter("Tags.owner", OpEquals, "o'brien"),
			want:   prefix + "'Tags.owner' AND p.text_value = 'o''brien')",
		},
		{
			name:   "contains",
			filter: NewFilter("TrainingJobName", OpContains, "racy"),
			want:   prefix + "'TrainingJobName' AND contains(p.text_value, 'racy'))",
		},
		{
			name:   "in",
			filter: NewFilter("TrainingJobStatus", OpIn, "Completed,Failed"),
			want:   prefix + "'TrainingJobStatus' AND p.text_value IN ('Completed', 'Failed'))",
		},
		{
			name:   "number greater than widens",
			filter: NewFilter("Metrics.accuracy", OpGreaterThan, "0.9"),
			want:   prefix + "'Metrics.accuracy' AND p.num_value >= CAST('0.9' AS DOUBLE))",
		},
		{
			name:   "number less than or equal",
			filter: NewFilter("Metrics.loss", OpLessThanOrEqualTo, "1e-3"),
			want:   prefix + "'Metrics.loss' AND p.num_value <= CAST('0.001' AS DOUBLE))",
		},
		{
			name:   "number equals",
			filter: NewFilter("Metrics.loss", OpEquals, "0.50"),
			want:   prefix + "'Metrics.loss' AND p.num_value = CAST('0.5' AS DOUBLE))",
		},
		{
			name:   "timestamp less than",
			filter: NewFilter("CreationTime", OpLessThan, "2024-01-02T03:04:05.123456789Z"),
			want:   prefix + "'CreationTime' AND p.ts_value <= TIMESTAMP '2024-01-02 03:04:05.123456')",
		},
		{
			name:   "exists",
			filter: Exists("Tags.owner"),
			want:   prefix + "'Tags.owner')",
		},
		{
			name:   "not exists",
			filter: NotExists("Tags.owner"),
			want:   "NOT " + prefix + "'Tags.owner')",
		},
		{
			name:   "number not equals is not pushed down",
			filter: NewFilter("Metrics.loss", OpNotEquals, "0.5"),
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.filter, testSchema())
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got := enc.Encode(p); got != tt.want {
				t.Errorf("Encode() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestDuckDBEncodeExpression(t *testing.T) {
	enc := NewDuckDBEncoder(nil)
	status := NewFilter("TrainingJobStatus", OpEquals, "Completed")
	notEq := NewFilter("Metrics.loss", OpNotEquals, "0.5")

	t.Run("and skips unsupported", func(t *testing.T) {
		got := enc.EncodeExpression(mustCompile(t, AllOf(status, notEq)))
		if strings.Contains(got, "num_value") || !strings.Contains(got, "'Completed'") {
			t.Errorf("unexpected encoding %s", got)
		}
		if strings.HasPrefix(got, "(") {
			t.Errorf("single part should not be parenthesized: %s", got)
		}
	})

	t.Run("or drops entirely when a branch is unsupported", func(t *testing.T) {
		if got := enc.EncodeExpression(mustCompile(t, AnyOf(status, notEq))); got != "" {
			t.Errorf("expected empty encoding, got %s", got)
		}
	})

	t.Run("or joins supported branches", func(t *testing.T) {
		got := enc.EncodeExpression(mustCompile(t, AnyOf(status, Exists("Tags.owner"))))
		if !strings.HasPrefix(got, "(") || !strings.Contains(got, ") OR EXISTS") {
			t.Errorf("unexpected encoding %s", got)
		}
	})

	t.Run("nested", func(t *testing.T) {
		expr := SearchExpression{
			Filters:        []Filter{status},
			SubExpressions: []SearchExpression{AnyOf(Exists("Tags.a"), Exists("Tags.b"))},
		}
		got := enc.EncodeExpression(mustCompile(t, expr))
		if strings.Count(got, "EXISTS") != 3 || !strings.Contains(got, " AND (") {
			t.Errorf("unexpected encoding %s", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := enc.EncodeExpression(mustCompile(t, SearchExpression{})); got != "" {
			t.Errorf("expected empty encoding, got %s", got)
		}
		if got := enc.EncodeExpression(nil); got != "" {
			t.Errorf("expected empty encoding for nil, got %s", got)
		}
	})
}

func TestDuckDBEncoderOptions(t *testing.T) {
	enc := NewDuckDBEncoder(&EncoderOptions{
		PropertiesTable: "resource props",
		ResourceAlias:   "res",
		ColumnMapping:   map[string]string{ColumnARN: "resource_arn", ColumnText: "value"},
	})
	p, err := Compile(NewFilter("TrainingJobStatus", OpEquals, "x"), testSchema())
	if err != nil {
		t.Fatal(err)
	}
	want := `EXISTS (SELECT 1 FROM "resource props" p WHERE p.resource_arn = res.resource_arn AND p.name = 'TrainingJobStatus' AND p.value = 'x')`
	if got := enc.Encode(p); got != want {
		t.Errorf("Encode() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct{ in, want string }{
		{"arn", "arn"},
		{"_x1", "_x1"},
		{"1x", `"1x"`},
		{"select", `"select"`},
		{`a"b`, `"a""b"`},
		{"", `""`},
	}
	for _, tt := range tests {
		if got := quoteIdentifier(tt.in); got != tt.want {
			t.Errorf("quoteIdentifier(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLogicalTypeMapping(t *testing.T) {
	tests := []struct {
		in   LogicalTypeID
		want PropertyType
		ok   bool
	}{
		{"DOUBLE", TypeNumber, true},
		{"decimal(18,3)", TypeNumber, true},
		{"INT8", TypeNumber, true},
		{"TIMESTAMP WITH TIME ZONE", TypeTimestamp, true},
		{"date", TypeTimestamp, true},
		{"VARCHAR", TypeText, true},
		{"text", TypeText, true},
		{"BLOB", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.in.PropertyType()
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s.PropertyType() = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
