package filter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `{
		"Filters": [
			{"Name": "Metrics.accuracy", "Operator": "greaterthan", "Value": 0.9},
			{"Name": "Tags.owner", "Operator": "Exists"},
			{"Name": "TrainingJobStatus", "Value": "Completed"}
		],
		"SubExpressions": [
			{"Filters": [{"Name": "Tags.team", "Operator": "In", "Value": "a,b"}], "Operator": "or"}
		],
		"Operator": "And"
	}`

	expr, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if expr.Operator != And {
		t.Errorf("Operator = %q, want And", expr.Operator)
	}
	if len(expr.Filters) != 3 {
		t.Fatalf("len(Filters) = %d, want 3", len(expr.Filters))
	}

	f := expr.Filters[0]
	if f.Operator != OpGreaterThan || f.ValueOrEmpty() != "0.9" {
		t.Errorf("filter 0 = %s", f)
	}
	if expr.Filters[1].HasValue() {
		t.Error("Exists filter should have no value")
	}
	if expr.Filters[2].Operator != "" || expr.Filters[2].Operator.Resolve() != OpEquals {
		t.Errorf("filter 2 operator = %q", expr.Filters[2].Operator)
	}

	if len(expr.SubExpressions) != 1 || expr.SubExpressions[0].Operator != Or {
		t.Fatalf("unexpected sub-expressions %+v", expr.SubExpressions)
	}

	if _, err := CompileExpression(*expr, testSchema()); err != nil {
		t.Errorf("CompileExpression() error = %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "{}"} {
		expr, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if !expr.IsEmpty() {
			t.Errorf("Parse(%q) not empty", in)
		}
	}
}

func TestParseNumberKeepsLiteral(t *testing.T) {
	f, err := ParseFilter([]byte(`{"Name":"Metrics.loss","Operator":"Equals","Value":0.50}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.ValueOrEmpty() != "0.50" {
		t.Errorf("Value = %q, want 0.50", f.ValueOrEmpty())
	}
}

func TestParseNullValueIsAbsent(t *testing.T) {
	f, err := ParseFilter([]byte(`{"Name":"Tags.owner","Operator":"NotExists","Value":null}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.HasValue() {
		t.Error("null value should be absent")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		invalid bool
	}{
		{"malformed json", `{"Filters": [`, "invalid search expression", false},
		{"unknown operator", `{"Filters":[{"Name":"a","Operator":"Like","Value":"x"}]}`, "unknown operator", true},
		{"unknown boolean", `{"Filters":[],"Operator":"Xor"}`, "unknown operator", true},
		{"object value", `{"Filters":[{"Name":"a","Value":{"x":1}}]}`, "string or number", false},
		{"filter not object", `{"Filters":[1]}`, "invalid filter 0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			if errors.Is(err, ErrInvalidFilter) != tt.invalid {
				t.Errorf("errors.Is(ErrInvalidFilter) = %v, want %v", !tt.invalid, tt.invalid)
			}
		})
	}
}

func TestSearchExpressionJSON(t *testing.T) {
	expr := SearchExpression{
		Filters:  []Filter{NewFilter("Metrics.accuracy", OpGreaterThan, "0.9"), Exists("Tags.owner")},
		Operator: Or,
	}
	data, err := json.Marshal(expr)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Filters":[{"Name":"Metrics.accuracy","Operator":"GreaterThan","Value":"0.9"},{"Name":"Tags.owner","Operator":"Exists"}],"Operator":"Or"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant %s", data, want)
	}
}
