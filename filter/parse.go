package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Parse parses a SageMaker-style SearchExpression document:
//
//	{
//	  "Filters": [{"Name": "Metrics.accuracy", "Operator": "GreaterThan", "Value": "0.9"}],
//	  "SubExpressions": [{"Filters": [...], "Operator": "Or"}],
//	  "Operator": "And"
//	}
//
// Operator names are matched case-insensitively. A filter Value may be a
// JSON string or a bare JSON number; numbers keep their exact literal text.
// Empty input yields an empty expression, which matches everything.
//
// Parse checks syntax only; use CompileExpression to validate against a schema.
func Parse(data []byte) (*SearchExpression, error) {
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return &SearchExpression{}, nil
	}
	expr, err := parseExpression(data)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return expr, nil
}

// ParseFilter parses a single {"Name","Operator","Value"} object.
func ParseFilter(data []byte) (Filter, error) {
	f, err := parseFilter(data)
	if err != nil {
		return Filter{}, fmt.Errorf("filter: %w", err)
	}
	return f, nil
}

// rawSearchExpression is the intermediate structure for JSON parsing.
type rawSearchExpression struct {
	Filters        []json.RawMessage `json:"Filters"`
	SubExpressions []json.RawMessage `json:"SubExpressions"`
	Operator       string            `json:"Operator"`
}

// rawFilter keeps Value raw so both strings and numbers are accepted.
type rawFilter struct {
	Name     string          `json:"Name"`
	Operator string          `json:"Operator"`
	Value    json.RawMessage `json:"Value"`
}

func parseExpression(data json.RawMessage) (*SearchExpression, error) {
	var raw rawSearchExpression
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid search expression: %w", err)
	}

	expr := &SearchExpression{
		Filters:        make([]Filter, 0, len(raw.Filters)),
		SubExpressions: make([]SearchExpression, 0, len(raw.SubExpressions)),
	}

	switch {
	case raw.Operator == "":
	case strings.EqualFold(raw.Operator, string(And)):
		expr.Operator = And
	case strings.EqualFold(raw.Operator, string(Or)):
		expr.Operator = Or
	default:
		return nil, &UnknownOperatorError{Operator: raw.Operator}
	}

	for i, rf := range raw.Filters {
		f, err := parseFilter(rf)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %d: %w", i, err)
		}
		expr.Filters = append(expr.Filters, f)
	}

	for i, rs := range raw.SubExpressions {
		sub, err := parseExpression(rs)
		if err != nil {
			return nil, fmt.Errorf("invalid sub-expression %d: %w", i, err)
		}
		expr.SubExpressions = append(expr.SubExpressions, *sub)
	}

	return expr, nil
}

func parseFilter(data json.RawMessage) (Filter, error) {
	var raw rawFilter
	if err := json.Unmarshal(data, &raw); err != nil {
		return Filter{}, fmt.Errorf("invalid filter object: %w", err)
	}

	op, err := ParseOperator(raw.Operator)
	if err != nil {
		return Filter{}, err
	}

	f := Filter{Name: raw.Name, Operator: op}
	value, present, err := parseLiteral(raw.Value)
	if err != nil {
		return Filter{}, fmt.Errorf("invalid value for %q: %w", raw.Name, err)
	}
	if present {
		f.Value = &value
	}
	return f, nil
}

// parseLiteral returns the literal text of a JSON string or number.
// null and a missing value both report present=false.
func parseLiteral(data json.RawMessage) (string, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return "", false, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return "", false, err
		}
		if b {
			return "true", true, nil
		}
		return "false", true, nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", false, fmt.Errorf("value must be a string or number")
		}
		return n.String(), true, nil
	}
}

