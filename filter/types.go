package filter

import "strings"

// Operator identifies the comparison a Filter applies to a resource property.
// Values are the SageMaker wire names.
type Operator string

const (
	OpEquals               Operator = "Equals"
	OpNotEquals            Operator = "NotEquals"
	OpGreaterThan          Operator = "GreaterThan"
	OpGreaterThanOrEqualTo Operator = "GreaterThanOrEqualTo"
	OpLessThan             Operator = "LessThan"
	OpLessThanOrEqualTo    Operator = "LessThanOrEqualTo"
	OpContains             Operator = "Contains"
	OpExists               Operator = "Exists"
	OpNotExists            Operator = "NotExists"
	OpIn                   Operator = "In"
)

// Operators returns every supported operator in declaration order.
func Operators() []Operator {
	return []Operator{
		OpEquals, OpNotEquals,
		OpGreaterThan, OpGreaterThanOrEqualTo,
		OpLessThan, OpLessThanOrEqualTo,
		OpContains, OpExists, OpNotExists, OpIn,
	}
}

// IsValid reports whether op is one of the supported operators.
// The empty operator is valid and stands for Equals.
func (op Operator) IsValid() bool {
	switch op {
	case "", OpEquals, OpNotEquals, OpGreaterThan, OpGreaterThanOrEqualTo,
		OpLessThan, OpLessThanOrEqualTo, OpContains, OpExists, OpNotExists, OpIn:
		return true
	}
	return false
}

// Resolve returns the effective operator: Equals when op is unspecified.
func (op Operator) Resolve() Operator {
	if op == "" {
		return OpEquals
	}
	return op
}

// RequiresValue reports whether the operator needs a literal value.
// Exists and NotExists are the only operators that must not carry one.
func (op Operator) RequiresValue() bool {
	switch op.Resolve() {
	case OpExists, OpNotExists:
		return false
	}
	return true
}

// IsOrdering reports whether the operator compares by order (<, <=, >, >=).
func (op Operator) IsOrdering() bool {
	switch op {
	case OpGreaterThan, OpGreaterThanOrEqualTo, OpLessThan, OpLessThanOrEqualTo:
		return true
	}
	return false
}

// ParseOperator maps a wire name to an Operator, ignoring case.
func ParseOperator(s string) (Operator, error) {
	if s == "" {
		return "", nil
	}
	for _, op := range Operators() {
		if strings.EqualFold(string(op), s) {
			return op, nil
		}
	}
	return "", &UnknownOperatorError{Operator: s}
}

// PropertyType is the declared type of a searchable resource property.
type PropertyType int

const (
	TypeText PropertyType = iota
	TypeNumber
	TypeTimestamp
)

func (t PropertyType) String() string {
	switch t {
	case TypeText:
		return "Text"
	case TypeNumber:
		return "Number"
	case TypeTimestamp:
		return "Timestamp"
	default:
		return "Unknown"
	}
}

// ParsePropertyType parses "Text", "Number" or "Timestamp", ignoring case.
func ParsePropertyType(s string) (PropertyType, bool) {
	switch strings.ToLower(s) {
	case "text", "string":
		return TypeText, true
	case "number", "numeric":
		return TypeNumber, true
	case "timestamp", "time":
		return TypeTimestamp, true
	}
	return 0, false
}

// Limits enforced on names, values and search expressions.
const (
	MaxNameLength      = 255
	MaxValueLength     = 1024
	MaxFilters         = 20
	MaxSubExpressions  = 20
	MaxExpressionDepth = 5
	MaxContainsFilters = 1

	inValueSeparator = ","
)

// Filter is a single named-property condition: Name Operator Value.
// A Filter is a value type; build it with NewFilter, Exists or NotExists.
type Filter struct {
	// Name is the dotted property path, e.g. "Metrics.accuracy" or "Tags.owner".
	Name string `json:"Name"`

	// Operator defaults to Equals when empty.
	Operator Operator `json:"Operator,omitempty"`

	// Value is the literal operand. Nil for Exists and NotExists.
	Value *string `json:"Value,omitempty"`
}

// NewFilter returns a filter comparing the named property against value.
func NewFilter(name string, op Operator, value string) Filter {
	v := value
	return Filter{Name: name, Operator: op, Value: &v}
}

// Exists returns a filter matching resources that carry the named property.
func Exists(name string) Filter {
	return Filter{Name: name, Operator: OpExists}
}

// NotExists returns a filter matching resources without the named property.
func NotExists(name string) Filter {
	return Filter{Name: name, Operator: OpNotExists}
}

// HasValue reports whether the filter carries a literal.
func (f Filter) HasValue() bool {
	return f.Value != nil
}

// ValueOrEmpty returns the literal or "" when absent.
func (f Filter) ValueOrEmpty() string {
	if f.Value == nil {
		return ""
	}
	return *f.Value
}

func (f Filter) String() string {
	op := f.Operator.Resolve()
	if f.Value == nil {
		return f.Name + " " + string(op)
	}
	return f.Name + " " + string(op) + " " + *f.Value
}

// BooleanOperator combines the members of a SearchExpression.
type BooleanOperator string

const (
	And BooleanOperator = "And"
	Or  BooleanOperator = "Or"
)

// IsValid reports whether b is And, Or or unspecified (And).
func (b BooleanOperator) IsValid() bool {
	switch b {
	case "", And, Or:
		return true
	}
	return false
}

// Resolve returns And when b is unspecified.
func (b BooleanOperator) Resolve() BooleanOperator {
	if b == "" {
		return And
	}
	return b
}

// SearchExpression is a boolean combination of filters and nested expressions.
// An empty expression matches every resource.
type SearchExpression struct {
	Filters        []Filter           `json:"Filters,omitempty"`
	SubExpressions []SearchExpression `json:"SubExpressions,omitempty"`
	Operator       BooleanOperator    `json:"Operator,omitempty"`
}

// AllOf returns an expression that AND-combines the filters.
func AllOf(filters ...Filter) SearchExpression {
	return SearchExpression{Filters: filters, Operator: And}
}

// AnyOf returns an expression that OR-combines the filters.
func AnyOf(filters ...Filter) SearchExpression {
	return SearchExpression{Filters: filters, Operator: Or}
}

// IsEmpty reports whether the expression has no filters and no sub-expressions.
func (e SearchExpression) IsEmpty() bool {
	return len(e.Filters) == 0 && len(e.SubExpressions) == 0
}

// PropertySource is a resource's property bag.
// Implementations must be safe for concurrent reads.
type PropertySource interface {
	// Property returns the property value and whether it is present.
	Property(name string) (Value, bool)
}

// Properties is a map-backed PropertySource.
type Properties map[string]Value

// Property implements PropertySource.
func (p Properties) Property(name string) (Value, bool) {
	v, ok := p[name]
	return v, ok
}
