package filter

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errValueTooLong = errors.New("value exceeds " + strconv.Itoa(MaxValueLength) + " characters")

// Predicate is a validated Filter bound to its property's declared type.
// Literals are parsed once at compile time, so Match never fails.
// Predicates are immutable and safe for concurrent use.
type Predicate struct {
	name    string
	op      Operator
	typ     PropertyType
	literal Value
	members []string
	set     map[string]struct{}
}

// Compile validates f against schema and returns its Predicate.
//
// Error conditions (all wrap ErrInvalidFilter):
//   - InvalidNameError: empty or oversized name
//   - UnknownPropertyError: name not declared by schema
//   - UnknownOperatorError: operator outside the supported set
//   - MissingValueError / UnexpectedValueError: value presence rules
//   - OperatorTypeMismatchError: operator not allowed for the declared type
//   - MalformedLiteralError: value does not parse as the declared type
func Compile(f Filter, schema *Schema) (*Predicate, error) {
	if err := ValidateName(f.Name); err != nil {
		return nil, err
	}
	typ, err := schema.Resolve(f.Name)
	if err != nil {
		return nil, err
	}
	return CompileTyped(f, typ)
}

// CompileTyped is Compile for a caller that already knows the declared type.
func CompileTyped(f Filter, typ PropertyType) (*Predicate, error) {
	if err := ValidateName(f.Name); err != nil {
		return nil, err
	}
	if !f.Operator.IsValid() {
		return nil, &UnknownOperatorError{Operator: string(f.Operator)}
	}
	op := f.Operator.Resolve()
	p := &Predicate{name: f.Name, op: op, typ: typ}

	if !op.RequiresValue() {
		if f.Value != nil {
			return nil, &UnexpectedValueError{Name: f.Name, Operator: op}
		}
		return p, nil
	}
	if f.Value == nil {
		return nil, &MissingValueError{Name: f.Name, Operator: op}
	}
	raw := *f.Value
	if utf8.RuneCountInString(raw) > MaxValueLength {
		return nil, &MalformedLiteralError{Name: f.Name, Value: truncate(raw), Type: typ, Err: errValueTooLong}
	}

	switch {
	case op == OpContains || op == OpIn:
		if typ != TypeText {
			return nil, &OperatorTypeMismatchError{Name: f.Name, Operator: op, Type: typ}
		}
	case op.IsOrdering():
		if typ == TypeText {
			return nil, &OperatorTypeMismatchError{Name: f.Name, Operator: op, Type: typ}
		}
	}

	switch op {
	case OpIn:
		p.members = strings.Split(raw, inValueSeparator)
		p.set = make(map[string]struct{}, len(p.members))
		for _, m := range p.members {
			p.set[m] = struct{}{}
		}
		p.literal = Text(raw)
	case OpContains:
		p.literal = Text(raw)
	default:
		lit, err := ParseValue(typ, raw)
		if err != nil {
			return nil, &MalformedLiteralError{Name: f.Name, Value: raw, Type: typ, Err: err}
		}
		p.literal = lit
	}
	return p, nil
}

// ValidateName checks the property name length rules.
func ValidateName(name string) error {
	if name == "" {
		return &InvalidNameError{Name: name, Reason: "name is empty"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return &InvalidNameError{Name: truncate(name), Reason: "name exceeds " + strconv.Itoa(MaxNameLength) + " characters"}
	}
	return nil
}

// truncate shortens s for error messages, cutting on a rune boundary.
func truncate(s string) string {
	const keep = 32
	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// Validate reports whether f is well-formed for schema.
func (f Filter) Validate(schema *Schema) error {
	_, err := Compile(f, schema)
	return err
}

// Evaluate compiles f against schema and matches it against src.
func Evaluate(f Filter, schema *Schema, src PropertySource) (bool, error) {
	p, err := Compile(f, schema)
	if err != nil {
		return false, err
	}
	return p.Match(src), nil
}

// EvaluateValue decides a single filter against a property value of the
// declared type. present is false when the resource lacks the property.
func EvaluateValue(f Filter, declared PropertyType, v Value, present bool) (bool, error) {
	p, err := CompileTyped(f, declared)
	if err != nil {
		return false, err
	}
	return p.MatchValue(v, present), nil
}

// Name returns the property name.
func (p *Predicate) Name() string { return p.name }

// Operator returns the resolved operator (never empty).
func (p *Predicate) Operator() Operator { return p.op }

// Type returns the declared property type.
func (p *Predicate) Type() PropertyType { return p.typ }

// Literal returns the parsed literal. Zero for Exists and NotExists.
func (p *Predicate) Literal() Value { return p.literal }

// Members returns the In candidates in their original order.
func (p *Predicate) Members() []string {
	out := make([]string, len(p.members))
	copy(out, p.members)
	return out
}

// Match looks the property up in src and decides the predicate.
// A nil src has no properties.
func (p *Predicate) Match(src PropertySource) bool {
	if src == nil {
		return p.MatchValue(Value{}, false)
	}
	v, ok := src.Property(p.name)
	return p.MatchValue(v, ok)
}

// MatchValue decides the predicate for a property value.
// Absent properties match only NotExists. Values whose type differs from
// the declared type are coerced through their literal; values that do not
// coerce never match.
func (p *Predicate) MatchValue(v Value, present bool) bool {
	switch p.op {
	case OpExists:
		return present
	case OpNotExists:
		return !present
	}
	if !present {
		return false
	}

	switch p.op {
	case OpContains:
		return strings.Contains(v.String(), p.literal.String())
	case OpIn:
		_, ok := p.set[v.String()]
		return ok
	}

	cv, ok := p.coerce(v)
	if !ok {
		return false
	}
	c := Compare(cv, p.literal)
	switch p.op {
	case OpEquals:
		return c == 0
	case OpNotEquals:
		return c != 0
	case OpGreaterThan:
		return c > 0
	case OpGreaterThanOrEqualTo:
		return c >= 0
	case OpLessThan:
		return c < 0
	case OpLessThanOrEqualTo:
		return c <= 0
	}
	return false
}

func (p *Predicate) coerce(v Value) (Value, bool) {
	if v.Type() == p.typ {
		return v, true
	}
	cv, err := ParseValue(p.typ, v.String())
	if err != nil {
		return Value{}, false
	}
	return cv, true
}

func (p *Predicate) String() string {
	if !p.op.RequiresValue() {
		return p.name + " " + string(p.op)
	}
	return p.name + " " + string(p.op) + " " + p.literal.String()
}
