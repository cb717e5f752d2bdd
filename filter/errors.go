package filter

import (
	"errors"
	"strconv"
)

// ErrInvalidFilter is the root cause of every filter validation failure.
// Use errors.Is to detect it and errors.As to get the specific rule.
var ErrInvalidFilter = errors.New("invalid filter")

// UnknownPropertyError indicates the property name does not resolve
// against the resource schema.
type UnknownPropertyError struct {
	Name string
}

func (e *UnknownPropertyError) Error() string {
	return "filter: unknown property " + strconv.Quote(e.Name)
}

func (e *UnknownPropertyError) Unwrap() error { return ErrInvalidFilter }

// OperatorTypeMismatchError indicates the operator cannot be applied to the
// property's declared type, e.g. Contains on a Number.
type OperatorTypeMismatchError struct {
	Name     string
	Operator Operator
	Type     PropertyType
}

func (e *OperatorTypeMismatchError) Error() string {
	return "filter: operator " + string(e.Operator) + " is not supported for " +
		e.Type.String() + " property " + strconv.Quote(e.Name)
}

func (e *OperatorTypeMismatchError) Unwrap() error { return ErrInvalidFilter }

// MissingValueError indicates an operator that needs a value was given none.
type MissingValueError struct {
	Name     string
	Operator Operator
}

func (e *MissingValueError) Error() string {
	return "filter: operator " + string(e.Operator) + " requires a value for property " + strconv.Quote(e.Name)
}

func (e *MissingValueError) Unwrap() error { return ErrInvalidFilter }

// UnexpectedValueError indicates Exists or NotExists was given a value.
type UnexpectedValueError struct {
	Name     string
	Operator Operator
}

func (e *UnexpectedValueError) Error() string {
	return "filter: operator " + string(e.Operator) + " must not have a value for property " + strconv.Quote(e.Name)
}

func (e *UnexpectedValueError) Unwrap() error { return ErrInvalidFilter }

// MalformedLiteralError indicates the value cannot be parsed as the type
// implied by the property.
type MalformedLiteralError struct {
	Name  string
	Value string
	Type  PropertyType
	Err   error
}

func (e *MalformedLiteralError) Error() string {
	msg := "filter: value " + strconv.Quote(e.Value) + " is not a valid " + e.Type.String() +
		" literal for property " + strconv.Quote(e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the parse failure.
func (e *MalformedLiteralError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidFilter}
	}
	return []error{ErrInvalidFilter, e.Err}
}

// InvalidNameError indicates an empty or oversized property name or value.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return "filter: invalid property name " + strconv.Quote(e.Name) + ": " + e.Reason
}

func (e *InvalidNameError) Unwrap() error { return ErrInvalidFilter }

// UnknownOperatorError indicates an operator outside the supported set.
type UnknownOperatorError struct {
	Operator string
}

func (e *UnknownOperatorError) Error() string {
	return "filter: unknown operator " + strconv.Quote(e.Operator)
}

func (e *UnknownOperatorError) Unwrap() error { return ErrInvalidFilter }

// TooManyContainsError indicates a search expression uses Contains more than once.
type TooManyContainsError struct {
	Count int
}

func (e *TooManyContainsError) Error() string {
	return "filter: search expression may contain at most " + strconv.Itoa(MaxContainsFilters) +
		" Contains filter, got " + strconv.Itoa(e.Count)
}

func (e *TooManyContainsError) Unwrap() error { return ErrInvalidFilter }

// ExpressionLimitError indicates a search expression exceeds a structural limit.
type ExpressionLimitError struct {
	Limit string
	Max   int
	Got   int
}

func (e *ExpressionLimitError) Error() string {
	return "filter: search expression exceeds " + e.Limit + " limit: " +
		strconv.Itoa(e.Got) + " > " + strconv.Itoa(e.Max)
}

func (e *ExpressionLimitError) Unwrap() error { return ErrInvalidFilter }
