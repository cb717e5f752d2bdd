package filter

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Value is a typed property value: a Number, a Timestamp or a Text.
// Numbers are exact decimals, so "0.50" and "0.5" are the same Number.
// The zero Value is the empty Text.
type Value struct {
	typ  PropertyType
	raw  string
	num  *big.Rat
	time time.Time
}

var (
	errEmptyLiteral   = errors.New("empty literal")
	errNotDecimal     = errors.New("not a decimal number")
	errNotTimestamp   = errors.New("expected YYYY-MM-DDTHH:MM:SS, RFC 3339 or epoch seconds")
	errNotFiniteFloat = errors.New("number is not finite")
	errExponentRange  = errors.New("exponent out of range")
)

// maxDecimalExponent bounds literal exponents so "1e999999999" cannot
// force a huge allocation.
const maxDecimalExponent = 1000

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Text returns a Text value.
func Text(s string) Value {
	return Value{typ: TypeText, raw: s}
}

// Number parses a decimal literal such as "42", "-0.5" or "1e-3".
func Number(s string) (Value, error) {
	r, err := parseDecimal(s)
	if err != nil {
		return Value{}, err
	}
	return Value{typ: TypeNumber, raw: s, num: r}, nil
}

// MustNumber is like Number but panics on a malformed literal.
// Intended for literals known at compile time.
func MustNumber(s string) Value {
	v, err := Number(s)
	if err != nil {
		panic(err)
	}
	return v
}

// NumberFromInt returns an integral Number.
func NumberFromInt(i int64) Value {
	return Value{typ: TypeNumber, raw: strconv.FormatInt(i, 10), num: new(big.Rat).SetInt64(i)}
}

// NumberFromFloat returns the Number with the shortest decimal form of f,
// so 0.92 becomes exactly 92/100 rather than its binary approximation.
func NumberFromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, errNotFiniteFloat
	}
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// Timestamp returns a Timestamp value normalized to UTC.
func Timestamp(t time.Time) Value {
	u := t.UTC()
	return Value{typ: TypeTimestamp, raw: u.Format(time.RFC3339Nano), time: u}
}

// ParseTimestamp parses a timestamp literal into a Timestamp value.
func ParseTimestamp(s string) (Value, error) {
	t, err := parseTimestamp(s)
	if err != nil {
		return Value{}, err
	}
	return Value{typ: TypeTimestamp, raw: s, time: t}, nil
}

// ParseValue parses s as a value of the given declared type.
func ParseValue(typ PropertyType, s string) (Value, error) {
	switch typ {
	case TypeNumber:
		return Number(s)
	case TypeTimestamp:
		return ParseTimestamp(s)
	default:
		return Text(s), nil
	}
}

// Type returns the value's property type.
func (v Value) Type() PropertyType { return v.typ }

// String returns the literal the value was built from.
func (v Value) String() string { return v.raw }

// Rat returns a copy of the exact numeric value, or nil for non-Numbers.
func (v Value) Rat() *big.Rat {
	if v.num == nil {
		return nil
	}
	return new(big.Rat).Set(v.num)
}

// Float64 returns the nearest float64 of a Number and false for other types.
func (v Value) Float64() (float64, bool) {
	if v.typ != TypeNumber || v.num == nil {
		return 0, false
	}
	f, _ := v.num.Float64()
	return f, true
}

// Time returns the instant of a Timestamp and false for other types.
func (v Value) Time() (time.Time, bool) {
	if v.typ != TypeTimestamp {
		return time.Time{}, false
	}
	return v.time, true
}

// Equal reports whether v and o are the same type and value.
func (v Value) Equal(o Value) bool {
	return v.typ == o.typ && Compare(v, o) == 0
}

// Compare orders two values. Values of different types order by type.
// Numbers compare exactly, Timestamps by instant, Text ordinally.
func Compare(a, b Value) int {
	if a.typ != b.typ {
		if a.typ < b.typ {
			return -1
		}
		return 1
	}
	switch a.typ {
	case TypeNumber:
		return ratOf(a).Cmp(ratOf(b))
	case TypeTimestamp:
		return a.time.Compare(b.time)
	default:
		return strings.Compare(a.raw, b.raw)
	}
}

func ratOf(v Value) *big.Rat {
	if v.num == nil {
		return new(big.Rat)
	}
	return v.num
}

// parseDecimal accepts optionally signed decimal literals with an optional
// exponent. Fractions ("1/2"), hex, NaN and Inf are rejected.
func parseDecimal(s string) (*big.Rat, error) {
	if s == "" {
		return nil, errEmptyLiteral
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDigit(c) || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			continue
		}
		return nil, errNotDecimal
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return nil, errNotDecimal
		}
		if exp > maxDecimalExponent || exp < -maxDecimalExponent {
			return nil, errExponentRange
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, errNotDecimal
	}
	return r, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errEmptyLiteral
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if r, err := parseDecimal(s); err == nil {
		if t, ok := epochToTime(r); ok {
			return t, nil
		}
	}
	return time.Time{}, errNotTimestamp
}

// epochToTime converts fractional Unix seconds to a UTC instant,
// truncating below nanosecond precision. Instants outside the int64
// nanosecond range are rejected.
func epochToTime(secs *big.Rat) (time.Time, bool) {
	ns := new(big.Rat).Mul(secs, big.NewRat(int64(time.Second), 1))
	q := new(big.Int).Quo(ns.Num(), ns.Denom())
	if !q.IsInt64() {
		return time.Time{}, false
	}
	return time.Unix(0, q.Int64()).UTC(), true
}
