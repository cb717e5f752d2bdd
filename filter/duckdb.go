package filter

import (
	"math"
	"strconv"
	"strings"
)

// duckTimestampLayout truncates to microseconds, DuckDB's TIMESTAMP precision.
const duckTimestampLayout = "2006-01-02 15:04:05.999999"

// DuckDBEncoder encodes compiled expressions to DuckDB SQL.
//
// Each predicate becomes a correlated EXISTS subquery over the property
// table, so the generated condition is meant for a query shaped like:
//
//	SELECT r.arn FROM resources r WHERE <condition>
//
// The encoding is a pre-filter. It may keep resources the expression
// rejects, but never drops one it accepts:
//   - Number columns are DOUBLE and Timestamp columns have microsecond
//     precision, so strict orderings are widened to their inclusive forms
//     and NotEquals on those types is not pushed down.
//   - For AND: unsupported children are skipped.
//   - For OR: if any child is unsupported, the entire OR is skipped.
type DuckDBEncoder struct {
	opts *EncoderOptions
}

var _ Encoder = (*DuckDBEncoder)(nil)

// NewDuckDBEncoder creates a new DuckDB SQL encoder.
// If opts is nil, default options are used.
func NewDuckDBEncoder(opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &DuckDBEncoder{opts: opts}
}

// EncodeExpression converts a compiled expression to a WHERE clause body.
// Returns empty string when nothing can be pushed down, which means
// "no restriction".
func (e *DuckDBEncoder) EncodeExpression(c *Compiled) string {
	if c == nil {
		return ""
	}

	parts := make([]string, 0, len(c.preds)+len(c.subs))
	for _, p := range c.preds {
		parts = append(parts, e.Encode(p))
	}
	for _, s := range c.subs {
		parts = append(parts, e.EncodeExpression(s))
	}
	return e.conjoin(c.op, parts)
}

func (e *DuckDBEncoder) conjoin(op BooleanOperator, parts []string) string {
	supported := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			supported = append(supported, part)
		}
	}

	if op == Or && len(supported) != len(parts) {
		// An unrestricted branch makes the whole OR unrestricted.
		return ""
	}
	if len(supported) == 0 {
		return ""
	}
	if len(supported) == 1 {
		return supported[0]
	}

	sep := " AND "
	if op == Or {
		sep = " OR "
	}
	return "(" + strings.Join(supported, sep) + ")"
}

// Encode converts a single predicate to SQL.
func (e *DuckDBEncoder) Encode(p *Predicate) string {
	if p == nil {
		return ""
	}

	switch p.op {
	case OpExists:
		return "EXISTS (" + e.subquery(p.name, "") + ")"
	case OpNotExists:
		return "NOT EXISTS (" + e.subquery(p.name, "") + ")"
	}

	cond := e.encodeCondition(p)
	if cond == "" {
		return ""
	}
	return "EXISTS (" + e.subquery(p.name, cond) + ")"
}

func (e *DuckDBEncoder) subquery(name, cond string) string {
	var sb strings.Builder
	sb.WriteString("SELECT 1 FROM ")
	sb.WriteString(quoteIdentifier(e.opts.table()))
	sb.WriteString(" p WHERE p.")
	sb.WriteString(e.opts.column(ColumnARN))
	sb.WriteString(" = ")
	sb.WriteString(quoteIdentifier(e.opts.alias()))
	sb.WriteString(".")
	sb.WriteString(e.opts.column(ColumnARN))
	sb.WriteString(" AND p.")
	sb.WriteString(e.opts.column(ColumnName))
	sb.WriteString(" = ")
	sb.WriteString(quoteLiteral(name))
	if cond != "" {
		sb.WriteString(" AND ")
		sb.WriteString(cond)
	}
	return sb.String()
}

// encodeCondition encodes the value test of p against its typed column.
func (e *DuckDBEncoder) encodeCondition(p *Predicate) string {
	switch p.typ {
	case TypeText:
		return e.encodeText(p)
	case TypeNumber:
		f, ok := p.literal.Float64()
		if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
			return ""
		}
		lit := "CAST(" + quoteLiteral(strconv.FormatFloat(f, 'g', -1, 64)) + " AS DOUBLE)"
		return e.encodeOrdered(p.op, "p."+e.opts.column(ColumnNumber), lit)
	case TypeTimestamp:
		t, ok := p.literal.Time()
		if !ok {
			return ""
		}
		lit := "TIMESTAMP " + quoteLiteral(t.Format(duckTimestampLayout))
		return e.encodeOrdered(p.op, "p."+e.opts.column(ColumnTimestamp), lit)
	}
	return ""
}

func (e *DuckDBEncoder) encodeText(p *Predicate) string {
	col := "p." + e.opts.column(ColumnText)
	switch p.op {
	case OpEquals:
		return col + " = " + quoteLiteral(p.literal.String())
	case OpNotEquals:
		return col + " <> " + quoteLiteral(p.literal.String())
	case OpContains:
		return "contains(" + col + ", " + quoteLiteral(p.literal.String()) + ")"
	case OpIn:
		values := make([]string, 0, len(p.members))
		for _, m := range p.members {
			values = append(values, quoteLiteral(m))
		}
		return col + " IN (" + strings.Join(values, ", ") + ")"
	}
	return ""
}

// encodeOrdered encodes a comparison against a lossy column.
func (e *DuckDBEncoder) encodeOrdered(op Operator, col, lit string) string {
	switch op {
	case OpEquals:
		return col + " = " + lit
	case OpGreaterThan, OpGreaterThanOrEqualTo:
		return col + " >= " + lit
	case OpLessThan, OpLessThanOrEqualTo:
		return col + " <= " + lit
	}
	// NotEquals: distinct exact values can share a column value.
	return ""
}
