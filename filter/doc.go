// Package filter implements SageMaker-style search filters: parsing,
// validation against a per-resource-type property schema, and evaluation
// against resource properties.
//
// A Filter names a property, an Operator and an optional literal Value.
// Filters combine into a SearchExpression with And/Or and nested
// sub-expressions. Every property has a declared PropertyType (Number,
// Timestamp or Text) which decides the allowed operators and how literals
// are interpreted.
//
// # Basic Usage
//
// Parse a SearchExpression document, compile it against a schema and
// match resources:
//
//	expr, err := filter.Parse(body)
//	if err != nil {
//	    return err // malformed JSON
//	}
//
//	schema := filter.NewSchemaBuilder().
//	    Property("TrainingJobStatus", filter.TypeText).
//	    Property("CreationTime", filter.TypeTimestamp).
//	    Prefix("Metrics.", filter.TypeNumber).
//	    Prefix("Tags.", filter.TypeText).
//	    Build()
//
//	compiled, err := filter.CompileExpression(*expr, schema)
//	if err != nil {
//	    return err // errors.Is(err, filter.ErrInvalidFilter)
//	}
//
//	if compiled.Match(resource) {
//	    // keep
//	}
//
// Compilation does all validation up front. Matching never fails: a
// property the resource lacks satisfies only NotExists, and a value that
// cannot be read as the declared type satisfies nothing.
//
// # Operator Semantics
//
//   - Equals, NotEquals: Numbers compare exactly ("0.50" equals "0.5"),
//     Timestamps by instant, Text byte-for-byte.
//   - GreaterThan, GreaterThanOrEqualTo, LessThan, LessThanOrEqualTo:
//     Number and Timestamp only.
//   - Contains: case-sensitive substring, Text only. At most one per
//     expression.
//   - In: Text only. The literal is a comma-separated list; members are
//     not trimmed.
//   - Exists, NotExists: presence tests; they take no value.
//
// # Pushdown
//
// DuckDBEncoder turns a compiled expression into a SQL pre-filter over a
// long-format property table. The encoding only ever widens the result
// set, so callers must still run Match on the rows it returns.
package filter
