package filter

import "strings"

// Encoder converts compiled search expressions to SQL conditions over a
// long-format property table (one row per resource property).
// Implementations handle dialect-specific syntax.
type Encoder interface {
	// Encode converts a single predicate to SQL.
	// Returns empty string if the predicate cannot be pushed down.
	Encode(p *Predicate) string

	// EncodeExpression converts a compiled expression to a WHERE clause body.
	// Returns the condition portion without "WHERE" keyword.
	// Returns empty string if nothing can be encoded.
	EncodeExpression(c *Compiled) string
}

// Logical column names of the property table. Use them as keys of
// EncoderOptions.ColumnMapping.
const (
	ColumnARN       = "arn"
	ColumnName      = "name"
	ColumnText      = "text_value"
	ColumnNumber    = "num_value"
	ColumnTimestamp = "ts_value"
)

// EncoderOptions configures encoding behavior.
type EncoderOptions struct {
	// PropertiesTable is the property table name. Default: "properties".
	PropertiesTable string

	// ResourceAlias is the alias of the outer resource relation the
	// generated subqueries correlate with. Default: "r".
	ResourceAlias string

	// ColumnMapping maps logical column names (ColumnARN, ColumnName, ...)
	// to target names. Columns not in the map use their logical names.
	ColumnMapping map[string]string
}

func (o *EncoderOptions) table() string {
	if o.PropertiesTable == "" {
		return "properties"
	}
	return o.PropertiesTable
}

func (o *EncoderOptions) alias() string {
	if o.ResourceAlias == "" {
		return "r"
	}
	return o.ResourceAlias
}

func (o *EncoderOptions) column(name string) string {
	if mapped, ok := o.ColumnMapping[name]; ok && mapped != "" {
		return quoteIdentifier(mapped)
	}
	return quoteIdentifier(name)
}

// escapeString escapes single quotes in a string value for SQL.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns a SQL string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// quoteIdentifier returns a quoted identifier if needed.
// DuckDB uses double quotes for identifiers.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

// needsQuoting returns true if the identifier needs quoting.
func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}

	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	// Reserved words (simplified list)
	switch strings.ToUpper(name) {
	case "SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "NULL", "TRUE", "FALSE",
		"INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER", "TABLE", "INDEX",
		"JOIN", "LEFT", "RIGHT", "INNER", "OUTER", "ON", "AS", "IN", "IS", "LIKE",
		"BETWEEN", "EXISTS", "CASE", "WHEN", "THEN", "ELSE", "END", "ORDER", "BY",
		"GROUP", "HAVING", "LIMIT", "OFFSET", "UNION", "EXCEPT", "INTERSECT",
		"ALL", "DISTINCT", "VALUES", "SET", "INTO", "PRIMARY", "KEY", "FOREIGN",
		"REFERENCES", "CONSTRAINT", "DEFAULT", "CHECK", "UNIQUE", "ASC", "DESC",
		"NULLS", "FIRST", "LAST", "CAST", "INTERVAL", "DATE", "TIME", "TIMESTAMP":
		return true
	}
	return false
}

// isLetter returns true if c is an ASCII letter.
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isDigit returns true if c is an ASCII digit.
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
