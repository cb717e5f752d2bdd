// Package duck provides a DuckDB-backed resource catalog.
//
// Resources live in two tables: resources(arn, resource_type) and a
// long-format properties table with one row per resource property. Every
// property keeps its literal in text_value plus, when the literal reads as
// one, a DOUBLE in num_value and a TIMESTAMP in ts_value, so search
// expressions can be pushed down as SQL pre-filters.
package duck

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
)

const (
	resourcesTable  = "resources"
	propertiesTable = "properties"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS ` + resourcesTable + ` (
		arn VARCHAR PRIMARY KEY,
		resource_type VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + propertiesTable + ` (
		arn VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		value_type VARCHAR NOT NULL,
		text_value VARCHAR NOT NULL,
		num_value ` + string(filter.ColumnType(filter.TypeNumber)) + `,
		ts_value ` + string(filter.ColumnType(filter.TypeTimestamp)) + `,
		PRIMARY KEY (arn, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_type ON ` + resourcesTable + ` (resource_type)`,
}

// Options configures a Store.
type Options struct {
	// Schemas declares the served resource types and their properties.
	// OPTIONAL: nil serves every type with catalog.DefaultSchemas().
	Schemas map[catalog.ResourceType]*filter.Schema

	// Logger for query diagnostics.
	// OPTIONAL: nil uses slog.Default().
	Logger *slog.Logger
}

// Store is a catalog.Catalog backed by DuckDB.
// All methods are goroutine-safe.
type Store struct {
	db      *sql.DB
	schemas map[catalog.ResourceType]*filter.Schema
	types   []catalog.ResourceType
	encoder *filter.DuckDBEncoder
	logger  *slog.Logger
}

var (
	_ catalog.Catalog        = (*Store)(nil)
	_ catalog.FilterPushdown = (*Store)(nil)
	_ catalog.Writer         = (*Store)(nil)
)

// Open opens (or creates) a DuckDB database and prepares the tables.
// An empty dsn opens an in-memory database.
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("duck: open %q: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duck: ping: %w", err)
	}
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("duck: create tables: %w", err)
		}
	}

	schemas := opts.Schemas
	if schemas == nil {
		schemas = catalog.DefaultSchemas()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		db:      db,
		schemas: schemas,
		logger:  logger,
		encoder: filter.NewDuckDBEncoder(&filter.EncoderOptions{
			PropertiesTable: propertiesTable,
			ResourceAlias:   "r",
		}),
	}
	for _, rt := range catalog.ResourceTypes() {
		if _, ok := schemas[rt]; ok {
			s.types = append(s.types, rt)
		}
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces resources in one transaction.
// Each resource is validated and its type must be served by the store.
func (s *Store) Put(ctx context.Context, resources ...*catalog.Resource) error {
	for _, r := range resources {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("duck: put: %w", err)
		}
		if _, ok := s.schemas[r.Type]; !ok {
			return fmt.Errorf("duck: put %s: resource type %q is not served", r.ARN, r.Type)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duck: begin: %w", err)
	}
	defer tx.Rollback()

	insertProp, err := tx.PrepareContext(ctx, `INSERT INTO `+propertiesTable+
		` (arn, name, value_type, text_value, num_value, ts_value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("duck: prepare: %w", err)
	}
	defer insertProp.Close()

	for _, r := range resources {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+propertiesTable+` WHERE arn = ?`, r.ARN); err != nil {
			return fmt.Errorf("duck: put %s: %w", r.ARN, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO `+resourcesTable+
			` (arn, resource_type) VALUES (?, ?)`, r.ARN, string(r.Type)); err != nil {
			return fmt.Errorf("duck: put %s: %w", r.ARN, err)
		}
		for _, name := range r.PropertyNames() {
			v := r.Properties[name]
			num, ts := typedColumns(v)
			if _, err := insertProp.ExecContext(ctx, r.ARN, name, v.Type().String(), v.String(), num, ts); err != nil {
				return fmt.Errorf("duck: put %s property %s: %w", r.ARN, name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("duck: commit: %w", err)
	}
	s.logger.Debug("Resources stored", "count", len(resources))
	return nil
}

// typedColumns derives num_value and ts_value from a property literal the
// same way a predicate coerces it, so pushdown agrees with evaluation.
func typedColumns(v filter.Value) (sql.NullFloat64, sql.NullTime) {
	var num sql.NullFloat64
	var ts sql.NullTime

	n := v
	if v.Type() != filter.TypeNumber {
		n, _ = filter.Number(v.String())
	}
	if f, ok := n.Float64(); ok {
		num = sql.NullFloat64{Float64: f, Valid: true}
	}

	t := v
	if v.Type() != filter.TypeTimestamp {
		t, _ = filter.ParseTimestamp(v.String())
	}
	if tm, ok := t.Time(); ok {
		ts = sql.NullTime{Time: tm.UTC(), Valid: true}
	}
	return num, ts
}

// Delete removes a resource. Deleting an unknown ARN is not an error.
func (s *Store) Delete(ctx context.Context, arn string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duck: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+propertiesTable+` WHERE arn = ?`, arn); err != nil {
		return fmt.Errorf("duck: delete %s: %w", arn, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+resourcesTable+` WHERE arn = ?`, arn); err != nil {
		return fmt.Errorf("duck: delete %s: %w", arn, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("duck: commit: %w", err)
	}
	return nil
}

// ResourceTypes implements catalog.Catalog.
func (s *Store) ResourceTypes(ctx context.Context) ([]catalog.ResourceType, error) {
	out := make([]catalog.ResourceType, len(s.types))
	copy(out, s.types)
	return out, nil
}

// Schema implements catalog.Catalog.
func (s *Store) Schema(ctx context.Context, rt catalog.ResourceType) (*filter.Schema, error) {
	return s.schemas[rt], nil
}

// Resources implements catalog.Catalog.
func (s *Store) Resources(ctx context.Context, rt catalog.ResourceType) ([]*catalog.Resource, error) {
	return s.query(ctx, "r.resource_type = ?", string(rt))
}

// Resource implements catalog.Catalog.
func (s *Store) Resource(ctx context.Context, arn string) (*catalog.Resource, error) {
	res, err := s.query(ctx, "r.arn = ?", arn)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	return res[0], nil
}

// SearchResources implements catalog.FilterPushdown. The expression is
// encoded as a SQL pre-filter; parts that cannot be encoded exactly are
// widened, so callers must still match the returned resources.
func (s *Store) SearchResources(ctx context.Context, rt catalog.ResourceType, expr *filter.Compiled) ([]*catalog.Resource, error) {
	where := "r.resource_type = ?"
	if cond := s.encoder.EncodeExpression(expr); cond != "" {
		where += " AND (" + cond + ")"
		s.logger.Debug("Pushing down search expression", "resource_type", rt, "condition", cond)
	}
	return s.query(ctx, where, string(rt))
}

// query loads the resources matching a WHERE condition over alias r,
// ordered by ARN.
func (s *Store) query(ctx context.Context, where string, args ...any) ([]*catalog.Resource, error) {
	q := `SELECT r.arn, r.resource_type, pv.name, pv.value_type, pv.text_value
		FROM ` + resourcesTable + ` r
		LEFT JOIN ` + propertiesTable + ` pv ON pv.arn = r.arn
		WHERE ` + where + `
		ORDER BY r.arn, pv.name`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("duck: query: %w", err)
	}
	defer rows.Close()

	out := []*catalog.Resource{}
	var cur *catalog.Resource
	for rows.Next() {
		var (
			arn, rt         string
			name, typ, text sql.NullString
		)
		if err := rows.Scan(&arn, &rt, &name, &typ, &text); err != nil {
			return nil, fmt.Errorf("duck: scan: %w", err)
		}
		if cur == nil || cur.ARN != arn {
			cur = &catalog.Resource{
				ARN:        arn,
				Type:       catalog.ResourceType(rt),
				Properties: make(filter.Properties),
			}
			out = append(out, cur)
		}
		if !name.Valid {
			continue
		}
		v, err := restoreValue(typ.String, text.String)
		if err != nil {
			return nil, fmt.Errorf("duck: resource %s property %s: %w", arn, name.String, err)
		}
		cur.Properties[name.String] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duck: rows: %w", err)
	}
	return out, nil
}

func restoreValue(typeName, literal string) (filter.Value, error) {
	typ, ok := filter.ParsePropertyType(typeName)
	if !ok {
		return filter.Value{}, fmt.Errorf("unknown value type %q", typeName)
	}
	if typ == filter.TypeText {
		return filter.Text(literal), nil
	}
	return filter.ParseValue(typ, literal)
}

// Stats reports row counts per resource type.
func (s *Store) Stats(ctx context.Context) (map[catalog.ResourceType]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT resource_type, count(*) FROM `+resourcesTable+` GROUP BY resource_type`)
	if err != nil {
		return nil, fmt.Errorf("duck: stats: %w", err)
	}
	defer rows.Close()

	out := make(map[catalog.ResourceType]int64)
	for rows.Next() {
		var rt string
		var n int64
		if err := rows.Scan(&rt, &n); err != nil {
			return nil, fmt.Errorf("duck: stats: %w", err)
		}
		out[catalog.ResourceType(rt)] = n
	}
	return out, rows.Err()
}

// describeColumns returns the column types of a table, keyed by column name.
func (s *Store) describeColumns(ctx context.Context, table string) (map[string]filter.LogicalTypeID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ?`, table)
	if err != nil {
		return nil, fmt.Errorf("duck: describe %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]filter.LogicalTypeID)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("duck: describe %s: %w", table, err)
		}
		out[strings.ToLower(name)] = filter.LogicalTypeID(typ)
	}
	return out, rows.Err()
}

// CheckLayout verifies that the typed property columns have the types the
// pushdown encoder assumes. Useful when opening a database file created
// elsewhere.
func (s *Store) CheckLayout(ctx context.Context) error {
	cols, err := s.describeColumns(ctx, propertiesTable)
	if err != nil {
		return err
	}
	want := map[string]filter.PropertyType{
		filter.ColumnText:      filter.TypeText,
		filter.ColumnNumber:    filter.TypeNumber,
		filter.ColumnTimestamp: filter.TypeTimestamp,
	}
	for col, typ := range want {
		got, ok := cols[col]
		if !ok {
			return fmt.Errorf("duck: %s.%s is missing", propertiesTable, col)
		}
		if pt, ok := got.PropertyType(); !ok || pt != typ {
			return fmt.Errorf("duck: %s.%s has type %s, expected a %s column", propertiesTable, col, got, typ)
		}
	}
	return nil
}
