package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/queryir"
	"github.com/lourenco-marinho/Lens/internal/querysql"
)

// Fetch runs a query against the entity it names and returns every
// matching record.
//
// The query is validated against the entity schema before compilation.
// Records hold the selected fields (every schema field when the query names
// none), converted back to their schema kinds. Results are ordered by the
// query's sort key, then by insertion order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Fetch(ctx context.Context, q queryir.Select) ([]ir.Record, error) {
	schema, err := s.Entity(q.Entity)
	if err != nil {
		return nil, err
	}
	if err := queryir.Validate(q, &schema); err != nil {
		return nil, err
	}

	compiler := &querysql.SQLCompiler{Fields: schema.FieldNames()}
	sqlText, params, err := compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	columns := q.Fields
	if len(columns) == 0 {
		columns = schema.FieldNames()
	}
	kinds := make([]ir.Kind, len(columns))
	for i, name := range columns {
		f, _ := schema.Field(name)
		kinds[i] = f.Kind
	}

	slog.Debug("fetch", "entity", q.Entity, "sql", sqlText, "params", len(params))

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Entity, err)
	}
	defer rows.Close()

	records := []ir.Record{}
	for rows.Next() {
		record, err := scanRecord(rows, columns, kinds)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Entity, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Entity, err)
	}

	return records, nil
}

// scanRecord reads one row into a Record.
func scanRecord(rows *sql.Rows, columns []string, kinds []ir.Kind) (ir.Record, error) {
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	record := make(ir.Record, len(columns))
	for i, name := range columns {
		v, err := sqlToValue(raw[i], kinds[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		record[name] = v
	}
	return record, nil
}

// sqlToValue converts a driver value back to the field's kind.
func sqlToValue(raw any, kind ir.Kind) (ir.Value, error) {
	if raw == nil {
		return ir.Null{}, nil
	}

	switch kind {
	case ir.KindString:
		switch v := raw.(type) {
		case string:
			return ir.String(v), nil
		case []byte:
			return ir.String(string(v)), nil
		}
	case ir.KindInt:
		if v, ok := raw.(int64); ok {
			return ir.Int(v), nil
		}
	case ir.KindFloat:
		switch v := raw.(type) {
		case float64:
			return ir.Float(v), nil
		case int64:
			return ir.Float(float64(v)), nil
		}
	case ir.KindBool:
		if v, ok := raw.(int64); ok {
			return ir.Bool(v != 0), nil
		}
	case ir.KindTime:
		switch v := raw.(type) {
		case string:
			return ir.ParseTime(v)
		case []byte:
			return ir.ParseTime(string(v))
		case time.Time:
			return ir.NewTime(v), nil
		}
	}

	return nil, fmt.Errorf("unexpected %T for %s field", raw, kind)
}

// Insert adds one record to an entity. Values are coerced to the schema
// kinds; fields missing from the record are stored as NULL.
//
// Insert exists for seeding fixtures and tests. The query builder never
// writes.
func (s *Store) Insert(ctx context.Context, entity string, record ir.Record) error {
	schema, err := s.Entity(entity)
	if err != nil {
		return err
	}
	return insertRecord(ctx, s.db, schema, record)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecord(ctx context.Context, db execer, schema ir.EntitySchema, record ir.Record) error {
	columns := make([]string, 0, len(record))
	params := make([]any, 0, len(record))

	for _, name := range record.SortedKeys() {
		f, ok := schema.Field(name)
		if !ok {
			return fmt.Errorf("entity %s has no field %q", schema.Name, name)
		}
		v, err := ir.Coerce(record[name], f.Kind)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		param, err := querysql.ValueToParam(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		columns = append(columns, fmt.Sprintf("%q", name))
		params = append(params, param)
	}

	var sqlText string
	if len(columns) == 0 {
		sqlText = fmt.Sprintf("INSERT INTO %q DEFAULT VALUES", schema.Name)
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
		sqlText = fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
			schema.Name, strings.Join(columns, ", "), placeholders)
	}

	if _, err := db.ExecContext(ctx, sqlText, params...); err != nil {
		return fmt.Errorf("insert %s: %w", schema.Name, err)
	}
	return nil
}
