package querysql

import (
	"fmt"
	"strings"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/queryir"
)

// FoldFunction is the SQL function the store registers for
// case- and diacritic-insensitive matching.
const FoldFunction = "lens_fold"

// TiebreakerColumn orders rows with equal sort keys by insertion order.
const TiebreakerColumn = "rowid"

// SQLCompiler compiles a queryir.Select to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized (never interpolated).
// CRITICAL: Every query ends with a rowid tiebreaker so results are deterministic.
type SQLCompiler struct {
	// Fields is the column list used when the Select names none.
	Fields []string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a Select to parameterized SQL.
// Returns (sql, params, error) tuple; params[i] binds the i-th "?".
func (c *SQLCompiler) Compile(q queryir.Select) (string, []any, error) {
	if !ir.ValidIdentifier(q.Entity) {
		return "", nil, fmt.Errorf("invalid entity name %q", q.Entity)
	}

	selectClause, err := c.compileFields(q.Fields)
	if err != nil {
		return "", nil, err
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	orderByClause, err := c.compileOrderBy(q.Sort)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s",
		selectClause,
		quoteIdent(q.Entity),
		whereClause,
		orderByClause)

	return sql, params, nil
}

// compileFields converts the field list to a quoted SELECT column list.
func (c *SQLCompiler) compileFields(fields []string) (string, error) {
	if len(fields) == 0 {
		fields = c.Fields
	}
	if len(fields) == 0 {
		return "*", nil
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		if !ir.ValidIdentifier(f) {
			return "", fmt.Errorf("invalid field name %q", f)
		}
		parts[i] = quoteIdent(f)
	}
	return strings.Join(parts, ", "), nil
}

// compileOrderBy builds the ORDER BY clause.
// MANDATORY: the rowid tiebreaker is always last.
// Text compares with COLLATE BINARY for ordering independent of SQLite build.
func (c *SQLCompiler) compileOrderBy(sort *queryir.Sort) (string, error) {
	if sort == nil {
		return " ORDER BY " + TiebreakerColumn + " ASC", nil
	}
	if !ir.ValidIdentifier(sort.Key) {
		return "", fmt.Errorf("invalid sort key %q", sort.Key)
	}

	direction := "DESC"
	if sort.Ascending {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s COLLATE BINARY %s, %s ASC",
		quoteIdent(sort.Key), direction, TiebreakerColumn), nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Comparison:
		return c.compileComparison(pred)
	case *queryir.Comparison:
		return c.compileComparison(*pred)
	case queryir.And:
		return c.compileGroup(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileGroup(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileGroup(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return c.compileGroup(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileGroup joins sub-predicates. Every group is parenthesised so the
// tree's grouping survives regardless of SQL precedence.
func (c *SQLCompiler) compileGroup(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range preds {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	if len(sqlParts) == 1 {
		return sqlParts[0], allParams, nil
	}
	return "(" + strings.Join(sqlParts, sep) + ")", allParams, nil
}

// compileComparison compiles one field test.
//
//	=            "f" = ?          (nil: "f" IS NULL)
//	!=           "f" IS NOT ?     (nil: "f" IS NOT NULL)
//	CONTAINS[cd] instr(lens_fold("f"), lens_fold(?)) > 0
//	IN           "f" IN (SELECT value FROM json_each(?))
func (c *SQLCompiler) compileComparison(cmp queryir.Comparison) (string, []any, error) {
	if !ir.ValidIdentifier(cmp.Field) {
		return "", nil, fmt.Errorf("invalid field name %q", cmp.Field)
	}
	col := quoteIdent(cmp.Field)

	value := cmp.Value
	if value == nil {
		value = ir.Null{}
	}
	_, isNull := value.(ir.Null)

	switch cmp.Operator {
	case queryir.OpEquals:
		if isNull {
			return col + " IS NULL", nil, nil
		}
		param, err := ValueToParam(value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", cmp.Field, err)
		}
		return col + " = ?", []any{param}, nil

	case queryir.OpNotEquals:
		if isNull {
			return col + " IS NOT NULL", nil, nil
		}
		param, err := ValueToParam(value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", cmp.Field, err)
		}
		return col + " IS NOT ?", []any{param}, nil

	case queryir.OpContains:
		s, ok := value.(ir.String)
		if !ok {
			return "", nil, fmt.Errorf("field %s: CONTAINS requires a string, got %s", cmp.Field, value.Kind())
		}
		sql := fmt.Sprintf("instr(%s(%s), %s(?)) > 0", FoldFunction, col, FoldFunction)
		return sql, []any{string(s)}, nil

	case queryir.OpIn:
		list, ok := value.(ir.List)
		if !ok {
			return "", nil, fmt.Errorf("field %s: IN requires a list, got %s", cmp.Field, value.Kind())
		}
		param, err := ListToParam(list)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", cmp.Field, err)
		}
		return col + " IN (SELECT value FROM json_each(?))", []any{param}, nil

	default:
		return "", nil, fmt.Errorf("unsupported operator %q", cmp.Operator)
	}
}

// quoteIdent double-quotes an identifier that has already been validated.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// ValueToParam converts a scalar ir.Value to a database/sql parameter.
// Times become TimeLayout text, booleans 0/1 integers, matching how the
// store writes them.
func ValueToParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	case ir.Float:
		return float64(val), nil
	case ir.Bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case ir.Time:
		return val.String(), nil
	case ir.Null, nil:
		return nil, nil
	case ir.List:
		return nil, fmt.Errorf("list cannot be used as a scalar SQL parameter")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

// ListToParam encodes a list as one JSON array parameter for json_each.
// Elements are encoded the way ValueToParam would bind them.
func ListToParam(list ir.List) (string, error) {
	encoded := make(ir.List, len(list))
	for i, elem := range list {
		switch val := elem.(type) {
		case ir.Bool:
			if val {
				encoded[i] = ir.Int(1)
			} else {
				encoded[i] = ir.Int(0)
			}
		case ir.Time:
			encoded[i] = ir.String(val.String())
		case ir.List:
			return "", fmt.Errorf("list[%d]: nested lists are not supported", i)
		default:
			encoded[i] = elem
		}
	}

	b, err := ir.MarshalValue(encoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
