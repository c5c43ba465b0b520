package queryir

import "github.com/lourenco-marinho/Lens/internal/ir"

// Operator is the per-field test of a Comparison.
type Operator string

const (
	// OpEquals matches when the attribute equals the value (or is null for Null).
	OpEquals Operator = "="

	// OpNotEquals matches when the attribute differs from the value.
	// A null attribute differs from every non-null value.
	OpNotEquals Operator = "!="

	// OpContains matches when the text attribute contains the value,
	// ignoring case and diacritics.
	OpContains Operator = "CONTAINS[cd]"

	// OpIn matches when the attribute equals any element of a List value.
	OpIn Operator = "IN"
)

// Valid reports whether op is one of the defined operators.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpIn:
		return true
	default:
		return false
	}
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
// Predicate types:
//   - Comparison: field <op> value
//   - And: all predicates must be true
//   - Or: at least one predicate must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select is a whole-result read of one entity.
//
// Semantics:
//
//	SELECT <fields> FROM <entity> WHERE <filter> ORDER BY <sort>
//
// A nil Filter fetches every record. A nil Sort leaves records in the
// store's natural order.
type Select struct {
	Entity string    // Record type name (e.g., "Person")
	Fields []string  // Attributes to read (empty = all)
	Filter Predicate // WHERE conditions (nil = no filter)
	Sort   *Sort     // ORDER BY key (nil = natural order)
}

// Sort is a single sort key.
type Sort struct {
	Key       string
	Ascending bool
}

// Comparison tests one attribute against a value.
//
// Example:
//
//	Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(32)}
//
// renders as
//
//	age = %@
//
// with one argument, 32. An OpIn comparison takes an ir.List and still binds
// a single argument holding the whole list.
type Comparison struct {
	Field    string
	Operator Operator
	Value    ir.Value
}

func (Comparison) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (at least one must be true).
// Empty Predicates means "always false".
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// NewAnd joins predicates with AND. A single predicate is returned as is.
func NewAnd(preds ...Predicate) Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return And{Predicates: preds}
}

// NewOr joins predicates with OR. A single predicate is returned as is.
func NewOr(preds ...Predicate) Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return Or{Predicates: preds}
}
