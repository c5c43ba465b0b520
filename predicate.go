package lens

import (
	"reflect"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/queryir"
)

// Predicate is a compiled filter. The zero Predicate matches every record.
type Predicate struct {
	tree queryir.Predicate
}

// Tree returns the expression tree, or nil for the empty predicate.
func (p Predicate) Tree() queryir.Predicate {
	return p.tree
}

// IsEmpty reports whether the predicate has no clauses.
func (p Predicate) IsEmpty() bool {
	return p.tree == nil
}

// Format renders the predicate as text with %@ placeholders, for example
//
//	age = %@ AND name IN %@
//
// The empty predicate renders as TRUEPREDICATE.
func (p Predicate) Format() string {
	text, _ := queryir.Format(p.tree)
	return text
}

// Values returns the bound values in placeholder order. An IN clause
// contributes one value holding the whole list.
func (p Predicate) Values() []ir.Value {
	_, args := queryir.Format(p.tree)
	if args == nil {
		return []ir.Value{}
	}
	return args
}

// Arguments returns Values as plain Go values (string, int64, float64,
// bool, time.Time, or []any for a list).
func (p Predicate) Arguments() []any {
	values := p.Values()
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = ir.ToGo(v)
	}
	return out
}

// String returns Format.
func (p Predicate) String() string {
	return p.Format()
}

// Fingerprint returns a stable SHA-256 over the canonical form of the tree.
// Equal predicates have equal fingerprints.
func (p Predicate) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainPredicate, queryir.Canonical(p.tree))
}

// Equal reports whether two predicates have the same structure and values.
func (p Predicate) Equal(other Predicate) bool {
	return reflect.DeepEqual(queryir.Canonical(p.tree), queryir.Canonical(other.tree))
}

// QueryFingerprint returns a stable SHA-256 over the canonical form of a
// whole query: entity, filter and sort. Queries that read the same records
// in the same order have equal fingerprints.
func QueryFingerprint(q Query) (string, error) {
	return ir.Fingerprint(ir.DomainQuery, queryir.CanonicalSelect(q))
}
