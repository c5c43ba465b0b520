package lens

import (
	"strings"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/queryir"
)

// Compound is the connective that joins a component to the one before it.
type Compound int

const (
	// CompoundNone marks the first component of a chain.
	CompoundNone Compound = iota
	CompoundAnd
	CompoundOr
)

func (c Compound) String() string {
	switch c {
	case CompoundAnd:
		return "AND"
	case CompoundOr:
		return "OR"
	default:
		return ""
	}
}

// Comparison is the per-field test of a component.
type Comparison int

const (
	// ComparisonNone marks a component whose test has not been bound yet.
	ComparisonNone Comparison = iota
	Equals
	NotEquals
	Contains
	In
)

func (c Comparison) String() string {
	if op, ok := c.operator(); ok {
		return string(op)
	}
	return ""
}

func (c Comparison) operator() (queryir.Operator, bool) {
	switch c {
	case Equals:
		return queryir.OpEquals, true
	case NotEquals:
		return queryir.OpNotEquals, true
	case Contains:
		return queryir.OpContains, true
	case In:
		return queryir.OpIn, true
	default:
		return "", false
	}
}

// Component is one clause of a chain: a field, the connective to the
// previous clause, and once bound, a comparison and its value.
//
// The field and compound are fixed at creation. Comparison and value are
// set together, exactly once.
type Component struct {
	field      string
	compound   Compound
	comparison Comparison
	value      ir.Value
}

func newComponent(field string, compound Compound) *Component {
	return &Component{field: field, compound: compound}
}

// Field returns the attribute the component tests.
func (c *Component) Field() string { return c.field }

// Compound returns the connective to the previous component.
func (c *Component) Compound() Compound { return c.compound }

// Comparison returns the bound test, or ComparisonNone.
func (c *Component) Comparison() Comparison { return c.comparison }

// Value returns the bound value; ok is false until the component is bound.
func (c *Component) Value() (v ir.Value, ok bool) {
	if c.comparison == ComparisonNone {
		return nil, false
	}
	return c.value, true
}

// Bound reports whether a comparison has been set.
func (c *Component) Bound() bool {
	return c.comparison != ComparisonNone
}

func (c *Component) bind(op Comparison, v ir.Value) error {
	if c.Bound() {
		return newError(ErrCodeComparisonAlreadySet, "", c.field,
			"%s already has comparison %s", c.field, c.comparison)
	}
	if v == nil {
		v = ir.Null{}
	}
	c.comparison = op
	c.value = v
	return nil
}

// String renders the component as predicate text:
//
//	[AND|OR] <field> [<comparison>] <%@|nil>
//
// An unbound or Null value renders as nil.
func (c *Component) String() string {
	parts := make([]string, 0, 4)
	if s := c.compound.String(); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, c.field)
	if s := c.comparison.String(); s != "" {
		parts = append(parts, s)
	}
	if _, isNull := c.value.(ir.Null); c.value == nil || isNull {
		parts = append(parts, queryir.NoValue)
	} else {
		parts = append(parts, queryir.Placeholder)
	}
	return strings.Join(parts, " ")
}

// node converts a bound component to its expression tree leaf.
func (c *Component) node() queryir.Comparison {
	op, _ := c.comparison.operator()
	return queryir.Comparison{Field: c.field, Operator: op, Value: c.value}
}
