package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

func TestPredicate_ImplementsSealed(t *testing.T) {
	var p Predicate = Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(1)}
	assert.NotNil(t, p)

	switch p.(type) {
	case Comparison:
		// Expected
	case And, Or:
		t.Fatal("unexpected type")
	}
}

func TestNewAndNewOr_Collapse(t *testing.T) {
	c := Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(1)}

	assert.Equal(t, c, NewAnd(c))
	assert.Equal(t, c, NewOr(c))
	assert.Equal(t, And{Predicates: []Predicate{c, c}}, NewAnd(c, c))
	assert.Equal(t, Or{Predicates: []Predicate{c, c}}, NewOr(c, c))
}

func TestFormat_SingleComparison(t *testing.T) {
	text, args := Format(Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(32)})

	assert.Equal(t, "age = %@", text)
	assert.Equal(t, []ir.Value{ir.Int(32)}, args)
}

func TestFormat_NullRendersNoValue(t *testing.T) {
	text, args := Format(Comparison{Field: "name", Operator: OpNotEquals, Value: ir.Null{}})
	assert.Equal(t, "name != nil", text)
	assert.Empty(t, args)

	text, args = Format(&Comparison{Field: "name", Operator: OpEquals})
	assert.Equal(t, "name = nil", text)
	assert.Empty(t, args)
}

func TestFormat_InBindsWholeList(t *testing.T) {
	names := ir.List{ir.String("John"), ir.String("Marcus"), ir.String("Maria")}
	text, args := Format(Comparison{Field: "name", Operator: OpIn, Value: names})

	assert.Equal(t, "name IN %@", text)
	require.Len(t, args, 1, "IN contributes a single argument")
	assert.Equal(t, names, args[0])
}

func TestFormat_Precedence(t *testing.T) {
	a := Comparison{Field: "a", Operator: OpEquals, Value: ir.Int(1)}
	b := Comparison{Field: "b", Operator: OpEquals, Value: ir.Int(2)}
	c := Comparison{Field: "c", Operator: OpEquals, Value: ir.Int(3)}

	testCases := []struct {
		name     string
		pred     Predicate
		expected string
	}{
		{"and inside or needs no parens", Or{Predicates: []Predicate{And{Predicates: []Predicate{a, b}}, c}}, "a = %@ AND b = %@ OR c = %@"},
		{"or inside and is parenthesised", And{Predicates: []Predicate{a, Or{Predicates: []Predicate{b, c}}}}, "a = %@ AND (b = %@ OR c = %@)"},
		{"nested and is parenthesised", And{Predicates: []Predicate{a, &And{Predicates: []Predicate{b, c}}}}, "a = %@ AND (b = %@ AND c = %@)"},
		{"empty and", And{}, "TRUEPREDICATE"},
		{"empty or", Or{}, "FALSEPREDICATE"},
		{"nil", nil, "TRUEPREDICATE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			text, _ := Format(tc.pred)
			assert.Equal(t, tc.expected, text)
		})
	}
}

func TestFormat_ArgumentOrderMatchesPlaceholders(t *testing.T) {
	pred := Or{Predicates: []Predicate{
		And{Predicates: []Predicate{
			Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(20)},
			Comparison{Field: "name", Operator: OpEquals, Value: ir.Null{}},
			Comparison{Field: "name", Operator: OpContains, Value: ir.String("jo")},
		}},
		Comparison{Field: "age", Operator: OpIn, Value: ir.List{ir.Int(32), ir.Int(41)}},
	}}

	text, args := Format(pred)

	assert.Equal(t, "age = %@ AND name = nil AND name CONTAINS[cd] %@ OR age IN %@", text)
	assert.Equal(t, []ir.Value{ir.Int(20), ir.String("jo"), ir.List{ir.Int(32), ir.Int(41)}}, args)
}

func TestCanonical_Deterministic(t *testing.T) {
	pred := And{Predicates: []Predicate{
		Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(20)},
		&Comparison{Field: "name", Operator: OpIn, Value: ir.List{ir.String("John")}},
	}}

	first, err := ir.Fingerprint(ir.DomainPredicate, Canonical(pred))
	require.NoError(t, err)
	second, err := ir.Fingerprint(ir.DomainPredicate, Canonical(pred))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Value and pointer nodes are the same predicate
	valueForm := And{Predicates: []Predicate{
		Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(20)},
		Comparison{Field: "name", Operator: OpIn, Value: ir.List{ir.String("John")}},
	}}
	third, err := ir.Fingerprint(ir.DomainPredicate, Canonical(valueForm))
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestCanonicalSelect(t *testing.T) {
	q := Select{Entity: "Person", Sort: &Sort{Key: "name", Ascending: false}}
	out := CanonicalSelect(q)

	assert.Equal(t, "Person", out["entity"])
	assert.Nil(t, out["filter"])
	assert.Equal(t, map[string]any{"key": "name", "ascending": false}, out["sort"])
}
