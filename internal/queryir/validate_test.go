package queryir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

var personSchema = &ir.EntitySchema{
	Name: "Person",
	Fields: []ir.Field{
		{Name: "name", Kind: ir.KindString},
		{Name: "age", Kind: ir.KindInt},
		{Name: "height", Kind: ir.KindFloat},
		{Name: "active", Kind: ir.KindBool},
	},
}

func issueCodes(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	codes := make([]string, len(verr.Issues))
	for i, issue := range verr.Issues {
		codes[i] = issue.Code
	}
	return codes
}

func TestValidate_ValidQueries(t *testing.T) {
	testCases := []struct {
		name  string
		query Select
	}{
		{"no filter", Select{Entity: "Person"}},
		{"equals int", Select{Entity: "Person", Filter: Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(32)}}},
		{"int against float field", Select{Entity: "Person", Filter: Comparison{Field: "height", Operator: OpEquals, Value: ir.Int(2)}}},
		{"null against any field", Select{Entity: "Person", Filter: &Comparison{Field: "active", Operator: OpNotEquals, Value: ir.Null{}}}},
		{"in list", Select{Entity: "Person", Filter: Comparison{Field: "name", Operator: OpIn, Value: ir.List{ir.String("John")}}}},
		{"empty in list", Select{Entity: "Person", Filter: Comparison{Field: "name", Operator: OpIn, Value: ir.List{}}}},
		{"contains", Select{Entity: "Person", Filter: Comparison{Field: "name", Operator: OpContains, Value: ir.String("ar")}}},
		{"sort key", Select{Entity: "Person", Sort: &Sort{Key: "age", Ascending: true}}},
		{"nested groups", Select{Entity: "Person", Filter: Or{Predicates: []Predicate{
			And{Predicates: []Predicate{Comparison{Field: "age", Operator: OpEquals, Value: ir.Int(1)}}},
			&Or{},
		}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, Validate(tc.query, personSchema))
		})
	}
}

func TestValidate_StructuralWithoutSchema(t *testing.T) {
	testCases := []struct {
		name     string
		pred     Predicate
		expected []string
	}{
		{"in with scalar", Comparison{Field: "name", Operator: OpIn, Value: ir.String("John")}, []string{IssueInvalidOperand}},
		{"equals with list", Comparison{Field: "name", Operator: OpEquals, Value: ir.List{ir.String("a")}}, []string{IssueInvalidOperand}},
		{"contains with int", Comparison{Field: "name", Operator: OpContains, Value: ir.Int(1)}, []string{IssueInvalidOperand}},
		{"bad identifier", Comparison{Field: "name = %@", Operator: OpEquals, Value: ir.Int(1)}, []string{IssueInvalidField}},
		{"unknown operator", Comparison{Field: "name", Operator: "LIKE", Value: ir.String("x")}, []string{IssueInvalidOperand}},
		{"equals infinity", Comparison{Field: "height", Operator: OpEquals, Value: ir.Float(math.Inf(1))}, []string{IssueInvalidOperand}},
		{"not equals NaN", Comparison{Field: "height", Operator: OpNotEquals, Value: ir.Float(math.NaN())}, []string{IssueInvalidOperand}},
		{"in with infinity", Comparison{Field: "height", Operator: OpIn, Value: ir.List{ir.Float(1), ir.Float(math.Inf(-1))}}, []string{IssueInvalidOperand}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(Select{Entity: "Person", Filter: tc.pred}, nil)
			assert.Equal(t, tc.expected, issueCodes(t, err))
		})
	}
}

func TestValidate_WithoutSchemaIgnoresFieldExistence(t *testing.T) {
	err := Validate(Select{Entity: "Anything", Filter: Comparison{Field: "whatever", Operator: OpEquals, Value: ir.Int(1)}}, nil)
	assert.NoError(t, err)
}

func TestValidate_SchemaIssues(t *testing.T) {
	testCases := []struct {
		name     string
		query    Select
		expected []string
	}{
		{"unknown field", Select{Entity: "Person", Filter: Comparison{Field: "email", Operator: OpEquals, Value: ir.String("x")}}, []string{IssueUnknownField}},
		{"string against int", Select{Entity: "Person", Filter: Comparison{Field: "age", Operator: OpEquals, Value: ir.String("32")}}, []string{IssueKindMismatch}},
		{"contains on int field", Select{Entity: "Person", Filter: Comparison{Field: "age", Operator: OpContains, Value: ir.String("3")}}, []string{IssueKindMismatch}},
		{"bad list element", Select{Entity: "Person", Filter: Comparison{Field: "age", Operator: OpIn, Value: ir.List{ir.Int(1), ir.String("x")}}}, []string{IssueKindMismatch}},
		{"unknown sort key", Select{Entity: "Person", Sort: &Sort{Key: "email"}}, []string{IssueUnknownField}},
		{"wrong entity", Select{Entity: "Car"}, []string{IssueEntityMismatch}},
		{"collects all issues", Select{Entity: "Person", Filter: And{Predicates: []Predicate{
			Comparison{Field: "email", Operator: OpEquals, Value: ir.String("x")},
			Comparison{Field: "age", Operator: OpEquals, Value: ir.Bool(true)},
		}}}, []string{IssueUnknownField, IssueKindMismatch}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.query, personSchema)
			assert.Equal(t, tc.expected, issueCodes(t, err))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(Select{Entity: "Person", Filter: Comparison{Field: "email", Operator: OpEquals, Value: ir.String("x")}}, personSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_FIELD")
	assert.Contains(t, err.Error(), "email")
}
