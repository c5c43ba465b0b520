package queryir

import (
	"fmt"
	"math"
	"strings"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

// Issue codes reported by Validate.
const (
	IssueInvalidField   = "INVALID_FIELD"
	IssueInvalidOperand = "INVALID_OPERAND"
	IssueUnknownField   = "UNKNOWN_FIELD"
	IssueKindMismatch   = "KIND_MISMATCH"
	IssueEntityMismatch = "ENTITY_MISMATCH"
)

// Issue is a single validation failure.
type Issue struct {
	Code    string
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// ValidationError collects every issue found in a query.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid query: " + strings.Join(parts, "; ")
}

// Validate checks a query for structural soundness and, when schema is
// non-nil, against the entity's fields and kinds.
//
// Structural rules:
//  1. Field names are identifiers
//  2. IN takes a List; every other operator takes a scalar
//  3. CONTAINS takes a String
//
// Schema rules:
//  1. Every referenced field (including the sort key) exists
//  2. Values are kind-compatible with the field (numbers mix, Null always fits)
//  3. CONTAINS only applies to string fields
//
// Validate is a pure function with no side effects. It returns nil or a
// *ValidationError.
func Validate(q Select, schema *ir.EntitySchema) error {
	v := &validator{schema: schema}

	if schema != nil && q.Entity != schema.Name {
		v.addIssue(IssueEntityMismatch, "", "query entity %q does not match schema %q", q.Entity, schema.Name)
	}
	for _, f := range q.Fields {
		v.checkField(f)
	}
	if q.Filter != nil {
		v.validatePredicate(q.Filter)
	}
	if q.Sort != nil {
		v.checkField(q.Sort.Key)
	}

	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}

// validator accumulates issues during traversal.
type validator struct {
	schema *ir.EntitySchema
	issues []Issue
}

func (v *validator) addIssue(code, field, format string, args ...any) {
	v.issues = append(v.issues, Issue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

// checkField validates an identifier and, with a schema, its existence.
// Returns the field kind when known.
func (v *validator) checkField(name string) (ir.Kind, bool) {
	if !ir.ValidIdentifier(name) {
		v.addIssue(IssueInvalidField, name, "invalid field name %q", name)
		return "", false
	}
	if v.schema == nil {
		return "", false
	}
	f, ok := v.schema.Field(name)
	if !ok {
		v.addIssue(IssueUnknownField, name, "entity %s has no field %q", v.schema.Name, name)
		return "", false
	}
	return f.Kind, true
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Comparison:
		v.validateComparison(pred)
	case *Comparison:
		v.validateComparison(*pred)
	case And:
		v.validateGroup(pred.Predicates)
	case *And:
		v.validateGroup(pred.Predicates)
	case Or:
		v.validateGroup(pred.Predicates)
	case *Or:
		v.validateGroup(pred.Predicates)
	default:
		v.addIssue(IssueInvalidOperand, "", "unknown predicate type: %T", p)
	}
}

func (v *validator) validateGroup(preds []Predicate) {
	for _, sub := range preds {
		v.validatePredicate(sub)
	}
}

func (v *validator) validateComparison(c Comparison) {
	fieldKind, known := v.checkField(c.Field)

	if !c.Operator.Valid() {
		v.addIssue(IssueInvalidOperand, c.Field, "unknown operator %q on %s", c.Operator, c.Field)
		return
	}

	value := c.Value
	if value == nil {
		value = ir.Null{}
	}

	switch c.Operator {
	case OpIn:
		list, ok := value.(ir.List)
		if !ok {
			v.addIssue(IssueInvalidOperand, c.Field, "IN on %s requires a list, got %s", c.Field, value.Kind())
			return
		}
		for i, elem := range list {
			if !finite(elem) {
				v.addIssue(IssueInvalidOperand, c.Field, "IN on %s: element %d is not a finite number", c.Field, i)
			}
		}
		if known {
			for i, elem := range list {
				if !ir.Compatible(fieldKind, elem.Kind()) {
					v.addIssue(IssueKindMismatch, c.Field, "IN on %s field %s: element %d is %s", fieldKind, c.Field, i, elem.Kind())
				}
			}
		}
		return
	case OpContains:
		if value.Kind() != ir.KindString {
			v.addIssue(IssueInvalidOperand, c.Field, "CONTAINS on %s requires a string, got %s", c.Field, value.Kind())
			return
		}
		if known && fieldKind != ir.KindString {
			v.addIssue(IssueKindMismatch, c.Field, "CONTAINS requires a string field, %s is %s", c.Field, fieldKind)
		}
		return
	}

	if value.Kind() == ir.KindList {
		v.addIssue(IssueInvalidOperand, c.Field, "%s on %s requires a scalar, got list", c.Operator, c.Field)
		return
	}
	if !finite(value) {
		v.addIssue(IssueInvalidOperand, c.Field, "%s on %s requires a finite number, got %v", c.Operator, c.Field, value)
		return
	}
	if known && !ir.Compatible(fieldKind, value.Kind()) {
		v.addIssue(IssueKindMismatch, c.Field, "cannot compare %s field %s with %s value", fieldKind, c.Field, value.Kind())
	}
}

// finite reports false for NaN and infinite floats, which have no JSON or
// canonical form.
func finite(v ir.Value) bool {
	f, ok := v.(ir.Float)
	return !ok || !(math.IsNaN(float64(f)) || math.IsInf(float64(f), 0))
}
