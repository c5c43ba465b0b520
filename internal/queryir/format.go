package queryir

import (
	"fmt"
	"strings"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

// Placeholder marks a bound argument in formatted predicate text.
const Placeholder = "%@"

// NoValue is written in place of a placeholder when the value is Null.
const NoValue = "nil"

// precedence of predicate nodes when rendered; higher binds tighter.
const (
	precOr = iota + 1
	precAnd
	precAtom
)

// Format renders a predicate as linear text and returns the arguments in
// placeholder order.
//
// Text and arguments come from the same left-to-right walk, so argument i
// always binds placeholder i. Null values render as "nil" and contribute no
// argument. AND binds tighter than OR; parentheses are added only where the
// tree would otherwise read differently.
//
// Example:
//
//	Or{And{age = 32, name IN [John]}, name = nil}
//
// renders as
//
//	age = %@ AND name IN %@ OR name = nil
//
// with arguments [32, [John]].
func Format(p Predicate) (string, []ir.Value) {
	f := &formatter{}
	f.predicate(p, precOr)
	return f.sb.String(), f.args
}

type formatter struct {
	sb   strings.Builder
	args []ir.Value
}

func (f *formatter) predicate(p Predicate, parent int) {
	switch pred := p.(type) {
	case nil:
		f.sb.WriteString("TRUEPREDICATE")
	case Comparison:
		f.comparison(pred)
	case *Comparison:
		f.comparison(*pred)
	case And:
		f.group(pred.Predicates, "AND", precAnd, parent, "TRUEPREDICATE")
	case *And:
		f.group(pred.Predicates, "AND", precAnd, parent, "TRUEPREDICATE")
	case Or:
		f.group(pred.Predicates, "OR", precOr, parent, "FALSEPREDICATE")
	case *Or:
		f.group(pred.Predicates, "OR", precOr, parent, "FALSEPREDICATE")
	default:
		fmt.Fprintf(&f.sb, "<%T>", p)
	}
}

func (f *formatter) comparison(c Comparison) {
	f.sb.WriteString(c.Field)
	f.sb.WriteByte(' ')
	f.sb.WriteString(string(c.Operator))
	f.sb.WriteByte(' ')

	if _, isNull := c.Value.(ir.Null); isNull || c.Value == nil {
		f.sb.WriteString(NoValue)
		return
	}
	f.sb.WriteString(Placeholder)
	f.args = append(f.args, c.Value)
}

func (f *formatter) group(preds []Predicate, op string, prec, parent int, empty string) {
	if len(preds) == 0 {
		f.sb.WriteString(empty)
		return
	}

	paren := prec < parent
	if paren {
		f.sb.WriteByte('(')
	}
	for i, sub := range preds {
		if i > 0 {
			f.sb.WriteString(" " + op + " ")
		}
		// Children must bind strictly tighter than this group.
		f.predicate(sub, prec+1)
	}
	if paren {
		f.sb.WriteByte(')')
	}
}

// Canonical returns a map/slice form of the predicate suitable for
// ir.MarshalCanonical and ir.Fingerprint.
func Canonical(p Predicate) any {
	switch pred := p.(type) {
	case nil:
		return nil
	case Comparison:
		return canonicalComparison(pred)
	case *Comparison:
		return canonicalComparison(*pred)
	case And:
		return canonicalGroup("and", pred.Predicates)
	case *And:
		return canonicalGroup("and", pred.Predicates)
	case Or:
		return canonicalGroup("or", pred.Predicates)
	case *Or:
		return canonicalGroup("or", pred.Predicates)
	default:
		return fmt.Sprintf("%T", p)
	}
}

func canonicalComparison(c Comparison) map[string]any {
	var value any = ir.Null{}
	if c.Value != nil {
		value = c.Value
	}
	return map[string]any{
		"field": c.Field,
		"op":    string(c.Operator),
		"value": value,
	}
}

func canonicalGroup(kind string, preds []Predicate) map[string]any {
	items := make([]any, len(preds))
	for i, sub := range preds {
		items[i] = Canonical(sub)
	}
	return map[string]any{kind: items}
}

// CanonicalSelect returns the canonical form of a whole Select.
func CanonicalSelect(q Select) map[string]any {
	fields := make([]any, len(q.Fields))
	for i, f := range q.Fields {
		fields[i] = f
	}
	out := map[string]any{
		"entity": q.Entity,
		"fields": fields,
		"filter": Canonical(q.Filter),
	}
	if q.Sort != nil {
		out["sort"] = map[string]any{"key": q.Sort.Key, "ascending": q.Sort.Ascending}
	}
	return out
}
