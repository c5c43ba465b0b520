package cli

import (
	"fmt"
	"strings"

	lens "github.com/lourenco-marinho/Lens"
	"github.com/lourenco-marinho/Lens/internal/ir"
)

// ChainError reports a command line chain that cannot be parsed.
type ChainError struct {
	Index   int // position of the offending token in the chain
	Token   string
	Message string
}

func (e *ChainError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("chain: %s", e.Message)
	}
	return fmt.Sprintf("chain token %d %q: %s", e.Index+1, e.Token, e.Message)
}

// step is one chained call read from the command line.
type step struct {
	verb string
	arg  string
	asc  bool
}

// parseChain reads command line tokens into chained calls:
//
//	find <field> | and <field> | or <field>
//	equals <literal> | not-equals <literal> | contains <text> | inside <list>
//	sort <key> [asc|desc]
//
// A list is a JSON array or comma separated literals. Structural mistakes
// such as a leading "and" are left for the builder to report.
func parseChain(tokens []string) ([]step, error) {
	var steps []step
	for i := 0; i < len(tokens); i++ {
		verb := strings.ToLower(tokens[i])
		switch verb {
		case "find", "and", "or", "equals", "not-equals", "contains", "inside":
			if i+1 >= len(tokens) {
				return nil, &ChainError{Index: i, Token: tokens[i], Message: "missing argument"}
			}
			steps = append(steps, step{verb: verb, arg: tokens[i+1]})
			i++
		case "sort":
			if i+1 >= len(tokens) {
				return nil, &ChainError{Index: i, Token: tokens[i], Message: "missing sort key"}
			}
			s := step{verb: verb, arg: tokens[i+1], asc: true}
			i++
			if i+1 < len(tokens) {
				switch strings.ToLower(tokens[i+1]) {
				case "asc":
					i++
				case "desc":
					s.asc = false
					i++
				}
			}
			steps = append(steps, s)
		default:
			return nil, &ChainError{Index: i, Token: tokens[i], Message: "unknown chain verb"}
		}
	}
	return steps, nil
}

// applyChain replays steps onto l. The first failure is kept by l.
func applyChain(l *lens.Lens[ir.Record], steps []step) error {
	for _, s := range steps {
		switch s.verb {
		case "find":
			l.Find(s.arg)
		case "and":
			l.And(s.arg)
		case "or":
			l.Or(s.arg)
		case "equals":
			l.Equals(ir.ParseLiteral(s.arg))
		case "not-equals":
			l.NotEquals(ir.ParseLiteral(s.arg))
		case "contains":
			l.Contains(unquote(s.arg))
		case "inside":
			list, err := parseList(s.arg)
			if err != nil {
				return &ChainError{Token: s.arg, Message: err.Error()}
			}
			l.Inside(list)
		case "sort":
			l.Sort(s.arg, s.asc)
		}
	}
	return l.Err()
}

// parseList reads a JSON array, or literals separated by commas.
func parseList(s string) (ir.List, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		v, err := ir.UnmarshalValue([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("invalid list: %w", err)
		}
		list, ok := v.(ir.List)
		if !ok {
			return nil, fmt.Errorf("invalid list: %s", s)
		}
		return list, nil
	}

	list := ir.List{}
	if s == "" {
		return list, nil
	}
	for _, part := range strings.Split(s, ",") {
		list = append(list, ir.ParseLiteral(part))
	}
	return list, nil
}

func unquote(s string) string {
	if v, ok := ir.ParseLiteral(s).(ir.String); ok && len(s) >= 2 && (s[0] == '"' || s[0] == '\'') {
		return string(v)
	}
	return s
}
