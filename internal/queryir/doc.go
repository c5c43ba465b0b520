// Package queryir provides the expression tree a Lens chain compiles into.
//
// The tree is the boundary between the fluent builder and the store: the
// builder produces a Select, backends (internal/querysql) serialise it. No
// layer builds query text by concatenating user input.
//
//	[Lens chain] → [Select + Predicate tree] → [SQL backend]
//
// SEALED INTERFACES:
//
// Predicate is sealed using the marker method pattern. Only Comparison, And
// and Or implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Comparison:
//	case And:
//	case Or:
//	}
//
// Value and pointer forms of each node are accepted everywhere.
//
// PRECEDENCE:
//
// AND binds tighter than OR. A chain "a AND b OR c" is the tree
// Or{And{a, b}, c}, never And{a, Or{b, c}}.
//
// ARGUMENT ORDER:
//
// Format walks the tree once, left to right, writing "%@" and appending the
// matching argument in the same step. Argument i always binds placeholder i.
// An IN comparison binds one argument: the whole list.
package queryir
