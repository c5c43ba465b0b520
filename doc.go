// Package lens is a fluent, read-only query builder for a record store.
//
// A Lens is bound to one entity and one store. Chained calls add clauses
// and a sort key to its Request; a terminal call compiles them into a
// single expression tree and runs it:
//
//	people, err := lens.New[Person](db)
//	if err != nil {
//		return err
//	}
//	found, err := people.Find("age").Equals(32).Or("name").Inside([]string{"John"}).Fetch(ctx)
//
// # Clauses
//
// Find, And and Or start a clause on a field; Equals, NotEquals, Contains
// and Inside complete it. AND binds tighter than OR, so
//
//	Find("a").Equals(1).And("b").Equals(2).Or("c").Equals(3)
//
// means (a = 1 AND b = 2) OR c = 3. Find after the first clause joins with
// AND. A chain with no clauses reads every record.
//
// # Predicates
//
// Predicate compiles without executing. Its Format renders placeholder text
// such as "age = %@ AND name IN %@", and Arguments lists the bound values in
// placeholder order; an Inside clause binds its whole list as one argument.
//
// # Errors
//
// Every failure is an *Error with a Code. Chain errors (a comparison with no
// field, an unknown field, a value of the wrong kind) stop the chain where
// they happen and are returned by the terminal call. Store failures come
// back from Fetch as EXECUTION_FAILED wrapping the store's error. Look keeps
// the older contract of an empty result instead of an error.
package lens
