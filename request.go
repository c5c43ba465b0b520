package lens

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/queryir"
)

// State is the lifecycle stage of a Request.
type State int

const (
	// StateBuilding accepts components and sort changes.
	StateBuilding State = iota
	// StateCompiled has produced a query at least once; it still accepts changes.
	StateCompiled
	// StateExecuted is terminal: the request has run against the store.
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateCompiled:
		return "compiled"
	case StateExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

// Request accumulates the clauses and sort of one query against one entity.
//
// A Request is single-shot: once executed it rejects further changes and
// further executions. It is not safe for concurrent use.
type Request struct {
	entity     string
	schema     *ir.EntitySchema
	store      Store
	components []*Component
	sort       *queryir.Sort
	state      State
}

// NewRequest creates an empty request for entity.
// schema may be nil, in which case only structural checks apply.
// store may be nil for requests that are only compiled; a nil pointer
// wrapped in Store counts as nil.
func NewRequest(entity string, schema *ir.EntitySchema, store Store) *Request {
	if isNilStore(store) {
		store = nil
	}
	return &Request{entity: entity, schema: schema, store: store}
}

// Entity returns the target entity name.
func (r *Request) Entity() string { return r.entity }

// State returns the lifecycle stage.
func (r *Request) State() State { return r.state }

// Components returns the clauses in chain order.
func (r *Request) Components() []Component {
	out := make([]Component, len(r.components))
	for i, c := range r.components {
		out[i] = *c
	}
	return out
}

// Sort returns the sort key, if one is set.
func (r *Request) Sort() (queryir.Sort, bool) {
	if r.sort == nil {
		return queryir.Sort{}, false
	}
	return *r.sort, true
}

// AppendField starts a new clause on field.
//
// The first clause takes CompoundNone; And or Or there is rejected.
// CompoundNone on a later clause joins it with AND.
func (r *Request) AppendField(field string, compound Compound) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	if err := r.checkField(field); err != nil {
		return err
	}
	if len(r.components) == 0 && compound != CompoundNone {
		return newError(ErrCodeLeadingCompound, r.entity, field,
			"%s cannot start a chain; use Find", compound)
	}
	if len(r.components) > 0 && compound == CompoundNone {
		compound = CompoundAnd
	}

	r.components = append(r.components, newComponent(field, compound))
	return nil
}

// AppendComparison binds a comparison and value to the most recent clause.
// Fails with DANGLING_COMPARISON when there is no clause yet.
func (r *Request) AppendComparison(op Comparison, value ir.Value) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	if len(r.components) == 0 {
		return newError(ErrCodeDanglingComparison, r.entity, "",
			"%s has no field to apply to", op)
	}
	last := r.components[len(r.components)-1]
	if last.Bound() {
		return last.bind(op, value)
	}

	if value == nil {
		value = ir.Null{}
	}
	if err := checkOperand(op, last.field, value); err != nil {
		return err
	}
	value, err := r.coerce(last.field, op, value)
	if err != nil {
		return err
	}
	return last.bind(op, value)
}

// SetSort sets the single sort key, replacing any earlier one.
func (r *Request) SetSort(key string, ascending bool) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	if err := r.checkField(key); err != nil {
		return err
	}
	r.sort = &queryir.Sort{Key: key, Ascending: ascending}
	return nil
}

// Compile builds the query's expression tree.
//
// Clauses group left to right with AND binding tighter than OR:
//
//	a AND b OR c AND d  =>  Or{And{a, b}, And{c, d}}
//
// No clauses means no filter. Compile does not change the clauses, so
// calling it twice yields equal queries.
func (r *Request) Compile() (queryir.Select, error) {
	q := queryir.Select{Entity: r.entity}
	if r.sort != nil {
		sort := *r.sort
		q.Sort = &sort
	}

	if len(r.components) > 0 {
		var groups []queryir.Predicate
		var current []queryir.Predicate
		for i, c := range r.components {
			if !c.Bound() {
				return queryir.Select{}, newError(ErrCodeIncompleteClause, r.entity, c.field,
					"clause %d on %s has no comparison", i, c.field)
			}
			if c.compound == CompoundOr && len(current) > 0 {
				groups = append(groups, queryir.NewAnd(current...))
				current = nil
			}
			current = append(current, c.node())
		}
		groups = append(groups, queryir.NewAnd(current...))
		q.Filter = queryir.NewOr(groups...)
	}

	if err := queryir.Validate(q, r.schema); err != nil {
		return queryir.Select{}, r.validationError(err)
	}

	if r.state == StateBuilding {
		r.state = StateCompiled
	}
	slog.Debug("lens compile", "entity", r.entity, "clauses", len(r.components))
	return q, nil
}

// Predicate compiles the clauses without executing.
func (r *Request) Predicate() (Predicate, error) {
	q, err := r.Compile()
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{tree: q.Filter}, nil
}

// Execute compiles the request and runs it against the store.
//
// Store failures come back as EXECUTION_FAILED wrapping the store's error.
// Once the store has been called the request is spent, whether or not the
// store failed. A compile error or a missing store leaves it unspent.
func (r *Request) Execute(ctx context.Context) ([]ir.Record, error) {
	if r.state == StateExecuted {
		return nil, newError(ErrCodeRequestExecuted, r.entity, "", "request has already been executed")
	}
	if r.store == nil {
		return nil, newError(ErrCodeNoStore, r.entity, "", "request has no store")
	}

	q, err := r.Compile()
	if err != nil {
		return nil, err
	}

	r.state = StateExecuted
	records, err := r.store.Fetch(ctx, q)
	if err != nil {
		slog.Debug("lens execute failed", "entity", r.entity, "error", err)
		return nil, &Error{
			Code:    ErrCodeExecutionFailed,
			Message: "store failed to run query",
			Entity:  r.entity,
			Err:     err,
		}
	}
	if records == nil {
		records = []ir.Record{}
	}

	slog.Debug("lens execute", "entity", r.entity, "records", len(records))
	return records, nil
}

func (r *Request) checkMutable() error {
	if r.state == StateExecuted {
		return newError(ErrCodeRequestExecuted, r.entity, "", "request has already been executed")
	}
	return nil
}

// checkField validates a field name and, with a schema, its existence.
func (r *Request) checkField(field string) error {
	if !ir.ValidIdentifier(field) {
		return newError(ErrCodeInvalidField, r.entity, field, "invalid field name %q", field)
	}
	if r.schema != nil {
		if _, ok := r.schema.Field(field); !ok {
			return newError(ErrCodeUnknownField, r.entity, field, "%s has no field %q", r.entity, field)
		}
	}
	return nil
}

// checkOperand enforces the value shape each comparison takes.
func checkOperand(op Comparison, field string, v ir.Value) error {
	switch op {
	case In:
		if _, ok := v.(ir.List); !ok {
			return newError(ErrCodeInvalidValue, "", field, "IN requires a list, got %s", v.Kind())
		}
	case Contains:
		if _, ok := v.(ir.String); !ok {
			return newError(ErrCodeInvalidValue, "", field, "CONTAINS requires a string, got %s", v.Kind())
		}
	case Equals, NotEquals:
		if _, ok := v.(ir.List); ok {
			return newError(ErrCodeInvalidValue, "", field, "%s requires a scalar, got list", op)
		}
	default:
		return newError(ErrCodeInvalidValue, "", field, "unknown comparison %d", int(op))
	}
	return nil
}

// coerce converts a value to the schema kind of field where the kinds
// differ but a lossless conversion exists (a string naming a time, say).
func (r *Request) coerce(field string, op Comparison, v ir.Value) (ir.Value, error) {
	if r.schema == nil {
		return v, nil
	}
	f, ok := r.schema.Field(field)
	if !ok {
		return v, nil
	}

	if op == Contains {
		if f.Kind != ir.KindString {
			return nil, newError(ErrCodeKindMismatch, r.entity, field,
				"CONTAINS requires a string field, %s is %s", field, f.Kind)
		}
		return v, nil
	}

	one := func(elem ir.Value) (ir.Value, error) {
		if ir.Compatible(f.Kind, elem.Kind()) {
			return elem, nil
		}
		converted, err := ir.Coerce(elem, f.Kind)
		if err != nil {
			return nil, newError(ErrCodeKindMismatch, r.entity, field,
				"cannot compare %s field %s with %s value", f.Kind, field, elem.Kind())
		}
		return converted, nil
	}

	list, isList := v.(ir.List)
	if !isList {
		return one(v)
	}
	out := make(ir.List, len(list))
	for i, elem := range list {
		converted, err := one(elem)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

// validationError maps the first validation issue to a Lens error.
func (r *Request) validationError(err error) error {
	var verr *queryir.ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) == 0 {
		return &Error{Code: ErrCodeInvalidValue, Message: "invalid query", Entity: r.entity, Err: err}
	}

	issue := verr.Issues[0]
	code := ErrCodeInvalidValue
	switch issue.Code {
	case queryir.IssueInvalidField:
		code = ErrCodeInvalidField
	case queryir.IssueUnknownField:
		code = ErrCodeUnknownField
	case queryir.IssueKindMismatch:
		code = ErrCodeKindMismatch
	case queryir.IssueEntityMismatch:
		code = ErrCodeUnknownEntity
	}
	return &Error{Code: code, Message: issue.Message, Entity: r.entity, Field: issue.Field, Err: err}
}
