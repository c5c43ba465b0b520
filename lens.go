package lens

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/queryir"
	"github.com/lourenco-marinho/Lens/internal/store"
)

// Record is one stored row: attribute name to value.
type Record = ir.Record

// Value is a value a record can hold or a comparison can bind.
type Value = ir.Value

// Schema describes an entity and its typed fields.
type Schema = ir.EntitySchema

// Query is a compiled, store-independent read of one entity.
type Query = queryir.Select

// SQLiteStore is the SQLite record store.
type SQLiteStore = store.Store

// OpenSQLite opens (or creates) a SQLite record store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	return store.Open(path)
}

// Store is the record store a Lens executes against.
// Implementations must be safe for concurrent use if Lens values sharing
// them run on different goroutines.
type Store interface {
	// Entity returns the schema of an entity, or an error if unknown.
	Entity(name string) (ir.EntitySchema, error)

	// Fetch runs a query and returns every matching record.
	Fetch(ctx context.Context, q queryir.Select) ([]ir.Record, error)
}

// EntityNamer lets a result type name the entity it reads.
type EntityNamer interface {
	EntityName() string
}

// Option configures New.
type Option func(*options)

type options struct {
	entity string
	schema *ir.EntitySchema
}

// WithEntity sets the entity name, overriding the one derived from T.
func WithEntity(name string) Option {
	return func(o *options) { o.entity = name }
}

// WithSchema validates chains against schema without a store.
// Ignored when a store is given; the store's schema wins.
func WithSchema(schema ir.EntitySchema) Option {
	return func(o *options) { o.schema = &schema }
}

// Lens is the fluent query builder for records decoded as T.
//
//	people, err := lens.New[Person](db)
//	...
//	adults, err := people.Find("age").Inside([]int{32, 41}).Sort("name", true).Fetch(ctx)
//
// Every chaining method changes the same underlying Request and returns the
// same *Lens. The first error stops the chain: later calls do nothing and
// the error is returned by Err and by the terminal call.
//
// A Lens runs once. It is not safe for concurrent use.
type Lens[T any] struct {
	req *Request
	err error
}

// New creates a Lens for T against store.
//
// A nil store, including a nil pointer of a concrete store type, gives a
// Lens without a store.
//
// The entity is WithEntity's name, else T's EntityName, else T's type name.
// With a store the entity schema is looked up now, and an unknown entity
// fails with UNKNOWN_ENTITY. A nil store gives a Lens that can only compile.
func New[T any](s Store, opts ...Option) (*Lens[T], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	entity := o.entity
	if entity == "" {
		entity = entityName[T]()
	}
	if !ir.ValidIdentifier(entity) {
		return nil, newError(ErrCodeUnknownEntity, entity, "", "invalid entity name %q", entity)
	}

	if isNilStore(s) {
		s = nil
	}

	schema := o.schema
	if s != nil {
		found, err := s.Entity(entity)
		if err != nil {
			return nil, &Error{
				Code:    ErrCodeUnknownEntity,
				Message: "store has no such entity",
				Entity:  entity,
				Err:     err,
			}
		}
		schema = &found
	}
	if schema != nil && schema.Name != entity {
		return nil, newError(ErrCodeUnknownEntity, entity, "", "schema describes %s", schema.Name)
	}

	return &Lens[T]{req: NewRequest(entity, schema, s)}, nil
}

// isNilStore reports whether s is nil or an interface holding a nil value.
func isNilStore(s Store) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// entityName derives an entity name from T.
func entityName[T any]() string {
	var zero T
	if n, ok := any(zero).(EntityNamer); ok {
		return n.EntityName()
	}
	if n, ok := any(&zero).(EntityNamer); ok {
		return n.EntityName()
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Request returns the underlying request.
func (l *Lens[T]) Request() *Request {
	return l.req
}

// Err returns the first error recorded by the chain.
func (l *Lens[T]) Err() error {
	return l.err
}

func (l *Lens[T]) do(fn func() error) *Lens[T] {
	if l.err != nil {
		return l
	}
	l.err = fn()
	return l
}

// Find starts a clause on field. After the first clause it joins with AND.
func (l *Lens[T]) Find(field string) *Lens[T] {
	return l.do(func() error { return l.req.AppendField(field, CompoundNone) })
}

// And starts a clause on field joined with AND.
func (l *Lens[T]) And(field string) *Lens[T] {
	return l.do(func() error { return l.req.AppendField(field, CompoundAnd) })
}

// Or starts a clause on field joined with OR.
func (l *Lens[T]) Or(field string) *Lens[T] {
	return l.do(func() error { return l.req.AppendField(field, CompoundOr) })
}

// Equals matches records whose field equals v. nil matches null fields.
func (l *Lens[T]) Equals(v any) *Lens[T] {
	return l.compare(Equals, v)
}

// NotEquals matches records whose field differs from v.
func (l *Lens[T]) NotEquals(v any) *Lens[T] {
	return l.compare(NotEquals, v)
}

// Contains matches records whose text field contains s, ignoring case and
// diacritics.
func (l *Lens[T]) Contains(s string) *Lens[T] {
	return l.compare(Contains, s)
}

// Inside matches records whose field equals any element of values, which
// must be a slice or array of scalars.
func (l *Lens[T]) Inside(values any) *Lens[T] {
	return l.compare(In, values)
}

func (l *Lens[T]) compare(op Comparison, v any) *Lens[T] {
	return l.do(func() error {
		value, err := ir.FromGo(v)
		if err != nil {
			return &Error{Code: ErrCodeInvalidValue, Message: err.Error(), Entity: l.req.entity, Err: err}
		}
		return l.req.AppendComparison(op, value)
	})
}

// Sort orders results by key. A later Sort replaces an earlier one.
func (l *Lens[T]) Sort(key string, ascending bool) *Lens[T] {
	return l.do(func() error { return l.req.SetSort(key, ascending) })
}

// Query compiles the chain into a store-independent query without
// executing it.
func (l *Lens[T]) Query() (queryir.Select, error) {
	if l.err != nil {
		return queryir.Select{}, l.err
	}
	return l.req.Compile()
}

// Predicate compiles the chain's filter without executing it.
func (l *Lens[T]) Predicate() (Predicate, error) {
	if l.err != nil {
		return Predicate{}, l.err
	}
	return l.req.Predicate()
}

// Fetch compiles the chain, runs it, and decodes every record into T.
// No matches is an empty, non-nil slice.
func (l *Lens[T]) Fetch(ctx context.Context) ([]T, error) {
	if l.err != nil {
		return nil, l.err
	}

	records, err := l.req.Execute(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		item, err := decode[T](rec)
		if err != nil {
			return nil, &Error{
				Code:    ErrCodeDecodeFailed,
				Message: "cannot decode record",
				Entity:  l.req.entity,
				Err:     err,
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// Look is Fetch without an error: nil when the Lens has no store, an empty
// slice when anything else fails.
func (l *Lens[T]) Look(ctx context.Context) []T {
	if l.req.store == nil {
		return nil
	}
	out, err := l.Fetch(ctx)
	if err != nil {
		return []T{}
	}
	return out
}

// decode converts a record into T. ir.Record and map[string]any are
// filled directly; anything else goes through the record's JSON form.
func decode[T any](rec ir.Record) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *ir.Record:
		*p = rec
		return out, nil
	case *map[string]any:
		*p = rec.Native()
		return out, nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
