package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/queryir"
)

// RecordingStore is an in-memory store double that records every query it
// receives and answers with canned records or a canned error.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingStore struct {
	mu      sync.Mutex
	schemas map[string]ir.EntitySchema
	records []ir.Record
	err     error
	queries []queryir.Select
}

// NewRecordingStore creates a store that knows the given schemas.
func NewRecordingStore(schemas ...ir.EntitySchema) *RecordingStore {
	s := &RecordingStore{schemas: make(map[string]ir.EntitySchema)}
	for _, schema := range schemas {
		s.schemas[schema.Name] = schema
	}
	return s
}

// Answer sets the records returned by Fetch.
func (s *RecordingStore) Answer(records ...ir.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

// Fail makes Fetch return err.
func (s *RecordingStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Entity implements lens.Store.
func (s *RecordingStore) Entity(name string) (ir.EntitySchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.schemas[name]
	if !ok {
		return ir.EntitySchema{}, fmt.Errorf("unknown entity: %s", name)
	}
	return schema, nil
}

// Fetch implements lens.Store. The query is recorded before any error.
func (s *RecordingStore) Fetch(ctx context.Context, q queryir.Select) ([]ir.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.records, nil
}

// Queries returns every query received, oldest first.
func (s *RecordingStore) Queries() []queryir.Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]queryir.Select, len(s.queries))
	copy(out, s.queries)
	return out
}
