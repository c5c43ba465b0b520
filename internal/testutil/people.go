// Package testutil holds fixtures shared by tests across packages.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/store"
)

// PeopleSchema is the Person entity used throughout the tests.
var PeopleSchema = ir.EntitySchema{
	Name: "Person",
	Fields: []ir.Field{
		{Name: "name", Kind: ir.KindString},
		{Name: "age", Kind: ir.KindInt},
	},
}

// People returns the three Person records, in insertion order.
func People() []ir.Record {
	return []ir.Record{
		{"name": ir.String("John"), "age": ir.Int(20)},
		{"name": ir.String("Maria"), "age": ir.Int(32)},
		{"name": ir.String("Marcus"), "age": ir.Int(41)},
	}
}

// PeopleYAML is People as a fixture file.
const PeopleYAML = `entities:
  Person:
    - {name: John, age: 20}
    - {name: Maria, age: 32}
    - {name: Marcus, age: 41}
`

// PeopleCUE is PeopleSchema as CUE source.
const PeopleCUE = `package people

entity: Person: fields: {
	name: string
	age:  int
}
`

// NewStore opens an empty store in a temp dir, closed when the test ends.
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "lens.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewPeopleStore opens a store holding PeopleSchema and People.
func NewPeopleStore(t testing.TB) *store.Store {
	t.Helper()
	s := NewStore(t)
	ctx := context.Background()

	if err := s.Define(ctx, PeopleSchema); err != nil {
		t.Fatalf("define Person: %v", err)
	}
	for _, p := range People() {
		if err := s.Insert(ctx, PeopleSchema.Name, p); err != nil {
			t.Fatalf("insert %v: %v", p, err)
		}
	}
	return s
}

// WriteSchemaDir writes PeopleCUE into a fresh directory and returns it.
func WriteSchemaDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "schema")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create schema dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "people.cue"), []byte(PeopleCUE), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return dir
}

// WriteFixtures writes PeopleYAML to a temp file and returns its path.
func WriteFixtures(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.yaml")
	if err := os.WriteFile(path, []byte(PeopleYAML), 0o644); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	return path
}
