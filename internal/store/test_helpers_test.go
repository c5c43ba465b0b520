package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

var personSchema = ir.EntitySchema{
	Name: "Person",
	Fields: []ir.Field{
		{Name: "name", Kind: ir.KindString},
		{Name: "age", Kind: ir.KindInt},
	},
}

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createPeopleStore defines Person and inserts John, Maria and Marcus in
// that order.
func createPeopleStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Define(ctx, personSchema); err != nil {
		t.Fatalf("Define() failed: %v", err)
	}
	people := []ir.Record{
		{"name": ir.String("John"), "age": ir.Int(20)},
		{"name": ir.String("Maria"), "age": ir.Int(32)},
		{"name": ir.String("Marcus"), "age": ir.Int(41)},
	}
	for _, p := range people {
		if err := s.Insert(ctx, "Person", p); err != nil {
			t.Fatalf("Insert() failed: %v", err)
		}
	}
	return s
}

func names(records []ir.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		if s, ok := r.Get("name").(ir.String); ok {
			out[i] = string(s)
		}
	}
	return out
}
