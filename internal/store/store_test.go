package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		"lens_entities",
	).Scan(&name)
	if err != nil {
		t.Errorf("lens_entities not found after idempotent opens: %v", err)
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	if err := s.Define(context.Background(), personSchema); err != nil {
		t.Fatalf("Define() failed: %v", err)
	}
	if _, err := s.Entity("Person"); err != nil {
		t.Errorf("Entity() failed: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RejectsNewerSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error for newer schema version, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	testCases := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.verifyPragma(tc.name, tc.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

// Registry tests

func TestDefine_CreatesTable(t *testing.T) {
	s := createTestStore(t)

	if err := s.Define(context.Background(), personSchema); err != nil {
		t.Fatalf("Define() failed: %v", err)
	}

	columns := getTableColumns(t, s.db, "Person")
	if !slices.Equal(columns, []string{"name", "age"}) {
		t.Errorf("Person columns = %v, want [name age]", columns)
	}
}

func TestDefine_SameSchemaIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Define(ctx, personSchema); err != nil {
		t.Fatalf("first Define() failed: %v", err)
	}
	if err := s.Define(ctx, personSchema); err != nil {
		t.Errorf("second Define() of the same schema failed: %v", err)
	}
}

func TestDefine_RejectsConflictingSchema(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Define(ctx, personSchema); err != nil {
		t.Fatalf("Define() failed: %v", err)
	}

	conflicting := ir.EntitySchema{Name: "Person", Fields: []ir.Field{{Name: "name", Kind: ir.KindInt}}}
	if err := s.Define(ctx, conflicting); err == nil {
		t.Error("expected error redefining Person with different fields")
	}
}

func TestDefine_RejectsInvalidSchema(t *testing.T) {
	s := createTestStore(t)

	testCases := []struct {
		name   string
		schema ir.EntitySchema
	}{
		{"bad entity name", ir.EntitySchema{Name: "Per son", Fields: []ir.Field{{Name: "a", Kind: ir.KindInt}}}},
		{"no fields", ir.EntitySchema{Name: "Empty"}},
		{"reserved field", ir.EntitySchema{Name: "Row", Fields: []ir.Field{{Name: "rowid", Kind: ir.KindInt}}}},
		{"unknown kind", ir.EntitySchema{Name: "Odd", Fields: []ir.Field{{Name: "a", Kind: "blob"}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Define(context.Background(), tc.schema); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEntity_Unknown(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Entity("Ghost")
	if !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Entity(Ghost) error = %v, want ErrUnknownEntity", err)
	}
}

func TestEntities_SurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	car := ir.EntitySchema{Name: "Car", Fields: []ir.Field{{Name: "model", Kind: ir.KindString}}}
	for _, schema := range []ir.EntitySchema{personSchema, car} {
		if err := s.Define(ctx, schema); err != nil {
			t.Fatalf("Define(%s) failed: %v", schema.Name, err)
		}
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	schemas, err := reopened.Entities(ctx)
	if err != nil {
		t.Fatalf("Entities() failed: %v", err)
	}
	if len(schemas) != 2 || schemas[0].Name != "Car" || schemas[1].Name != "Person" {
		t.Errorf("Entities() = %v, want [Car Person]", schemas)
	}

	got, err := reopened.Entity("Person")
	if err != nil {
		t.Fatalf("Entity(Person) after reopen failed: %v", err)
	}
	if !sameSchema(got, personSchema) {
		t.Errorf("Entity(Person) = %v, want %v", got, personSchema)
	}
}

func TestEntities_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	schemas, err := s.Entities(context.Background())
	if err != nil {
		t.Fatalf("Entities() failed: %v", err)
	}
	if schemas == nil {
		t.Error("Entities() returned nil, want empty slice")
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}
