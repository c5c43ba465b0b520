package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Empty database (pre-migration)
// 1 - lens_entities registry
const currentSchemaVersion = 1

// DriverName is the database/sql driver registered by this package.
// It is go-sqlite3 with the lens_fold function installed on every connection.
const DriverName = "sqlite3_lens"

// ErrUnknownEntity is returned (wrapped) when no entity of that name is defined.
var ErrUnknownEntity = errors.New("unknown entity")

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc(querysql.FoldFunction, foldSQL, true)
			},
		})
	})
}

// Store is a SQLite-backed record store.
// Each defined entity is a table whose columns are the entity's fields; rows
// keep insertion order through rowid.
//
// Store is safe for concurrent use.
type Store struct {
	db *sql.DB

	mu       sync.RWMutex
	entities map[string]ir.EntitySchema
	seq      int64
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically, then loads the
// entity registry.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	registerDriver()

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	// A single connection also keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, entities: make(map[string]ir.EntitySchema)}
	if err := s.loadRegistry(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("store opened", "path", path, "entities", len(s.entities))
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the registry if it doesn't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// loadRegistry reads every defined entity into memory.
func (s *Store) loadRegistry(ctx context.Context) error {
	schemas, err := s.Entities(ctx)
	if err != nil {
		return err
	}

	var maxSeq int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM lens_entities").Scan(&maxSeq); err != nil {
		return fmt.Errorf("read entity seq: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, schema := range schemas {
		s.entities[schema.Name] = schema
	}
	s.seq = maxSeq
	return nil
}

// Define registers an entity and creates its table.
//
// Defining the same schema twice is a no-op. Redefining an entity with
// different fields is an error; the store never migrates user data.
func (s *Store) Define(ctx context.Context, schema ir.EntitySchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entities[schema.Name]; ok {
		if sameSchema(existing, schema) {
			return nil
		}
		return fmt.Errorf("entity %s is already defined with different fields", schema.Name)
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema %s: %w", schema.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin define %s: %w", schema.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(schema)); err != nil {
		return fmt.Errorf("create table %s: %w", schema.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO lens_entities (name, schema_json, seq) VALUES (?, ?, ?)",
		schema.Name, string(schemaJSON), s.seq+1,
	); err != nil {
		return fmt.Errorf("register entity %s: %w", schema.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit define %s: %w", schema.Name, err)
	}

	s.seq++
	s.entities[schema.Name] = schema
	slog.Debug("entity defined", "entity", schema.Name, "fields", len(schema.Fields))
	return nil
}

// Entity returns the schema of a defined entity.
// Returns an error wrapping ErrUnknownEntity if it is not defined.
func (s *Store) Entity(name string) (ir.EntitySchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schema, ok := s.entities[name]
	if !ok {
		return ir.EntitySchema{}, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return schema, nil
}

// Entities returns every defined entity ordered by name.
// Returns an empty slice (not nil) if none are defined.
func (s *Store) Entities(ctx context.Context) ([]ir.EntitySchema, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, schema_json
		FROM lens_entities
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	schemas := []ir.EntitySchema{}
	for rows.Next() {
		var name, schemaJSON string
		if err := rows.Scan(&name, &schemaJSON); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		var schema ir.EntitySchema
		if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
			return nil, fmt.Errorf("decode schema %s: %w", name, err)
		}
		schemas = append(schemas, schema)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	return schemas, nil
}

// createTableSQL builds the CREATE TABLE statement for an entity.
// Names have been checked by EntitySchema.Validate.
func createTableSQL(schema ir.EntitySchema) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %q (", schema.Name)
	for i, f := range schema.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q %s", f.Name, columnType(f.Kind))
	}
	sb.WriteString(")")
	return sb.String()
}

// columnType maps a field kind to a SQLite column affinity.
// Times are TEXT in ir.TimeLayout so they sort chronologically.
func columnType(k ir.Kind) string {
	switch k {
	case ir.KindInt, ir.KindBool:
		return "INTEGER"
	case ir.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func sameSchema(a, b ir.EntitySchema) bool {
	if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}
	return true
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
