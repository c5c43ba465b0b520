package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

// fixtureFile is the YAML layout accepted by LoadFixtures:
//
//	entities:
//	  Person:
//	    - {name: John, age: 20}
//	    - {name: Maria, age: 32}
type fixtureFile struct {
	Entities map[string][]map[string]any `yaml:"entities"`
}

// LoadFixtures reads a YAML fixture file and inserts its rows.
// Every entity must already be defined. Entities load in name order, rows
// in file order, all inside one transaction.
//
// Returns the number of rows inserted.
func (s *Store) LoadFixtures(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	return s.LoadFixturesYAML(ctx, data)
}

// LoadFixturesYAML is LoadFixtures over in-memory YAML.
func (s *Store) LoadFixturesYAML(ctx context.Context, data []byte) (int, error) {
	var file fixtureFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return 0, fmt.Errorf("parse fixtures: %w", err)
	}

	names := make([]string, 0, len(file.Entities))
	for name := range file.Entities {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin fixtures: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, name := range names {
		schema, err := s.Entity(name)
		if err != nil {
			return 0, err
		}
		for i, row := range file.Entities[name] {
			record, err := fixtureRecord(row)
			if err != nil {
				return 0, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			if err := insertRecord(ctx, tx, schema, record); err != nil {
				return 0, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit fixtures: %w", err)
	}

	slog.Debug("fixtures loaded", "entities", len(names), "rows", count)
	return count, nil
}

func fixtureRecord(row map[string]any) (ir.Record, error) {
	record := make(ir.Record, len(row))
	for field, raw := range row {
		v, err := ir.FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		record[field] = v
	}
	return record, nil
}
