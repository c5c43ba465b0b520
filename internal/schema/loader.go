// Package schema loads entity schemas written in CUE.
//
// An entity declares its fields in order; each field is either a CUE type
// or the name of a kind:
//
//	entity: Person: fields: {
//		name:   string
//		age:    int
//		height: float
//		born:   "time"
//	}
//
// Fields keep declaration order, which becomes the store's column order.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

// SchemaError is a schema problem with its CUE source position when known.
type SchemaError struct {
	Entity  string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	where := e.Entity
	if e.Field != "" {
		where += "." + e.Field
	}
	if where != "" {
		where += ": "
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s%s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), where, e.Message)
	}
	return where + e.Message
}

// LoadDir loads every .cue file in dir as one CUE instance and returns the
// entities it declares, ordered by name.
func LoadDir(dir string) ([]ir.EntitySchema, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	return Compile(ctx.BuildInstance(inst))
}

// CompileString compiles CUE source text.
func CompileString(src string) ([]ir.EntitySchema, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src, cue.Filename("schema.cue")))
}

// Compile extracts the entities declared under the top-level "entity" field.
func Compile(v cue.Value) ([]ir.EntitySchema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &SchemaError{Message: "no entity declarations found", Pos: v.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var schemas []ir.EntitySchema
	for iter.Next() {
		schema, err := compileEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}

	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas, nil
}

func compileEntity(name string, v cue.Value) (ir.EntitySchema, error) {
	schema := ir.EntitySchema{Name: name}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return schema, &SchemaError{Entity: name, Message: "fields is required", Pos: v.Pos()}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return schema, formatCUEError(err)
	}

	for iter.Next() {
		fieldName := iter.Label()
		kind, err := fieldKind(iter.Value())
		if err != nil {
			return schema, &SchemaError{Entity: name, Field: fieldName, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		schema.Fields = append(schema.Fields, ir.Field{Name: fieldName, Kind: kind})
	}

	if err := schema.Validate(); err != nil {
		return schema, &SchemaError{Entity: name, Message: err.Error(), Pos: v.Pos()}
	}
	return schema, nil
}

// fieldKind reads a field declaration: a concrete kind name ("time") or a
// CUE type (string, int, float, number, bool).
func fieldKind(v cue.Value) (ir.Kind, error) {
	if v.IsConcrete() {
		s, err := v.String()
		if err != nil {
			return "", fmt.Errorf("field must be a CUE type or a kind name, got %v", v)
		}
		return ir.ParseFieldKind(s)
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.KindString, nil
	case cue.IntKind:
		return ir.KindInt, nil
	case cue.FloatKind, cue.NumberKind:
		return ir.KindFloat, nil
	case cue.BoolKind:
		return ir.KindBool, nil
	default:
		return "", fmt.Errorf("unsupported type kind: %v", v.IncompleteKind())
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &SchemaError{Message: firstErr.Error(), Pos: positions[0]}
	}
	return err
}
