package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lens "github.com/lourenco-marinho/Lens"
	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/querysql"
	"github.com/lourenco-marinho/Lens/internal/schema"
)

// PredicateOptions holds flags for the predicate command.
type PredicateOptions struct {
	*RootOptions
	SchemaDir string
}

// PredicateResult is the JSON payload of the predicate command.
type PredicateResult struct {
	Entity      string `json:"entity"`
	Predicate   string `json:"predicate"`
	Arguments   []any  `json:"arguments"`
	Fingerprint string `json:"fingerprint"`
	SQL         string `json:"sql"`
	Params      []any  `json:"params"`
}

// NewPredicateCommand creates the predicate command.
func NewPredicateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PredicateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "predicate <entity> [chain...]",
		Short: "Compile a chain without running it",
		Long: `Compile chained clauses into a predicate and print its text form,
bound arguments, fingerprint and the SQL it runs as. No database is used.

With --schema the chain is checked against the entity's fields and kinds.
The chain syntax is the same as for query.

Example:
  lens predicate Person find age equals 32 or name contains ar
  lens predicate --schema ./schema Person find age inside 32,41`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredicate(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaDir, "schema", "", "directory of CUE entity schemas")

	return cmd
}

func runPredicate(opts *PredicateOptions, entity string, chain []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	steps, err := parseChain(chain)
	if err != nil {
		return queryError(formatter, err)
	}

	lensOpts := []lens.Option{lens.WithEntity(entity)}
	var fields []string
	if opts.SchemaDir != "" {
		s, err := findSchema(opts.SchemaDir, entity)
		if err != nil {
			if _, statErr := os.Stat(opts.SchemaDir); os.IsNotExist(statErr) {
				return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("schema directory not found: %s", opts.SchemaDir), nil)
			}
			return commandError(formatter, ErrCodeLoadFailed, err.Error(), nil)
		}
		if s == nil {
			return queryError(formatter, &lens.Error{
				Code:    lens.ErrCodeUnknownEntity,
				Message: "schema declares no such entity",
				Entity:  entity,
			})
		}
		lensOpts = append(lensOpts, lens.WithSchema(*s))
		fields = s.FieldNames()
	}

	l, err := lens.New[ir.Record](nil, lensOpts...)
	if err != nil {
		return queryError(formatter, err)
	}
	if err := applyChain(l, steps); err != nil {
		return queryError(formatter, err)
	}

	q, err := l.Query()
	if err != nil {
		return queryError(formatter, err)
	}
	pred, err := l.Predicate()
	if err != nil {
		return queryError(formatter, err)
	}
	fingerprint, err := pred.Fingerprint()
	if err != nil {
		return queryError(formatter, err)
	}

	compiler := &querysql.SQLCompiler{Fields: fields}
	sql, params, err := compiler.Compile(q)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("compile SQL: %v", err), nil)
	}

	result := PredicateResult{
		Entity:      entity,
		Predicate:   pred.Format(),
		Arguments:   pred.Arguments(),
		Fingerprint: fingerprint,
		SQL:         sql,
		Params:      params,
	}
	if result.Params == nil {
		result.Params = []any{}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "predicate:   %s\n", result.Predicate)
	fmt.Fprintf(formatter.Writer, "arguments:   %s\n", formatArguments(pred.Values()))
	fmt.Fprintf(formatter.Writer, "fingerprint: %s\n", result.Fingerprint)
	fmt.Fprintf(formatter.Writer, "sql:         %s\n", result.SQL)
	return nil
}

// findSchema returns the named entity from dir, or nil if dir does not
// declare it.
func findSchema(dir, entity string) (*ir.EntitySchema, error) {
	schemas, err := schema.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for i := range schemas {
		if schemas[i].Name == entity {
			return &schemas[i], nil
		}
	}
	return nil, nil
}

func formatArguments(values []ir.Value) string {
	data, err := ir.MarshalValue(ir.List(values))
	if err != nil {
		return fmt.Sprint(values)
	}
	return string(data)
}
