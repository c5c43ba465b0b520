package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	lens "github.com/lourenco-marinho/Lens"
	"github.com/lourenco-marinho/Lens/internal/ir"
)

// QueryResult is the JSON payload of a successful query.
type QueryResult struct {
	Entity      string      `json:"entity"`
	Predicate   string      `json:"predicate"`
	Arguments   []ir.Value  `json:"arguments"`
	Fingerprint string      `json:"fingerprint"`
	Records     []ir.Record `json:"records"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <entity> [chain...]",
		Short: "Run a chained query against the database",
		Long: `Build a query from chained clauses and print the matching records.

Chain verbs:
  find <field>, and <field>, or <field>
  equals <literal>, not-equals <literal>, contains <text>
  inside <a,b,c | json-array>
  sort <key> [asc|desc]

Literals: quoted text, null, true, false, numbers, or bare text.
Put the chain after -- when a literal starts with a dash.

Example:
  lens query Person find age inside 32,41 sort name desc
  lens query --format json Person find name contains ar or age equals 20`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runQuery(opts *RootOptions, entity string, chain []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	steps, err := parseChain(chain)
	if err != nil {
		return queryError(formatter, err)
	}

	st, err := openExistingStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	l, err := lens.New[ir.Record](st, lens.WithEntity(entity))
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
	fingerprint, err := lens.QueryFingerprint(q)
	if err != nil {
		return queryError(formatter, err)
	}
	pred, err := l.Predicate()
	if err != nil {
		return queryError(formatter, err)
	}
	formatter.VerboseLog("Predicate: %s [query %s]", pred.Format(), fingerprint)

	records, err := l.Fetch(cmd.Context())
	if err != nil {
		return queryError(formatter, err)
	}
	formatter.VerboseLog("Fetched %d record(s) [trace %s]", len(records), formatter.TraceID)

	if formatter.Format == "json" {
		return formatter.Success(QueryResult{
			Entity:      entity,
			Predicate:   pred.Format(),
			Arguments:   pred.Values(),
			Fingerprint: fingerprint,
			Records:     records,
		})
	}

	schema, err := st.Entity(entity)
	if err != nil {
		return queryError(formatter, err)
	}
	header := schema.FieldNames()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(header))
		for i, name := range header {
			row[i] = formatValue(rec.Get(name))
		}
		rows = append(rows, row)
	}
	formatter.Table(header, rows)
	fmt.Fprintf(formatter.Writer, "%d record(s)\n", len(records))
	return nil
}
