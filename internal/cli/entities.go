package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lourenco-marinho/Lens/internal/ir"
)

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "entities",
		Short:         "List the entities defined in the database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(rootOpts, cmd)
		},
	}

	return cmd
}

func runEntities(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openExistingStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	schemas, err := st.Entities(cmd.Context())
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(schemas)
	}

	if len(schemas) == 0 {
		fmt.Fprintln(formatter.Writer, "No entities defined")
		return nil
	}

	rows := make([][]string, 0, len(schemas))
	for _, s := range schemas {
		rows = append(rows, []string{s.Name, describeFields(s.Fields)})
	}
	formatter.Table([]string{"ENTITY", "FIELDS"}, rows)
	return nil
}

func describeFields(fields []ir.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s:%s", f.Name, f.Kind)
	}
	return strings.Join(parts, ", ")
}
