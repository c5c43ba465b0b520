package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	lens "github.com/lourenco-marinho/Lens"
	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/store"
)

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		TraceID:   NewTraceID(),
	}
}

// openExistingStore opens the database at path, which must already exist.
func openExistingStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, commandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		}
		return nil, commandError(formatter, ErrCodeNotFound, fmt.Sprintf("error accessing database: %v", err), nil)
	}
	return openStore(formatter, path)
}

// openStore opens or creates the database at path.
func openStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	formatter.VerboseLog("Opening database %s", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, commandError(formatter, ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// commandError reports a command-level failure (exit code 2).
func commandError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// queryError reports a failed chain or query (exit code 1). Lens errors keep
// their own code, chain parse errors are usage errors.
func queryError(formatter *OutputFormatter, err error) error {
	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		_ = formatter.Error(ErrCodeUsage, chainErr.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeUsage, err)
	}

	code := string(lens.CodeOf(err))
	if code == "" {
		code = ErrCodeGeneric
	}

	var details map[string]string
	var lensErr *lens.Error
	if errors.As(err, &lensErr) {
		details = map[string]string{}
		if lensErr.Entity != "" {
			details["entity"] = lensErr.Entity
		}
		if lensErr.Field != "" {
			details["field"] = lensErr.Field
		}
	}

	_ = formatter.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, code, err)
}

// formatValue renders a value for a text table cell.
func formatValue(v ir.Value) string {
	switch val := v.(type) {
	case nil, ir.Null:
		return "null"
	case ir.String:
		return string(val)
	case ir.Time:
		return val.String()
	default:
		data, err := ir.MarshalValue(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
