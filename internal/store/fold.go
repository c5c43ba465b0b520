package store

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold maps s to its case- and diacritic-insensitive form: decompose,
// drop combining marks, case-fold, recompose. Fold("Água") == Fold("agua").
//
// This is the matching rule behind CONTAINS[cd].
func Fold(s string) string {
	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// foldSQL is the lens_fold SQL function. NULL stays NULL; non-text values
// pass through so instr() sees SQLite's usual text conversion.
func foldSQL(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return Fold(val)
	case []byte:
		return Fold(string(val))
	default:
		return v
	}
}
