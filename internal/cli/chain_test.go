package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lens "github.com/lourenco-marinho/Lens"
	"github.com/lourenco-marinho/Lens/internal/ir"
	"github.com/lourenco-marinho/Lens/internal/testutil"
)

func TestParseChain(t *testing.T) {
	steps, err := parseChain([]string{"find", "age", "inside", "32,41", "or", "name", "not-equals", "John", "sort", "name", "desc"})
	require.NoError(t, err)
	assert.Equal(t, []step{
		{verb: "find", arg: "age"},
		{verb: "inside", arg: "32,41"},
		{verb: "or", arg: "name"},
		{verb: "not-equals", arg: "John"},
		{verb: "sort", arg: "name", asc: false},
	}, steps)
}

func TestParseChain_SortDirection(t *testing.T) {
	testCases := []struct {
		tokens []string
		asc    bool
		steps  int
	}{
		{[]string{"sort", "age"}, true, 1},
		{[]string{"sort", "age", "asc"}, true, 1},
		{[]string{"sort", "age", "DESC"}, false, 1},
		{[]string{"sort", "age", "find", "name"}, true, 2},
	}

	for _, tc := range testCases {
		steps, err := parseChain(tc.tokens)
		require.NoError(t, err, "%v", tc.tokens)
		require.Len(t, steps, tc.steps)
		assert.Equal(t, tc.asc, steps[0].asc, "%v", tc.tokens)
	}
}

func TestParseChain_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"unknown verb", []string{"find", "age", "greater", "3"}, `chain token 3 "greater": unknown chain verb`},
		{"missing argument", []string{"find"}, `chain token 1 "find": missing argument`},
		{"missing sort key", []string{"sort"}, `chain token 1 "sort": missing sort key`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseChain(tc.tokens)
			require.Error(t, err)
			assert.EqualError(t, err, tc.want)
		})
	}
}

func TestParseList(t *testing.T) {
	list, err := parseList("32, 41")
	require.NoError(t, err)
	assert.Equal(t, ir.List{ir.Int(32), ir.Int(41)}, list)

	list, err = parseList(`["John", "Marcus"]`)
	require.NoError(t, err)
	assert.Equal(t, ir.List{ir.String("John"), ir.String("Marcus")}, list)

	list, err = parseList("")
	require.NoError(t, err)
	assert.Equal(t, ir.List{}, list)

	_, err = parseList(`[1, [2]]`)
	assert.Error(t, err)
}

func TestApplyChain(t *testing.T) {
	l, err := lens.New[ir.Record](nil, lens.WithEntity("Person"), lens.WithSchema(testutil.PeopleSchema))
	require.NoError(t, err)

	steps, err := parseChain([]string{"find", "name", "contains", `"AR"`, "and", "age", "equals", "32"})
	require.NoError(t, err)
	require.NoError(t, applyChain(l, steps))

	pred, err := l.Predicate()
	require.NoError(t, err)
	assert.Equal(t, "name CONTAINS[cd] %@ AND age = %@", pred.Format())
	assert.Equal(t, []any{"AR", int64(32)}, pred.Arguments())
}

func TestApplyChain_KeepsLensError(t *testing.T) {
	l, err := lens.New[ir.Record](nil, lens.WithEntity("Person"), lens.WithSchema(testutil.PeopleSchema))
	require.NoError(t, err)

	steps, err := parseChain([]string{"and", "age", "equals", "32"})
	require.NoError(t, err)

	err = applyChain(l, steps)
	assert.Equal(t, lens.ErrCodeLeadingCompound, lens.CodeOf(err))
}
