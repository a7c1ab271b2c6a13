package compiler

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declmig/declmig/schema"
)

func TestEnumStatementsInsertAndAppend(t *testing.T) {
	statements, err := EnumStatements("status", []string{"a", "c"}, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TYPE "status" ADD VALUE 'b' BEFORE 'c';`,
		`ALTER TYPE "status" ADD VALUE 'd' AFTER 'c';`,
	}, statements)
}

func TestEnumStatementsChainedInsertions(t *testing.T) {
	statements, err := EnumStatements("status", []string{"a", "d"}, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TYPE "status" ADD VALUE 'c' BEFORE 'd';`,
		`ALTER TYPE "status" ADD VALUE 'b' BEFORE 'c';`,
	}, statements)
}

func TestEnumStatementsLeadingInsertions(t *testing.T) {
	statements, err := EnumStatements("status", []string{"c"}, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TYPE "status" ADD VALUE 'b' BEFORE 'c';`,
		`ALTER TYPE "status" ADD VALUE 'a' BEFORE 'b';`,
	}, statements)
}

func TestEnumStatementsTrailingChain(t *testing.T) {
	statements, err := EnumStatements("status", []string{"a"}, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TYPE "status" ADD VALUE 'b' AFTER 'a';`,
		`ALTER TYPE "status" ADD VALUE 'c' AFTER 'b';`,
	}, statements)
}

func TestEnumStatementsEmptyFrom(t *testing.T) {
	statements, err := EnumStatements("status", nil, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TYPE "status" ADD VALUE 'x';`,
		`ALTER TYPE "status" ADD VALUE 'y';`,
	}, statements)
}

func TestEnumStatementsRemovedLabel(t *testing.T) {
	statements, err := EnumStatements("status", []string{"a", "b"}, []string{"a"})
	require.Error(t, err)
	assert.Empty(t, statements)

	var removed *schema.EnumValueRemovedError
	require.ErrorAs(t, err, &removed)
	assert.Equal(t, "status", removed.Type)
	assert.Equal(t, "b", removed.Label)
}

func TestEnumStatementsReorderedLabels(t *testing.T) {
	_, err := EnumStatements("status", []string{"b", "a"}, []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reordered")
}

var addValuePattern = regexp.MustCompile(`ALTER TYPE "\w+" ADD VALUE '([^']+)'(?: (BEFORE|AFTER) '([^']+)')?;`)

// replay applies an ADD VALUE statement sequence to a label list the way
// the database would.
func replay(t *testing.T, seed []string, statements []string) []string {
	labels := append([]string(nil), seed...)
	for _, stmt := range statements {
		m := addValuePattern.FindStringSubmatch(stmt)
		require.NotNil(t, m, "unparseable statement: %s", stmt)
		value, placement, ref := m[1], m[2], m[3]

		if placement == "" {
			labels = append(labels, value)
			continue
		}
		idx := -1
		for i, l := range labels {
			if l == ref {
				idx = i
				break
			}
		}
		require.GreaterOrEqual(t, idx, 0, "reference %q missing for: %s", ref, stmt)
		if placement == "AFTER" {
			idx++
		}
		labels = append(labels[:idx], append([]string{value}, labels[idx:]...)...)
	}
	return labels
}

func TestEnumStatementsReplayYieldsTarget(t *testing.T) {
	cases := []struct {
		name string
		from []string
		to   []string
	}{
		{"append only", []string{"a"}, []string{"a", "b", "c"}},
		{"prepend only", []string{"z"}, []string{"a", "b", "z"}},
		{"interleaved", []string{"b", "e"}, []string{"a", "b", "c", "d", "e", "f"}},
		{"identical", []string{"a", "b"}, []string{"a", "b"}},
		{"seed empty", nil, []string{"a", "b"}},
		{"dense middle", []string{"a", "f"}, []string{"a", "b", "c", "d", "e", "f"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			statements, err := EnumStatements("status", tc.from, tc.to)
			require.NoError(t, err)
			assert.Equal(t, tc.to, replay(t, tc.from, statements))
		})
	}
}
