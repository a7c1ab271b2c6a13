package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declmig/declmig/catalog"
)

func TestOwned(t *testing.T) {
	assert.True(t, Owned("uuid_generate_v4"))
	assert.True(t, Owned("similarity"))
	assert.False(t, Owned("my_business_logic"))

	req, ok := Owner("crypt")
	require.True(t, ok)
	assert.Equal(t, "pgcrypto", req.Extension)
}

func TestCheckVersionGate(t *testing.T) {
	snap := catalog.Empty("public")
	snap.ServerVersionNum = 90500

	err := Check(snap, []string{"word_similarity"})
	require.Error(t, err)

	var incompatible *IncompatibleError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, "pg_trgm", incompatible.Extension)
	assert.Equal(t, 90600, incompatible.MinServerVersion)

	snap.ServerVersionNum = 170000
	assert.NoError(t, Check(snap, []string{"word_similarity"}))
}

func TestCheckIgnoresUserFunctions(t *testing.T) {
	snap := catalog.Empty("public")
	snap.ServerVersionNum = 90200
	assert.NoError(t, Check(snap, []string{"not_an_extension_fn"}))
}

func TestAdvise(t *testing.T) {
	snap := catalog.Empty("public")
	snap.Functions["similarity"] = true
	snap.Functions["show_trgm"] = true
	snap.Extensions["pg_trgm"] = catalog.Extension{Name: "pg_trgm", Installed: true, Version: "1.6"}

	advice := Advise(snap)
	require.Len(t, advice, 1)
	assert.Contains(t, advice[0], "pg_trgm")
	assert.Contains(t, advice[0], "installed 1.6")
	assert.Contains(t, advice[0], "similarity")
}
