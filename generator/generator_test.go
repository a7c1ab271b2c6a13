package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declmig/declmig/schema"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- FORWARD\nSELECT 1;\n-- BACKWARD\nSELECT 1;\n"), 0644))
}

func TestListSortsByNumber(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0003_c.sql")
	touch(t, dir, "0001_a.yaml")
	touch(t, dir, "0002_b.fn")
	touch(t, dir, "README.md") // ignored

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{files[0].Number, files[1].Number, files[2].Number})
	assert.Equal(t, KindDiff, files[0].Kind)
	assert.Equal(t, KindFunction, files[1].Kind)
	assert.Equal(t, "b", files[1].Name)
}

func TestListReportsDuplicateNumbers(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0001_a.yaml")
	touch(t, dir, "0002_b.sql")
	touch(t, dir, "0002_c.fn")

	_, err := List(dir)
	require.Error(t, err)

	var dup *DuplicateNumberError
	require.ErrorAs(t, err, &dup)
	require.Contains(t, dup.Duplicates, 2)
	assert.ElementsMatch(t, []string{"0002_b.sql", "0002_c.fn"}, dup.Duplicates[2])
	assert.NotContains(t, dup.Duplicates, 1)
}

func TestListMissingDirIsEmpty(t *testing.T) {
	files, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestNextNumber(t *testing.T) {
	assert.Equal(t, 1, NextNumber(nil))
	assert.Equal(t, 8, NextNumber([]File{{Number: 2}, {Number: 7}, {Number: 4}}))
}

func TestWriteAndReadDiff(t *testing.T) {
	dir := t.TempDir()
	actions := []schema.Action{
		{Kind: schema.CreateType, Enum: &schema.EnumType{Name: "status", Labels: []string{"draft", "sent"}}},
		{Kind: schema.DropTable, Model: "legacy"},
	}

	filename, err := WriteDiff(dir, 1, "initial", actions)
	require.NoError(t, err)
	assert.Equal(t, "0001_initial.yaml", filename)

	loaded, err := ReadDiff(filepath.Join(dir, filename))
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, schema.CreateType, loaded[0].Kind)
	assert.Equal(t, []string{"draft", "sent"}, loaded[0].Enum.Labels)
	assert.Equal(t, "legacy", loaded[1].Model)
}

func TestWriteAndReadScript(t *testing.T) {
	dir := t.TempDir()

	filename, err := WriteScript(dir, 2, "audit_fn", KindFunction,
		"CREATE FUNCTION audit() RETURNS trigger AS $$ BEGIN RETURN NEW; END $$ LANGUAGE plpgsql;",
		"DROP FUNCTION audit();")
	require.NoError(t, err)
	assert.Equal(t, "0002_audit_fn.fn", filename)

	forward, backward, err := ReadScript(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Contains(t, forward, "CREATE FUNCTION audit()")
	assert.Equal(t, "DROP FUNCTION audit();", backward)
}

func TestSplitScriptRequiresMarkers(t *testing.T) {
	_, _, err := SplitScript("CREATE TABLE t (id int);")
	require.Error(t, err)

	_, _, err = SplitScript("-- BACKWARD\nDROP TABLE t;\n-- FORWARD\nCREATE TABLE t (id int);")
	require.Error(t, err)
}

func writeDefinition(t *testing.T, modelsDir, kind, name string) {
	t.Helper()
	dir := filepath.Join(modelsDir, kind)
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := "-- FORWARD\nCREATE OR REPLACE FUNCTION " + name + "() RETURNS void AS $$ BEGIN END $$ LANGUAGE plpgsql;\n" +
		"-- BACKWARD\nDROP FUNCTION " + name + "();\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".sql"), []byte(content), 0644))
}

func TestGenerateFromDefinitionsIsIncremental(t *testing.T) {
	modelsDir := t.TempDir()
	migrationsDir := t.TempDir()

	writeDefinition(t, modelsDir, "functions", "audit_log")
	writeDefinition(t, modelsDir, "views", "active_users")

	result, err := GenerateFromDefinitions(modelsDir, migrationsDir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_audit_log.fn", "0002_active_users.view"}, result.Created)
	assert.Empty(t, result.Orphans)

	// A second pass generates nothing new.
	result, err = GenerateFromDefinitions(modelsDir, migrationsDir, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
}

func TestGenerateFromDefinitionsSkipsExtensionOwned(t *testing.T) {
	modelsDir := t.TempDir()
	migrationsDir := t.TempDir()

	writeDefinition(t, modelsDir, "functions", "similarity")
	writeDefinition(t, modelsDir, "functions", "audit_log")

	result, err := GenerateFromDefinitions(modelsDir, migrationsDir, func(name string) bool {
		return name == "similarity"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_audit_log.fn"}, result.Created)
	assert.Equal(t, []string{"similarity"}, result.Skipped)
}

func TestGenerateFromDefinitionsReportsOrphans(t *testing.T) {
	modelsDir := t.TempDir()
	migrationsDir := t.TempDir()

	touch(t, migrationsDir, "0001_vanished.trg")
	touch(t, migrationsDir, "0002_kept.fn")
	writeDefinition(t, modelsDir, "functions", "kept")

	result, err := GenerateFromDefinitions(modelsDir, migrationsDir, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	require.Len(t, result.Orphans, 1)
	assert.Equal(t, "0001_vanished.trg", result.Orphans[0].Migration)
	assert.Equal(t, KindTrigger, result.Orphans[0].Kind)
	assert.Contains(t, result.Orphans[0].String(), "manual drop migration")
}

func TestGenerateFromDefinitionsBlockedByDuplicates(t *testing.T) {
	modelsDir := t.TempDir()
	migrationsDir := t.TempDir()

	touch(t, migrationsDir, "0001_a.sql")
	touch(t, migrationsDir, "0001_b.sql")

	_, err := GenerateFromDefinitions(modelsDir, migrationsDir, nil)
	var dup *DuplicateNumberError
	require.ErrorAs(t, err, &dup)
}
