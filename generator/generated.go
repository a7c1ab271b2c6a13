package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// definitionDirs maps a definitions subdirectory to the migration kind it
// generates.
var definitionDirs = []struct {
	Dir  string
	Kind Kind
}{
	{"functions", KindFunction},
	{"triggers", KindTrigger},
	{"policies", KindPolicy},
	{"views", KindView},
}

// OrphanWarning flags a generated migration whose source definition has
// disappeared. These require a manual drop migration and are surfaced as
// warnings, never auto-deleted.
type OrphanWarning struct {
	Migration string
	Kind      Kind
}

func (w OrphanWarning) String() string {
	return fmt.Sprintf("migration %s has no %s definition anymore; write a manual drop migration", w.Migration, w.Kind)
}

// Result reports one incremental generation pass.
type Result struct {
	Created []string
	Skipped []string // extension-owned definitions left out
	Orphans []OrphanWarning
}

// GenerateFromDefinitions walks the definitions tree under modelsDir
// (functions/, triggers/, policies/, views/, each holding <name>.sql files
// with forward/backward sections) and writes a migration for every
// definition that does not have one yet. skipOwned filters out definitions
// whose object is provided by a database extension rather than user code.
func GenerateFromDefinitions(modelsDir, migrationsDir string, skipOwned func(name string) bool) (*Result, error) {
	files, err := List(migrationsDir)
	if err != nil {
		return nil, err
	}

	existing := map[Kind]map[string]bool{}
	for _, f := range files {
		if existing[f.Kind] == nil {
			existing[f.Kind] = map[string]bool{}
		}
		existing[f.Kind][f.Name] = true
	}

	result := &Result{}
	next := NextNumber(files)

	defined := map[Kind]map[string]bool{}
	for _, d := range definitionDirs {
		names, err := definitionNames(filepath.Join(modelsDir, d.Dir))
		if err != nil {
			return nil, err
		}
		defined[d.Kind] = map[string]bool{}

		for _, name := range names {
			defined[d.Kind][name] = true

			if skipOwned != nil && skipOwned(name) {
				result.Skipped = append(result.Skipped, name)
				continue
			}
			if existing[d.Kind][name] {
				continue
			}

			path := filepath.Join(modelsDir, d.Dir, name+".sql")
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading definition %s: %v", path, err)
			}
			forward, backward, err := SplitScript(string(data))
			if err != nil {
				return nil, fmt.Errorf("definition %s: %v", path, err)
			}

			filename, err := WriteScript(migrationsDir, next, name, d.Kind, forward, backward)
			if err != nil {
				return nil, err
			}
			result.Created = append(result.Created, filename)
			next++
		}
	}

	for _, f := range files {
		switch f.Kind {
		case KindFunction, KindTrigger, KindPolicy, KindView:
			if !defined[f.Kind][f.Name] {
				result.Orphans = append(result.Orphans, OrphanWarning{Migration: f.Filename, Kind: f.Kind})
			}
		}
	}

	return result, nil
}

func definitionNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading definitions dir %s: %v", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".sql"))
	}
	sort.Strings(names)
	return names, nil
}
