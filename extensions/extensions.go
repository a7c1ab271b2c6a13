package extensions

import (
	"fmt"
	"sort"

	"github.com/declmig/declmig/catalog"
)

// Requirement ties a SQL function name to the extension providing it and
// the minimum server version (server_version_num form) that extension
// needs.
type Requirement struct {
	Extension        string
	MinServerVersion int
}

// functionOwners is a literal allowlist of well-known extension-provided
// functions. It is inherently best-effort and advisory, not authoritative:
// its job is to keep the generator from emitting migrations for objects an
// extension already owns.
var functionOwners = map[string]Requirement{
	// uuid-ossp
	"uuid_generate_v1": {Extension: "uuid-ossp"},
	"uuid_generate_v4": {Extension: "uuid-ossp"},
	// pgcrypto
	"gen_random_bytes": {Extension: "pgcrypto"},
	"crypt":            {Extension: "pgcrypto"},
	"gen_salt":         {Extension: "pgcrypto"},
	// pg_trgm
	"similarity":      {Extension: "pg_trgm"},
	"word_similarity": {Extension: "pg_trgm", MinServerVersion: 90600},
	"show_trgm":       {Extension: "pg_trgm"},
	// hstore
	"hstore_to_json":  {Extension: "hstore"},
	"hstore_to_jsonb": {Extension: "hstore", MinServerVersion: 90400},
	// tablefunc
	"crosstab": {Extension: "tablefunc"},
	// postgis
	"st_distance":   {Extension: "postgis"},
	"st_intersects": {Extension: "postgis"},
	"st_makepoint":  {Extension: "postgis"},
}

// Owner reports which extension provides the named function, if any.
func Owner(fn string) (Requirement, bool) {
	req, ok := functionOwners[fn]
	return req, ok
}

// Owned reports whether the named function belongs to an extension rather
// than user code, so no migration should be generated for it.
func Owned(fn string) bool {
	_, ok := functionOwners[fn]
	return ok
}

// IncompatibleError is raised when a required extension's minimum server
// version exceeds the live server version.
type IncompatibleError struct {
	Function         string
	Extension        string
	MinServerVersion int
	ServerVersion    int
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("function %q needs extension %q, which requires server version %d but the server is %d",
		e.Function, e.Extension, e.MinServerVersion, e.ServerVersion)
}

// Check verifies that every required extension-owned function is usable on
// the snapshot's server. Functions not in the allowlist are assumed to be
// user code and pass.
func Check(snap *catalog.Snapshot, functions []string) error {
	for _, fn := range functions {
		req, ok := functionOwners[fn]
		if !ok {
			continue
		}
		if req.MinServerVersion > 0 && snap.ServerVersionNum > 0 && req.MinServerVersion > snap.ServerVersionNum {
			return &IncompatibleError{
				Function:         fn,
				Extension:        req.Extension,
				MinServerVersion: req.MinServerVersion,
				ServerVersion:    snap.ServerVersionNum,
			}
		}
	}
	return nil
}

// Advise lists, per extension, which allowlisted functions are present in
// the live schema and whether the extension is installed. Purely
// informational output for the health command.
func Advise(snap *catalog.Snapshot) []string {
	byExtension := map[string][]string{}
	for fn, req := range functionOwners {
		if snap.HasFunction(fn) {
			byExtension[req.Extension] = append(byExtension[req.Extension], fn)
		}
	}

	names := make([]string, 0, len(byExtension))
	for name := range byExtension {
		names = append(names, name)
	}
	sort.Strings(names)

	var advice []string
	for _, name := range names {
		fns := byExtension[name]
		sort.Strings(fns)
		state := "not installed"
		if ext, ok := snap.Extensions[name]; ok && ext.Installed {
			state = "installed " + ext.Version
		}
		advice = append(advice, fmt.Sprintf("extension %s (%s) provides: %v", name, state, fns))
	}
	return advice
}
