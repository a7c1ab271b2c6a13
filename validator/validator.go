package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// Issue is one heuristic finding against a SQL script. Issues are
// advisory: they never block compilation or execution, only surface to the
// operator, optionally with a best-effort rewrite.
type Issue struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"` // "warning" or "info"
	Message  string `json:"message"`
	Snippet  string `json:"snippet,omitempty"`
	Fixed    string `json:"fixed,omitempty"` // suggested rewrite, when one is safe
}

var (
	// value = ANY(expr->'key') — array membership against a JSON value.
	jsonAnyPattern = regexp.MustCompile(`(?i)([\w.']+)\s*=\s*ANY\s*\(\s*([\w."]+\s*->\s*'[^']+')\s*\)`)

	// Unquoted schema-qualified identifier right after a DDL keyword.
	dottedIdentPattern = regexp.MustCompile(`(?i)\b(TABLE|INDEX|TYPE|VIEW|SEQUENCE|ON)\s+(IF\s+(?:NOT\s+)?EXISTS\s+)?([a-z_][\w]*\.[a-z_][\w]*)\b`)

	// DROP not followed by an object kind it can drop.
	dropKinds       = []string{"TABLE", "INDEX", "TYPE", "COLUMN", "CONSTRAINT", "FUNCTION", "TRIGGER", "POLICY", "VIEW", "SCHEMA", "EXTENSION", "SEQUENCE", "NOT", "DEFAULT"}
	dropStmtPattern = regexp.MustCompile(`(?i)\bDROP\s+([A-Za-z_]\w*)`)
)

// Inspect runs every heuristic over one SQL script and returns its
// findings.
func Inspect(sql string) []Issue {
	var issues []Issue
	issues = append(issues, inspectJSONMembership(sql)...)
	issues = append(issues, inspectDottedIdentifiers(sql)...)
	issues = append(issues, inspectDropStatements(sql)...)
	return issues
}

// InspectAll inspects several scripts and prefixes findings with their
// origin name.
func InspectAll(scripts map[string]string) []Issue {
	var issues []Issue
	for name, sql := range scripts {
		for _, issue := range Inspect(sql) {
			issue.Message = name + ": " + issue.Message
			issues = append(issues, issue)
		}
	}
	return issues
}

func inspectJSONMembership(sql string) []Issue {
	var issues []Issue
	for _, m := range jsonAnyPattern.FindAllStringSubmatch(sql, -1) {
		value, expr := m[1], m[2]
		issues = append(issues, Issue{
			Rule:     "json-array-membership",
			Severity: "warning",
			Message:  fmt.Sprintf("= ANY(%s) tests a JSON value, not an array; use the ? operator or jsonb_array_elements_text", expr),
			Snippet:  strings.TrimSpace(m[0]),
			Fixed:    fmt.Sprintf("%s ? %s", strings.TrimSpace(expr), value),
		})
	}
	return issues
}

func inspectDottedIdentifiers(sql string) []Issue {
	var issues []Issue
	for _, m := range dottedIdentPattern.FindAllStringSubmatch(sql, -1) {
		ident := m[3]
		parts := strings.SplitN(ident, ".", 2)
		issues = append(issues, Issue{
			Rule:     "unquoted-dotted-identifier",
			Severity: "info",
			Message:  fmt.Sprintf("identifier %s is schema-qualified but unquoted; quote each part to avoid case folding", ident),
			Snippet:  strings.TrimSpace(m[0]),
			Fixed:    fmt.Sprintf("%q.%q", parts[0], parts[1]),
		})
	}
	return issues
}

func inspectDropStatements(sql string) []Issue {
	var issues []Issue
	for _, m := range dropStmtPattern.FindAllStringSubmatch(sql, -1) {
		word := strings.ToUpper(m[1])
		known := false
		for _, kind := range dropKinds {
			if word == kind {
				known = true
				break
			}
		}
		if !known {
			issues = append(issues, Issue{
				Rule:     "malformed-drop",
				Severity: "warning",
				Message:  fmt.Sprintf("DROP %s is missing an object kind (TABLE, INDEX, TYPE, ...)", m[1]),
				Snippet:  strings.TrimSpace(m[0]),
			})
		}
	}
	return issues
}
