package compiler

import (
	"fmt"

	"github.com/declmig/declmig/schema"
)

// EnumStatements computes the minimal ADD VALUE sequence that evolves an
// enum type from one ordered label list to another. Postgres can only
// insert a label relative to an existing one, never remove or reorder, so
// every "from" label is an anchor that must reappear in "to"; a missing
// anchor raises EnumValueRemovedError.
//
// Labels between two anchors are inserted BEFORE the later anchor in
// reverse slice order, so each insertion's reference label already exists.
// Labels after the final anchor are chained with AFTER in forward order,
// each new value becoming the reference for the next.
func EnumStatements(typeName string, from, to []string) ([]string, error) {
	position := make(map[string]int, len(to))
	for i, label := range to {
		position[label] = i
	}

	for _, label := range from {
		if _, ok := position[label]; !ok {
			return nil, &schema.EnumValueRemovedError{Type: typeName, Label: label}
		}
	}

	// No anchors: the type is being seeded, plain appends preserve order.
	if len(from) == 0 {
		statements := make([]string, len(to))
		for i, label := range to {
			statements[i] = addValue(typeName, label, "", "")
		}
		return statements, nil
	}

	var statements []string
	prev := -1
	for _, anchor := range from {
		pos := position[anchor]
		if pos <= prev {
			return nil, fmt.Errorf("enum %q: labels were reordered around %q, which is unsupported", typeName, anchor)
		}
		ref := anchor
		for i := pos - 1; i > prev; i-- {
			statements = append(statements, addValue(typeName, to[i], "BEFORE", ref))
			ref = to[i]
		}
		prev = pos
	}

	ref := from[len(from)-1]
	for _, label := range to[prev+1:] {
		statements = append(statements, addValue(typeName, label, "AFTER", ref))
		ref = label
	}

	return statements, nil
}

func addValue(typeName, label, placement, ref string) string {
	if placement == "" {
		return fmt.Sprintf(`ALTER TYPE %q ADD VALUE %s;`, typeName, quoteLiteral(label))
	}
	return fmt.Sprintf(`ALTER TYPE %q ADD VALUE %s %s %s;`, typeName, quoteLiteral(label), placement, quoteLiteral(ref))
}
