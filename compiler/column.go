package compiler

import (
	"fmt"
	"strings"

	"github.com/declmig/declmig/schema"
)

// addOrder fixes the iteration order over the change record so compilation
// is deterministic. on-delete and on-update are folded into the
// foreign-key change before compilation and never appear here.
var addOrder = []schema.Option{
	schema.OptionType,
	schema.OptionArray,
	schema.OptionNull,
	schema.OptionDefault,
	schema.OptionUnique,
	schema.OptionPrimary,
	schema.OptionForeignKey,
	schema.OptionCheck,
}

var dropOrder = []schema.Option{
	schema.OptionNull,
	schema.OptionDefault,
	schema.OptionUnique,
	schema.OptionPrimary,
	schema.OptionForeignKey,
	schema.OptionCheck,
}

// compileAlterColumn turns one alter-column action into a single
// multi-clause ALTER TABLE, plus a separate COMMENT statement when the
// change record also touches the comment (COMMENT ON COLUMN cannot be a
// clause of ALTER TABLE).
func compileAlterColumn(action schema.Action) ([]string, error) {
	field := *action.Field
	model := action.Model

	fkDropped := hasOption(action.Drops, schema.OptionForeignKey)

	var clauses []string
	for _, opt := range addOrder {
		if opt == schema.OptionForeignKey {
			// A change to on-delete/on-update alone still forces a
			// drop+re-add of the constraint, because the rule cannot be
			// altered in place. If the foreign key is being dropped
			// entirely, drop wins and no add is emitted.
			if fkDropped || !foreignKeyChanged(action.Changes) {
				continue
			}
			fkClauses, err := foreignKeyClauses(model, field, action.Changes)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, fkClauses...)
			continue
		}

		change, ok := action.Changes[opt]
		if !ok {
			continue
		}
		if opt == schema.OptionArray {
			// type and array share the single TYPE clause; when both
			// changed in one record the type entry already emitted it.
			if _, both := action.Changes[schema.OptionType]; both {
				continue
			}
		}
		clause, err := addClause(model, field, opt, change)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	for _, opt := range dropOrder {
		if !hasOption(action.Drops, opt) {
			continue
		}
		clauses = append(clauses, dropClause(model, field.Name, opt))
	}

	var statements []string
	if len(clauses) > 0 {
		statements = append(statements, fmt.Sprintf(`ALTER TABLE %q %s;`, model, strings.Join(clauses, ", ")))
	}

	if _, ok := action.Changes[schema.OptionComment]; ok {
		statements = append(statements, commentStatement(model, field.Name, field.Comment))
	} else if hasOption(action.Drops, schema.OptionComment) {
		statements = append(statements, fmt.Sprintf(`COMMENT ON COLUMN %q.%q IS NULL;`, model, field.Name))
	}

	return statements, nil
}

func addClause(model string, field schema.Field, opt schema.Option, change schema.Change) (string, error) {
	switch opt {
	case schema.OptionType, schema.OptionArray:
		// The explicit cast makes narrowing, widening and array-ness
		// changes all succeed.
		t := field.Type.SQL()
		return fmt.Sprintf(`ALTER COLUMN %q TYPE %s USING %q::%s`, field.Name, t, field.Name, t), nil

	case schema.OptionNull:
		if field.Nullable {
			return fmt.Sprintf(`ALTER COLUMN %q DROP NOT NULL`, field.Name), nil
		}
		return fmt.Sprintf(`ALTER COLUMN %q SET NOT NULL`, field.Name), nil

	case schema.OptionDefault:
		if field.Default == nil {
			return "", fmt.Errorf("alter-column %s.%s: default change without a default value", model, field.Name)
		}
		return fmt.Sprintf(`ALTER COLUMN %q SET DEFAULT %s`, field.Name, *field.Default), nil

	case schema.OptionUnique:
		return fmt.Sprintf(`ADD CONSTRAINT %q UNIQUE (%q)`, schema.UniqueName(model, field.Name), field.Name), nil

	case schema.OptionPrimary:
		return fmt.Sprintf(`ADD CONSTRAINT %q PRIMARY KEY (%q)`, schema.PrimaryKeyName(model, field.Name), field.Name), nil

	case schema.OptionCheck:
		if field.Check == "" {
			return "", fmt.Errorf("alter-column %s.%s: check change without an expression", model, field.Name)
		}
		return fmt.Sprintf(`ADD CONSTRAINT %q CHECK (%s)`, schema.CheckName(model, field.Name), field.Check), nil
	}
	return "", fmt.Errorf("alter-column %s.%s: unsupported change %q", model, field.Name, opt)
}

func dropClause(model, field string, opt schema.Option) string {
	switch opt {
	case schema.OptionNull:
		return fmt.Sprintf(`ALTER COLUMN %q DROP NOT NULL`, field)
	case schema.OptionDefault:
		return fmt.Sprintf(`ALTER COLUMN %q DROP DEFAULT`, field)
	case schema.OptionUnique:
		return fmt.Sprintf(`DROP CONSTRAINT %q`, schema.UniqueName(model, field))
	case schema.OptionPrimary:
		return fmt.Sprintf(`DROP CONSTRAINT %q`, schema.PrimaryKeyName(model, field))
	case schema.OptionForeignKey:
		return fmt.Sprintf(`DROP CONSTRAINT %q`, schema.ForeignKeyName(model, field))
	case schema.OptionCheck:
		return fmt.Sprintf(`DROP CONSTRAINT %q`, schema.CheckName(model, field))
	}
	return ""
}

// foreignKeyClauses emits a drop of the prior constraint when one existed,
// then the add of the new one.
func foreignKeyClauses(model string, field schema.Field, changes map[schema.Option]schema.Change) ([]string, error) {
	fk := field.ForeignKey
	if fk == nil {
		return nil, fmt.Errorf("alter-column %s.%s: foreign-key change without a foreign key", model, field.Name)
	}

	name := schema.ForeignKeyName(model, field.Name)
	var clauses []string

	if priorForeignKeyExists(changes) {
		clauses = append(clauses, fmt.Sprintf(`DROP CONSTRAINT %q`, name))
	}

	add := fmt.Sprintf(`ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q (%q)`,
		name, field.Name, fk.ReferencesModel, fk.ReferencesField)
	if fk.OnDelete != "" {
		add += fmt.Sprintf(" ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		add += fmt.Sprintf(" ON UPDATE %s", fk.OnUpdate)
	}
	return append(clauses, add), nil
}

func foreignKeyChanged(changes map[schema.Option]schema.Change) bool {
	for _, opt := range []schema.Option{schema.OptionForeignKey, schema.OptionOnDelete, schema.OptionOnUpdate} {
		if _, ok := changes[opt]; ok {
			return true
		}
	}
	return false
}

func priorForeignKeyExists(changes map[schema.Option]schema.Change) bool {
	if change, ok := changes[schema.OptionForeignKey]; ok {
		return change.From != ""
	}
	// Only on-delete/on-update changed, so the constraint itself exists.
	return true
}

func hasOption(opts []schema.Option, want schema.Option) bool {
	for _, o := range opts {
		if o == want {
			return true
		}
	}
	return false
}
