package compiler

import (
	"fmt"

	"github.com/declmig/declmig/schema"
)

// Invert computes the action that undoes the given one. Destructive kinds
// lose the information needed to rebuild the object, and enum label
// additions cannot be removed at all, so those are irreversible here and
// need a hand-written migration to go back.
func Invert(action schema.Action) (schema.Action, error) {
	switch action.Kind {
	case schema.CreateTable:
		return schema.Action{Kind: schema.DropTable, Model: action.Table.Name}, nil

	case schema.AddColumn:
		return schema.Action{
			Kind:      schema.DropColumn,
			Model:     action.Model,
			FieldName: action.Field.Name,
		}, nil

	case schema.CreateType:
		return schema.Action{Kind: schema.DropType, TypeName: action.Enum.Name}, nil

	case schema.CreateIndex:
		return schema.Action{Kind: schema.DropIndex, IndexName: action.Index.ResolvedName()}, nil

	case schema.DropTable, schema.DropColumn, schema.DropType, schema.DropIndex:
		return schema.Action{}, fmt.Errorf("action %s does not retain the dropped definition and cannot be inverted", action.Kind)

	case schema.AlterColumn:
		return schema.Action{}, fmt.Errorf("action %s does not retain prior option values and cannot be inverted", action.Kind)

	case schema.AlterIndex:
		return schema.Action{}, fmt.Errorf("action %s does not retain the prior index definition and cannot be inverted", action.Kind)

	case schema.AlterType:
		return schema.Action{}, fmt.Errorf("enum labels cannot be removed, so action %s cannot be inverted", action.Kind)
	}
	return schema.Action{}, fmt.Errorf("unsupported action kind: %s", action.Kind)
}

// InvertAll inverts an ordered action list, reversing the order so later
// objects are torn down before the objects they depend on.
func InvertAll(actions []schema.Action) ([]schema.Action, error) {
	inverted := make([]schema.Action, 0, len(actions))
	for i := len(actions) - 1; i >= 0; i-- {
		inv, err := Invert(actions[i])
		if err != nil {
			return nil, err
		}
		inverted = append(inverted, inv)
	}
	return inverted, nil
}
