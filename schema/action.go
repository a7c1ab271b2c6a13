package schema

import "fmt"

// ActionKind discriminates the Action union. Every kind has exactly one
// compilation rule.
type ActionKind string

const (
	CreateTable ActionKind = "create-table"
	DropTable   ActionKind = "drop-table"
	AddColumn   ActionKind = "add-column"
	AlterColumn ActionKind = "alter-column"
	DropColumn  ActionKind = "drop-column"
	CreateType  ActionKind = "create-type"
	DropType    ActionKind = "drop-type"
	AlterType   ActionKind = "alter-type"
	CreateIndex ActionKind = "create-index"
	DropIndex   ActionKind = "drop-index"
	AlterIndex  ActionKind = "alter-index"
)

// Option names one field attribute that an alter-column change record can
// touch.
type Option string

const (
	OptionType       Option = "type"
	OptionArray      Option = "array"
	OptionNull       Option = "null"
	OptionDefault    Option = "default"
	OptionUnique     Option = "unique"
	OptionPrimary    Option = "primary-key"
	OptionForeignKey Option = "foreign-key"
	OptionOnDelete   Option = "on-delete"
	OptionOnUpdate   Option = "on-update"
	OptionCheck      Option = "check"
	OptionComment    Option = "comment"
)

// Change records one attribute transition inside an alter-column action.
// The compiler reads target values from the action's Field; From/To are
// kept for explain output.
type Change struct {
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
}

// Action is one atomic schema change instruction, produced by the upstream
// diff engine and treated as immutable input here.
type Action struct {
	Kind ActionKind `yaml:"kind"`

	Model string `yaml:"model,omitempty"`

	// create-table carries the full table definition.
	Table *Model `yaml:"table,omitempty"`

	// add-column and alter-column carry the field's full current option set.
	Field     *Field `yaml:"field,omitempty"`
	FieldName string `yaml:"field_name,omitempty"` // drop-column

	// create-type carries the enum definition; drop-type and alter-type
	// reference it by name.
	Enum       *EnumType `yaml:"enum,omitempty"`
	TypeName   string    `yaml:"type_name,omitempty"`
	FromLabels []string  `yaml:"from_labels,omitempty"` // alter-type
	ToLabels   []string  `yaml:"to_labels,omitempty"`

	Index     *Index `yaml:"index,omitempty"` // create-index, alter-index
	IndexName string `yaml:"index_name,omitempty"`

	// alter-column: attributes being set or changed, and attributes being
	// removed.
	Changes map[Option]Change `yaml:"changes,omitempty"`
	Drops   []Option          `yaml:"drops,omitempty"`
}

// Validate fails fast when an action's shape does not satisfy its kind's
// required fields. A violation is a bug in the upstream diff engine, not a
// runtime condition to recover from.
func (a Action) Validate() error {
	switch a.Kind {
	case CreateTable:
		if a.Table == nil || a.Table.Name == "" {
			return fmt.Errorf("action %s: missing table definition", a.Kind)
		}
		if len(a.Table.Fields) == 0 {
			return fmt.Errorf("action %s: table %q has no fields", a.Kind, a.Table.Name)
		}
	case DropTable:
		if a.Model == "" {
			return fmt.Errorf("action %s: missing model name", a.Kind)
		}
	case AddColumn:
		if a.Model == "" || a.Field == nil || a.Field.Name == "" {
			return fmt.Errorf("action %s: missing model or field", a.Kind)
		}
	case AlterColumn:
		if a.Model == "" || a.Field == nil || a.Field.Name == "" {
			return fmt.Errorf("action %s: missing model or field", a.Kind)
		}
		if len(a.Changes) == 0 && len(a.Drops) == 0 {
			return fmt.Errorf("action %s: %s.%s has an empty change record", a.Kind, a.Model, a.Field.Name)
		}
		if err := a.validateChangeRecord(); err != nil {
			return err
		}
	case DropColumn:
		if a.Model == "" || a.FieldName == "" {
			return fmt.Errorf("action %s: missing model or field name", a.Kind)
		}
	case CreateType:
		if a.Enum == nil || a.Enum.Name == "" || len(a.Enum.Labels) == 0 {
			return fmt.Errorf("action %s: missing enum definition", a.Kind)
		}
	case DropType:
		if a.TypeName == "" {
			return fmt.Errorf("action %s: missing type name", a.Kind)
		}
	case AlterType:
		if a.TypeName == "" {
			return fmt.Errorf("action %s: missing type name", a.Kind)
		}
		if len(a.ToLabels) == 0 {
			return fmt.Errorf("action %s: type %q has no target labels", a.Kind, a.TypeName)
		}
	case CreateIndex, AlterIndex:
		if a.Index == nil || a.Index.Model == "" || len(a.Index.Fields) == 0 {
			return fmt.Errorf("action %s: missing index definition", a.Kind)
		}
	case DropIndex:
		if a.IndexName == "" {
			return fmt.Errorf("action %s: missing index name", a.Kind)
		}
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// A type or array change invalidates direct option mutation in the same
// pass; the diff engine must split them across actions.
func (a Action) validateChangeRecord() error {
	_, typeChange := a.Changes[OptionType]
	_, arrayChange := a.Changes[OptionArray]
	if !typeChange && !arrayChange {
		return nil
	}
	for opt := range a.Changes {
		switch opt {
		case OptionType, OptionArray, OptionComment:
		default:
			return fmt.Errorf("action %s: %s.%s mixes a type change with %q", a.Kind, a.Model, a.Field.Name, opt)
		}
	}
	return nil
}

// EnumValueRemovedError reports a "from" label missing from "to" during
// enum evolution. Postgres cannot remove enum labels, so compilation must
// halt rather than silently desynchronize the live type from the model.
type EnumValueRemovedError struct {
	Type  string
	Label string
}

func (e *EnumValueRemovedError) Error() string {
	return fmt.Sprintf("enum %q: label %q was removed, but enum labels can only be added", e.Type, e.Label)
}
