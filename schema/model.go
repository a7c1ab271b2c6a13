package schema

import "fmt"

// Model is the declarative definition of one table: its fields, the enum
// types it references, and table-level constraints.
type Model struct {
	Name       string     `yaml:"name"`
	Fields     []Field    `yaml:"fields"`
	Enums      []EnumType `yaml:"enums,omitempty"`
	PrimaryKey []string   `yaml:"primary_key,omitempty"` // composite, overrides per-field Primary
	Uniques    [][]string `yaml:"uniques,omitempty"`     // composite unique sets
	Indexes    []Index    `yaml:"indexes,omitempty"`
}

// Field returns the field with the given name, or nil.
func (m *Model) Field(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

type Field struct {
	Name       string      `yaml:"name"`
	Type       FieldType   `yaml:"type"`
	Nullable   bool        `yaml:"nullable,omitempty"`
	Primary    bool        `yaml:"primary,omitempty"`
	Unique     bool        `yaml:"unique,omitempty"`
	Default    *string     `yaml:"default,omitempty"`
	ForeignKey *ForeignKey `yaml:"foreign_key,omitempty"`
	Check      string      `yaml:"check,omitempty"`
	Comment    string      `yaml:"comment,omitempty"`
}

// FieldType is a base type plus optional parameters: varchar(255),
// numeric(10,2), timestamptz(3), an enum reference, or an array of any of
// those.
type FieldType struct {
	Name  string `yaml:"name"`
	Param int    `yaml:"param,omitempty"` // length or precision
	Scale int    `yaml:"scale,omitempty"`
	Enum  string `yaml:"enum,omitempty"` // set when the type is an enum reference
	Array bool   `yaml:"array,omitempty"`
}

// SQL renders the type as it appears in DDL.
func (t FieldType) SQL() string {
	base := t.Name
	switch {
	case t.Enum != "":
		base = fmt.Sprintf("%q", t.Enum)
	case t.Param > 0 && t.Scale > 0:
		base = fmt.Sprintf("%s(%d,%d)", t.Name, t.Param, t.Scale)
	case t.Param > 0:
		base = fmt.Sprintf("%s(%d)", t.Name, t.Param)
	}
	if t.Array {
		return base + "[]"
	}
	return base
}

type ForeignKey struct {
	ReferencesModel string `yaml:"references_model"`
	ReferencesField string `yaml:"references_field"`
	OnDelete        string `yaml:"on_delete,omitempty"` // CASCADE, SET NULL, RESTRICT, ...
	OnUpdate        string `yaml:"on_update,omitempty"`
}

// EnumType owns an ordered list of labels. The order defines sort order in
// the database; labels can be appended or inserted but never removed or
// reordered once the type exists.
type EnumType struct {
	Name   string   `yaml:"name"`
	Labels []string `yaml:"labels"`
}

type Index struct {
	Name   string   `yaml:"name,omitempty"`
	Model  string   `yaml:"model"`
	Fields []string `yaml:"fields"`
	Unique bool     `yaml:"unique,omitempty"`
	Method string   `yaml:"method,omitempty"` // btree, hash, gin, gist
	Where  string   `yaml:"where,omitempty"`  // partial index predicate
}

// ResolvedName returns the explicit index name or the generated one.
func (i Index) ResolvedName() string {
	if i.Name != "" {
		return i.Name
	}
	return IndexName(i.Model, i.Fields)
}
