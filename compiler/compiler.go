package compiler

import (
	"fmt"
	"strings"

	"github.com/declmig/declmig/catalog"
	"github.com/declmig/declmig/schema"
)

// Compile turns one action into zero or more DDL statements. Dispatch is
// purely by kind; an action whose shape does not satisfy its kind is a
// contract violation from the upstream diff engine and fails fast.
//
// The catalog snapshot is consulted only for plain create-index
// idempotency; passing nil compiles unconditionally.
func Compile(action schema.Action, snap *catalog.Snapshot) ([]string, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}

	switch action.Kind {
	case schema.CreateTable:
		return compileCreateTable(*action.Table), nil

	case schema.DropTable:
		return []string{fmt.Sprintf(`DROP TABLE IF EXISTS %q;`, action.Model)}, nil

	case schema.AddColumn:
		return compileAddColumn(action.Model, *action.Field), nil

	case schema.DropColumn:
		return []string{fmt.Sprintf(`ALTER TABLE %q DROP COLUMN %q;`, action.Model, action.FieldName)}, nil

	case schema.AlterColumn:
		return compileAlterColumn(action)

	case schema.CreateType:
		return []string{createTypeStatement(*action.Enum)}, nil

	case schema.DropType:
		return []string{fmt.Sprintf(`DROP TYPE %q;`, action.TypeName)}, nil

	case schema.AlterType:
		return EnumStatements(action.TypeName, action.FromLabels, action.ToLabels)

	case schema.CreateIndex:
		if snap.HasIndex(action.Index.ResolvedName()) {
			return nil, nil
		}
		return []string{createIndexStatement(*action.Index)}, nil

	case schema.DropIndex:
		return []string{fmt.Sprintf(`DROP INDEX IF EXISTS %q;`, action.IndexName)}, nil

	case schema.AlterIndex:
		// No alter-in-place exists; the index is dropped and recreated
		// unconditionally, without a snapshot check.
		return []string{
			fmt.Sprintf(`DROP INDEX IF EXISTS %q;`, action.Index.ResolvedName()),
			createIndexStatement(*action.Index),
		}, nil
	}

	return nil, fmt.Errorf("unsupported action kind: %s", action.Kind)
}

// CompileAll compiles an ordered action list, concatenating statements in
// action order.
func CompileAll(actions []schema.Action, snap *catalog.Snapshot) ([]string, error) {
	var statements []string
	for _, action := range actions {
		stmts, err := Compile(action, snap)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmts...)
	}
	return statements, nil
}

func compileCreateTable(table schema.Model) []string {
	var defs []string
	for _, f := range table.Fields {
		defs = append(defs, columnDefinition(table.Name, f))
	}

	if len(table.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf(`CONSTRAINT %q PRIMARY KEY (%s)`,
			schema.CompositeName("pk", table.Name, table.PrimaryKey),
			quoteList(table.PrimaryKey)))
	}
	for _, fields := range table.Uniques {
		defs = append(defs, fmt.Sprintf(`CONSTRAINT %q UNIQUE (%s)`,
			schema.CompositeName("uq", table.Name, fields),
			quoteList(fields)))
	}

	statements := []string{fmt.Sprintf(`CREATE TABLE %q (%s);`, table.Name, strings.Join(defs, ", "))}
	for _, f := range table.Fields {
		if f.Comment != "" {
			statements = append(statements, commentStatement(table.Name, f.Name, f.Comment))
		}
	}
	return statements
}

func compileAddColumn(model string, field schema.Field) []string {
	statements := []string{fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %s;`, model, columnDefinition(model, field))}
	if field.Comment != "" {
		statements = append(statements, commentStatement(model, field.Name, field.Comment))
	}
	return statements
}

// columnDefinition renders one column with its inline constraints, each
// carrying a deterministic generated name.
func columnDefinition(model string, f schema.Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q %s", f.Name, f.Type.SQL())

	if !f.Nullable {
		b.WriteString(" NOT NULL")
	}
	if f.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", *f.Default)
	}
	if f.Primary {
		fmt.Fprintf(&b, " CONSTRAINT %q PRIMARY KEY", schema.PrimaryKeyName(model, f.Name))
	}
	if f.Unique {
		fmt.Fprintf(&b, " CONSTRAINT %q UNIQUE", schema.UniqueName(model, f.Name))
	}
	if fk := f.ForeignKey; fk != nil {
		fmt.Fprintf(&b, " CONSTRAINT %q REFERENCES %q (%q)",
			schema.ForeignKeyName(model, f.Name), fk.ReferencesModel, fk.ReferencesField)
		if fk.OnDelete != "" {
			fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete)
		}
		if fk.OnUpdate != "" {
			fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate)
		}
	}
	if f.Check != "" {
		fmt.Fprintf(&b, " CONSTRAINT %q CHECK (%s)", schema.CheckName(model, f.Name), f.Check)
	}
	return b.String()
}

func createTypeStatement(enum schema.EnumType) string {
	labels := make([]string, len(enum.Labels))
	for i, l := range enum.Labels {
		labels[i] = quoteLiteral(l)
	}
	return fmt.Sprintf(`CREATE TYPE %q AS ENUM (%s);`, enum.Name, strings.Join(labels, ", "))
}

func createIndexStatement(idx schema.Index) string {
	var b strings.Builder
	b.WriteString("CREATE")
	if idx.Unique {
		b.WriteString(" UNIQUE")
	}
	fmt.Fprintf(&b, " INDEX %q ON %q", idx.ResolvedName(), idx.Model)
	if idx.Method != "" && idx.Method != "btree" {
		fmt.Fprintf(&b, " USING %s", idx.Method)
	}
	fmt.Fprintf(&b, " (%s)", quoteList(idx.Fields))
	if idx.Where != "" {
		fmt.Fprintf(&b, " WHERE %s", idx.Where)
	}
	b.WriteString(";")
	return b.String()
}

func commentStatement(model, field, comment string) string {
	return fmt.Sprintf(`COMMENT ON COLUMN %q.%q IS %s;`, model, field, quoteLiteral(comment))
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
