package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declmig/declmig/catalog"
	"github.com/declmig/declmig/schema"
)

func TestCompileCreateTable(t *testing.T) {
	def := "now()"
	action := schema.Action{
		Kind: schema.CreateTable,
		Table: &schema.Model{
			Name: "orders",
			Fields: []schema.Field{
				{Name: "id", Type: schema.FieldType{Name: "bigserial"}, Primary: true},
				{Name: "ref", Type: schema.FieldType{Name: "varchar", Param: 32}, Unique: true},
				{
					Name:       "user_id",
					Type:       schema.FieldType{Name: "bigint"},
					ForeignKey: &schema.ForeignKey{ReferencesModel: "users", ReferencesField: "id", OnDelete: "CASCADE"},
				},
				{Name: "total", Type: schema.FieldType{Name: "numeric", Param: 10, Scale: 2}, Check: "total >= 0", Comment: "gross total"},
				{Name: "placed_at", Type: schema.FieldType{Name: "timestamptz"}, Nullable: true, Default: &def},
			},
		},
	}

	statements, err := Compile(action, nil)
	require.NoError(t, err)
	require.Len(t, statements, 2)

	assert.Equal(t, `CREATE TABLE "orders" (`+
		`"id" bigserial NOT NULL CONSTRAINT "pk_orders_id" PRIMARY KEY, `+
		`"ref" varchar(32) NOT NULL CONSTRAINT "uq_orders_ref" UNIQUE, `+
		`"user_id" bigint NOT NULL CONSTRAINT "fk_orders_user_id" REFERENCES "users" ("id") ON DELETE CASCADE, `+
		`"total" numeric(10,2) NOT NULL CONSTRAINT "ck_orders_total" CHECK (total >= 0), `+
		`"placed_at" timestamptz DEFAULT now());`,
		statements[0])
	assert.Equal(t, `COMMENT ON COLUMN "orders"."total" IS 'gross total';`, statements[1])
}

func TestCompileCreateTableCompositeConstraints(t *testing.T) {
	action := schema.Action{
		Kind: schema.CreateTable,
		Table: &schema.Model{
			Name: "memberships",
			Fields: []schema.Field{
				{Name: "user_id", Type: schema.FieldType{Name: "bigint"}},
				{Name: "team_id", Type: schema.FieldType{Name: "bigint"}},
				{Name: "role", Type: schema.FieldType{Enum: "member_role"}},
			},
			PrimaryKey: []string{"user_id", "team_id"},
			Uniques:    [][]string{{"team_id", "role"}},
		},
	}

	statements, err := Compile(action, nil)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], `CONSTRAINT "pk_memberships_user_id_team_id" PRIMARY KEY ("user_id", "team_id")`)
	assert.Contains(t, statements[0], `CONSTRAINT "uq_memberships_team_id_role" UNIQUE ("team_id", "role")`)
	assert.Contains(t, statements[0], `"role" "member_role" NOT NULL`)
}

func TestCompileAddColumnWithComment(t *testing.T) {
	action := schema.Action{
		Kind:  schema.AddColumn,
		Model: "users",
		Field: &schema.Field{Name: "nickname", Type: schema.FieldType{Name: "text"}, Nullable: true, Comment: "display name"},
	}

	statements, err := Compile(action, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TABLE "users" ADD COLUMN "nickname" text;`,
		`COMMENT ON COLUMN "users"."nickname" IS 'display name';`,
	}, statements)
}

func TestCompileDropTableIsIdempotent(t *testing.T) {
	statements, err := Compile(schema.Action{Kind: schema.DropTable, Model: "users"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`DROP TABLE IF EXISTS "users";`}, statements)
}

func TestCompileCreateTypePreservesLabelOrder(t *testing.T) {
	action := schema.Action{
		Kind: schema.CreateType,
		Enum: &schema.EnumType{Name: "status", Labels: []string{"draft", "sent", "paid"}},
	}

	statements, err := Compile(action, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`CREATE TYPE "status" AS ENUM ('draft', 'sent', 'paid');`}, statements)
}

func TestCompileCreateIndexSkipsWhenPresent(t *testing.T) {
	action := schema.Action{
		Kind: schema.CreateIndex,
		Index: &schema.Index{
			Model:  "orders",
			Fields: []string{"user_id"},
			Method: "hash",
		},
	}

	first, err := Compile(action, catalog.Empty("public"))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, `CREATE INDEX "idx_orders_user_id" ON "orders" USING hash ("user_id");`, first[0])

	snap := catalog.Empty("public")
	snap.Indexes["idx_orders_user_id"] = true
	second, err := Compile(action, snap)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestCompileCreateIndexUniquePartial(t *testing.T) {
	action := schema.Action{
		Kind: schema.CreateIndex,
		Index: &schema.Index{
			Name:   "idx_active_email",
			Model:  "users",
			Fields: []string{"email"},
			Unique: true,
			Where:  "deleted_at IS NULL",
		},
	}

	statements, err := Compile(action, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`CREATE UNIQUE INDEX "idx_active_email" ON "users" ("email") WHERE deleted_at IS NULL;`,
	}, statements)
}

func TestCompileAlterIndexIgnoresSnapshot(t *testing.T) {
	action := schema.Action{
		Kind:  schema.AlterIndex,
		Index: &schema.Index{Model: "orders", Fields: []string{"user_id"}},
	}

	snap := catalog.Empty("public")
	snap.Indexes["idx_orders_user_id"] = true

	statements, err := Compile(action, snap)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`DROP INDEX IF EXISTS "idx_orders_user_id";`,
		`CREATE INDEX "idx_orders_user_id" ON "orders" ("user_id");`,
	}, statements)
}

func TestCompileRejectsMalformedActions(t *testing.T) {
	cases := []schema.Action{
		{Kind: schema.CreateTable},
		{Kind: schema.AddColumn, Model: "users"},
		{Kind: schema.AlterColumn, Model: "users", Field: &schema.Field{Name: "a"}},
		{Kind: schema.CreateType},
		{Kind: schema.AlterType, TypeName: "status"},
		{Kind: schema.CreateIndex},
		{Kind: schema.DropIndex},
		{Kind: "rename-table"},
	}
	for _, action := range cases {
		_, err := Compile(action, nil)
		assert.Error(t, err, "kind %s", action.Kind)
	}
}

func TestInvertCreateActions(t *testing.T) {
	table := &schema.Model{Name: "users", Fields: []schema.Field{{Name: "id", Type: schema.FieldType{Name: "bigserial"}}}}

	inv, err := Invert(schema.Action{Kind: schema.CreateTable, Table: table})
	require.NoError(t, err)
	assert.Equal(t, schema.Action{Kind: schema.DropTable, Model: "users"}, inv)

	inv, err = Invert(schema.Action{Kind: schema.AddColumn, Model: "users", Field: &schema.Field{Name: "email"}})
	require.NoError(t, err)
	assert.Equal(t, schema.Action{Kind: schema.DropColumn, Model: "users", FieldName: "email"}, inv)

	inv, err = Invert(schema.Action{Kind: schema.CreateIndex, Index: &schema.Index{Model: "users", Fields: []string{"email"}}})
	require.NoError(t, err)
	assert.Equal(t, schema.Action{Kind: schema.DropIndex, IndexName: "idx_users_email"}, inv)
}

func TestInvertAllReversesOrder(t *testing.T) {
	table := &schema.Model{Name: "users", Fields: []schema.Field{{Name: "id", Type: schema.FieldType{Name: "bigserial"}}}}
	actions := []schema.Action{
		{Kind: schema.CreateType, Enum: &schema.EnumType{Name: "status", Labels: []string{"a"}}},
		{Kind: schema.CreateTable, Table: table},
	}

	inverted, err := InvertAll(actions)
	require.NoError(t, err)
	require.Len(t, inverted, 2)
	assert.Equal(t, schema.DropTable, inverted[0].Kind)
	assert.Equal(t, schema.DropType, inverted[1].Kind)
}

func TestInvertIrreversibleActions(t *testing.T) {
	cases := []schema.Action{
		{Kind: schema.DropTable, Model: "users"},
		{Kind: schema.DropColumn, Model: "users", FieldName: "email"},
		{Kind: schema.AlterType, TypeName: "status", ToLabels: []string{"a", "b"}},
		{Kind: schema.AlterColumn, Model: "users", Field: &schema.Field{Name: "email"}},
	}
	for _, action := range cases {
		_, err := Invert(action)
		assert.Error(t, err, "kind %s", action.Kind)
	}
}
