package introspect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/declmig/declmig/schema"
)

// Sync is a one-time capture of live database objects into model form,
// used to bootstrap a model tree from an existing database. It is not a
// reconciliation loop.
func Sync(ctx context.Context, pool *pgxpool.Pool, schemaName string) ([]schema.Model, []schema.EnumType, error) {
	enums, err := captureEnums(ctx, pool, schemaName)
	if err != nil {
		return nil, nil, err
	}

	enumNames := map[string]bool{}
	for _, e := range enums {
		enumNames[e.Name] = true
	}

	tableNames, err := captureTableNames(ctx, pool, schemaName)
	if err != nil {
		return nil, nil, err
	}

	var models []schema.Model
	for _, tableName := range tableNames {
		fields, err := captureFields(ctx, pool, schemaName, tableName, enumNames)
		if err != nil {
			return nil, nil, fmt.Errorf("capturing columns for table %s: %v", tableName, err)
		}
		models = append(models, schema.Model{Name: tableName, Fields: fields})
	}

	return models, enums, nil
}

func captureTableNames(ctx context.Context, pool *pgxpool.Pool, schemaName string) ([]string, error) {
	rows, err := pool.Query(ctx, `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = $1 AND table_type = 'BASE TABLE'
	ORDER BY table_name;
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %v", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func captureFields(ctx context.Context, pool *pgxpool.Pool, schemaName, tableName string, enumNames map[string]bool) ([]schema.Field, error) {
	rows, err := pool.Query(ctx, `
	SELECT
		c.column_name,
		c.data_type,
		c.udt_name,
		(c.is_nullable = 'YES') AS is_nullable,
		c.column_default,
		COALESCE(c.character_maximum_length, c.numeric_precision, 0),
		COALESCE(c.numeric_scale, 0)
	FROM information_schema.columns c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position;
	`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var fields []schema.Field
	for rows.Next() {
		var (
			name, dataType, udtName string
			nullable                bool
			columnDefault           *string
			param, scale            int
		)
		if err := rows.Scan(&name, &dataType, &udtName, &nullable, &columnDefault, &param, &scale); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}

		field := schema.Field{
			Name:     name,
			Nullable: nullable,
			Default:  columnDefault,
		}
		switch {
		case dataType == "USER-DEFINED" && enumNames[udtName]:
			field.Type = schema.FieldType{Enum: udtName}
		case dataType == "ARRAY":
			field.Type = schema.FieldType{Name: elementTypeName(udtName), Array: true}
		default:
			field.Type = schema.FieldType{Name: dataType, Param: param, Scale: scale}
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

// Array columns report udt_name with a leading underscore.
func elementTypeName(udtName string) string {
	if len(udtName) > 1 && udtName[0] == '_' {
		return udtName[1:]
	}
	return udtName
}

func captureEnums(ctx context.Context, pool *pgxpool.Pool, schemaName string) ([]schema.EnumType, error) {
	rows, err := pool.Query(ctx, `
	SELECT t.typname, e.enumlabel
	FROM pg_type t
	JOIN pg_enum e ON e.enumtypid = t.oid
	JOIN pg_namespace n ON n.oid = t.typnamespace
	WHERE n.nspname = $1
	ORDER BY t.typname, e.enumsortorder;
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("querying enum types: %v", err)
	}
	defer rows.Close()

	var enums []schema.EnumType
	byName := map[string]int{}
	for rows.Next() {
		var typeName, label string
		if err := rows.Scan(&typeName, &label); err != nil {
			return nil, fmt.Errorf("scanning enum label: %v", err)
		}
		idx, ok := byName[typeName]
		if !ok {
			enums = append(enums, schema.EnumType{Name: typeName})
			idx = len(enums) - 1
			byName[typeName] = idx
		}
		enums[idx].Labels = append(enums[idx].Labels, label)
	}
	return enums, rows.Err()
}

type modelFile struct {
	Models []schema.Model `yaml:"models"`
}

// WriteModelFile writes captured models into the shared layer of the model
// tree, attaching the captured enum types to the models that reference
// them.
func WriteModelFile(basePath, fileName string, models []schema.Model, enums []schema.EnumType) (string, error) {
	byName := map[string]schema.EnumType{}
	for _, e := range enums {
		byName[e.Name] = e
	}
	for i := range models {
		seen := map[string]bool{}
		for _, f := range models[i].Fields {
			if f.Type.Enum != "" && !seen[f.Type.Enum] {
				if e, ok := byName[f.Type.Enum]; ok {
					models[i].Enums = append(models[i].Enums, e)
					seen[f.Type.Enum] = true
				}
			}
		}
	}

	data, err := yaml.Marshal(modelFile{Models: models})
	if err != nil {
		return "", fmt.Errorf("marshalling models: %v", err)
	}

	dir := filepath.Join(basePath, "shared")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating shared layer: %v", err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing model file: %v", err)
	}
	return path, nil
}
