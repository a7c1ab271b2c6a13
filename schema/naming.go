package schema

import (
	"fmt"
	"strings"
)

// Constraint and index names are deterministic functions of their owning
// model and field so drop-then-add sequences never need to query the
// stored name.

func PrimaryKeyName(model, field string) string {
	return fmt.Sprintf("pk_%s_%s", model, field)
}

func UniqueName(model, field string) string {
	return fmt.Sprintf("uq_%s_%s", model, field)
}

func ForeignKeyName(model, field string) string {
	return fmt.Sprintf("fk_%s_%s", model, field)
}

func CheckName(model, field string) string {
	return fmt.Sprintf("ck_%s_%s", model, field)
}

func IndexName(model string, fields []string) string {
	return fmt.Sprintf("idx_%s_%s", model, strings.Join(fields, "_"))
}

// CompositeName names a table-level constraint over several fields.
func CompositeName(prefix, model string, fields []string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, model, strings.Join(fields, "_"))
}
