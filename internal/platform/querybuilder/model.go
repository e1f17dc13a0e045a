package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel inserts every exported field carrying a db tag.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := ColumnsOf(model)
	if err != nil {
		return "", nil, err
	}

	return InsertInto(table).Columns(cols...).Values(vals...).Suffix(suffix).ToSQL()
}

// ColumnsOf returns db tag names and field values of a struct in field order.
// Fields tagged "-" or without a db tag are skipped.
func ColumnsOf(model any) ([]string, []any, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", v.Kind())
	}

	var cols []string
	var vals []any
	for _, field := range reflect.VisibleFields(v.Type()) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, name)
		vals = append(vals, v.FieldByIndex(field.Index).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
