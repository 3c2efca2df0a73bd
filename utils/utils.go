package utils

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

func CamelCase(s string) string {
	return strcase.ToCamel(s)
}

func SnakeCase(s string) string {
	return strcase.ToSnake(s)
}

// TypeName names t after its element type, e.g. *redis.Client -> "redis.client".
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Name() == "" {
		return t.String()
	}

	pkg, name, ok := strings.Cut(t.String(), ".")
	if !ok {
		return SnakeCase(t.Name())
	}
	return SnakeCase(pkg) + "." + SnakeCase(name)
}

func init() {
	strcase.ConfigureAcronym("API", "api")
	strcase.ConfigureAcronym("ID", "id")
}
