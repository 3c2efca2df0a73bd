package utils

import (
	"reflect"
	"testing"

	"github.com/tj/assert"
)

type sharedPool struct{}

type APIClient struct{}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "utils.shared_pool", TypeName(reflect.TypeOf(&sharedPool{})))
	assert.Equal(t, "utils.api_client", TypeName(reflect.TypeOf(APIClient{})))
	assert.Equal(t, "int", TypeName(reflect.TypeOf(0)))
	assert.Equal(t, "[]string", TypeName(reflect.TypeOf([]string{})))
}

func TestCase(t *testing.T) {
	assert.Equal(t, "user_id", SnakeCase("UserID"))
	assert.Equal(t, "CacheClient", CamelCase("cache_client"))
}
