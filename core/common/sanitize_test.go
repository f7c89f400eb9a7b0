package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUUID(t *testing.T) {
	assert.True(t, ValidateUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.True(t, ValidateUUID("550E8400-E29B-41D4-A716-446655440000"))
	assert.True(t, ValidateUUID("550e8400e29b41d4a716446655440000"))

	assert.False(t, ValidateUUID(""))
	assert.False(t, ValidateUUID("not-a-uuid"))
	assert.False(t, ValidateUUID(`550e8400-e29b-41d4-a716-44665544000" || true`))
}

func TestSanitizeMilvusString(t *testing.T) {
	assert.Equal(t, `abc`, SanitizeMilvusString(`abc`))
	assert.Equal(t, `a\"b`, SanitizeMilvusString(`a"b`))
	assert.Equal(t, `a\\\"b`, SanitizeMilvusString(`a\"b`))
}

func TestValidateCollectionName(t *testing.T) {
	assert.True(t, ValidateCollectionName("document_chunks"))
	assert.False(t, ValidateCollectionName(""))
	assert.False(t, ValidateCollectionName("1abc"))
	assert.False(t, ValidateCollectionName("drop table;"))
}

func TestRemoveDuplicates(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	out := RemoveDuplicates(in, func(s string) string { return s })
	assert.Equal(t, []string{"a", "b", "c"}, out)
}
