package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIKey(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		key := NewAPIKey()
		assert.True(t, strings.HasPrefix(key, APIKeyPrefix))
		assert.Len(t, key, len(APIKeyPrefix)+26) // ULID is 26 chars

		_, dup := seen[key]
		assert.False(t, dup, "duplicate key %s", key)
		seen[key] = struct{}{}
	}
}
