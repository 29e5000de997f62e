package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// APIKeyPrefix marks keys issued by this service.
const APIKeyPrefix = "botd_"

// NewAPIKey generates a new opaque API key (prefix + ULID).
func NewAPIKey() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return APIKeyPrefix + ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
