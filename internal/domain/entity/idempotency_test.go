package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKeyMismatches(t *testing.T) {
	key := &IdempotencyKey{Endpoint: "POST /api/payment", RequestHash: "abc"}

	assert.False(t, key.Mismatches("POST /api/payment", "abc"))
	assert.True(t, key.Mismatches("POST /api/payment", "def"))
	assert.True(t, key.Mismatches("POST /api/invoice", "abc"))

	legacy := &IdempotencyKey{}
	assert.False(t, legacy.Mismatches("POST /api/invoice", "anything"))
}
