package cursor

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		createdAt time.Time
		id        string
	}{
		{"epoch", time.UnixMicro(0).UTC(), "a"},
		{"recent", time.Date(2024, 6, 1, 12, 30, 45, 123456000, time.UTC), "f5a1c2d3"},
		{"microsecond precision", time.UnixMicro(1717245045123456).UTC(), "post-1"},
		{"uuid id", time.UnixMicro(1700000000000000).UTC(), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"id containing separator", time.UnixMicro(42).UTC(), "a:b:c"},
		{"pre-epoch timestamp", time.UnixMicro(-1000).UTC(), "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Encode(tt.createdAt, tt.id)

			c, ok := Decode(token)
			require.True(t, ok)
			assert.Equal(t, tt.createdAt, c.CreatedAt())
			assert.Equal(t, tt.id, c.ID)
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "not a token!!!"},
		{"plain text", base64.RawURLEncoding.EncodeToString([]byte("hello world"))},
		{"missing id", base64.RawURLEncoding.EncodeToString([]byte("12345:"))},
		{"missing separator", base64.RawURLEncoding.EncodeToString([]byte("12345"))},
		{"non-numeric timestamp", base64.RawURLEncoding.EncodeToString([]byte("yesterday:abc"))},
		{"truncated token", Encode(time.Now(), "some-post-id")[:5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Decode(tt.token)
			assert.False(t, ok)
			assert.Zero(t, c)
		})
	}
}

func TestTokenIsURLSafe(t *testing.T) {
	token := Encode(time.Date(2024, 1, 2, 3, 4, 5, 678901000, time.UTC), "id/with+odd=chars")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")
}
