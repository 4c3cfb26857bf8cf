// Package cursor implements the opaque keyset-pagination token for the feed.
//
// A token encodes the (createdAt, id) sort key of the last row of a page.
// Clients must treat tokens as opaque and pass them back unmodified; any
// token this package did not produce decodes as invalid, which callers
// treat as "no cursor" (start of list), never as a client error.
package cursor

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Cursor is a decoded pagination position: the composite sort key of the
// last row the client has already seen.
type Cursor struct {
	CreatedAtMicros int64
	ID              string
}

func (c Cursor) CreatedAt() time.Time {
	return time.UnixMicro(c.CreatedAtMicros).UTC()
}

// Encode returns the opaque URL-safe token for the given sort key.
func Encode(createdAt time.Time, id string) string {
	raw := strconv.FormatInt(createdAt.UnixMicro(), 10) + ":" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. It returns ok=false for the
// empty string, non-base64 input, tokens missing either field, and tokens
// whose timestamp is not a valid integer.
func Decode(token string) (Cursor, bool) {
	if token == "" {
		return Cursor{}, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false
	}

	micros, id, found := strings.Cut(string(raw), ":")
	if !found || id == "" {
		return Cursor{}, false
	}

	n, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return Cursor{}, false
	}

	return Cursor{CreatedAtMicros: n, ID: id}, true
}
