package utils

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"sync/atomic"
	"time"
)

const connIDBytes = 15

var connFallback atomic.Uint64

// NewConnID returns a URL-safe connection identifier. Connection ids are
// shown to other room members, so they carry no client-supplied data.
func NewConnID() string {
	buf := make([]byte, connIDBytes)
	if _, err := rand.Read(buf); err == nil {
		return base64.RawURLEncoding.EncodeToString(buf)
	}

	// Fallback to timestamp plus a counter if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(connFallback.Add(1), 36)
}
