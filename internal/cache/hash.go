package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 digest of s for use inside cache keys.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// ParseKey is the cache key of a parse result for the given playlist body
// and path policy.
func ParseKey(body string, acceptPaths bool) string {
	mode := "strict"
	if acceptPaths {
		mode = "paths"
	}
	return "parse:" + mode + ":" + Hash(body)
}
