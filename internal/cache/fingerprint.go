package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeQuery canonicalizes a query for fingerprinting: lowercase, with
// leading/trailing whitespace trimmed and interior runs collapsed to a
// single space. Punctuation is preserved: two queries that differ only in
// punctuation are distinct cache entries.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Fingerprint derives the cache key for a (community, topic, query) triple.
// It is a pure function of its inputs: the same triple, regardless of query
// casing or incidental whitespace, always yields the same key.
func Fingerprint(community, topic, query string) string {
	sum := sha256.Sum256([]byte(community + "|" + topic + "|" + NormalizeQuery(query)))
	return hex.EncodeToString(sum[:])[:32]
}
