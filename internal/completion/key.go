// Package completion persists completion records for exercise instances and
// derives the banner shown to the learner.
package completion

import (
	"fmt"
	"net/url"
	"unicode/utf16"
)

const (
	keyPrefix = "learning-tools:completion:"

	fnvOffset32 uint32 = 0x811c9dc5
	fnvPrime32  uint32 = 0x01000193
)

// Identity names one exercise instance.
type Identity struct {
	ToolID   string
	Version  string
	UniqueID string
	DataURL  string
}

// fnv1a32 folds the UTF-16 code units of s, which keeps the hashes equal to
// the ones browsers stored under the v1 scheme.
func fnv1a32(s string) uint32 {
	hash := fnvOffset32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash ^= uint32(unit)
		hash *= fnvPrime32
	}
	return hash
}

// LegacyKey returns the v1 key, hashed from tool id, version and data URL.
func LegacyKey(id Identity) string {
	raw := fmt.Sprintf("%s::%s::%s", id.ToolID, id.Version, id.DataURL)
	return fmt.Sprintf("%sv1:%s:%s:%08x", keyPrefix, id.ToolID, id.Version, fnv1a32(raw))
}

// StorageKey returns the v2 key built from the unique id. Components are
// query-escaped so ':' inside an id can't collide with another identity.
// Without a unique id the legacy key is used.
func StorageKey(id Identity) string {
	if id.UniqueID == "" {
		return LegacyKey(id)
	}
	return fmt.Sprintf("%sv2:%s:%s:%s", keyPrefix,
		url.QueryEscape(id.ToolID),
		url.QueryEscape(id.Version),
		url.QueryEscape(id.UniqueID),
	)
}
