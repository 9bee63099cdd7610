package delta

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

const fingerprintPrefixRunes = 120

// Fingerprint keys a reply by a hash of its normalized opening plus its
// normalized length, so greetings that differ only in case or spacing collide.
func Fingerprint(text string) string {
	norm := []rune(normalize(text))
	if len(norm) == 0 {
		return ""
	}
	prefix := norm
	if len(prefix) > fingerprintPrefixRunes {
		prefix = prefix[:fingerprintPrefixRunes]
	}
	sum := sha256.Sum256([]byte(string(prefix)))
	return hex.EncodeToString(sum[:8]) + ":" + strconv.Itoa(len(norm))
}

// IsDuplicate reports whether text fingerprints the same as any of recent.
func IsDuplicate(text string, recent []string) bool {
	fp := Fingerprint(text)
	if fp == "" {
		return false
	}
	for _, r := range recent {
		if r == fp {
			return true
		}
	}
	return false
}
