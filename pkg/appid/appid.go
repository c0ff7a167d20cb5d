// Package appid derives stable application identifiers from display names.
package appid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FromName generates a deterministic, human-friendly application id of the
// form "<slug>-<hash8>". The hash suffix keeps distinct names with colliding
// slugs apart while the same name always maps to the same id.
func FromName(name string) string {
	slug := Slug(name)
	digest := sha256.Sum256([]byte(name))
	hash8 := hex.EncodeToString(digest[:4])
	if slug == "" {
		return "app-" + hash8
	}
	return slug + "-" + hash8
}

// Slug converts a display name into a URL-safe slug: lowercase ASCII
// alphanumerics with every other run collapsed into a single dash.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastDash := false
	for _, ch := range s {
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
