// Package filename makes user supplied names safe to offer as downloads.
package filename

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

var ErrInvalid = errors.New("invalid filename")

const reserved = `\/:*?"<>|`

// Sanitize strips path separators, reserved and control characters and
// collapses whitespace. It fails for names that end up empty or dot-only.
func Sanitize(name string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(reserved, r) {
			return -1
		}
		return r
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" || strings.Trim(cleaned, ".") == "" {
		return "", ErrInvalid
	}
	return cleaned, nil
}

// SanitizeOr returns the sanitized name, or fallback when name is unusable.
func SanitizeOr(name, fallback string) string {
	cleaned, err := Sanitize(name)
	if err != nil {
		return fallback
	}
	return cleaned
}

// WithExtension replaces the extension of a sanitized name.
func WithExtension(name, ext string) string {
	current := filepath.Ext(name)
	if strings.EqualFold(current, ext) {
		return name
	}
	base := strings.TrimSuffix(name, current)
	if base == "" {
		base = name
	}
	return base + ext
}
