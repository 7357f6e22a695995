// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lowercases an address. CI lookups additionally fold
// with text.Fold; this is the canonical stored form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AuthMethod trims and lowercases an auth method value.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
