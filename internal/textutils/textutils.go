// Package textutils provides the whitespace handling shared by extraction
// and decoding.
package textutils

import "strings"

// NormalizeSpaces collapses every run of whitespace into one space and trims
// both ends.
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinWithSpace appends fragment to current separated by exactly one space.
// Surrounding whitespace of both parts is dropped; an empty part contributes
// nothing.
func JoinWithSpace(current, fragment string) string {
	current = strings.TrimSpace(current)
	fragment = strings.TrimSpace(fragment)
	switch {
	case fragment == "":
		return current
	case current == "":
		return fragment
	}
	return current + " " + fragment
}
