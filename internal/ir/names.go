package ir

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NameKey returns the matching key of an element name: NFC-normalized and
// Unicode case-folded, so "Note", "NOTE" and "note" share one key.
func NameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

// SameName reports whether two element names match case-insensitively.
func SameName(a, b string) bool {
	return NameKey(a) == NameKey(b)
}
