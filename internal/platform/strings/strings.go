// Package strings provides string helpers shared across packages
package strings

import (
	std "strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// FoldEmail is the lookup key for an email address: trimmed and Unicode case folded
// so "Ünïcode@Example.COM" and "ünïcode@example.com" resolve to the same account
func FoldEmail(email string) string {
	return folder.String(std.TrimSpace(email))
}

// MustPrefix normalizes a root path like /api or /v1
// ensures a single leading slash and no trailing slash; panics on empty input
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// SQLNull returns nil if s is blank, else s; for nullable query args
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Deref returns "" if ps is nil, else *ps
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}
