// Package common holds small text helpers shared by the scraper and the
// geocoder cache.
package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CollapseSpace trims s and replaces every run of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldKey is CollapseSpace in lower case, used as a lookup key for
// free-text input.
func FoldKey(s string) string {
	return strings.ToLower(CollapseSpace(s))
}
