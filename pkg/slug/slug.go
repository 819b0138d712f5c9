// Package slug builds stable URL slugs for locations.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

const maxBaseLength = 80

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
	dashes     = regexp.MustCompile(`-+`)
)

// Generate derives a slug from the name and address and suffixes it with the id,
// e.g. ("McDonald's", "1 Strand, London", 7) -> "mcdonalds-1-strand-london-7".
func Generate(name, address string, id int64) string {
	base := Normalize(strings.TrimSpace(name + " " + address))
	suffix := strconv.FormatInt(id, 10)
	if base == "" {
		return "location-" + suffix
	}
	return base + "-" + suffix
}

// Normalize lowercases the input and reduces it to dash separated [a-z0-9] runs
func Normalize(value string) string {
	s := strings.ToLower(value)
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	if len(s) > maxBaseLength {
		s = s[:maxBaseLength]
	}
	return strings.Trim(s, "-")
}
