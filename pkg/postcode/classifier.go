// Package postcode classifies search text against UK postcode shapes.
package postcode

import (
	"regexp"
	"strings"
)

// Kind is the classification of a search string
type Kind int

const (
	// FreeText is anything that is not postcode shaped
	FreeText Kind = iota
	// Partial is an outward code on its own (e.g. BR3, SW1)
	Partial
	// Full is a complete postcode (e.g. BR3 5UF)
	Full
)

var (
	fullPattern    = regexp.MustCompile(`^[A-Za-z]{1,2}[0-9]{1,2}[A-Za-z]?\s?[0-9][A-Za-z]{2}$`)
	partialPattern = regexp.MustCompile(`^[A-Za-z]{1,2}[0-9]{1,2}$`)
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case Full:
		return "full_postcode"
	case Partial:
		return "partial_postcode"
	default:
		return "free_text"
	}
}

// Classify reports whether text is a full postcode, an outward code or free text.
// Surrounding whitespace is ignored.
func Classify(text string) Kind {
	trimmed := strings.TrimSpace(text)
	switch {
	case partialPattern.MatchString(trimmed):
		return Partial
	case fullPattern.MatchString(trimmed):
		return Full
	default:
		return FreeText
	}
}
