// Package classify decides whether a resolved redirect target is a reward
// link. A target matches only when every required pattern appears in the
// final URL, checked against both the raw form and a percent-decoded copy so
// encoded query parameters still count.
package classify

import (
	"net/url"
	"strings"
)

// DefaultCategory labels a match whose URL names none of the known types.
const DefaultCategory = "Other"

// Classifier holds the required pattern set and the ordered category labels.
// Both lists are fixed at construction; classification is pure.
type Classifier struct {
	patterns   []string
	categories []string
}

// Verdict is the outcome of classifying one resolved URL.
type Verdict struct {
	AllFound bool
	Found    []string
	Missing  []string
	Category string
}

// New builds a classifier. Pattern order is preserved in Found/Missing;
// category order decides which label wins when a URL names several.
func New(patterns, categories []string) *Classifier {
	return &Classifier{patterns: patterns, categories: categories}
}

// Classify checks every required pattern against the raw and decoded forms
// of finalURL. The verdict's Category is only meaningful when AllFound.
func (c *Classifier) Classify(finalURL string) Verdict {
	decoded := Decode(finalURL)
	v := Verdict{AllFound: true}
	for _, p := range c.patterns {
		if strings.Contains(finalURL, p) || strings.Contains(decoded, p) {
			v.Found = append(v.Found, p)
			continue
		}
		v.AllFound = false
		v.Missing = append(v.Missing, p)
	}
	v.Category = c.Category(decoded)
	return v
}

// Category returns the first known label contained (case-insensitively) in
// the URL, or DefaultCategory when none is.
func (c *Classifier) Category(finalURL string) string {
	lower := strings.ToLower(finalURL)
	for _, label := range c.categories {
		if strings.Contains(lower, strings.ToLower(label)) {
			return label
		}
	}
	return DefaultCategory
}

// Patterns returns the required pattern list in order.
func (c *Classifier) Patterns() []string {
	return c.patterns
}

// Decode percent-decodes a URL once for pattern search. Malformed escapes
// leave the input unchanged rather than failing; pattern search on the raw
// form still applies in that case.
func Decode(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
