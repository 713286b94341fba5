// internal/core/usecases/extractor.go
package usecases

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// candidate matcher, deliberately permissive; candidates are then cleaned
	// and validated by NormalizeEmail
	emailCandidate = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

	// local-part@label(.label)+ on lower-cased input
	emailGrammar = regexp.MustCompile(`^[a-z0-9_+-]+(\.[a-z0-9_+-]+)*@[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*\.[a-z]{2,}$`)
)

// RegexExtractor finds email addresses in description text. Addresses are
// returned lower-cased, deduplicated and sorted.
type RegexExtractor struct{}

// NewExtractor creates the extractor.
func NewExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract returns the distinct addresses found in text. It never returns nil.
func (e *RegexExtractor) Extract(text string) []string {
	found := make([]string, 0)
	if text == "" {
		return found
	}

	seen := make(map[string]struct{})
	for _, candidate := range emailCandidate.FindAllString(text, -1) {
		email := NormalizeEmail(candidate)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		found = append(found, email)
	}

	sort.Strings(found)
	return found
}

// NormalizeEmail lower-cases an address and strips the punctuation a
// sentence leaves around it ("write to x@y.com."). It returns "" when the
// result is not a valid address.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.Trim(strings.TrimSpace(raw), ".-"))
	if !emailGrammar.MatchString(email) {
		return ""
	}
	return email
}
