package services

import (
	"regexp"
	"strings"
	"unicode"
)

// abusiveTerms are rejected in report descriptions, which every collector
// sees on the outstanding list. Matching is whole-word, so "grass" and
// "scrap" pass.
var abusiveTerms = []string{
	"fuck", "fucking", "shit", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "retard", "tranny",
	"porn", "nudes",
}

// maxRun is the longest run of one repeated letter or symbol a description
// may contain.
const maxRun = 4

// ContentFilter screens user-supplied report descriptions. A description
// names what is lying where; it may not carry abuse, links or contact
// details. Safe for concurrent use.
type ContentFilter struct {
	abusive *regexp.Regexp
	link    *regexp.Regexp
	email   *regexp.Regexp
	phone   *regexp.Regexp
}

func NewContentFilter() *ContentFilter {
	quoted := make([]string, len(abusiveTerms))
	for i, w := range abusiveTerms {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return &ContentFilter{
		abusive: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
		link:    regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		email:   regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`),
		// Coordinates carry a decimal point and never match.
		phone: regexp.MustCompile(`\+?\(?\d{3}\)?[-\s]?\d{3}[-\s]?\d{4}\b`),
	}
}

// Check returns ok=false and a short reason code when text is rejected.
func (f *ContentFilter) Check(text string) (bool, string) {
	if strings.TrimSpace(text) == "" {
		return true, ""
	}
	switch {
	case f.abusive.MatchString(text):
		return false, "inappropriate_language"
	case f.link.MatchString(text):
		return false, "url_not_allowed"
	case f.email.MatchString(text), f.phone.MatchString(text):
		return false, "contact_info_not_allowed"
	case longestRun(text) > maxRun:
		return false, "spam_detected"
	}
	return true, ""
}

// longestRun counts repeats of one letter or symbol, ignoring case. Digits
// and spaces never form a run, so "10000 litres" passes.
func longestRun(text string) int {
	longest, run := 0, 0
	var prev rune
	for _, r := range text {
		r = unicode.ToLower(r)
		if unicode.IsDigit(r) || unicode.IsSpace(r) {
			run, prev = 0, 0
			continue
		}
		if r == prev {
			run++
		} else {
			run, prev = 1, r
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
