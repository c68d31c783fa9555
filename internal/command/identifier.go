package command

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// noiseWords are filler tokens stripped from captured name spans.
var noiseWords = map[string]struct{}{
	"i": {}, "scored": {}, "as": {}, "a": {}, "the": {},
	"has": {}, "have": {}, "had": {},
}

// controlKeywords terminate the fallback name scan: everything from the first
// keyword onward belongs to the command payload, not the identifier.
var controlKeywords = map[string]struct{}{
	"is": {}, "has": {}, "have": {}, "scored": {}, "marks": {}, "mark": {},
	"ia1": {}, "ia2": {}, "question": {}, "i": {},
}

var (
	usnRe        = regexp.MustCompile(`usn\s+(\w+)`)
	shortCodeRe  = regexp.MustCompile(`^(\d{2,3})\s+(is|has|scored)`)
	nameStatusRe = regexp.MustCompile(`^([\w\s]+?)\s+is\s+(present|absent)`)

	// Name before a scoring verb or an assessment token, tried in order.
	nameVerbRes = []*regexp.Regexp{
		regexp.MustCompile(`^([\w\s]+?)\s+(?:has\s+)?scored`),
		regexp.MustCompile(`^([\w\s]+?)\s+has\s+`),
		regexp.MustCompile(`^([\w\s]+?)\s+ia[12]`),
	}
)

// ExpandUSN maps a short dictated numeric code to a full roll-number using
// the configured common prefix. A prefix authored with a trailing zero
// placeholder for 2-digit codes drops that zero when the dictated code is
// naturally 3 digits, to avoid a duplicated zero:
//
//	ExpandUSN("1GA23CI0", "24")  == "1GA23CI024"
//	ExpandUSN("1GA23CI0", "106") == "1GA23CI106"
//	ExpandUSN("1GA23CI", "106")  == "1GA23CI106"
func ExpandUSN(prefix, digits string) string {
	if prefix == "" {
		return digits
	}
	if strings.HasSuffix(prefix, "0") && len(digits) == 3 {
		return prefix[:len(prefix)-1] + digits
	}
	return prefix + digits
}

// ExtractIdentifier finds the student identifier (roll-number or name
// fragment) in a normalised transcript. Rules are tried in a fixed order and
// the first hit wins:
//
//  1. the token after the literal word "usn", prefix-expanded when it is a
//     short numeric code,
//  2. a bare 2-3 digit code at the start of the utterance followed by a
//     copula, when a prefix is configured,
//  3. a name span before "is present" / "is absent",
//  4. a name span before a scoring verb or "ia1"/"ia2",
//  5. leading tokens up to the first control keyword.
//
// Returns ("", false) when no rule yields a non-empty identifier.
func ExtractIdentifier(text, prefix string) (string, bool) {
	if m := usnRe.FindStringSubmatch(text); m != nil {
		token := m[1]
		if allDigits(token) && len(token) >= 2 && len(token) <= 3 && prefix != "" {
			return ExpandUSN(prefix, token), true
		}
		return token, true
	}

	if prefix != "" {
		if m := shortCodeRe.FindStringSubmatch(text); m != nil {
			return ExpandUSN(prefix, m[1]), true
		}
	}

	if m := nameStatusRe.FindStringSubmatch(text); m != nil {
		if name := stripNoise(m[1]); name != "" {
			return name, true
		}
		return strings.TrimSpace(m[1]), true
	}

	for _, re := range nameVerbRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if name := stripNoise(m[1]); name != "" {
			return name, true
		}
		return strings.TrimSpace(m[1]), true
	}

	// Fallback: leading name-like tokens before the first control keyword.
	var parts []string
	for _, word := range strings.Fields(text) {
		if _, stop := controlKeywords[word]; stop {
			break
		}
		if _, noise := noiseWords[word]; noise {
			continue
		}
		if utf8.RuneCountInString(word) <= 1 || allDigits(word) {
			continue
		}
		parts = append(parts, word)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " "), true
	}

	return "", false
}

// stripNoise drops noise words from a captured name span and rejoins the
// remainder.
func stripNoise(span string) string {
	var parts []string
	for _, word := range strings.Fields(span) {
		if _, noise := noiseWords[word]; noise {
			continue
		}
		parts = append(parts, word)
	}
	return strings.Join(parts, " ")
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
