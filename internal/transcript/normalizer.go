// Package transcript normalises raw speech-to-text output before command
// parsing.
//
// Raw dictation is rarely clean: casing and surrounding whitespace vary, and
// Whisper-style engines tend to merge a spoken single-digit question number
// and a single-digit score into one two-digit numeral ("question one, eight
// marks" becomes "question 18"). [Normalize] lowercases and trims the text
// and rewrites such merged numerals back into separate question number and
// score so the marks extractor sees what the teacher actually said.
//
// All functions are pure; the package holds no state.
package transcript

import (
	"regexp"
	"strings"
)

// Merged two-digit numeral after "question", with and without a trailing
// "mark"/"marks". The marked form is tried first so the rewrite keeps the
// word the teacher spoke.
var (
	mergedWithMarks = regexp.MustCompile(`question\s*(\d{2})\s*marks?`)
	mergedBare      = regexp.MustCompile(`question\s*(\d{2})(\D|$)`)
)

// Normalize lowercases and trims raw and applies the digit-merge correction.
// It must run before any marks extraction.
func Normalize(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	return splitMergedDigits(text)
}

// splitMergedDigits rewrites "question 18 [marks]" as "question 1 8 marks"
// when the implied question number is 1..8 and the implied score is 0..10.
// Numerals outside those ranges are left untouched — "question 91" is more
// likely a genuine mis-dictation than a merged pair.
func splitMergedDigits(text string) string {
	text = mergedWithMarks.ReplaceAllStringFunc(text, func(m string) string {
		return rewriteMerged(mergedWithMarks, m, "")
	})
	text = mergedBare.ReplaceAllStringFunc(text, func(m string) string {
		rest := mergedBare.FindStringSubmatch(m)[2]
		return rewriteMerged(mergedBare, m, rest)
	})
	return text
}

// rewriteMerged splits the two-digit capture of re inside match into
// "question <d1> <d2> marks" + suffix, or returns match unchanged when the
// digits are out of range.
func rewriteMerged(re *regexp.Regexp, match, suffix string) string {
	sub := re.FindStringSubmatch(match)
	digits := sub[1]
	d1 := int(digits[0] - '0')
	d2 := int(digits[1] - '0')
	if d1 < 1 || d1 > 8 || d2 < 0 || d2 > 10 {
		return match
	}
	var b strings.Builder
	b.WriteString("question ")
	b.WriteByte(digits[0])
	b.WriteByte(' ')
	b.WriteByte(digits[1])
	b.WriteString(" marks")
	b.WriteString(suffix)
	return b.String()
}
