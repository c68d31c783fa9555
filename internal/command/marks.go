package command

import (
	"regexp"
	"strconv"
)

// marksMatcher is one phrase pattern together with its capture-group
// orientation. Most patterns put the question number first; the
// "M marks in question N" family inverts the groups.
type marksMatcher struct {
	re       *regexp.Regexp
	inverted bool // group 1 is the score, group 2 the question number
}

// marksMatchers are tried in order over the whole transcript. A span claimed
// by an earlier matcher is not reattempted by later ones; within the scan a
// later match for the same question number overwrites the earlier score.
var marksMatchers = []marksMatcher{
	// "question 1, 8 marks" (comma separator, common in dictation)
	{re: regexp.MustCompile(`question\s*(\d+)\s*,\s*(\d+)\s*marks?`)},
	// "question 1 8 marks" or "question 1 - 8 marks"
	{re: regexp.MustCompile(`question\s*(\d+)[\s\-–—]*(\d+)\s*mark`)},
	// "question 1 8" or "question 1-8"
	{re: regexp.MustCompile(`question\s*(\d+)[\s\-–—]+(\d+)`)},
	// "q1 8 marks" or "q1-8 marks"
	{re: regexp.MustCompile(`q(\d+)[\s\-–—]+(\d+)\s*mark`)},
	// "q1 8" or "q1-8"
	{re: regexp.MustCompile(`q(\d+)[\s\-–—]+(\d+)`)},
	// "8 marks in question 1"
	{re: regexp.MustCompile(`(\d+)\s*marks?\s+in\s+question\s+(\d+)`), inverted: true},
	// "scored ... 8 marks in question 1"
	{re: regexp.MustCompile(`scored[\s\w]*?(\d+)\s*marks?\s+in\s+question\s+(\d+)`), inverted: true},
}

// flexibleRe is the looser last-resort pattern, applied only when every
// primary matcher came up empty: any number eventually followed by
// "question N", read as (score, question number).
var flexibleRe = regexp.MustCompile(`(\d+)[\s\w]*?question\s*(\d+)`)

// ExtractMarks finds all (question number, score) pairs in a normalised
// transcript. Pairs outside question range 1..8 or score range 0..10 are
// discarded. The returned set may be partial or empty; emptiness signals
// extraction failure to the caller.
func ExtractMarks(text string) MarksSet {
	marks := make(MarksSet)

	// Spans already consumed by an earlier matcher, as [start, end) pairs.
	var claimed [][2]int
	overlaps := func(start, end int) bool {
		for _, span := range claimed {
			if start < span[1] && end > span[0] {
				return true
			}
		}
		return false
	}

	for _, m := range marksMatchers {
		for _, idx := range m.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[0], idx[1]
			if overlaps(start, end) {
				continue
			}
			question, score := captured(text, idx, m.inverted)
			if question < 1 || question > 8 || score < 0 || score > 10 {
				continue
			}
			claimed = append(claimed, [2]int{start, end})
			marks[question] = score
		}
	}

	if len(marks) == 0 {
		for _, idx := range flexibleRe.FindAllStringSubmatchIndex(text, -1) {
			question, score := captured(text, idx, true)
			if question < 1 || question > 8 || score < 0 || score > 10 {
				continue
			}
			marks[question] = score
		}
	}

	return marks
}

// captured reads the two numeric capture groups from a submatch index slice,
// honouring the matcher's orientation.
func captured(text string, idx []int, inverted bool) (question, score int) {
	g1, _ := strconv.Atoi(text[idx[2]:idx[3]])
	g2, _ := strconv.Atoi(text[idx[4]:idx[5]])
	if inverted {
		return g2, g1
	}
	return g1, g2
}
