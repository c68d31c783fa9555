// Package command implements the voice-command interpretation core: it turns
// a dictated (or typed) utterance into a persisted attendance or
// internal-assessment record.
//
// The pipeline runs a fixed sequence per command: normalise the transcript,
// extract a student identifier, resolve it against the roster, extract the
// command payload (attendance status or per-question marks), validate, and
// persist. Every failure is terminal for that one command and reported as a
// typed Outcome — the caller decides whether to re-prompt the teacher.
package command

import "fmt"

// FailureKind classifies why a command was rejected. Empty on success.
type FailureKind string

const (
	FailureTranscription      FailureKind = "transcription_failed"
	FailureIdentifierNotFound FailureKind = "identifier_not_found"
	FailureStudentNotFound    FailureKind = "student_not_found"
	FailureStatusNotFound     FailureKind = "status_not_found"
	FailureMarksNotFound      FailureKind = "marks_not_found"
	FailureInvalidCombination FailureKind = "invalid_question_combination"
	FailureMarksExceedMaximum FailureKind = "marks_exceed_maximum"
	FailureStore              FailureKind = "store_error"
)

// Outcome is the result of one command invocation. Message is always suitable
// for direct display to the teacher.
type Outcome struct {
	Success bool        `json:"success"`
	Kind    FailureKind `json:"kind,omitempty"`
	Message string      `json:"message"`
}

// MarksSet maps question number (1..8) to the recorded score (0..10).
type MarksSet map[int]int

// Total returns the sum of all recorded scores.
func (m MarksSet) Total() int {
	var total int
	for _, score := range m {
		total += score
	}
	return total
}

// Options carries per-invocation interpretation settings. A zero Options is
// valid: no prefix expansion is applied.
//
// USNPrefix is deliberately per-call rather than pipeline-wide state so that
// concurrent sessions with different class prefixes never observe each
// other's value.
type Options struct {
	// USNPrefix is the common roll-number prefix used to expand short
	// dictated codes ("usn 24" with prefix "1GA23CI0" becomes "1GA23CI024").
	USNPrefix string
}

func success(format string, args ...any) Outcome {
	return Outcome{Success: true, Message: fmt.Sprintf(format, args...)}
}

func failure(kind FailureKind, format string, args ...any) Outcome {
	return Outcome{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
