package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/K-ALOHA/voxregister/internal/observe"
	"github.com/K-ALOHA/voxregister/internal/roster"
	"github.com/K-ALOHA/voxregister/internal/store"
	"github.com/K-ALOHA/voxregister/internal/transcript"
	"github.com/K-ALOHA/voxregister/pkg/provider/stt"
)

const defaultTranscribeTimeout = 30 * time.Second

// Pipeline orchestrates command interpretation end to end. Construct with
// New; all methods are safe for concurrent use.
type Pipeline struct {
	store       store.Store
	matcher     *roster.Matcher
	transcriber stt.Transcriber
	timeout     time.Duration
	metrics     *observe.Metrics
	log         *slog.Logger
}

// PipelineOption is a functional option for configuring a Pipeline.
type PipelineOption func(*Pipeline)

// WithTranscriber attaches a speech-to-text engine. Without one, audio
// commands fail with FailureTranscription while text commands keep working.
func WithTranscriber(t stt.Transcriber) PipelineOption {
	return func(p *Pipeline) { p.transcriber = t }
}

// WithMatcher replaces the default roster matcher.
func WithMatcher(m *roster.Matcher) PipelineOption {
	return func(p *Pipeline) { p.matcher = m }
}

// WithTranscribeTimeout bounds how long one transcription call may take.
// Defaults to 30 s.
func WithTranscribeTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.timeout = d }
}

// WithMetrics replaces the default metrics instance.
func WithMetrics(m *observe.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// New creates a Pipeline persisting to st.
func New(st store.Store, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:   st,
		matcher: roster.NewMatcher(),
		timeout: defaultTranscribeTimeout,
		metrics: observe.DefaultMetrics(),
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessAttendance interprets one attendance utterance and records the
// status for the given ISO date.
func (p *Pipeline) ProcessAttendance(ctx context.Context, text, date string, opts Options) Outcome {
	ctx, span := observe.StartSpan(ctx, "command.attendance")
	defer span.End()

	text = transcript.Normalize(text)

	identifier, ok := ExtractIdentifier(text, opts.USNPrefix)
	if !ok {
		return failure(FailureIdentifierNotFound, "Could not identify student from command")
	}

	student, out := p.matchStudent(ctx, identifier)
	if out != nil {
		return *out
	}

	status, ok := extractStatus(text)
	if !ok {
		return failure(FailureStatusNotFound, "Could not determine attendance status (Present/Absent)")
	}

	if err := p.store.UpsertAttendance(ctx, student.ID, date, status); err != nil {
		p.log.Error("attendance upsert failed", "student", student.USN, "error", err)
		return failure(FailureStore, "%v", err)
	}

	p.log.Info("attendance recorded", "student", student.USN, "date", date, "status", status)
	return success("%s (%s) marked %s for %s", student.Name, student.USN, status, date)
}

// ProcessMarks interprets one marks utterance and records the scores for the
// given assessment.
func (p *Pipeline) ProcessMarks(ctx context.Context, text string, ia store.IAType, opts Options) Outcome {
	ctx, span := observe.StartSpan(ctx, "command.marks")
	defer span.End()

	text = transcript.Normalize(text)

	identifier, ok := ExtractIdentifier(text, opts.USNPrefix)
	if !ok {
		return failure(FailureIdentifierNotFound, "Could not identify student from command")
	}

	student, out := p.matchStudent(ctx, identifier)
	if out != nil {
		return *out
	}

	marks := ExtractMarks(text)
	if len(marks) == 0 {
		return failure(FailureMarksNotFound, "Could not extract marks from command")
	}

	total := marks.Total()
	if total > MaxTotal {
		return failure(FailureMarksExceedMaximum, "Total marks (%d) exceeds maximum (%d)", total, MaxTotal)
	}
	if err := ValidateQuestionCombination(marks); err != nil {
		return failure(FailureInvalidCombination, "Invalid question combination: %v", err)
	}

	if err := p.store.UpsertMarks(ctx, student.ID, ia, marks, total); err != nil {
		p.log.Error("marks upsert failed", "student", student.USN, "ia", ia, "error", err)
		return failure(FailureStore, "%v", err)
	}

	p.log.Info("marks recorded", "student", student.USN, "ia", ia, "total", total)
	return success("%s (%s) - %s: %s, Total: %d/%d",
		student.Name, student.USN, ia, formatMarks(marks), total, MaxTotal)
}

// ProcessAttendanceAudio transcribes audio and feeds the text through
// ProcessAttendance.
func (p *Pipeline) ProcessAttendanceAudio(ctx context.Context, audio []byte, date string, opts Options) Outcome {
	text, out := p.transcribe(ctx, audio)
	if out != nil {
		return *out
	}
	return p.ProcessAttendance(ctx, text, date, opts)
}

// ProcessMarksAudio transcribes audio and feeds the text through
// ProcessMarks.
func (p *Pipeline) ProcessMarksAudio(ctx context.Context, audio []byte, ia store.IAType, opts Options) Outcome {
	text, out := p.transcribe(ctx, audio)
	if out != nil {
		return *out
	}
	return p.ProcessMarks(ctx, text, ia, opts)
}

// matchStudent resolves an extracted identifier against a point-in-time
// roster snapshot. The non-nil Outcome return carries the failure.
func (p *Pipeline) matchStudent(ctx context.Context, identifier string) (roster.Student, *Outcome) {
	students, err := p.store.ListStudents(ctx)
	if err != nil {
		p.log.Error("roster snapshot failed", "error", err)
		out := failure(FailureStore, "%v", err)
		return roster.Student{}, &out
	}

	student, ok := p.matcher.Match(identifier, students)
	if !ok {
		out := failure(FailureStudentNotFound, "Student %q not found in roster", identifier)
		return roster.Student{}, &out
	}
	return student, nil
}

// transcribe runs the speech-to-text engine with a bounded deadline. The
// non-nil Outcome return carries the failure.
func (p *Pipeline) transcribe(ctx context.Context, audio []byte) (string, *Outcome) {
	if p.transcriber == nil {
		out := failure(FailureTranscription, "No transcription engine configured; use text input")
		return "", &out
	}

	ctx, span := observe.StartSpan(ctx, "stt.transcribe")
	defer span.End()

	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.transcriber.Transcribe(tctx, audio)
	elapsed := time.Since(start)
	if err != nil {
		p.metrics.RecordTranscription(ctx, "error", elapsed)
		p.log.Error("transcription failed", "error", err, "elapsed", elapsed)
		out := failure(FailureTranscription, "Failed to transcribe audio")
		return "", &out
	}
	if strings.TrimSpace(text) == "" {
		p.metrics.RecordTranscription(ctx, "empty", elapsed)
		out := failure(FailureTranscription, "Failed to transcribe audio")
		return "", &out
	}

	p.metrics.RecordTranscription(ctx, "ok", elapsed)
	p.log.Debug("transcription complete", "elapsed", elapsed, "chars", len(text))
	return text, nil
}

// extractStatus finds the attendance status literal in the transcript;
// "present" is checked before "absent".
func extractStatus(text string) (store.Status, bool) {
	switch {
	case strings.Contains(text, "present"):
		return store.StatusPresent, true
	case strings.Contains(text, "absent"):
		return store.StatusAbsent, true
	}
	return "", false
}

// formatMarks renders a marks set as "Q1=8, Q3=7, ..." in question order.
func formatMarks(marks MarksSet) string {
	questions := make([]int, 0, len(marks))
	for q := range marks {
		questions = append(questions, q)
	}
	sort.Ints(questions)

	parts := make([]string, len(questions))
	for i, q := range questions {
		parts[i] = fmt.Sprintf("Q%d=%d", q, marks[q])
	}
	return strings.Join(parts, ", ")
}
