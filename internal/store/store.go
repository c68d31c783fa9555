// Package store defines the persistence contracts for the student roster and
// the attendance / internal-assessment records, together with a
// PostgreSQL-backed implementation and an in-memory implementation for tests
// and DSN-less runs.
//
// Writes are idempotent insert-or-replace operations keyed by
// (student, date) for attendance and (student, assessment) for marks, so a
// teacher re-dictating a command simply corrects the earlier record.
package store

import (
	"context"

	"github.com/K-ALOHA/voxregister/internal/roster"
)

// Status is an attendance status. The store only accepts the two canonical
// values below.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// IsValid reports whether s is a recognised attendance status.
func (s Status) IsValid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// IAType identifies one of the two internal-assessment events per student.
type IAType string

const (
	IA1 IAType = "IA1"
	IA2 IAType = "IA2"
)

// IsValid reports whether t is a recognised assessment type.
func (t IAType) IsValid() bool {
	return t == IA1 || t == IA2
}

// AttendanceRow is one attendance record joined with its student, as returned
// by per-date listings. Date uses the ISO form "2006-01-02".
type AttendanceRow struct {
	USN    string
	Name   string
	Date   string
	Status Status
}

// MarksRow is one assessment record joined with its student. Questions maps
// question number (1..8) to the recorded score; unanswered questions are
// absent from the map.
type MarksRow struct {
	USN       string
	Name      string
	Questions map[int]int
	Total     int
}

// RosterStore is the read/write contract for the student roster.
type RosterStore interface {
	// ListStudents returns a point-in-time snapshot of the full roster.
	ListStudents(ctx context.Context) ([]roster.Student, error)

	// FindStudent returns the student with the given store ID, or (nil, nil)
	// when no such student exists.
	FindStudent(ctx context.Context, id int64) (*roster.Student, error)

	// ReplaceStudents atomically replaces the entire roster. Existing
	// attendance and marks records for removed students are deleted with
	// them.
	ReplaceStudents(ctx context.Context, students []roster.Student) error

	// CountStudents returns the roster size.
	CountStudents(ctx context.Context) (int, error)
}

// RecordStore is the write/read contract for attendance and assessment
// records.
type RecordStore interface {
	// UpsertAttendance records status for the student on the given ISO date,
	// replacing any earlier record for the same (student, date).
	UpsertAttendance(ctx context.Context, studentID int64, date string, status Status) error

	// UpsertMarks records the per-question scores and total for the
	// student's assessment, replacing any earlier record for the same
	// (student, assessment). marks maps question number (1..8) to score.
	UpsertMarks(ctx context.Context, studentID int64, ia IAType, marks map[int]int, total int) error

	// AttendanceByDate lists all attendance records for the given ISO date,
	// ordered by roll-number.
	AttendanceByDate(ctx context.Context, date string) ([]AttendanceRow, error)

	// ListAttendance lists every attendance record, ordered by date then
	// roll-number. Used by report export.
	ListAttendance(ctx context.Context) ([]AttendanceRow, error)

	// MarksByIA lists all records for the given assessment, ordered by
	// roll-number.
	MarksByIA(ctx context.Context, ia IAType) ([]MarksRow, error)

	// CountAttendance returns the total number of attendance records.
	CountAttendance(ctx context.Context) (int, error)

	// CountMarks returns the total number of assessment records.
	CountMarks(ctx context.Context) (int, error)
}

// Store combines the roster and record contracts with lifecycle methods.
type Store interface {
	RosterStore
	RecordStore

	// Ping verifies the backing storage is reachable. Used by readiness
	// checks.
	Ping(ctx context.Context) error

	// Close releases the backing storage resources.
	Close()
}
