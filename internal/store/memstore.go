package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/K-ALOHA/voxregister/internal/roster"
)

// MemStore is an in-memory [Store]. It backs tests and DSN-less demo runs;
// all records are lost when the process exits.
//
// All methods are safe for concurrent use.
type MemStore struct {
	mu         sync.RWMutex
	nextID     int64
	students   map[int64]roster.Student
	attendance map[attendanceKey]Status
	marks      map[marksKey]marksValue
}

type attendanceKey struct {
	studentID int64
	date      string
}

type marksKey struct {
	studentID int64
	ia        IAType
}

type marksValue struct {
	questions map[int]int
	total     int
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID:     1,
		students:   make(map[int64]roster.Student),
		attendance: make(map[attendanceKey]Status),
		marks:      make(map[marksKey]marksValue),
	}
}

// ListStudents returns the roster ordered by roll-number.
func (m *MemStore) ListStudents(_ context.Context) ([]roster.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]roster.Student, 0, len(m.students))
	for _, st := range m.students {
		students = append(students, st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].USN < students[j].USN })
	return students, nil
}

// FindStudent returns the student with the given ID, or (nil, nil) when no
// such student exists.
func (m *MemStore) FindStudent(_ context.Context, id int64) (*roster.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// ReplaceStudents replaces the roster and drops all existing records, the
// in-memory equivalent of the Postgres cascade.
func (m *MemStore) ReplaceStudents(_ context.Context, students []roster.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{}, len(students))
	for _, st := range students {
		if _, dup := seen[st.USN]; dup {
			return fmt.Errorf("store: replace students: duplicate usn %q", st.USN)
		}
		seen[st.USN] = struct{}{}
	}

	m.students = make(map[int64]roster.Student, len(students))
	m.attendance = make(map[attendanceKey]Status)
	m.marks = make(map[marksKey]marksValue)
	for _, st := range students {
		st.ID = m.nextID
		m.nextID++
		m.students[st.ID] = st
	}
	return nil
}

// CountStudents returns the roster size.
func (m *MemStore) CountStudents(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// UpsertAttendance records status for (studentID, date).
func (m *MemStore) UpsertAttendance(_ context.Context, studentID int64, date string, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("store: invalid attendance status %q", status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[studentID]; !ok {
		return fmt.Errorf("store: upsert attendance: unknown student %d", studentID)
	}
	m.attendance[attendanceKey{studentID, date}] = status
	return nil
}

// UpsertMarks records the per-question scores and total for (studentID, ia).
func (m *MemStore) UpsertMarks(_ context.Context, studentID int64, ia IAType, marks map[int]int, total int) error {
	if !ia.IsValid() {
		return fmt.Errorf("store: invalid assessment type %q", ia)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[studentID]; !ok {
		return fmt.Errorf("store: upsert marks: unknown student %d", studentID)
	}
	questions := make(map[int]int, len(marks))
	for q, score := range marks {
		questions[q] = score
	}
	m.marks[marksKey{studentID, ia}] = marksValue{questions: questions, total: total}
	return nil
}

// AttendanceByDate lists attendance for the given ISO date ordered by
// roll-number.
func (m *MemStore) AttendanceByDate(_ context.Context, date string) ([]AttendanceRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AttendanceRow
	for key, status := range m.attendance {
		if key.date != date {
			continue
		}
		st := m.students[key.studentID]
		out = append(out, AttendanceRow{USN: st.USN, Name: st.Name, Date: date, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].USN < out[j].USN })
	return out, nil
}

// ListAttendance lists every attendance record ordered by date then
// roll-number.
func (m *MemStore) ListAttendance(_ context.Context) ([]AttendanceRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AttendanceRow
	for key, status := range m.attendance {
		st := m.students[key.studentID]
		out = append(out, AttendanceRow{USN: st.USN, Name: st.Name, Date: key.date, Status: status})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].USN < out[j].USN
	})
	return out, nil
}

// MarksByIA lists all records for the given assessment ordered by
// roll-number.
func (m *MemStore) MarksByIA(_ context.Context, ia IAType) ([]MarksRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []MarksRow
	for key, val := range m.marks {
		if key.ia != ia {
			continue
		}
		st := m.students[key.studentID]
		questions := make(map[int]int, len(val.questions))
		for q, score := range val.questions {
			questions[q] = score
		}
		out = append(out, MarksRow{USN: st.USN, Name: st.Name, Questions: questions, Total: val.total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].USN < out[j].USN })
	return out, nil
}

// CountAttendance returns the total number of attendance records.
func (m *MemStore) CountAttendance(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attendance), nil
}

// CountMarks returns the total number of assessment records.
func (m *MemStore) CountMarks(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.marks), nil
}

// Ping always succeeds for the in-memory store.
func (m *MemStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() {}
