package store

import (
	"context"
	"testing"

	"github.com/K-ALOHA/voxregister/internal/roster"
)

func seedStudents(t *testing.T, m *MemStore) []roster.Student {
	t.Helper()

	err := m.ReplaceStudents(context.Background(), []roster.Student{
		{USN: "1GA23CI024", Name: "Aloha Smith"},
		{USN: "1GA23CI025", Name: "Bob Johnson"},
	})
	if err != nil {
		t.Fatalf("ReplaceStudents: %v", err)
	}
	students, err := m.ListStudents(context.Background())
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	return students
}

func TestMemStore_ReplaceAndList(t *testing.T) {
	t.Parallel()

	m := NewMemStore()
	students := seedStudents(t, m)

	if len(students) != 2 {
		t.Fatalf("got %d students, want 2", len(students))
	}
	if students[0].USN != "1GA23CI024" {
		t.Errorf("students not ordered by usn: first is %q", students[0].USN)
	}

	n, err := m.CountStudents(context.Background())
	if err != nil {
		t.Fatalf("CountStudents: %v", err)
	}
	if n != 2 {
		t.Errorf("CountStudents = %d, want 2", n)
	}
}

func TestMemStore_ReplaceRejectsDuplicateUSN(t *testing.T) {
	t.Parallel()

	m := NewMemStore()
	err := m.ReplaceStudents(context.Background(), []roster.Student{
		{USN: "1GA23CI024", Name: "Aloha Smith"},
		{USN: "1GA23CI024", Name: "Impostor"},
	})
	if err == nil {
		t.Fatal("expected duplicate usn to be rejected")
	}
}

func TestMemStore_FindStudent(t *testing.T) {
	t.Parallel()

	m := NewMemStore()
	students := seedStudents(t, m)

	st, err := m.FindStudent(context.Background(), students[0].ID)
	if err != nil {
		t.Fatalf("FindStudent: %v", err)
	}
	if st == nil || st.Name != "Aloha Smith" {
		t.Errorf("FindStudent = %+v, want Aloha Smith", st)
	}

	missing, err := m.FindStudent(context.Background(), 9999)
	if err != nil {
		t.Fatalf("FindStudent(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing student, got %+v", missing)
	}
}

func TestMemStore_AttendanceUpsertReplaces(t *testing.T) {
	t.Parallel()

	m := NewMemStore()
	students := seedStudents(t, m)
	ctx := context.Background()

	if err := m.UpsertAttendance(ctx, students[0].ID, "2026-08-31", StatusAbsent); err != nil {
		t.Fatalf("UpsertAttendance: %v", err)
	}
	// Re-dictation corrects the earlier record.
	if err := m.UpsertAttendance(ctx, students[0].ID, "2026-08-31", StatusPresent); err != nil {
		t.Fatalf("UpsertAttendance: %v", err)
	}

	rows, err := m.AttendanceByDate(ctx, "2026-08-31")
	if err != nil {
		t.Fatalf("AttendanceByDate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Status != StatusPresent {
		t.Errorf("status = %q, want %q", rows[0].Status, StatusPresent)
	}

	n, _ := m.CountAttendance(ctx)
	if n != 1 {
		t.Errorf("CountAttendance = %d, want 1", n)
	}
}

func TestMemStore_AttendanceRejectsInvalidStatus(t *testing.T) {
	t.Parallel()

	m := NewMemStore()
	students := seedStudents(t, m)

	if err := m.UpsertAttendance(context.Background(), students[0].ID, "2026-08-31", "Late"); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
}

func TestMemStore_MarksUpsertAndList(t *testing.T) {
	t.Parallel()

	m := NewMemStore()
	students := seedStudents(t, m)
	ctx := context.Background()

	marks := map[int]int{1: 8, 3: 7, 6: 9, 8: 8}
	if err := m.UpsertMarks(ctx, students[0].ID, IA1, marks, 32); err != nil {
		t.Fatalf("UpsertMarks: %v", err)
	}

	rows, err := m.MarksByIA(ctx, IA1)
	if err != nil {
		t.Fatalf("MarksByIA: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Total != 32 {
		t.Errorf("total = %d, want 32", rows[0].Total)
	}
	if rows[0].Questions[3] != 7 {
		t.Errorf("q3 = %d, want 7", rows[0].Questions[3])
	}
	if _, ok := rows[0].Questions[2]; ok {
		t.Error("q2 should be absent")
	}

	// The caller's map must not alias the stored one.
	marks[1] = 0
	rows, _ = m.MarksByIA(ctx, IA1)
	if rows[0].Questions[1] != 8 {
		t.Errorf("stored marks mutated through caller map: q1 = %d", rows[0].Questions[1])
	}
}

func TestMemStore_ReplaceDropsRecords(t *testing.T) {
	t.Parallel()

	m := NewMemStore()
	students := seedStudents(t, m)
	ctx := context.Background()

	if err := m.UpsertAttendance(ctx, students[0].ID, "2026-08-31", StatusPresent); err != nil {
		t.Fatalf("UpsertAttendance: %v", err)
	}
	seedStudents(t, m)

	n, _ := m.CountAttendance(ctx)
	if n != 0 {
		t.Errorf("CountAttendance after roster replace = %d, want 0", n)
	}
}
