package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/K-ALOHA/voxregister/internal/roster"
)

// Schema is the SQL DDL for the roster and record tables. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
//
// The CHECK constraints mirror the domain rules enforced by the command
// validator, so a record that slips past application-level validation is
// still rejected here.
const Schema = `
CREATE TABLE IF NOT EXISTS students (
    id         BIGSERIAL PRIMARY KEY,
    usn        TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS attendance (
    id          BIGSERIAL PRIMARY KEY,
    student_id  BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    date        TEXT NOT NULL,
    status      TEXT NOT NULL CHECK (status IN ('Present', 'Absent')),
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (student_id, date)
);

CREATE TABLE IF NOT EXISTS ia_marks (
    id          BIGSERIAL PRIMARY KEY,
    student_id  BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    ia_type     TEXT NOT NULL CHECK (ia_type IN ('IA1', 'IA2')),
    q1_marks    INT CHECK (q1_marks BETWEEN 0 AND 10),
    q2_marks    INT CHECK (q2_marks BETWEEN 0 AND 10),
    q3_marks    INT CHECK (q3_marks BETWEEN 0 AND 10),
    q4_marks    INT CHECK (q4_marks BETWEEN 0 AND 10),
    q5_marks    INT CHECK (q5_marks BETWEEN 0 AND 10),
    q6_marks    INT CHECK (q6_marks BETWEEN 0 AND 10),
    q7_marks    INT CHECK (q7_marks BETWEEN 0 AND 10),
    q8_marks    INT CHECK (q8_marks BETWEEN 0 AND 10),
    total_marks INT NOT NULL CHECK (total_marks BETWEEN 0 AND 40),
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (student_id, ia_type)
);

CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
CREATE INDEX IF NOT EXISTS idx_ia_marks_type ON ia_marks(ia_type);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db   DB
	pool *pgxpool.Pool // nil when constructed via NewPostgresStore
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] over an existing connection or
// pool. The caller is responsible for calling [PostgresStore.Migrate] before
// issuing queries and for closing the underlying connection.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open establishes a connection pool to the PostgreSQL database at dsn,
// verifies connectivity, and runs [PostgresStore.Migrate]. The returned store
// owns the pool; call [PostgresStore.Close] when done.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	s := &PostgresStore{db: pool, pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate executes the [Schema] DDL, creating the tables and indexes if they
// do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool when the store owns one.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ListStudents returns the full roster ordered by roll-number.
func (s *PostgresStore) ListStudents(ctx context.Context) ([]roster.Student, error) {
	rows, err := s.db.Query(ctx, `SELECT id, usn, name FROM students ORDER BY usn`)
	if err != nil {
		return nil, fmt.Errorf("store: list students: %w", err)
	}
	defer rows.Close()

	var students []roster.Student
	for rows.Next() {
		var st roster.Student
		if err := rows.Scan(&st.ID, &st.USN, &st.Name); err != nil {
			return nil, fmt.Errorf("store: list students scan: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list students: %w", err)
	}
	return students, nil
}

// FindStudent returns the student with the given ID, or (nil, nil) when no
// such student exists.
func (s *PostgresStore) FindStudent(ctx context.Context, id int64) (*roster.Student, error) {
	var st roster.Student
	err := s.db.QueryRow(ctx, `SELECT id, usn, name FROM students WHERE id = $1`, id).
		Scan(&st.ID, &st.USN, &st.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: find student %d: %w", id, err)
	}
	return &st, nil
}

// ReplaceStudents atomically replaces the roster. Attendance and marks for
// removed students are cascaded away by the foreign keys. The delete and
// inserts run in one transaction, so a failure partway through leaves the
// previous roster and its records untouched.
func (s *PostgresStore) ReplaceStudents(ctx context.Context, students []roster.Student) error {
	seen := make(map[string]struct{}, len(students))
	for _, st := range students {
		if _, dup := seen[st.USN]; dup {
			return fmt.Errorf("store: replace students: duplicate usn %q", st.USN)
		}
		seen[st.USN] = struct{}{}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: replace students: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM students`); err != nil {
		return fmt.Errorf("store: replace students: clear: %w", err)
	}
	for _, st := range students {
		_, err := tx.Exec(ctx,
			`INSERT INTO students (usn, name) VALUES ($1, $2)`,
			st.USN, st.Name,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("store: replace students: duplicate usn %q", st.USN)
			}
			return fmt.Errorf("store: replace students: insert %q: %w", st.USN, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: replace students: commit: %w", err)
	}
	return nil
}

// CountStudents returns the roster size.
func (s *PostgresStore) CountStudents(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT count(*) FROM students`)
}

// UpsertAttendance records status for (studentID, date), replacing any
// earlier record.
func (s *PostgresStore) UpsertAttendance(ctx context.Context, studentID int64, date string, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("store: invalid attendance status %q", status)
	}
	const query = `
		INSERT INTO attendance (student_id, date, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			recorded_at = now()`
	if _, err := s.db.Exec(ctx, query, studentID, date, string(status)); err != nil {
		return fmt.Errorf("store: upsert attendance: %w", err)
	}
	return nil
}

// UpsertMarks records the per-question scores and total for
// (studentID, ia), replacing any earlier record.
func (s *PostgresStore) UpsertMarks(ctx context.Context, studentID int64, ia IAType, marks map[int]int, total int) error {
	if !ia.IsValid() {
		return fmt.Errorf("store: invalid assessment type %q", ia)
	}
	const query = `
		INSERT INTO ia_marks (
			student_id, ia_type,
			q1_marks, q2_marks, q3_marks, q4_marks,
			q5_marks, q6_marks, q7_marks, q8_marks,
			total_marks
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (student_id, ia_type) DO UPDATE SET
			q1_marks = EXCLUDED.q1_marks,
			q2_marks = EXCLUDED.q2_marks,
			q3_marks = EXCLUDED.q3_marks,
			q4_marks = EXCLUDED.q4_marks,
			q5_marks = EXCLUDED.q5_marks,
			q6_marks = EXCLUDED.q6_marks,
			q7_marks = EXCLUDED.q7_marks,
			q8_marks = EXCLUDED.q8_marks,
			total_marks = EXCLUDED.total_marks,
			recorded_at = now()`

	args := []any{studentID, string(ia)}
	for q := 1; q <= 8; q++ {
		if score, ok := marks[q]; ok {
			args = append(args, score)
		} else {
			args = append(args, nil)
		}
	}
	args = append(args, total)

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("store: upsert marks: %w", err)
	}
	return nil
}

// AttendanceByDate lists attendance for the given ISO date ordered by
// roll-number.
func (s *PostgresStore) AttendanceByDate(ctx context.Context, date string) ([]AttendanceRow, error) {
	const query = `
		SELECT s.usn, s.name, a.date, a.status
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		WHERE a.date = $1
		ORDER BY s.usn`
	rows, err := s.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("store: attendance by date: %w", err)
	}
	defer rows.Close()

	var out []AttendanceRow
	for rows.Next() {
		var r AttendanceRow
		if err := rows.Scan(&r.USN, &r.Name, &r.Date, &r.Status); err != nil {
			return nil, fmt.Errorf("store: attendance by date scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: attendance by date: %w", err)
	}
	return out, nil
}

// ListAttendance lists every attendance record ordered by date then
// roll-number.
func (s *PostgresStore) ListAttendance(ctx context.Context) ([]AttendanceRow, error) {
	const query = `
		SELECT s.usn, s.name, a.date, a.status
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		ORDER BY a.date, s.usn`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list attendance: %w", err)
	}
	defer rows.Close()

	var out []AttendanceRow
	for rows.Next() {
		var r AttendanceRow
		if err := rows.Scan(&r.USN, &r.Name, &r.Date, &r.Status); err != nil {
			return nil, fmt.Errorf("store: list attendance scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list attendance: %w", err)
	}
	return out, nil
}

// MarksByIA lists all records for the given assessment ordered by
// roll-number.
func (s *PostgresStore) MarksByIA(ctx context.Context, ia IAType) ([]MarksRow, error) {
	const query = `
		SELECT s.usn, s.name,
		       m.q1_marks, m.q2_marks, m.q3_marks, m.q4_marks,
		       m.q5_marks, m.q6_marks, m.q7_marks, m.q8_marks,
		       m.total_marks
		FROM ia_marks m
		JOIN students s ON m.student_id = s.id
		WHERE m.ia_type = $1
		ORDER BY s.usn`
	rows, err := s.db.Query(ctx, query, string(ia))
	if err != nil {
		return nil, fmt.Errorf("store: marks by ia: %w", err)
	}
	defer rows.Close()

	var out []MarksRow
	for rows.Next() {
		var (
			r      MarksRow
			scores [8]*int
		)
		if err := rows.Scan(&r.USN, &r.Name,
			&scores[0], &scores[1], &scores[2], &scores[3],
			&scores[4], &scores[5], &scores[6], &scores[7],
			&r.Total,
		); err != nil {
			return nil, fmt.Errorf("store: marks by ia scan: %w", err)
		}
		r.Questions = make(map[int]int, 4)
		for i, score := range scores {
			if score != nil {
				r.Questions[i+1] = *score
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: marks by ia: %w", err)
	}
	return out, nil
}

// CountAttendance returns the total number of attendance records.
func (s *PostgresStore) CountAttendance(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT count(*) FROM attendance`)
}

// CountMarks returns the total number of assessment records.
func (s *PostgresStore) CountMarks(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT count(*) FROM ia_marks`)
}

func (s *PostgresStore) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
