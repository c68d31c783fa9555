package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/K-ALOHA/voxregister/internal/roster"
)

// fakeTx records the statements executed inside a transaction and whether it
// was committed or rolled back.
type fakeTx struct {
	execs      []string
	failOnExec int // 1-based index of the Exec call that fails; 0 = never
	committed  bool
	rolledBack bool
}

var _ pgx.Tx = (*fakeTx)(nil)

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	if t.failOnExec > 0 && len(t.execs) == t.failOnExec {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }
func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not implemented")
}
func (t *fakeTx) Conn() *pgx.Conn { return nil }

// fakeDB hands out a fakeTx and records statements executed outside any
// transaction.
type fakeDB struct {
	tx     *fakeTx
	begins int
	execs  []string
}

var _ DB = (*fakeDB)(nil)

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	d.begins++
	return d.tx, nil
}

func (d *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (d *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (d *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func TestPostgresReplaceStudents_CommitsOneTransaction(t *testing.T) {
	t.Parallel()

	db := &fakeDB{tx: &fakeTx{}}
	s := NewPostgresStore(db)

	err := s.ReplaceStudents(context.Background(), []roster.Student{
		{USN: "1GA23CI024", Name: "Aloha Smith"},
		{USN: "1GA23CI025", Name: "Bob Johnson"},
	})
	if err != nil {
		t.Fatalf("ReplaceStudents: %v", err)
	}

	if db.begins != 1 {
		t.Errorf("begins = %d, want 1", db.begins)
	}
	if len(db.execs) != 0 {
		t.Errorf("statements outside the transaction: %q", db.execs)
	}
	if len(db.tx.execs) != 3 || !strings.Contains(db.tx.execs[0], "DELETE FROM students") {
		t.Errorf("transaction statements = %q", db.tx.execs)
	}
	if !db.tx.committed || db.tx.rolledBack {
		t.Errorf("committed = %v, rolledBack = %v", db.tx.committed, db.tx.rolledBack)
	}
}

func TestPostgresReplaceStudents_RollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	// Exec 1 is the delete; exec 3 is the second insert.
	db := &fakeDB{tx: &fakeTx{failOnExec: 3}}
	s := NewPostgresStore(db)

	err := s.ReplaceStudents(context.Background(), []roster.Student{
		{USN: "1GA23CI024", Name: "Aloha Smith"},
		{USN: "1GA23CI025", Name: "Bob Johnson"},
	})
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if db.tx.committed {
		t.Error("transaction committed despite insert failure")
	}
	if !db.tx.rolledBack {
		t.Error("transaction not rolled back after insert failure")
	}
}

func TestPostgresReplaceStudents_RejectsDuplicateInputUpfront(t *testing.T) {
	t.Parallel()

	db := &fakeDB{tx: &fakeTx{}}
	s := NewPostgresStore(db)

	err := s.ReplaceStudents(context.Background(), []roster.Student{
		{USN: "1GA23CI024", Name: "Aloha Smith"},
		{USN: "1GA23CI024", Name: "Aloha S."},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate usn") {
		t.Fatalf("err = %v, want duplicate usn error", err)
	}
	if db.begins != 0 || len(db.execs) != 0 || len(db.tx.execs) != 0 {
		t.Errorf("duplicate input touched the database: begins = %d, execs = %q, tx execs = %q",
			db.begins, db.execs, db.tx.execs)
	}
}
