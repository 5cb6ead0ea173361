package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"reaper/internal/platform/store/pg"

	"github.com/pashagolub/pgxmock/v4"
)

type recTracer struct{ events []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.events = append(r.events, ev) }

func newMockAdapter(t *testing.T, tr pg.QueryTracer) (TxRunner, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return NewPGAdapter(pg.Wrap(mock, tr, 0)), mock
}

func TestPGAdapterExecTraces(t *testing.T) {
	tr := &recTracer{}
	a, mock := newMockAdapter(t, tr)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM devices WHERE uid = $1")).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	tag, err := a.Exec(context.Background(), "DELETE FROM devices WHERE uid = $1", "u1")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if tag.RowsAffected() != 2 {
		t.Fatalf("RowsAffected = %d", tag.RowsAffected())
	}
	if len(tr.events) != 1 || tr.events[0].Err != nil {
		t.Fatalf("trace events = %+v", tr.events)
	}
}

func TestPGAdapterQueryColumns(t *testing.T) {
	a, mock := newMockAdapter(t, nil)
	mock.ExpectQuery("SELECT uid, email FROM accounts").
		WillReturnRows(pgxmock.NewRows([]string{"uid", "email"}).AddRow("u1", "a@example.com"))

	rs, err := a.Query(context.Background(), "SELECT uid, email FROM accounts")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rs.Close()
	if cols := rs.Columns(); len(cols) != 2 || cols[0] != "uid" || cols[1] != "email" {
		t.Fatalf("Columns = %v", cols)
	}
	if !rs.Next() {
		t.Fatalf("expected a row")
	}
	var uid, email string
	if err := rs.Scan(&uid, &email); err != nil || uid != "u1" || email != "a@example.com" {
		t.Fatalf("Scan = %q %q %v", uid, email, err)
	}
}

func TestPGAdapterQueryRowTracesScanError(t *testing.T) {
	tr := &recTracer{}
	a, mock := newMockAdapter(t, tr)
	boom := errors.New("boom")
	mock.ExpectQuery("SELECT 1").WillReturnError(boom)

	var n int
	if err := a.QueryRow(context.Background(), "SELECT 1").Scan(&n); !errors.Is(err, boom) {
		t.Fatalf("Scan err = %v", err)
	}
	if len(tr.events) != 1 || !errors.Is(tr.events[0].Err, boom) {
		t.Fatalf("scan error not traced: %+v", tr.events)
	}
}

func TestPGAdapterTxCommit(t *testing.T) {
	a, mock := newMockAdapter(t, &recTracer{})
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM accounts").WithArgs("u1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := a.Tx(context.Background(), func(q RowQuerier) error {
		_, err := q.Exec(context.Background(), "DELETE FROM accounts WHERE uid = $1", "u1")
		return err
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
}

func TestPGAdapterTxRollback(t *testing.T) {
	a, mock := newMockAdapter(t, nil)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("fn failed")
	if err := a.Tx(context.Background(), func(RowQuerier) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Tx err = %v", err)
	}
}

func TestPGAdapterPing(t *testing.T) {
	a, mock := newMockAdapter(t, nil)
	mock.ExpectPing()
	if err := a.(Pinger).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	var nilAdapter *pgAdapter
	if err := nilAdapter.Ping(context.Background()); err == nil {
		t.Fatalf("nil adapter ping should fail")
	}
}
