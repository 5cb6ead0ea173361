package pg

import (
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

// newMock returns a pgxmock pool wrapped as *PG; expectations are checked on cleanup
func newMock(t *testing.T, tracer QueryTracer) (*PG, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet pgxmock expectations: %v", err)
		}
	})
	return Wrap(mock, tracer, 0), mock
}
