package store

import (
	"context"

	"reaper/internal/platform/store/ch"
)

type fakeCHClient struct {
	table string
	rows  [][]any
	qErr  error
}

func (f *fakeCHClient) Insert(_ context.Context, table string, rows [][]any) error {
	f.table, f.rows = table, rows
	return nil
}
func (f *fakeCHClient) Query(context.Context, string, ...any) (ch.Rows, error) { return nil, f.qErr }
func (f *fakeCHClient) Ping(context.Context) error                            { return nil }
func (f *fakeCHClient) Close() error                                          { return nil }
