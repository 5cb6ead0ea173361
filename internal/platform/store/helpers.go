package store

import (
	"context"
	"reflect"
	"strings"
	"time"

	perr "reaper/internal/platform/errors"
)

// ErrMultipleRows is returned by One when a lookup that must be unique is not
var ErrMultipleRows = perr.New(perr.ErrorCodeIntegrity, "expected one row, got more")

// Exec runs a write and returns the affected row count
func Exec(ctx context.Context, q RowQuerier, sql string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExecOne runs a write and asserts exactly one row was affected
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	n, err := Exec(ctx, q, sql, args...)
	if err != nil {
		return err
	}
	if n != 1 {
		return perr.Newf(perr.ErrorCodeNotFound, "expected one row affected, got %d", n)
	}
	return nil
}

// Scalar queries the first row, first column into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	if err := q.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// One maps exactly one row into T
// no rows is perr.ErrNotFound, more than one is ErrMultipleRows
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, perr.ErrNotFound
	}
	item, err := scan(rows)
	if err != nil {
		return zero, err
	}
	if rows.Next() {
		return zero, ErrMultipleRows
	}
	return item, rows.Err()
}

// Many maps all rows into []T
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// StructsByName maps all rows into []T by matching columns to `db` tags or field names
func StructsByName[T any](ctx context.Context, q RowQuerier, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rt := reflect.TypeOf((*T)(nil)).Elem()
	index := indexStructFields(rt)

	var out []T
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, err
		}
		rv := reflect.New(rt).Elem()
		for name, val := range m {
			if i, ok := index[strings.ToLower(name)]; ok {
				assign(rv.Field(i), val)
			}
		}
		out = append(out, rv.Interface().(T))
	}
	return out, rows.Err()
}

// scanMap scans the current row into column -> value
func scanMap(rows Rows) (map[string]any, error) {
	cols := rows.Columns()
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	m := make(map[string]any, len(cols))
	for i, c := range cols {
		if tp, ok := vals[i].(*time.Time); ok && tp != nil {
			m[c] = *tp
			continue
		}
		m[c] = vals[i]
	}
	return m, nil
}

// indexStructFields returns lowercased db tag or field name -> field index
func indexStructFields(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		key := f.Tag.Get("db")
		if key == "" || key == "-" {
			key = f.Name
		}
		out[strings.ToLower(key)] = i
	}
	return out
}

func assign(dst reflect.Value, src any) {
	if !dst.CanSet() {
		return
	}
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(dst.Type()):
		dst.Set(sv)
	case sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() != reflect.Slice:
		dst.Set(sv.Convert(dst.Type()))
	case dst.Kind() == reflect.String && sv.Kind() == reflect.Slice && sv.Type().Elem().Kind() == reflect.Uint8:
		dst.SetString(string(sv.Bytes()))
	case dst.Kind() == reflect.Pointer && sv.Type().AssignableTo(dst.Type().Elem()):
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(sv)
		dst.Set(p)
	}
}
