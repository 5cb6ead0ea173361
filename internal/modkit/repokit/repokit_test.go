package repokit

import (
	"context"
	"errors"
	"testing"

	kit "reaper/internal/platform/testkit"
)

type guardFn func(context.Context) error

func (f guardFn) Guard(ctx context.Context) error { return f(ctx) }

func TestMustBind(t *testing.T) {
	b := BindFunc[string](func(Queryer) string { return "bound" })
	kit.MustPanic(t, func() { _ = MustBind[string](b, nil) })
}

func TestMustGuard(t *testing.T) {
	kit.MustNotPanic(t, func() {
		MustGuard(context.Background(), guardFn(func(context.Context) error { return nil }))
	})
	kit.MustPanic(t, func() {
		MustGuard(context.Background(), guardFn(func(context.Context) error { return errors.New("pg: refused") }))
	})
}
