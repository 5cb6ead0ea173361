package repokit

import (
	"context"
	"fmt"
)

// MustGuard runs a store guard and panics on any error (startup only)
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
