package module

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reaper/internal/adapters/stripe"
	modkit "reaper/internal/modkit"
	"reaper/internal/platform/config"
	"reaper/internal/platform/logger"
	phttp "reaper/internal/platform/net/http"
	"reaper/internal/platform/store"
	"reaper/internal/platform/store/pg"
	kit "reaper/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
)

type nopAPI struct{ stripe.API }

func deps(t *testing.T) modkit.Deps {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	return modkit.Deps{Log: *logger.Get(), Cfg: config.New(), PG: store.NewPGAdapter(pg.Wrap(mock, nil, 0))}
}

func TestDisabledProvidersMountNothing(t *testing.T) {
	t.Setenv("PAYPAL_ENABLED", "false")
	t.Setenv("STRIPE_ENABLED", "false")

	mod := New(deps(t))
	ports, ok := mod.Ports().(Ports)
	if !ok || ports.Billing != nil || ports.Stripe != nil {
		t.Fatalf("ports = %+v", mod.Ports())
	}
	m := chi.NewRouter()
	mod.MountRoutes(phttp.AdaptChi(m))
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/paypal/checkout-token", strings.NewReader(`{}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled route = %d", rec.Code)
	}
}

func TestEnabledProvidersBuildPorts(t *testing.T) {
	kit.Serial(t)
	t.Setenv("PAYPAL_ENABLED", "true")
	t.Setenv("STRIPE_ENABLED", "true")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
	kit.Swap(t, &stripeAPI, func(string) stripe.API { return nopAPI{} })

	mod := New(deps(t), modkit.WithPrefix("/pp"))
	ports := mod.Ports().(Ports)
	if ports.Billing == nil || ports.Stripe == nil {
		t.Fatalf("ports = %+v", ports)
	}
	if mod.Name() != "billing" {
		t.Fatalf("name = %q", mod.Name())
	}
}

func TestEnabledWithoutPostgresPanics(t *testing.T) {
	t.Setenv("PAYPAL_ENABLED", "true")
	t.Setenv("STRIPE_ENABLED", "false")
	kit.MustPanic(t, func() { New(modkit.Deps{Log: *logger.Get(), Cfg: config.New()}) })
}
