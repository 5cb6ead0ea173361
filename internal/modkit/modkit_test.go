package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"reaper/internal/platform/config"
	phttp "reaper/internal/platform/net/http"
	"reaper/internal/platform/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type enqueuerPorts struct{ name string }

func TestBuildDefaultsAndOverrides(t *testing.T) {
	mark := func(next http.Handler) http.Handler { return next }
	b := Build(
		WithName("accountdelete"),
		WithPrefix("/accounts"),
		WithPrefix("/acct"),
		WithMiddlewares(mark, mark),
		WithPorts(enqueuerPorts{name: "q"}),
	)
	if b.Name != "accountdelete" || b.Prefix != "/acct" || len(b.Mw) != 2 {
		t.Fatalf("Build = %+v", b)
	}
	if PortsAs[enqueuerPorts](b).name != "q" {
		t.Fatalf("PortsAs mismatch")
	}
	if PortsAs[string](b) != "" {
		t.Fatalf("PortsAs wrong type should be zero")
	}
	b.Register(nil) // default is a no-op
}

func TestMountAppliesPrefixAndMiddleware(t *testing.T) {
	m := chi.NewRouter()
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Mod", "billing")
			next.ServeHTTP(w, r)
		})
	}
	Mount(phttp.AdaptChi(m), "/billing", []func(http.Handler) http.Handler{tag}, func(r phttp.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	}, nil)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/billing/ping", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-Mod") != "billing" {
		t.Fatalf("status=%d header=%q", rec.Code, rec.Header().Get("X-Mod"))
	}
}

func TestFromStore(t *testing.T) {
	d := FromStore(zerolog.Nop(), config.New(), nil)
	if d.PG != nil || d.Redis != nil || d.CH != nil {
		t.Fatalf("nil store should give empty deps")
	}
	d = FromStore(zerolog.Nop(), config.New(), &store.Store{})
	if d.PG != nil {
		t.Fatalf("zero store should give nil PG")
	}
}
