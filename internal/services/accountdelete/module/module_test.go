package module

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"reaper/internal/adapters/cloudtasks"
	modkit "reaper/internal/modkit"
	"reaper/internal/modkit/httpkit"
	"reaper/internal/platform/config"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"
	phttp "reaper/internal/platform/net/http"
	"reaper/internal/platform/store"
	"reaper/internal/platform/store/pg"
	kit "reaper/internal/platform/testkit"
	"reaper/internal/services/accountdelete/domain"
	bmod "reaper/internal/services/billing/module"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
)

const uid = "0123456789abcdef0123456789abcdef"

type fakeQueue struct {
	queue string
	url   string
	tasks []domain.DeleteTask
}

func (f *fakeQueue) Enqueue(_ context.Context, queue, taskURL string, task domain.DeleteTask) (cloudtasks.Task, error) {
	f.queue, f.url = queue, taskURL
	f.tasks = append(f.tasks, task)
	return cloudtasks.Task{Name: "tasks/9"}, nil
}

type fixture struct {
	deps  modkit.Deps
	mock  pgxmock.PgxPoolIface
	queue *fakeQueue
}

func setup(t *testing.T) fixture {
	t.Helper()
	kit.Serial(t)
	t.Setenv("ACCOUNTDELETE_PUBLIC_URL", "https://accounts.example.com")
	t.Setenv("CLOUDTASKS_OIDC_AUDIENCE", "")
	t.Setenv("PUSHBOX_ENABLED", "false")

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet pg expectations: %v", err)
		}
	})
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	q := &fakeQueue{}
	kit.Swap(t, &dialQueue, func(context.Context, cloudtasks.Options) (domain.TaskQueue, error) { return q, nil })
	return fixture{
		deps: modkit.Deps{
			Log:   *logger.Get(),
			Cfg:   config.New(),
			PG:    store.NewPGAdapter(pg.Wrap(mock, nil, 0)),
			Redis: rc,
		},
		mock:  mock,
		queue: q,
	}
}

func router(mod *Module) *chi.Mux {
	m := chi.NewRouter()
	r := phttp.AdaptChi(m)
	httpkit.MountAPIV1(r, nil, mod.MountRoutes)
	mod.MountCallback(r)
	return m
}

func post(m http.Handler, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	return rec
}

func TestEnqueueRoute(t *testing.T) {
	f := setup(t)
	mod := New(f.deps, modkit.WithPorts(bmod.Ports{}))
	if mod.Name() != "accountdelete" {
		t.Fatalf("name = %q", mod.Name())
	}
	ports := mod.Ports().(Ports)
	if ports.Manager == nil {
		t.Fatalf("no manager")
	}

	rec := post(router(mod), "/api/v1/accounts/delete", `{"uid":"`+uid+`","reason":"fraud"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data domain.EnqueuedTask `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Data.Name != "tasks/9" {
		t.Fatalf("body = %s (%v)", rec.Body.String(), err)
	}
	if f.queue.url != "https://accounts.example.com/v1/cloud-tasks/accounts/delete" || f.queue.queue != "delete-accounts-queue" {
		t.Fatalf("queue = %q url = %q", f.queue.queue, f.queue.url)
	}
	if len(f.queue.tasks) != 1 || f.queue.tasks[0].CustomerID != "" {
		t.Fatalf("tasks = %+v", f.queue.tasks)
	}
}

func TestCallbackForGoneAccount(t *testing.T) {
	f := setup(t)
	t.Setenv("ACCOUNTDELETE_API_VERSION", "2")
	mod := New(f.deps)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE uid = $1")).
		WithArgs(uid).
		WillReturnRows(pgxmock.NewRows([]string{"uid", "email", "email_verified", "created_at"}))

	rec := post(router(mod), "/v2/cloud-tasks/accounts/delete", `{"uid":"`+uid+`","reason":"fraud"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestCallbackRequiresTokenWhenOIDCConfigured(t *testing.T) {
	f := setup(t)
	t.Setenv("CLOUDTASKS_OIDC_AUDIENCE", "https://accounts.example.com")
	mod := New(f.deps)

	m := router(mod)
	rec := post(m, "/v1/cloud-tasks/accounts/delete", `{"uid":"`+uid+`","reason":"fraud"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	// the public route is not behind the task identity
	rec = post(m, "/api/v1/accounts/delete", `{"uid":"`+uid+`","reason":"fraud"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("public status = %d", rec.Code)
	}
}

func TestNewPanics(t *testing.T) {
	f := setup(t)
	kit.MustPanic(t, func() { New(modkit.Deps{Log: f.deps.Log, Cfg: f.deps.Cfg, PG: f.deps.PG}) })

	kit.Swap(t, &dialQueue, func(context.Context, cloudtasks.Options) (domain.TaskQueue, error) {
		return nil, perr.Newf(perr.ErrorCodeValidation, "cloudtasks: project and location are required")
	})
	kit.MustPanic(t, func() { New(f.deps) })
}

func TestFromConfigDefaults(t *testing.T) {
	kit.Serial(t)
	t.Setenv("ACCOUNTDELETE_PUBLIC_URL", "https://accounts.example.com")
	t.Setenv("CLOUDTASKS_PROJECT_ID", "proj")
	t.Setenv("CLOUDTASKS_LOCATION_ID", "us-central1")
	t.Setenv("CLOUDTASKS_OIDC_AUDIENCE", "aud")
	t.Setenv("CLOUDTASKS_OIDC_SERVICE_ACCOUNT_EMAIL", "tasks@proj.iam.gserviceaccount.com")

	o := FromConfig(config.New())
	if o.APIVersion != 1 || o.RefundPeriodDays != 0 || o.QueueName != "delete-accounts-queue" {
		t.Fatalf("defaults = %+v", o)
	}
	if o.Queue.ProjectID != "proj" || o.Queue.LocationID != "us-central1" || o.Queue.OIDCAudience != "aud" {
		t.Fatalf("queue = %+v", o.Queue)
	}
	if !o.OIDC.Enabled() || o.OIDC.ServiceAccountEmail != "tasks@proj.iam.gserviceaccount.com" {
		t.Fatalf("oidc = %+v", o.OIDC)
	}
	if o.Push.Stream != "push:events" {
		t.Fatalf("push = %+v", o.Push)
	}
	if o.PublicURL != "https://accounts.example.com" {
		t.Fatalf("public url = %q", o.PublicURL)
	}

	t.Setenv("ACCOUNTDELETE_PUBLIC_URL", "accounts.example.com/relative")
	kit.MustPanic(t, func() { _ = FromConfig(config.New()) })
}
