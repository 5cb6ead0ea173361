// @title         Reaper API
// @version       0.1.0
// @description   Account deletion and paypal billing endpoints

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reaper/internal/modkit/repokit"
	"reaper/internal/platform/config"
	"reaper/internal/platform/logger"
	phttp "reaper/internal/platform/net/http"
	"reaper/internal/platform/store"

	"reaper/internal/services/api"
)

func main() {
	root := config.New()
	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SERVICE_PGSQL_*, SERVICE_REDIS_*, SERVICE_CLICKHOUSE_*
	st, err := store.Open(ctx, store.FromConfig(root, "reaper-api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	// reads API_PORT / API_SHUTDOWN_GRACE
	srv := phttp.NewServer(root)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:        root,
			Store:         st,
			Logger:        l,
			EnableSwagger: root.MayBool("API_SWAGGER", true),
		},
	)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
