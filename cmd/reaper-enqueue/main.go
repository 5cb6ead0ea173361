// Command reaper-enqueue schedules account deletions in bulk
//
//	reaper-enqueue -reason fxa_unverified_account_delete -uids a,b
//	reaper-enqueue -reason fraud -emails-file emails.txt
package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"reaper/internal/modkit"
	"reaper/internal/platform/config"
	"reaper/internal/platform/logger"
	"reaper/internal/platform/store"

	"reaper/internal/services/accountdelete/domain"
	admod "reaper/internal/services/accountdelete/module"
	billingmod "reaper/internal/services/billing/module"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func main() { os.Exit(run()) }

// run returns the exit code so the store closes before os.Exit
func run() int {
	var (
		fReason     = flag.String("reason", "", "deletion reason recorded on every task")
		fUIDs       = flag.String("uids", "", "comma separated account uids")
		fEmails     = flag.String("emails", "", "comma separated primary emails")
		fUIDsFile   = flag.String("uids-file", "", "file with one uid per line")
		fEmailsFile = flag.String("emails-file", "", "file with one email per line")
		fWorkers    = flag.Int("workers", 4, "concurrent enqueue calls")
		fDryRun     = flag.Bool("dry-run", false, "resolve accounts without enqueueing")
	)
	flag.Parse()

	logger.Init(logger.FromEnv())
	batch := uuid.NewString()
	l := logger.Get().With().Str("batch", batch).Logger()

	reason, err := domain.ParseReason(*fReason)
	if err != nil {
		l.Fatal().Err(err).Msg("bad -reason")
	}

	var reqs []domain.DeleteRequest
	for _, uid := range collect(l, *fUIDs, *fUIDsFile) {
		reqs = append(reqs, domain.ByUID(uid, reason))
	}
	for _, email := range collect(l, *fEmails, *fEmailsFile) {
		reqs = append(reqs, domain.ByEmail(email, reason))
	}
	if len(reqs) == 0 {
		l.Fatal().Msg("nothing to enqueue: pass -uids, -emails or a file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	st, err := store.Open(ctx, store.FromConfig(root, "reaper-enqueue"), store.WithLogger(l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.FromStore(l, root, st)
	billing := billingmod.New(deps)
	deletion := admod.New(deps, modkit.WithPorts(billing.Ports().(billingmod.Ports)))
	mgr := deletion.Ports().(admod.Ports).Manager

	var ok, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*fWorkers, 1))
	for _, req := range reqs {
		g.Go(func() error {
			res, err := mgr.Resolve(gctx, req)
			if err != nil {
				failed.Add(1)
				l.Error().Err(err).Str("uid", req.UID()).Str("email", req.Email()).Msg("resolve failed")
				return nil
			}
			if *fDryRun {
				ok.Add(1)
				l.Info().Str("uid", res.UID()).Msg("would enqueue")
				return nil
			}
			task, err := mgr.Enqueue(gctx, res)
			if err != nil {
				failed.Add(1)
				l.Error().Err(err).Str("uid", res.UID()).Msg("enqueue failed")
				return nil
			}
			ok.Add(1)
			l.Info().Str("uid", res.UID()).Str("task", task.Name).Msg("enqueued")
			return nil
		})
	}
	_ = g.Wait()

	l.Info().Int64("enqueued", ok.Load()).Int64("failed", failed.Load()).Str("reason", reason.String()).Msg("batch done")
	if failed.Load() > 0 {
		return 1
	}
	return 0
}

// collect merges a csv flag with a newline separated file, dropping blanks
func collect(l logger.Logger, csv, file string) []string {
	var out []string
	for p := range strings.SplitSeq(csv, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if file == "" {
		return out
	}
	f, err := os.Open(file)
	if err != nil {
		l.Fatal().Err(err).Str("file", file).Msg("open input")
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if v := strings.TrimSpace(sc.Text()); v != "" && !strings.HasPrefix(v, "#") {
			out = append(out, v)
		}
	}
	if err := sc.Err(); err != nil {
		l.Fatal().Err(err).Str("file", file).Msg("read input")
	}
	return out
}
