// Command reaper-invoicer settles open paypal invoices through billing agreements
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reaper/internal/modkit"
	"reaper/internal/modkit/repokit"
	"reaper/internal/platform/config"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"
	"reaper/internal/platform/store"
	ptime "reaper/internal/platform/time"

	"reaper/internal/services/billing/guardrails"
	billingmod "reaper/internal/services/billing/module"
)

func main() {
	var (
		fDryRun   = flag.Bool("dry-run", false, "list the invoices that would be processed")
		fBudget   = flag.Duration("budget", 30*time.Second, "time allowed per invoice, 0 for none")
		fLeaseTTL = flag.Duration("lease-ttl", 24*time.Hour, "age after which another run may retry a claimed invoice, 0 for never")
	)
	flag.Parse()

	logger.Init(logger.FromEnv())
	os.Exit(run(*fDryRun, *fBudget, *fLeaseTTL))
}

// run returns the exit code so deferred cleanup finishes before os.Exit
func run(dryRun bool, budget, leaseTTL time.Duration) int {
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	st, err := store.Open(ctx, store.FromConfig(root, "reaper-invoicer"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	ports := billingmod.New(modkit.FromStore(*l, root, st)).Ports().(billingmod.Ports)
	if ports.Billing == nil || ports.Stripe == nil {
		l.Error().Msg("invoicer needs PAYPAL_ENABLED and STRIPE_ENABLED")
		return 2
	}

	invs, err := ports.Stripe.ListOpenSendInvoices(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list open invoices")
		return 1
	}

	lease := guardrails.MakeInvoiceLease(st.PG, leaseTTL, nil)

	var failed, skipped int
	for _, inv := range invs {
		if dryRun {
			l.Info().Str("invoice", inv.ID).Int64("amount_due", inv.AmountDue).Str("currency", string(inv.Currency)).Time("created", ptime.FromUnix(inv.Created)).Msg("would process")
			continue
		}
		err := lease(ctx, inv.ID, func(ctx context.Context) error {
			ictx, cancel := guardrails.WithBudget(ctx, budget)
			defer cancel()
			return ports.Billing.ProcessInvoice(ictx, inv)
		})
		if errors.Is(err, guardrails.ErrLeaseHeld) {
			skipped++
			l.Debug().Str("invoice", inv.ID).Msg("claimed by another run")
			continue
		}
		if err != nil {
			failed++
			l.Error().Err(err).Str("invoice", inv.ID).Int("code", int(perr.CodeOf(err))).Msg("process invoice failed")
			continue
		}
		l.Info().Str("invoice", inv.ID).Int64("amount_due", inv.AmountDue).Msg("processed")
	}
	l.Info().Int("invoices", len(invs)).Int("failed", failed).Int("skipped", skipped).Msg("invoicer done")
	if failed > 0 {
		return 1
	}
	return 0
}
