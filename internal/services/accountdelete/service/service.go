// Package service implements the account delete manager
package service

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"
	"time"

	"reaper/internal/adapters/pushbox"
	"reaper/internal/core/payments"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"
	"reaper/internal/platform/metrics"
	ptime "reaper/internal/platform/time"
	"reaper/internal/services/accountdelete/domain"
	adomain "reaper/internal/services/accounts/domain"
)

// Metric names
const (
	MetricEnqueueSuccess = "cloud-tasks.account-delete.enqueue.success"
	MetricEnqueueFailure = "cloud-tasks.account-delete.enqueue.failure"
)

// DefaultQueueName is the deletion queue when none is configured
const DefaultQueueName = "delete-accounts-queue"

// Service is the public service port
type Service interface{ domain.ServicePort }

// Options carries the collaborators and settings of the manager
type Options struct {
	// Accounts, OAuth, Push, Activity, and Queue are required
	Accounts domain.Accounts
	OAuth    domain.OAuth
	Push     domain.Push
	Activity domain.Activity
	Queue    domain.TaskQueue

	// Stripe and Billing are nil when the provider is disabled
	Stripe  domain.Stripe
	Billing domain.Billing

	Pushbox domain.Pushbox
	Metrics domain.Metrics

	// PublicURL and APIVersion build the callback url tasks are delivered to
	PublicURL  string
	APIVersion int
	QueueName  string

	// RefundPeriodDays bounds refunds when the caller gives no period; 0 refunds everything paid
	RefundPeriodDays int
}

// stepObserver is implemented by metrics registries that time steps
type stepObserver interface {
	Observe(step string, seconds float64, err error)
}

// Manager orchestrates account deletion across every store holding account data
type Manager struct {
	opts    Options
	taskURL string
	log     *logger.Logger
	now     func() time.Time
}

// New constructs the manager
func New(opts Options) *Manager {
	switch {
	case opts.Accounts == nil:
		panic("accountdelete.Manager requires an account store")
	case opts.OAuth == nil:
		panic("accountdelete.Manager requires an oauth store")
	case opts.Push == nil:
		panic("accountdelete.Manager requires a push notifier")
	case opts.Activity == nil:
		panic("accountdelete.Manager requires an activity logger")
	case opts.Queue == nil:
		panic("accountdelete.Manager requires a task queue")
	}
	if opts.Pushbox == nil {
		opts.Pushbox = pushbox.Nop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.APIVersion <= 0 {
		opts.APIVersion = 1
	}
	if opts.QueueName == "" {
		opts.QueueName = DefaultQueueName
	}
	return &Manager{
		opts:    opts,
		taskURL: TaskURL(opts.PublicURL, opts.APIVersion),
		log:     logger.Named("accountdelete"),
		now:     time.Now,
	}
}

// TaskURL is the callback url deletion tasks are posted to
func TaskURL(publicURL string, apiVersion int) string {
	return fmt.Sprintf("%s/v%d/cloud-tasks/accounts/delete", strings.TrimRight(publicURL, "/"), apiVersion)
}

// TaskURL returns the configured callback url
func (m *Manager) TaskURL() string { return m.taskURL }

// APIVersion is the version segment the callback is served under
func (m *Manager) APIVersion() int { return m.opts.APIVersion }

// Resolve pins req to a uid, looking the email up in the account store
func (m *Manager) Resolve(ctx context.Context, req domain.DeleteRequest) (domain.ResolvedRequest, error) {
	return req.Resolve(ctx, func(ctx context.Context, email string) (string, error) {
		acct, err := m.opts.Accounts.AccountByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		return acct.UID, nil
	})
}

// Enqueue schedules the deletion of req on the task queue
func (m *Manager) Enqueue(ctx context.Context, req domain.ResolvedRequest) (domain.EnqueuedTask, error) {
	ctx = logger.WithUID(ctx, req.UID())
	task := domain.DeleteTask{UID: req.UID(), Reason: req.Reason()}
	if m.opts.Stripe != nil {
		c, err := m.opts.Stripe.FetchCustomer(ctx, req.UID())
		switch {
		case err != nil:
			logger.C(ctx).Warn().Err(err).Msg("stripe customer lookup failed; enqueueing without customer")
		case c != nil:
			task.CustomerID = c.ID
		}
	}

	t, err := m.opts.Queue.Enqueue(ctx, m.opts.QueueName, m.taskURL, task)
	if err != nil {
		m.opts.Metrics.Increment(MetricEnqueueFailure)
		logger.C(ctx).Error().Err(err).Str("reason", req.Reason().String()).Msg("enqueue account delete failed")
		return domain.EnqueuedTask{}, err
	}
	m.opts.Metrics.Increment(MetricEnqueueSuccess)
	logger.C(ctx).Info().Str("task", t.Name).Str("reason", req.Reason().String()).Msg("account delete enqueued")
	return domain.EnqueuedTask{Name: t.Name}, nil
}

// QuickDelete deletes a user requested account inline and falls back to the queue on failure
func (m *Manager) QuickDelete(ctx context.Context, req domain.ResolvedRequest) error {
	if !req.Reason().UserRequested() {
		return perr.Preconditionf("quickDelete only supports user requested account deletion, got %q", req.Reason())
	}
	err := m.DeleteAccount(ctx, req.UID(), req.Reason())
	if err == nil {
		return nil
	}
	logger.C(logger.WithUID(ctx, req.UID())).Warn().Err(err).Msg("quick delete failed; enqueueing")
	if _, qerr := m.Enqueue(ctx, req); qerr != nil {
		return qerr
	}
	return nil
}

// DeleteAccount removes uid from payments, devices, oauth, and the account store, in that order
// steps are not rolled back; every step tolerates being run again
func (m *Manager) DeleteAccount(ctx context.Context, uid string, reason domain.DeletionReason) error {
	ctx = logger.WithUID(ctx, uid)
	log := logger.C(ctx)

	if m.opts.Stripe != nil {
		if err := m.step("stripe", func() error { return m.removeStripe(ctx, uid) }); err != nil {
			return err
		}
	}
	if m.opts.Billing != nil {
		if err := m.step("paypal", func() error { return m.removePaypal(ctx, uid) }); err != nil {
			return err
		}
	}

	if _, err := m.opts.Accounts.Account(ctx, uid); err != nil {
		if stderrs.Is(err, adomain.ErrUnknownAccount) {
			log.Info().Msg("account already gone; nothing left to delete")
			return nil
		}
		return err
	}

	if err := m.step("push", func() error {
		ids, err := m.opts.Accounts.DeviceIDs(ctx, uid)
		if err != nil {
			return err
		}
		return m.opts.Push.NotifyAccountDestroyed(ctx, uid, ids)
	}); err != nil {
		return err
	}

	if err := m.step("pushbox", func() error { return m.opts.Pushbox.DeleteAccount(ctx, uid) }); err != nil {
		log.Warn().Err(err).Msg("pushbox delete failed; continuing")
	}

	if err := m.step("oauth", func() error { return m.opts.OAuth.RemoveTokensAndCodes(ctx, uid) }); err != nil {
		return err
	}

	if err := m.step("account", func() error { return m.opts.Accounts.DeleteAccount(ctx, uid) }); err != nil {
		return err
	}
	if err := m.opts.Activity.Record(ctx, activityDeleted(uid, reason)); err != nil {
		return err
	}
	log.Info().Str("reason", reason.String()).Msg("account deleted")
	return nil
}

func (m *Manager) removeStripe(ctx context.Context, uid string) error {
	if err := m.opts.Stripe.RemoveCustomer(ctx, uid); err != nil {
		return err
	}
	return m.opts.Stripe.RemoveCachedCustomer(ctx, uid)
}

func (m *Manager) removePaypal(ctx context.Context, uid string) error {
	agreements, err := m.opts.Billing.AgreementsForUID(ctx, uid)
	if err != nil {
		return err
	}
	for _, a := range agreements {
		if a.Agreement.Status != activeAgreement {
			continue
		}
		if err := m.opts.Billing.CancelBillingAgreement(ctx, a.Agreement.ID); err != nil {
			return err
		}
	}
	_, err = m.opts.Billing.DeleteAllPaypalCustomers(ctx, uid)
	return err
}

// step times fn when the metrics sink supports it
func (m *Manager) step(name string, fn func() error) error {
	obs, ok := m.opts.Metrics.(stepObserver)
	if !ok {
		return fn()
	}
	start := m.now()
	err := fn()
	obs.Observe(name, m.now().Sub(start).Seconds(), err)
	return err
}

// RefundSubscriptions refunds the paid invoices of an unverified account
// other reasons refund nothing; a nil period falls back to the configured one
func (m *Manager) RefundSubscriptions(ctx context.Context, reason domain.DeletionReason, customerID string, refundPeriodInDays *int) ([]payments.RefundResult, error) {
	if reason != domain.ReasonUnverifiedAccount {
		return nil, nil
	}
	if customerID == "" || m.opts.Stripe == nil {
		return []payments.RefundResult{}, nil
	}

	days := m.opts.RefundPeriodDays
	if refundPeriodInDays != nil {
		days = *refundPeriodInDays
	}
	since := ptime.Ptr(ptime.DaysBefore(m.now(), days))

	invoices, err := m.opts.Stripe.FetchInvoicesForActiveSubscriptions(ctx, customerID, invoicePaid, since)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return []payments.RefundResult{}, nil
	}
	return m.refund(ctx, invoices)
}

// HandleDeleteTask runs a delivered deletion task: refund, then delete
// refunds go first while the stripe customer and its subscriptions still exist
// any error is returned so the queue redelivers
func (m *Manager) HandleDeleteTask(ctx context.Context, task domain.DeleteTask) error {
	if err := validateTask(task); err != nil {
		return err
	}
	ctx = logger.WithUID(ctx, task.UID)
	refunds, err := m.RefundSubscriptions(ctx, task.Reason, task.CustomerID, nil)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("customer", task.CustomerID).Msg("refund before delete failed")
		return err
	}
	if len(refunds) > 0 {
		logger.C(ctx).Info().Int("refunds", len(refunds)).Str("customer", task.CustomerID).Msg("refunded subscriptions")
	}
	if err := m.DeleteAccount(ctx, task.UID, task.Reason); err != nil {
		return err
	}
	return nil
}
