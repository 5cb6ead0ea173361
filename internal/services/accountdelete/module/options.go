package module

import (
	"reaper/internal/adapters/cloudtasks"
	"reaper/internal/adapters/oidc"
	"reaper/internal/adapters/push"
	"reaper/internal/adapters/pushbox"
	"reaper/internal/platform/config"
	adsvc "reaper/internal/services/accountdelete/service"
)

// Options configure account deletion and the adapters it owns
type Options struct {
	PublicURL        string
	APIVersion       int
	RefundPeriodDays int
	QueueName        string

	Queue   cloudtasks.Options
	OIDC    oidc.Options
	Push    push.Options
	Pushbox pushbox.Options
}

// FromConfig reads ACCOUNTDELETE_*, CLOUDTASKS_*, PUSH_*, and PUSHBOX_* keys from the root cfg
func FromConfig(cfg config.Conf) Options {
	ad := cfg.Prefix("ACCOUNTDELETE_")
	ct := cfg.Prefix("CLOUDTASKS_")
	return Options{
		PublicURL:        ad.MustURL("PUBLIC_URL").String(),
		APIVersion:       ad.MayInt("API_VERSION", 1),
		RefundPeriodDays: ad.MayInt("REFUND_PERIOD_DAYS", 0),
		QueueName:        ct.MayString("DELETE_QUEUE_NAME", adsvc.DefaultQueueName),
		Queue:            cloudtasks.FromConfig(ct),
		OIDC:             oidc.FromConfig(ct),
		Push:             push.FromConfig(cfg.Prefix("PUSH_")),
		Pushbox:          pushbox.FromConfig(cfg.Prefix("PUSHBOX_")),
	}
}
