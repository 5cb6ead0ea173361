package cloudtasks

import "reaper/internal/platform/config"

// Options locate the queue and the identity tasks are delivered with
type Options struct {
	ProjectID           string
	LocationID          string
	OIDCAudience        string
	ServiceAccountEmail string

	// Endpoint overrides the API base, for the emulator
	Endpoint        string
	CredentialsFile string
}

// FromConfig reads CLOUDTASKS_* style keys from cfg, which should already carry the prefix
func FromConfig(cfg config.Conf) Options {
	return Options{
		ProjectID:           cfg.MayString("PROJECT_ID", ""),
		LocationID:          cfg.MayString("LOCATION_ID", ""),
		OIDCAudience:        cfg.MayString("OIDC_AUDIENCE", ""),
		ServiceAccountEmail: cfg.MayString("OIDC_SERVICE_ACCOUNT_EMAIL", ""),
		Endpoint:            cfg.MayString("ENDPOINT", ""),
		CredentialsFile:     cfg.MayString("CREDENTIALS_FILE", ""),
	}
}
