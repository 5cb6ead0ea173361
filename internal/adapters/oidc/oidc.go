// Package oidc verifies the google signed identity tokens the task queue attaches to callbacks
package oidc

import (
	"context"
	"strings"

	"reaper/internal/platform/config"
	perr "reaper/internal/platform/errors"

	"google.golang.org/api/idtoken"
)

// Options name who may call
type Options struct {
	Audience            string
	ServiceAccountEmail string
}

// FromConfig reads the same CLOUDTASKS_OIDC_* keys the enqueuer signs with
func FromConfig(cfg config.Conf) Options {
	return Options{
		Audience:            cfg.MayString("OIDC_AUDIENCE", ""),
		ServiceAccountEmail: cfg.MayString("OIDC_SERVICE_ACCOUNT_EMAIL", ""),
	}
}

// Enabled reports whether callbacks should be verified at all
func (o Options) Enabled() bool { return o.Audience != "" }

// validate is a seam over idtoken.Validate
var validate = idtoken.Validate

// Verifier checks token signature, audience, and the calling service account
type Verifier struct{ opts Options }

// New returns a Verifier for opts
func New(opts Options) *Verifier { return &Verifier{opts: opts} }

// Verify returns the verified caller email
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	p, err := validate(ctx, token, v.opts.Audience)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "oidc: invalid token")
	}
	email, _ := p.Claims["email"].(string)
	if verified, ok := p.Claims["email_verified"].(bool); ok && !verified {
		return "", perr.Newf(perr.ErrorCodeUnauthorized, "oidc: email not verified")
	}
	if want := v.opts.ServiceAccountEmail; want != "" && !strings.EqualFold(email, want) {
		return "", perr.Newf(perr.ErrorCodeForbidden, "oidc: unexpected caller %q", email)
	}
	return email, nil
}
