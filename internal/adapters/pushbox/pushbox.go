// Package pushbox is a client for the offline message store
package pushbox

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reaper/internal/platform/config"
	perr "reaper/internal/platform/errors"
)

// Options configure the pushbox client
type Options struct {
	Enabled bool
	BaseURL string
	Key     string
	Timeout time.Duration
}

// FromConfig reads PUSHBOX_* keys from cfg, which should already carry the prefix
func FromConfig(cfg config.Conf) Options {
	return Options{
		Enabled: cfg.MayBool("ENABLED", false),
		BaseURL: cfg.MayString("URL", ""),
		Key:     cfg.MayString("KEY", ""),
		Timeout: cfg.MayDuration("TIMEOUT", 5*time.Second),
	}
}

// Client deletes stored device messages
type Client struct {
	http *http.Client
	opts Options
}

// New returns a Client; BaseURL must be absolute
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{http: &http.Client{Timeout: opts.Timeout}, opts: opts}
}

// DeleteAccount drops every stored record for uid; an unknown uid is success
func (c *Client) DeleteAccount(ctx context.Context, uid string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.opts.BaseURL+"/v1/store/"+url.PathEscape(uid), nil)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "pushbox: new request")
	}
	if c.opts.Key != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Key)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "pushbox: delete account")
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode < 300, resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 500:
		return perr.Newf(perr.ErrorCodeUnavailable, "pushbox: delete account status %d", resp.StatusCode)
	}
	return perr.Newf(perr.ErrorCodeDependency, "pushbox: delete account status %d", resp.StatusCode)
}

// Nop is used when pushbox is disabled
type Nop struct{}

// DeleteAccount does nothing
func (Nop) DeleteAccount(context.Context, string) error { return nil }
