// Package paypal is a client for the legacy PayPal NVP API
package paypal

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"

	"github.com/google/go-querystring/query"
)

// maxBody bounds how much of an NVP response is read
const maxBody = 64 << 10

// Client posts NVP requests with credentials and retries transient failures
type Client struct {
	http  *http.Client
	opts  Options
	log   *logger.Logger
	sleep func(context.Context, time.Duration) error
}

// credentials are sent on every request
type credentials struct {
	User      string `url:"USER"`
	Password  string `url:"PWD"`
	Signature string `url:"SIGNATURE"`
	Version   string `url:"VERSION"`
	Method    string `url:"METHOD"`
}

// NewClient creates a Client with defaults filled in
func NewClient(o Options) *Client {
	if o.URL == "" {
		o.URL = sandboxURL
	}
	if o.Version == "" {
		o.Version = defaultVersion
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   logger.Named("paypal"),
		sleep: sleepCtx,
	}
}

// Do sends method with the fields of params and returns the decoded reply
// a reply whose ACK is not a success is returned as *NVPError inside a perr.Error
func (c *Client) Do(ctx context.Context, method string, params any) (url.Values, error) {
	form, err := encode(method, c.opts, params)
	if err != nil {
		return nil, err
	}
	raw, err := c.post(ctx, method, form.Encode())
	if err != nil {
		return nil, err
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDependency, "paypal %s: undecodable reply", method)
	}
	switch vals.Get("ACK") {
	case "Success", "SuccessWithWarning":
		return vals, nil
	}
	ne := &NVPError{
		Method:        method,
		Ack:           vals.Get("ACK"),
		Code:          vals.Get("L_ERRORCODE0"),
		ShortMessage:  vals.Get("L_SHORTMESSAGE0"),
		LongMessage:   vals.Get("L_LONGMESSAGE0"),
		Severity:      vals.Get("L_SEVERITYCODE0"),
		CorrelationID: vals.Get("CORRELATIONID"),
	}
	c.log.Warn().
		Str("method", method).
		Str("code", ne.Code).
		Str("correlation_id", ne.CorrelationID).
		Msg("paypal nvp error")
	return nil, ne.classify()
}

func encode(method string, o Options, params any) (url.Values, error) {
	form, err := query.Values(credentials{
		User:      o.User,
		Password:  o.Password,
		Signature: o.Signature,
		Version:   o.Version,
		Method:    method,
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "paypal: encode credentials")
	}
	if params == nil {
		return form, nil
	}
	extra, err := query.Values(params)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "paypal %s: encode params", method)
	}
	for k, vs := range extra {
		form[k] = vs
	}
	return form, nil
}

func (c *Client) post(ctx context.Context, method, body string) (string, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, strings.NewReader(body))
		if err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeUnknown, "paypal: new request")
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempts >= c.opts.MaxRetries || ctx.Err() != nil {
				return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "paypal %s: transport", method)
			}
			if err := c.retry(ctx, method, attempts, "transport error"); err != nil {
				return "", err
			}
			attempts++
			continue
		}

		payload, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return "", perr.Wrapf(readErr, perr.ErrorCodeUnavailable, "paypal %s: read reply", method)
			}
			return string(payload), nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if attempts >= c.opts.MaxRetries {
				return "", perr.Newf(perr.ErrorCodeUnavailable, "paypal %s: status %d", method, resp.StatusCode)
			}
			if err := c.retry(ctx, method, attempts, "transient status"); err != nil {
				return "", err
			}
			attempts++
		default:
			return "", perr.Newf(perr.ErrorCodeDependency, "paypal %s: unexpected status %d", method, resp.StatusCode)
		}
	}
}

func (c *Client) retry(ctx context.Context, method string, attempt int, why string) error {
	back := c.backoff(attempt)
	c.log.Warn().Str("method", method).Dur("retry_in", back).Int("attempt", attempt).Msg("paypal " + why + " retrying")
	return c.sleep(ctx, back)
}

// sleepCtx waits d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if ceiling := 30 * time.Second; d > ceiling || d <= 0 {
		return ceiling
	}
	return d
}
