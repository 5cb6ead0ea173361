// Package domain holds account and device types independent of storage
package domain

import (
	"time"

	perr "reaper/internal/platform/errors"
)

// ErrUnknownAccount is returned when no account row exists for a uid or email
var ErrUnknownAccount = perr.New(perr.ErrorCodeNotFound, "unknown account")

// Account is the primary account record
type Account struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Device is a registered client of an account; PushCallback is empty when push is off
type Device struct {
	ID           string `json:"id"`
	UID          string `json:"uid"`
	Name         string `json:"name"`
	PushCallback string `json:"push_callback,omitempty"`
}
