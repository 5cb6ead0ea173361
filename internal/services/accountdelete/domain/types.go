// Package domain holds deletion requests, reasons, and the queue payload
package domain

import (
	"context"
	"strings"

	perr "reaper/internal/platform/errors"
)

// DeletionReason says who or what asked for an account to go away
type DeletionReason string

const (
	// ReasonUserRequested is the account owner deleting from settings
	ReasonUserRequested DeletionReason = "fxa_user_requested_account_delete"

	// ReasonUnverifiedAccount is the cleanup of accounts that never verified
	ReasonUnverifiedAccount DeletionReason = "fxa_unverified_account_delete"

	// ReasonFraud is an operator removing an abusive account
	ReasonFraud DeletionReason = "fraud"

	// ReasonOtherSystemInitiated covers any other automated caller
	ReasonOtherSystemInitiated DeletionReason = "other_system_initiated"
)

// Reasons lists every accepted reason in wire form
var Reasons = []DeletionReason{
	ReasonUserRequested,
	ReasonUnverifiedAccount,
	ReasonFraud,
	ReasonOtherSystemInitiated,
}

// ParseReason maps a wire value onto a DeletionReason
func ParseReason(s string) (DeletionReason, error) {
	s = strings.TrimSpace(s)
	for _, r := range Reasons {
		if string(r) == s {
			return r, nil
		}
	}
	return "", perr.WithField(perr.InvalidArgf("unknown deletion reason %q", s), "reason")
}

func (r DeletionReason) String() string { return string(r) }

// UserRequested reports whether the owner asked for the deletion
func (r DeletionReason) UserRequested() bool { return r == ReasonUserRequested }

// DeleteRequest names an account by uid or by email; build with ByUID or ByEmail
type DeleteRequest struct {
	uid    string
	email  string
	reason DeletionReason
}

// ByUID targets the account with uid
func ByUID(uid string, reason DeletionReason) DeleteRequest {
	return DeleteRequest{uid: strings.TrimSpace(uid), reason: reason}
}

// ByEmail targets the account whose primary email is email
func ByEmail(email string, reason DeletionReason) DeleteRequest {
	return DeleteRequest{email: strings.TrimSpace(email), reason: reason}
}

func (r DeleteRequest) UID() string            { return r.uid }
func (r DeleteRequest) Email() string          { return r.email }
func (r DeleteRequest) Reason() DeletionReason { return r.reason }

// EmailLookup resolves an email to its account uid
type EmailLookup func(ctx context.Context, email string) (string, error)

// Resolve pins the request to a canonical uid
// a uid request never calls lookup; an email request needs one
func (r DeleteRequest) Resolve(ctx context.Context, lookup EmailLookup) (ResolvedRequest, error) {
	switch {
	case r.uid != "":
		return ResolvedRequest{uid: r.uid, reason: r.reason}, nil
	case r.email == "":
		return ResolvedRequest{}, perr.InvalidArgf("delete request needs a uid or an email")
	case lookup == nil:
		return ResolvedRequest{}, perr.Preconditionf("no email lookup configured")
	}
	uid, err := lookup(ctx, r.email)
	if err != nil {
		return ResolvedRequest{}, perr.WithOp(err, "resolve email")
	}
	return ResolvedRequest{uid: uid, reason: r.reason}, nil
}

// ResolvedRequest is a DeleteRequest after its uid is known
type ResolvedRequest struct {
	uid    string
	reason DeletionReason
}

func (r ResolvedRequest) UID() string            { return r.uid }
func (r ResolvedRequest) Reason() DeletionReason { return r.reason }

// DeleteTask is the queue payload delivered to the deletion callback
type DeleteTask struct {
	UID        string         `json:"uid"                  validate:"required,account_uid"                                                                                  example:"2b4f0e5c1c0a4d8f9c1f0c6b3a2e7d11"`
	CustomerID string         `json:"customerId,omitempty" validate:"omitempty,startswith=cus_,max=255"                                                                    example:"cus_Nffrfeu2Rf3bQ1"`
	Reason     DeletionReason `json:"reason"               validate:"required,oneof=fxa_user_requested_account_delete fxa_unverified_account_delete fraud other_system_initiated" example:"fxa_unverified_account_delete"`
}

// EnqueuedTask is the handle of a scheduled deletion
type EnqueuedTask struct {
	Name string `json:"name" example:"projects/p/locations/l/queues/delete-accounts-queue/tasks/123"`
}
