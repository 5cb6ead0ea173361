// Package domain holds oauth grant types held for an account
package domain

import "context"

// AccessToken is the cached view of a live access token
type AccessToken struct {
	ID       string
	UID      string
	ClientID string
	Public   bool
	CanGrant bool
}

// Revocable reports whether the token belongs to a public or can_grant client
func (t AccessToken) Revocable() bool { return t.Public || t.CanGrant }

// ServicePort is the oauth cleanup surface used during account deletion
type ServicePort interface {
	RemoveTokensAndCodes(ctx context.Context, uid string) error
	RemovePublicAndCanGrantTokens(ctx context.Context, uid string) error
}
