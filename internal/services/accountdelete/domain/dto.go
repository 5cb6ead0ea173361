package domain

// DeleteInput is the body of the account deletion endpoint; exactly one of uid and email is set
type DeleteInput struct {
	UID    string         `json:"uid,omitempty"   validate:"required_without=Email,excluded_with=Email,omitempty,account_uid"                                           example:"2b4f0e5c1c0a4d8f9c1f0c6b3a2e7d11"`
	Email  string         `json:"email,omitempty" validate:"omitempty,email,max=255"                                                                                    example:"ada@example.com"`
	Reason DeletionReason `json:"reason"          validate:"required,oneof=fxa_user_requested_account_delete fxa_unverified_account_delete fraud other_system_initiated" example:"fxa_user_requested_account_delete"`
}

// Request turns the body into a DeleteRequest
func (in DeleteInput) Request() DeleteRequest {
	if in.UID != "" {
		return ByUID(in.UID, in.Reason)
	}
	return ByEmail(in.Email, in.Reason)
}
