package domain

import "time"

// Credential binds an email to a password hash and its verification state.
// ConfirmationToken is non-empty exactly while IsVerified is false; the
// attribute is omitted from storage once cleared so the token GSI stays sparse.
type Credential struct {
	ID                string    `json:"id" dynamodbav:"credential_id"`
	Email             string    `json:"email" dynamodbav:"email"`
	PasswordHash      string    `json:"-" dynamodbav:"password_hash"`
	IsVerified        bool      `json:"is_verified" dynamodbav:"is_verified"`
	ConfirmationToken string    `json:"-" dynamodbav:"confirmation_token,omitempty"`
	CreatedAt         time.Time `json:"created" dynamodbav:"created_at"`
}

// Pending reports whether the credential still awaits email confirmation.
func (c *Credential) Pending() bool {
	return !c.IsVerified
}

// EmailGuard reserves an email for exactly one credential.
// PK: email. Rewritten on re-registration, flagged on confirmation.
type EmailGuard struct {
	Email        string `json:"email" dynamodbav:"email"`
	CredentialID string `json:"credential_id" dynamodbav:"credential_id"`
	IsVerified   bool   `json:"is_verified" dynamodbav:"is_verified"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}
