package handler

import (
	"encoding/json"
	"net/http"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SignupEnvelope wraps signup responses. Warning is set when the record was
// stored but the verification email could not be delivered.
type SignupEnvelope struct {
	Message      string `json:"message"`
	CredentialID string `json:"credential_id"`
	Warning      string `json:"warning,omitempty"`
}

// LoginEnvelope wraps login responses. Exactly one of AccessToken and
// VerificationNeeded is set.
type LoginEnvelope struct {
	UserID             string `json:"user_id,omitempty"`
	AccessToken        string `json:"accessToken,omitempty"`
	Message            string `json:"message,omitempty"`
	VerificationNeeded bool   `json:"verification_needed,omitempty"`
	Warning            string `json:"warning,omitempty"`
}

// SessionEnvelope describes the session token presented by the caller.
type SessionEnvelope struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
