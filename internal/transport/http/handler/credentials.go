package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-credential-api/internal/application/credential"
	"github.com/go-credential-api/internal/domain"
	"github.com/go-credential-api/internal/pkg/validate"
)

const (
	msgSignedUp            = "signup successful, check your email to confirm your address"
	msgVerificationNeeded  = "verification needed, please check your email"
	msgDeliveryFailed      = "verification email could not be sent, log in again to resend it"
	msgInvalidCredentials  = "invalid credentials"
	msgServiceUnavailable  = "service temporarily unavailable, please retry"
	msgInternalServerError = "internal server error"
)

// CredentialHandler serves signup, login and email confirmation.
type CredentialHandler struct {
	svc         credential.Service
	redirectURL string
}

// NewCredentialHandler redirects successful confirmations to
// <redirectURL>/auth/confirm/.
func NewCredentialHandler(svc credential.Service, redirectURL string) *CredentialHandler {
	return &CredentialHandler{svc: svc, redirectURL: redirectURL}
}

func (h *CredentialHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyRegistered):
			writeError(w, http.StatusConflict, domain.ErrAlreadyRegistered.Error())
		default:
			writeServiceError(w, "signup", err)
		}
		return
	}

	env := SignupEnvelope{Message: msgSignedUp, CredentialID: res.CredentialID}
	if res.Delivery.Failed() {
		env.Warning = msgDeliveryFailed
	}
	writeJSON(w, http.StatusCreated, env)
}

func (h *CredentialHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password look the same from outside.
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		writeServiceError(w, "login", err)
		return
	}

	if res.VerificationNeeded {
		env := LoginEnvelope{Message: msgVerificationNeeded, VerificationNeeded: true}
		if res.Delivery.Failed() {
			env.Warning = msgDeliveryFailed
		}
		writeJSON(w, http.StatusOK, env)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{UserID: res.CredentialID, AccessToken: res.AccessToken})
}

func (h *CredentialHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Confirm(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, domain.ErrInvalidToken.Error())
			return
		}
		writeServiceError(w, "confirm", err)
		return
	}

	q := url.Values{}
	q.Set("jwtToken", res.AccessToken)
	q.Set("userId", res.CredentialID)
	http.Redirect(w, r, h.redirectURL+"/auth/confirm/?"+q.Encode(), http.StatusFound)
}

// writeServiceError maps the remaining error kinds. Causes are logged, never returned.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, domain.ErrBadRequest.Error())
	case errors.Is(err, domain.ErrPersistence):
		slog.Error("credential store failure", "op", op, "err", err)
		writeError(w, http.StatusServiceUnavailable, msgServiceUnavailable)
	default:
		slog.Error("credential operation failed", "op", op, "err", err)
		writeError(w, http.StatusInternalServerError, msgInternalServerError)
	}
}
