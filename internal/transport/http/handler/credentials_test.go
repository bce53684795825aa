package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-credential-api/internal/application/credential"
	"github.com/go-credential-api/internal/domain"
	jwtinfra "github.com/go-credential-api/internal/infrastructure/jwt"
	"github.com/go-credential-api/internal/transport/http/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockCredentialSvc struct{ mock.Mock }

func (m *mockCredentialSvc) Signup(ctx context.Context, email, password string) (*credential.SignupResult, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*credential.SignupResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCredentialSvc) Login(ctx context.Context, email, password string) (*credential.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*credential.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCredentialSvc) Confirm(ctx context.Context, token string) (*credential.ConfirmResult, error) {
	args := m.Called(ctx, token)
	if r, _ := args.Get(0).(*credential.ConfirmResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v))
}

const validBody = `{"email":"alice@x.com","password":"password123"}`

// --- Signup ---

func TestSignup_Created(t *testing.T) {
	svc := &mockCredentialSvc{}
	svc.On("Signup", mock.Anything, "alice@x.com", "password123").
		Return(&credential.SignupResult{CredentialID: "c1", Delivery: domain.Delivery{Sent: true}}, nil)

	rr := post(NewCredentialHandler(svc, "http://app").Signup, validBody)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var env SignupEnvelope
	decode(t, rr, &env)
	assert.Equal(t, "c1", env.CredentialID)
	assert.Empty(t, env.Warning)
	svc.AssertExpectations(t)
}

func TestSignup_DeliveryFailedStillCreated(t *testing.T) {
	svc := &mockCredentialSvc{}
	svc.On("Signup", mock.Anything, "alice@x.com", "password123").Return(&credential.SignupResult{
		CredentialID: "c1",
		Delivery:     domain.Delivery{Err: domain.ErrNotification},
	}, nil)

	rr := post(NewCredentialHandler(svc, "http://app").Signup, validBody)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var env SignupEnvelope
	decode(t, rr, &env)
	assert.Equal(t, msgDeliveryFailed, env.Warning)
}

func TestSignup_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"already registered", fmt.Errorf("email taken: %w", domain.ErrAlreadyRegistered), http.StatusConflict},
		{"persistence", fmt.Errorf("store: %w", domain.ErrPersistence), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockCredentialSvc{}
			svc.On("Signup", mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)

			rr := post(NewCredentialHandler(svc, "http://app").Signup, validBody)
			assert.Equal(t, tc.code, rr.Code)
		})
	}
}

func TestSignup_Validation(t *testing.T) {
	svc := &mockCredentialSvc{}
	h := NewCredentialHandler(svc, "http://app").Signup

	assert.Equal(t, http.StatusBadRequest, post(h, `{"email":"not-an-email","password":"password123"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"email":"alice@x.com","password":"short"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `not json`).Code)
	svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_MultibytePasswordOverBcryptLimit(t *testing.T) {
	svc := &mockCredentialSvc{}
	body := `{"email":"alice@x.com","password":"` + strings.Repeat("é", 40) + `"}`

	rr := post(NewCredentialHandler(svc, "http://app").Signup, body)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything)
}

// --- Login ---

func TestLogin_Verified(t *testing.T) {
	svc := &mockCredentialSvc{}
	svc.On("Login", mock.Anything, "alice@x.com", "password123").
		Return(&credential.LoginResult{CredentialID: "c1", AccessToken: "jwt"}, nil)

	rr := post(NewCredentialHandler(svc, "http://app").Login, validBody)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	decode(t, rr, &body)
	assert.Equal(t, "c1", body["user_id"])
	assert.Equal(t, "jwt", body["accessToken"])
}

func TestLogin_VerificationNeeded(t *testing.T) {
	svc := &mockCredentialSvc{}
	svc.On("Login", mock.Anything, "alice@x.com", "password123").
		Return(&credential.LoginResult{CredentialID: "c1", VerificationNeeded: true, Delivery: domain.Delivery{Sent: true}}, nil)

	rr := post(NewCredentialHandler(svc, "http://app").Login, validBody)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env LoginEnvelope
	decode(t, rr, &env)
	assert.True(t, env.VerificationNeeded)
	assert.Empty(t, env.AccessToken)
	assert.Empty(t, env.UserID)
}

func TestLogin_NotFoundAndWrongPasswordLookAlike(t *testing.T) {
	var bodies []string
	for _, kind := range []error{domain.ErrNotFound, domain.ErrInvalidCredentials} {
		svc := &mockCredentialSvc{}
		svc.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, fmt.Errorf("login: %w", kind))

		rr := post(NewCredentialHandler(svc, "http://app").Login, validBody)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		bodies = append(bodies, rr.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
}

// --- Confirm ---

func TestConfirm_RedirectsWithToken(t *testing.T) {
	svc := &mockCredentialSvc{}
	svc.On("Confirm", mock.Anything, "tok").Return(&credential.ConfirmResult{CredentialID: "c1", AccessToken: "jwt.value"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/v1/confirm?token=tok", nil)
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc, "https://app.example.com").Confirm(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", loc.Host)
	assert.Equal(t, "/auth/confirm/", loc.Path)
	assert.Equal(t, "jwt.value", loc.Query().Get("jwtToken"))
	assert.Equal(t, "c1", loc.Query().Get("userId"))
}

func TestConfirm_InvalidToken(t *testing.T) {
	svc := &mockCredentialSvc{}
	svc.On("Confirm", mock.Anything, "used").Return(nil, fmt.Errorf("token unknown: %w", domain.ErrInvalidToken))

	req := httptest.NewRequest(http.MethodGet, "/auth/v1/confirm?token=used", nil)
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc, "https://app.example.com").Confirm(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var env MessageEnvelope
	decode(t, rr, &env)
	assert.Equal(t, "invalid confirmation token", env.Error)
	assert.NotContains(t, rr.Body.String(), "used")
}

func TestConfirm_PersistenceFailure(t *testing.T) {
	svc := &mockCredentialSvc{}
	svc.On("Confirm", mock.Anything, "tok").Return(nil, fmt.Errorf("mark verified: %w", domain.ErrPersistence))

	req := httptest.NewRequest(http.MethodGet, "/auth/v1/confirm?token=tok", nil)
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc, "https://app.example.com").Confirm(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// --- Session ---

func TestGetSession_EchoesClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims := &jwtinfra.Claims{
		Email:            "alice@x.com",
		UserID:           "c1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/v1/session", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	rr := httptest.NewRecorder()

	GetSession(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env SessionEnvelope
	decode(t, rr, &env)
	assert.Equal(t, SessionEnvelope{UserID: "c1", Email: "alice@x.com", ExpiresAt: exp.Unix()}, env)
}

func TestGetSession_NoClaims(t *testing.T) {
	rr := httptest.NewRecorder()
	GetSession(rr, httptest.NewRequest(http.MethodGet, "/auth/v1/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
