package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-credential-api/internal/domain"
	"github.com/go-credential-api/internal/pkg/id"
)

// --- consumer interfaces ---

// Store persists credentials. Write conditions are enforced by the store and
// reported as domain.ErrConflict.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	GetByToken(ctx context.Context, token string) (*domain.Credential, error)
	Insert(ctx context.Context, c *domain.Credential) error
	Replace(ctx context.Context, stale, fresh *domain.Credential) error
	MarkVerified(ctx context.Context, c *domain.Credential, token string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenGenerator interface {
	Generate() (string, error)
}

type TokenSigner interface {
	Sign(email, userID string) (string, error)
}

// Notifier delivers a verification link to an email address.
type Notifier interface {
	SendVerification(ctx context.Context, to, link string) error
}

// Metrics records lifecycle outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveOutcome(op, outcome string)
	ObserveDelivery(op string, sent bool)
}

// --- results ---

type SignupResult struct {
	CredentialID string
	Delivery     domain.Delivery
}

type LoginResult struct {
	CredentialID       string
	AccessToken        string
	VerificationNeeded bool
	Delivery           domain.Delivery
}

type ConfirmResult struct {
	CredentialID string
	AccessToken  string
}

// Service runs the credential lifecycle: signup, login and confirm.
type Service interface {
	Signup(ctx context.Context, email, password string) (*SignupResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Confirm(ctx context.Context, token string) (*ConfirmResult, error)
}

// ServiceDeps holds every dependency of the lifecycle service.
type ServiceDeps struct {
	Store    Store
	Hasher   PasswordHasher
	Tokens   TokenGenerator
	Signer   TokenSigner
	Notifier Notifier
	Metrics  Metrics

	// PublicBaseURL prefixes verification links, without a trailing slash.
	PublicBaseURL string
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
	Now           func() time.Time
}

type service struct {
	store         Store
	hasher        PasswordHasher
	tokens        TokenGenerator
	signer        TokenSigner
	notifier      Notifier
	metrics       Metrics
	publicBaseURL string
	storeTimeout  time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewService(d ServiceDeps) Service {
	s := &service{
		store:         d.Store,
		hasher:        d.Hasher,
		tokens:        d.Tokens,
		signer:        d.Signer,
		notifier:      d.Notifier,
		metrics:       d.Metrics,
		publicBaseURL: d.PublicBaseURL,
		storeTimeout:  d.StoreTimeout,
		notifyTimeout: d.NotifyTimeout,
		now:           d.Now,
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

const (
	opSignup  = "signup"
	opLogin   = "login"
	opConfirm = "confirm"
)

func (s *service) Signup(ctx context.Context, email, password string) (*SignupResult, error) {
	existing, err := s.getByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		existing = nil
	case err != nil:
		s.metrics.ObserveOutcome(opSignup, "persistence_error")
		return nil, fmt.Errorf("lookup credential: %w: %w", domain.ErrPersistence, err)
	case existing.IsVerified:
		s.metrics.ObserveOutcome(opSignup, "already_registered")
		return nil, fmt.Errorf("email taken: %w", domain.ErrAlreadyRegistered)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.ObserveOutcome(opSignup, "internal_error")
		return nil, err
	}
	token, err := s.tokens.Generate()
	if err != nil {
		s.metrics.ObserveOutcome(opSignup, "internal_error")
		return nil, err
	}
	fresh := &domain.Credential{
		ID:                id.New(),
		Email:             email,
		PasswordHash:      hash,
		ConfirmationToken: token,
		CreatedAt:         s.now().UTC(),
	}

	if err := s.persistSignup(ctx, existing, fresh); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.metrics.ObserveOutcome(opSignup, "already_registered")
			return nil, fmt.Errorf("concurrent signup: %w", domain.ErrAlreadyRegistered)
		}
		s.metrics.ObserveOutcome(opSignup, "persistence_error")
		return nil, fmt.Errorf("store credential: %w: %w", domain.ErrPersistence, err)
	}
	if existing != nil {
		slog.Info("unverified credential replaced", "credential_id", fresh.ID, "replaced_id", existing.ID)
		s.metrics.ObserveOutcome(opSignup, "replaced")
	} else {
		slog.Info("credential created", "credential_id", fresh.ID)
		s.metrics.ObserveOutcome(opSignup, "created")
	}

	return &SignupResult{
		CredentialID: fresh.ID,
		Delivery:     s.sendVerification(ctx, opSignup, fresh),
	}, nil
}

func (s *service) persistSignup(ctx context.Context, stale, fresh *domain.Credential) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if stale == nil {
		return s.store.Insert(ctx, fresh)
	}
	return s.store.Replace(ctx, stale, fresh)
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	c, err := s.getByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.metrics.ObserveOutcome(opLogin, "not_found")
		return nil, fmt.Errorf("no credential for email: %w", domain.ErrNotFound)
	}
	if err != nil {
		s.metrics.ObserveOutcome(opLogin, "persistence_error")
		return nil, fmt.Errorf("lookup credential: %w: %w", domain.ErrPersistence, err)
	}
	if !s.hasher.Verify(password, c.PasswordHash) {
		slog.Info("login rejected", "credential_id", c.ID)
		s.metrics.ObserveOutcome(opLogin, "invalid_credentials")
		return nil, fmt.Errorf("password mismatch: %w", domain.ErrInvalidCredentials)
	}

	if c.Pending() {
		s.metrics.ObserveOutcome(opLogin, "verification_needed")
		return &LoginResult{
			CredentialID:       c.ID,
			VerificationNeeded: true,
			Delivery:           s.sendVerification(ctx, opLogin, c),
		}, nil
	}

	access, err := s.signer.Sign(c.Email, c.ID)
	if err != nil {
		s.metrics.ObserveOutcome(opLogin, "internal_error")
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	s.metrics.ObserveOutcome(opLogin, "success")
	return &LoginResult{CredentialID: c.ID, AccessToken: access}, nil
}

func (s *service) Confirm(ctx context.Context, token string) (*ConfirmResult, error) {
	if token == "" {
		s.metrics.ObserveOutcome(opConfirm, "invalid_token")
		return nil, fmt.Errorf("empty token: %w", domain.ErrInvalidToken)
	}

	c, err := s.getByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		s.metrics.ObserveOutcome(opConfirm, "invalid_token")
		return nil, fmt.Errorf("token unknown: %w", domain.ErrInvalidToken)
	}
	if err != nil {
		s.metrics.ObserveOutcome(opConfirm, "persistence_error")
		return nil, fmt.Errorf("lookup token: %w: %w", domain.ErrPersistence, err)
	}

	if err := s.markVerified(ctx, c, token); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.metrics.ObserveOutcome(opConfirm, "invalid_token")
			return nil, fmt.Errorf("token already consumed: %w", domain.ErrInvalidToken)
		}
		s.metrics.ObserveOutcome(opConfirm, "persistence_error")
		return nil, fmt.Errorf("mark verified: %w: %w", domain.ErrPersistence, err)
	}
	slog.Info("credential verified", "credential_id", c.ID)

	access, err := s.signer.Sign(c.Email, c.ID)
	if err != nil {
		s.metrics.ObserveOutcome(opConfirm, "internal_error")
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	s.metrics.ObserveOutcome(opConfirm, "success")
	return &ConfirmResult{CredentialID: c.ID, AccessToken: access}, nil
}

func (s *service) markVerified(ctx context.Context, c *domain.Credential, token string) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.MarkVerified(ctx, c, token)
}

func (s *service) getByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.GetByEmail(ctx, email)
}

func (s *service) getByToken(ctx context.Context, token string) (*domain.Credential, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.GetByToken(ctx, token)
}

// sendVerification mails the confirmation link for c and reports the outcome.
// It never fails the calling operation.
func (s *service) sendVerification(ctx context.Context, op string, c *domain.Credential) domain.Delivery {
	ctx, cancel := withTimeout(ctx, s.notifyTimeout)
	defer cancel()

	d := domain.Delivery{To: c.Email}
	if err := s.notifier.SendVerification(ctx, c.Email, s.verificationLink(c.ConfirmationToken)); err != nil {
		slog.Warn("verification email not delivered", "credential_id", c.ID, "op", op, "err", err)
		d.Err = fmt.Errorf("send verification: %w: %w", domain.ErrNotification, err)
	} else {
		d.Sent = true
	}
	s.metrics.ObserveDelivery(op, d.Sent)
	return d
}

// verificationLink builds the URL a user follows to confirm their email.
func (s *service) verificationLink(token string) string {
	return s.publicBaseURL + "/auth/v1/confirm?token=" + url.QueryEscape(token)
}

func (s *service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.storeTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOutcome(string, string) {}
func (nopMetrics) ObserveDelivery(string, bool)  {}
