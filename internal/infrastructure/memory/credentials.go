package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-credential-api/internal/domain"
)

// CredentialStore keeps credentials in process memory. It applies the same
// conditions as the DynamoDB repo under a single mutex, which makes it a
// faithful stand-in for local runs and tests.
type CredentialStore struct {
	mu      sync.Mutex
	byID    map[string]domain.Credential
	byEmail map[string]string // email -> credential id
	byToken map[string]string // confirmation token -> credential id
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byID:    make(map[string]domain.Credential),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
	}
}

func (s *CredentialStore) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byEmail, email)
}

func (s *CredentialStore) GetByToken(ctx context.Context, token string) (*domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byToken, token)
}

func (s *CredentialStore) lookup(index map[string]string, key string) (*domain.Credential, error) {
	id, ok := index[key]
	if !ok {
		return nil, fmt.Errorf("credential not found: %w", domain.ErrNotFound)
	}
	c := s.byID[id]
	return &c, nil
}

func (s *CredentialStore) Insert(ctx context.Context, c *domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[c.Email]; taken {
		return fmt.Errorf("email already claimed: %w", domain.ErrConflict)
	}
	return s.put(c)
}

func (s *CredentialStore) Replace(ctx context.Context, stale, fresh *domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if stale.Email != fresh.Email {
		return fmt.Errorf("replace across emails: %w", domain.ErrBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[stale.ID]
	if !ok || cur.IsVerified || cur.ConfirmationToken != stale.ConfirmationToken || s.byEmail[stale.Email] != stale.ID {
		return fmt.Errorf("stale credential changed: %w", domain.ErrConflict)
	}
	if _, exists := s.byID[fresh.ID]; exists {
		return fmt.Errorf("credential id reused: %w", domain.ErrConflict)
	}
	delete(s.byID, cur.ID)
	delete(s.byToken, cur.ConfirmationToken)
	delete(s.byEmail, cur.Email)
	return s.put(fresh)
}

func (s *CredentialStore) MarkVerified(ctx context.Context, c *domain.Credential, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[c.ID]
	if !ok || cur.IsVerified || cur.ConfirmationToken == "" || cur.ConfirmationToken != token {
		return fmt.Errorf("token no longer matches: %w", domain.ErrConflict)
	}
	delete(s.byToken, cur.ConfirmationToken)
	cur.IsVerified = true
	cur.ConfirmationToken = ""
	s.byID[cur.ID] = cur
	return nil
}

// put requires s.mu to be held.
func (s *CredentialStore) put(c *domain.Credential) error {
	if c.ConfirmationToken != "" {
		if _, dup := s.byToken[c.ConfirmationToken]; dup {
			return fmt.Errorf("confirmation token reused: %w", domain.ErrConflict)
		}
		s.byToken[c.ConfirmationToken] = c.ID
	}
	s.byID[c.ID] = *c
	s.byEmail[c.Email] = c.ID
	return nil
}

// Len returns the number of stored credentials.
func (s *CredentialStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
