// Package auth manages session tokens on top of the document store. A token
// is an opaque random id owning an email and an absolute expiry; it is
// revoked by deleting its document. Expired tokens are not swept, they just
// fail every future check.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/pizzapizza/pizzeria/store"
	"github.com/pizzapizza/pizzeria/utils"
)

const tokenIDLength = 20

type Token struct {
	TokenID string    `json:"tokenId"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

var errExpired = errors.New("token expired")

type Service struct {
	tokens *store.Collection
	ttl    time.Duration
	now    func() time.Time
}

func NewService(tokens *store.Collection, ttl time.Duration) *Service {
	return &Service{
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates and persists a fresh token for email. Multiple live tokens
// per user are allowed.
func (s *Service) Issue(email string) (Token, error) {
	id, err := utils.RandomString(tokenIDLength)
	if err != nil {
		return Token{}, err
	}

	token := Token{
		TokenID: id,
		Email:   email,
		Expires: s.now().Add(s.ttl),
	}
	if err := s.tokens.Create(id, token); err != nil {
		return Token{}, fmt.Errorf("persist token: %w", err)
	}
	return token, nil
}

// Authenticate reports whether the token exists and is unexpired. It does
// not check ownership.
func (s *Service) Authenticate(tokenID string) bool {
	_, err := s.lookup(tokenID)
	return err == nil
}

// Authorize reports whether the token exists, is unexpired and belongs to
// email.
func (s *Service) Authorize(tokenID, email string) bool {
	token, err := s.lookup(tokenID)
	return err == nil && email != "" && token.Email == email
}

// ResolveEmail returns the owning email of a valid token.
func (s *Service) ResolveEmail(tokenID string) (string, error) {
	token, err := s.lookup(tokenID)
	if err != nil {
		return "", err
	}
	return token.Email, nil
}

// Revoke deletes the token. Revoking an unknown token returns
// store.ErrNotFound.
func (s *Service) Revoke(tokenID string) error {
	if tokenID == "" {
		return store.ErrNotFound
	}
	return s.tokens.Delete(tokenID)
}

func (s *Service) lookup(tokenID string) (Token, error) {
	if tokenID == "" {
		return Token{}, store.ErrNotFound
	}

	var token Token
	if err := s.tokens.Read(tokenID, &token); err != nil {
		return Token{}, err
	}
	if !token.Expires.After(s.now()) {
		return Token{}, errExpired
	}
	return token, nil
}
