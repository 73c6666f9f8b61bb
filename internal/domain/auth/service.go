package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetTokenInvalid  = errors.New("invalid or expired token")
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

// Authenticate never reveals whether the e-mail exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Credentials, error) {
	creds, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return Credentials{}, ErrInvalidCredentials
	}
	if err != nil {
		return Credentials{}, err
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return Credentials{}, ErrInvalidCredentials
	}
	return creds, nil
}

// RequestReset returns ok=false (and no error) for unknown accounts.
func (s *Service) RequestReset(ctx context.Context, email string, ttl time.Duration) (Credentials, string, bool, error) {
	creds, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return Credentials{}, "", false, nil
	}
	if err != nil {
		return Credentials{}, "", false, err
	}
	token, err := GenerateOpaqueToken()
	if err != nil {
		return Credentials{}, "", false, err
	}
	if err := s.store.CreatePasswordReset(ctx, creds.ID, HashToken(token), s.now().Add(ttl)); err != nil {
		return Credentials{}, "", false, err
	}
	return creds, token, true, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.ConsumePasswordReset(ctx, HashToken(token), hash)
}

func GenerateOpaqueToken() (string, error) {
	buff := make([]byte, 32)
	if _, err := rand.Read(buff); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buff), nil
}
