package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"kpi/internal/platform/querier"
)

type Credentials struct {
	ID           string
	Email        string
	Name         string
	RoleName     string
	DepartmentID string
	PasswordHash string
}

type StoreAPI interface {
	FindUserByEmail(ctx context.Context, email string) (Credentials, error)
	CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error
	ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string) error
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (Credentials, error) {
	var out Credentials
	var departmentID *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, name, role, department_id, password_hash
    FROM users
    WHERE email = $1
  `, strings.ToLower(strings.TrimSpace(email))).Scan(&out.ID, &out.Email, &out.Name, &out.RoleName, &departmentID, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, ErrUserNotFound
	}
	if err != nil {
		return Credentials{}, err
	}
	if departmentID != nil {
		out.DepartmentID = *departmentID
	}
	return out, nil
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, "INSERT INTO password_resets (user_id, token, expires_at) VALUES ($1, $2, $3)", userID, tokenHash, expires)
	return err
}

func (s *Store) ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `
    SELECT user_id
    FROM password_resets
    WHERE token = $1 AND expires_at > now() AND used_at IS NULL
    FOR UPDATE
  `, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2", passwordHash, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE token = $1", tokenHash); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
