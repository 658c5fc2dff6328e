// internal/admin/service.go
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidPassword = errors.New("password does not match")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrNoAdmin         = errors.New("admin account does not exist")
)

// Service handles the single-admin authentication: login issuing a JWT,
// password change, and token verification for the middleware.
type Service struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(db *sql.DB, secret string, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureAdmin creates the admin account with the default password if none
// exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, defaultPassword string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, salt, err := hashPassword(defaultPassword)
	if err != nil {
		return fmt.Errorf("hash default password: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (password_hash, salt) VALUES ($1, $2)`, hash, salt); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Warn("admin account created with default password, change it")
	return nil
}

// Login verifies the password and returns a signed token.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	hash, salt, _, err := s.getAdmin(ctx)
	if err != nil {
		return "", err
	}

	ok, err := verifyPassword(password, salt, hash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidPassword
	}

	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ChangePassword rotates the admin password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	hash, salt, id, err := s.getAdmin(ctx)
	if err != nil {
		return err
	}

	ok, err := verifyPassword(current, salt, hash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidPassword
	}

	newHash, newSalt, err := hashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE admins SET password_hash = $1, salt = $2, updated_at = NOW() WHERE id = $3`,
		newHash, newSalt, id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Verify parses and validates a token issued by Login.
func (s *Service) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != "admin" {
		return ErrInvalidToken
	}
	return nil
}

func (s *Service) getAdmin(ctx context.Context) (hash, salt string, id int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, salt FROM admins LIMIT 1`).Scan(&id, &hash, &salt)
	if err == sql.ErrNoRows {
		return "", "", 0, ErrNoAdmin
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("get admin: %w", err)
	}
	return hash, salt, id, nil
}
