package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"kairos/internal/model"
)

var ErrInvalidPassword = errors.New("invalid password")

// AuthService guards the single-tenant form tool behind one access
// password and mints short-lived session tokens.
type AuthService struct {
	passwordHash []byte
	secret       string
}

func NewAuthService(password, secret string) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &AuthService{passwordHash: hash, secret: secret}, nil
}

// Authenticate checks the access password.
func (s *AuthService) Authenticate(password string) error {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// IssueToken mints a 24h HS256 session token.
func (s *AuthService) IssueToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": model.NewID(),
		"exp":        jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
