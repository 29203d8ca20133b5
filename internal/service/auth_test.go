package service

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthService(t *testing.T) {
	svc, err := NewAuthService("hunter2", "test-secret")
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}

	if err := svc.Authenticate("hunter2"); err != nil {
		t.Errorf("Authenticate(correct) error = %v", err)
	}
	if err := svc.Authenticate("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Authenticate(wrong) error = %v, want ErrInvalidPassword", err)
	}

	tokenString, err := svc.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["session_id"] == "" {
		t.Error("session_id claim missing")
	}
}
