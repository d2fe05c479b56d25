package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"pos_sync/pkg/securestore"

	"github.com/golang-jwt/jwt"
)

const (
	tokenKey = "token"
	userKey  = "user"

	// RoleManager unlocks privileged sync behavior (remote item deletion).
	RoleManager = "manager"
)

type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session exposes the identity the app shell established at login. The user
// record and the bearer token live in the secure store, written by the login
// flow outside this process.
type Session struct {
	store *securestore.Store
}

func NewSession(store *securestore.Store) *Session {
	return &Session{store: store}
}

// Token returns the stored bearer credential, or empty when not logged in.
func (s *Session) Token() (string, error) {
	token, err := s.store.Get(tokenKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// CurrentUser reads the stored user record. When only a token is present the
// identity claims inside it are used instead; the signature is not checked
// here because the server verifies it on every call anyway.
func (s *Session) CurrentUser() (*User, error) {
	raw, err := s.store.Get(userKey)
	if err == nil {
		var user User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
		return &user, nil
	}
	if !errors.Is(err, securestore.ErrNotFound) {
		return nil, err
	}

	return s.userFromToken()
}

func (s *Session) IsManager() bool {
	user, err := s.CurrentUser()
	if err != nil || user == nil {
		return false
	}
	return user.Role == RoleManager
}

func (s *Session) Username() string {
	user, err := s.CurrentUser()
	if err != nil || user == nil {
		return ""
	}
	return user.Username
}

func (s *Session) userFromToken() (*User, error) {
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	user := &User{}
	if username, ok := claims["username"].(string); ok {
		user.Username = username
	}
	if role, ok := claims["role"].(string); ok {
		user.Role = role
	}
	return user, nil
}
