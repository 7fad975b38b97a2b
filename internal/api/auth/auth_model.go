package auth

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/memento-app/memento-api/internal/api"
)

// Conflict errors distinguish which unique field collided (409 message).
var (
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", api.ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", api.ErrConflict)
)

const (
	minUsernameLen = 3
	maxUsernameLen = 100
	minPasswordLen = 8
)

// User is the stored identity record. The password hash is never serialized.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks field constraints before anything touches the store.
func (r *RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email must be a valid address", api.ErrValidation)
	}
	if len(r.Username) < minUsernameLen || len(r.Username) > maxUsernameLen {
		return fmt.Errorf("%w: username must be between %d and %d characters", api.ErrValidation, minUsernameLen, maxUsernameLen)
	}
	if len(r.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", api.ErrValidation, minPasswordLen)
	}
	return nil
}

// TokenResponse represents the successful JSON response after login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Claims carried by the access token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
