// Package identity is the thin user-facing edge of the workflow: it resolves
// user ids to display identity and validates presented access tokens.
// Credential management (passwords, token issuance) is deliberately absent.
package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
)

// User is the display identity the workflow needs: nothing more.
type User struct {
	ID    id.UserID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Directory is an in-memory user directory. In deployments with a real user
// service this is replaced by an adapter over that service; the workflow only
// depends on the GetUser shape.
type Directory struct {
	mu    sync.RWMutex
	users map[id.UserID]*User
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[id.UserID]*User)}
}

// Put registers or replaces a user.
func (d *Directory) Put(u *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clone := *u
	d.users[u.ID] = &clone
}

// GetUser resolves a user id. Returns sentinel.ErrNotFound when absent.
func (d *Directory) GetUser(ctx context.Context, userID id.UserID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

// FindByEmail resolves a user by email, case-insensitively.
// Returns sentinel.ErrNotFound when absent.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Claims is what the HTTP middleware needs from a validated token.
type Claims struct {
	UserID id.UserID
	Email  string
}

// TokenValidator verifies HS256 bearer tokens issued by the external identity
// provider sharing our signing key.
type TokenValidator struct {
	signingKey []byte
}

func NewTokenValidator(signingKey string) *TokenValidator {
	return &TokenValidator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a bearer token, extracting the caller's
// user id (sub) and email claims.
func (v *TokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.Newf(dErrors.CodeUnauthorized, "unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token is missing a subject")
	}
	userID, err := id.ParseUserID(sub)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a user id")
	}
	email, _ := claims["email"].(string)
	return &Claims{UserID: userID, Email: email}, nil
}
