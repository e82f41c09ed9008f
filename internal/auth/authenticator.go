package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

// Reason classifies a handshake authentication failure. Reasons are logged
// and audited but never sent to the client.
type Reason string

const (
	ReasonExpired        Reason = "expired"
	ReasonInvalid        Reason = "invalid"
	ReasonUnknownSubject Reason = "unknown-subject"
)

// Error is a connection-establishment failure. It is always fatal to the
// connection being opened.
type Error struct {
	Reason Reason
	err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Claims mirrors the token payload the login service issues.
type Claims struct {
	UserID   string `json:"id"`
	SchoolID string `json:"schoolID,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator resolves a raw credential token into a Principal. A
// syntactically valid token whose subject no longer exists in the user
// directory is an authentication failure, not a principal with a nil user.
type Authenticator struct {
	secret []byte
	users  repositories.UserRepository
}

// New constructs an Authenticator.
func New(secret string, users repositories.UserRepository) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users}
}

// Authenticate validates the token signature and expiry, then resolves the
// subject against the user directory.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, &Error{Reason: ReasonExpired, err: err}
		}
		return models.Principal{}, &Error{Reason: ReasonInvalid, err: err}
	}
	if !parsed.Valid || claims.UserID == "" {
		return models.Principal{}, &Error{Reason: ReasonInvalid, err: errors.New("missing subject")}
	}

	user, err := a.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.Principal{}, &Error{Reason: ReasonUnknownSubject, err: err}
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("lookup subject: %w", err)
	}

	principal := models.Principal{
		UserID: user.ID,
		Email:  user.Email,
	}
	// Prefer the claim the login service embedded; fall back to the row.
	if claims.SchoolID != "" {
		schoolID := claims.SchoolID
		principal.SchoolID = &schoolID
	} else {
		principal.SchoolID = user.SchoolID
	}
	return principal, nil
}
