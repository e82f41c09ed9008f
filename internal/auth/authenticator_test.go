package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func freshClaims(userID string) Claims {
	return Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	authenticator := New(testSecret, users)

	schoolID := "s1"
	users.On("GetUser", mock.Anything, "u1").
		Return(models.User{ID: "u1", Email: "u1@school.test", SchoolID: &schoolID}, nil).Once()

	principal, err := authenticator.Authenticate(context.Background(), signToken(t, testSecret, freshClaims("u1")))
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UserID)
	assert.Equal(t, "u1@school.test", principal.Email)
	require.NotNil(t, principal.SchoolID)
	assert.Equal(t, "s1", *principal.SchoolID)
	users.AssertExpectations(t)
}

func TestAuthenticatePrefersSchoolClaim(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	authenticator := New(testSecret, users)

	rowSchool := "s-row"
	users.On("GetUser", mock.Anything, "u1").
		Return(models.User{ID: "u1", Email: "u1@school.test", SchoolID: &rowSchool}, nil).Once()

	claims := freshClaims("u1")
	claims.SchoolID = "s-claim"
	principal, err := authenticator.Authenticate(context.Background(), signToken(t, testSecret, claims))
	require.NoError(t, err)
	require.NotNil(t, principal.SchoolID)
	assert.Equal(t, "s-claim", *principal.SchoolID)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	authenticator := New(testSecret, users)

	claims := freshClaims("u1")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := authenticator.Authenticate(context.Background(), signToken(t, testSecret, claims))
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonExpired, authErr.Reason)
	users.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestAuthenticateBadSignature(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	authenticator := New(testSecret, users)

	_, err := authenticator.Authenticate(context.Background(), signToken(t, "other-secret", freshClaims("u1")))
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonInvalid, authErr.Reason)
}

func TestAuthenticateGarbageToken(t *testing.T) {
	authenticator := New(testSecret, new(mocks.UserRepositoryMock))

	_, err := authenticator.Authenticate(context.Background(), "not-a-token")
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonInvalid, authErr.Reason)
}

func TestAuthenticateMissingSubject(t *testing.T) {
	authenticator := New(testSecret, new(mocks.UserRepositoryMock))

	_, err := authenticator.Authenticate(context.Background(), signToken(t, testSecret, freshClaims("")))
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonInvalid, authErr.Reason)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	authenticator := New(testSecret, users)

	users.On("GetUser", mock.Anything, "ghost").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := authenticator.Authenticate(context.Background(), signToken(t, testSecret, freshClaims("ghost")))
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonUnknownSubject, authErr.Reason,
		"a valid token for a deleted user is an auth failure, not a nil principal")
	users.AssertExpectations(t)
}
