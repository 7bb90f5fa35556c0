package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/mocks"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")
	token, err := verifier.Issue(&models.Identity{UID: "uid-1", Email: "a@x.com"}, time.Hour)
	require.NoError(t, err)

	identity, err := verifier.Verify(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, &models.Identity{UID: "uid-1", Email: "a@x.com"}, identity)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	wrongKey, err := NewJWTVerifier("other").Issue(&models.Identity{UID: "uid-1"}, time.Hour)
	require.NoError(t, err)
	expired, err := verifier.Issue(&models.Identity{UID: "uid-1"}, -time.Minute)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@x.com"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":    "not.a.token",
		"wrong key":  wrongKey,
		"expired":    expired,
		"no subject": noSubject,
	} {
		_, err := verifier.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized, name)
	}
}

func TestAuthService_VerifyAndRecord(t *testing.T) {
	// ARRANGE
	provider := new(mocks.MockIdentityProvider)
	tokens := new(mocks.MockTokenRepository)
	identity := &models.Identity{UID: "uid-1", Email: "a@x.com"}
	provider.On("Verify", mock.Anything, "cred").Return(identity, nil)
	tokens.On("SaveIdentity", mock.Anything, identity).Return(nil)

	// ACT
	got, err := NewAuthService(provider, tokens).VerifyAndRecord(context.Background(), " cred ")

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, identity, got)
	tokens.AssertExpectations(t)
}

func TestAuthService_VerifyAndRecord_InvalidCredential(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	tokens := new(mocks.MockTokenRepository)
	provider.On("Verify", mock.Anything, "bad").Return(nil, ErrInvalidToken)

	_, err := NewAuthService(provider, tokens).VerifyAndRecord(context.Background(), "bad")

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	tokens.AssertNotCalled(t, "SaveIdentity", mock.Anything, mock.Anything)
}

func TestAuthService_RecordFailure(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	tokens := new(mocks.MockTokenRepository)
	provider.On("Verify", mock.Anything, "cred").Return(&models.Identity{UID: "uid-1"}, nil)
	tokens.On("SaveIdentity", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := NewAuthService(provider, tokens).VerifyAndRecord(context.Background(), "cred")

	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestAuthService_EmptyCredential(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)

	_, err := NewAuthService(provider, nil).Verify(context.Background(), "")

	assert.ErrorIs(t, err, ErrInvalidToken)
	provider.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestAuthService_Disabled(t *testing.T) {
	var service *AuthService
	assert.False(t, service.Enabled())
	assert.False(t, NewAuthService(nil, nil).Enabled())
}
