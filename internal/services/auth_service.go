package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)

// IdentityProvider verifies a bearer credential and returns who it belongs to.
type IdentityProvider interface {
	Verify(ctx context.Context, credential string) (*models.Identity, error)
}

// JWTVerifier accepts HS256 tokens carrying "sub" and "email" claims.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Issue signs a token for identity. Used by tooling and tests.
func (v *JWTVerifier) Issue(identity *models.Identity, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   identity.UID,
		"email": identity.Email,
		"exp":   time.Now().Add(expiry).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func (v *JWTVerifier) Verify(_ context.Context, credential string) (*models.Identity, error) {
	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	uid, ok := claims["sub"].(string)
	if !ok || uid == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return &models.Identity{UID: uid, Email: email}, nil
}

// FirebaseVerifier checks Firebase ID tokens issued to the mobile app.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, credential string) (*models.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, credential)
	if err != nil {
		return nil, ErrInvalidToken
	}
	email, _ := token.Claims["email"].(string)
	return &models.Identity{UID: token.UID, Email: email}, nil
}

type AuthService struct {
	provider IdentityProvider
	tokens   repositories.TokenRepository
}

func NewAuthService(provider IdentityProvider, tokens repositories.TokenRepository) *AuthService {
	return &AuthService{provider: provider, tokens: tokens}
}

// Enabled is false when no identity provider is configured.
func (s *AuthService) Enabled() bool {
	return s != nil && s.provider != nil
}

func (s *AuthService) Verify(ctx context.Context, credential string) (*models.Identity, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("identity provider not configured: %w", apperrors.ErrUnavailable)
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrInvalidToken
	}
	return s.provider.Verify(ctx, credential)
}

// VerifyAndRecord verifies credential and stores the uid/email pair.
func (s *AuthService) VerifyAndRecord(ctx context.Context, credential string) (*models.Identity, error) {
	identity, err := s.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.SaveIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to record identity: %w: %w", apperrors.ErrUnavailable, err)
	}
	return identity, nil
}
