package firebase

import (
	"context"
	"errors"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/memberhub/backend/internal/auth"
	"go.uber.org/zap"
)

var errMissingAuthClient = errors.New("firebase: auth client required")

// authClient is the subset of the Admin SDK auth client used by AuthProvider.
type authClient interface {
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*fbauth.Token, error)
}

// AuthProvider implements auth.Provider with Firebase Authentication.
type AuthProvider struct {
	client authClient
	logger *zap.Logger
}

var _ auth.Provider = (*AuthProvider)(nil)

// NewAuthProvider wraps the Admin SDK auth client.
func NewAuthProvider(client *fbauth.Client, logger *zap.Logger) (*AuthProvider, error) {
	if client == nil {
		return nil, errMissingAuthClient
	}
	return newAuthProvider(client, logger), nil
}

func newAuthProvider(client authClient, logger *zap.Logger) *AuthProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthProvider{client: client, logger: logger}
}

func (p *AuthProvider) CreateAccount(ctx context.Context, spec auth.AccountSpec) (string, error) {
	params := (&fbauth.UserToCreate{}).
		Email(spec.Email).
		Password(spec.Password).
		DisplayName(spec.DisplayName)
	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return "", fmt.Errorf("%w: %v", auth.ErrAccountExists, err)
		}
		return "", fmt.Errorf("firebase: create user: %w", err)
	}
	return record.UID, nil
}

func (p *AuthProvider) SetClaims(ctx context.Context, uid string, claims auth.Claims) error {
	if err := p.client.SetCustomUserClaims(ctx, uid, claims.Map()); err != nil {
		return fmt.Errorf("firebase: set custom claims: %w", err)
	}
	return nil
}

// VerifySessionCookie verifies the session cookie and checks it against the
// account's revocation timestamp.
func (p *AuthProvider) VerifySessionCookie(ctx context.Context, artifact string) (auth.VerifiedSession, error) {
	token, err := p.client.VerifySessionCookieAndCheckRevoked(ctx, artifact)
	if err != nil {
		return auth.VerifiedSession{}, classifyVerifyError(err)
	}
	return sessionFromToken(token), nil
}

func classifyVerifyError(err error) error {
	switch {
	case fbauth.IsSessionCookieRevoked(err), fbauth.IsUserDisabled(err):
		return fmt.Errorf("%w: %v", auth.ErrSessionRevoked, err)
	default:
		return fmt.Errorf("%w: %v", auth.ErrSessionInvalid, err)
	}
}

func sessionFromToken(token *fbauth.Token) auth.VerifiedSession {
	if token == nil {
		return auth.VerifiedSession{}
	}
	claims := make(map[string]interface{}, len(token.Claims))
	for key, value := range token.Claims {
		claims[key] = value
	}
	return auth.VerifiedSession{UID: token.UID, Claims: claims}
}
