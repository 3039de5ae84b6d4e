package auth

import (
	"context"
	"errors"
)

const (
	// ClaimRole is the custom claim carrying the member role.
	ClaimRole = "role"
	// ClaimIsAdmin is the custom claim granting administrative privilege.
	ClaimIsAdmin = "is_admin"
	// ClaimEmail is the standard email claim.
	ClaimEmail = "email"
	// ClaimName is the standard display name claim.
	ClaimName = "name"
)

var (
	// ErrSessionExpired indicates the session artifact is past its expiry.
	ErrSessionExpired = errors.New("auth: session expired")
	// ErrSessionRevoked indicates the session was issued before the account's sessions were revoked.
	ErrSessionRevoked = errors.New("auth: session revoked")
	// ErrSessionInvalid indicates a malformed or otherwise unverifiable session artifact.
	ErrSessionInvalid = errors.New("auth: invalid session")
	// ErrAccountExists indicates the provider already holds an account for the email address.
	ErrAccountExists = errors.New("auth: account already exists")
)

// AccountSpec describes a new identity provider account.
type AccountSpec struct {
	Email       string
	Password    string
	DisplayName string
}

// Claims are the custom claims attached to a provider account.
type Claims struct {
	Role    string
	IsAdmin bool
}

// Map renders the claims in the provider's key/value form.
func (c Claims) Map() map[string]interface{} {
	return map[string]interface{}{
		ClaimRole:    c.Role,
		ClaimIsAdmin: c.IsAdmin,
	}
}

// VerifiedSession is the provider's view of a successfully verified session artifact.
type VerifiedSession struct {
	UID    string
	Claims map[string]interface{}
}

// Provider is the identity provider capability consumed by the membership operations.
// VerifySessionCookie must reject sessions that were revoked after issuance.
type Provider interface {
	CreateAccount(ctx context.Context, spec AccountSpec) (string, error)
	SetClaims(ctx context.Context, uid string, claims Claims) error
	VerifySessionCookie(ctx context.Context, artifact string) (VerifiedSession, error)
}
