package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrMissingSessionProvider   = errors.New("session resolver: provider required")
	ErrMissingSessionCookieName = errors.New("session resolver: cookie name required")
)

// SessionResolverConfig describes where the session artifact lives and who verifies it.
type SessionResolverConfig struct {
	Provider   Provider
	CookieName string
	Logger     *zap.Logger
}

// SessionResolver turns the session cookie on a request into a ResolvedIdentity.
type SessionResolver struct {
	provider   Provider
	cookieName string
	logger     *zap.Logger
}

// NewSessionResolver constructs a resolver with the provided configuration.
func NewSessionResolver(cfg SessionResolverConfig) (*SessionResolver, error) {
	if cfg.Provider == nil {
		return nil, ErrMissingSessionProvider
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		return nil, ErrMissingSessionCookieName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionResolver{
		provider:   cfg.Provider,
		cookieName: cookieName,
		logger:     logger,
	}, nil
}

// CookieName returns the cookie name configured for session lookups.
func (r *SessionResolver) CookieName() string {
	return r.cookieName
}

// Resolve verifies the session cookie carried by the request.
// The boolean is false whenever the caller is unauthenticated; the reason is only logged.
func (r *SessionResolver) Resolve(request *http.Request) (ResolvedIdentity, bool) {
	if request == nil {
		return ResolvedIdentity{}, false
	}
	cookie, err := request.Cookie(r.cookieName)
	if err != nil || cookie == nil {
		return ResolvedIdentity{}, false
	}
	artifact := strings.TrimSpace(cookie.Value)
	if artifact == "" {
		return ResolvedIdentity{}, false
	}

	session, err := r.provider.VerifySessionCookie(request.Context(), artifact)
	if err != nil {
		r.logVerificationFailure(err)
		return ResolvedIdentity{}, false
	}

	identity := IdentityFromSession(session)
	if identity.UID == "" {
		r.logger.Warn("session verification failed", zap.Error(ErrSessionInvalid), zap.String("reason", "missing_uid"))
		return ResolvedIdentity{}, false
	}
	return identity, true
}

func (r *SessionResolver) logVerificationFailure(err error) {
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionRevoked) {
		r.logger.Info("session verification failed", zap.Error(err))
		return
	}
	r.logger.Warn("session verification failed", zap.Error(err))
}
