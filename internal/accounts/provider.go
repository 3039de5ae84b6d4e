package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/memberhub/backend/internal/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultSessionIssuer = "memberhub-accounts"
	defaultSessionTTL    = 14 * 24 * time.Hour
	claimUID             = "uid"
)

var (
	errMissingDatabase      = errors.New("accounts: database connection required")
	errMissingSigningSecret = errors.New("accounts: signing secret required")
)

// ProviderConfig configures the local identity provider.
type ProviderConfig struct {
	Database      *gorm.DB
	SigningSecret []byte
	Issuer        string
	SessionTTL    time.Duration
	BcryptCost    int
	IDProvider    IDProvider
	Clock         func() time.Time
	Logger        *zap.Logger
}

// Provider is an identity provider backed by the local database. It stores bcrypt
// password hashes and custom claims, and signs HS256 session cookies.
type Provider struct {
	db            *gorm.DB
	signingSecret []byte
	issuer        string
	sessionTTL    time.Duration
	bcryptCost    int
	ids           IDProvider
	clock         func() time.Time
	logger        *zap.Logger
}

var _ auth.Provider = (*Provider)(nil)

// NewProvider constructs a Provider with sane defaults.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if len(cfg.SigningSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultSessionIssuer
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		db:            cfg.Database,
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		sessionTTL:    ttl,
		bcryptCost:    cost,
		ids:           ids,
		clock:         clock,
		logger:        logger,
	}, nil
}

// CreateAccount registers a new account and returns its uid.
func (p *Provider) CreateAccount(ctx context.Context, spec auth.AccountSpec) (string, error) {
	email := strings.ToLower(strings.TrimSpace(spec.Email))
	if email == "" || spec.Password == "" {
		return "", ErrInvalidAccount
	}

	var existing int64
	if err := p.db.WithContext(ctx).Model(&Account{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return "", fmt.Errorf("accounts: lookup email: %w", err)
	}
	if existing > 0 {
		return "", ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(spec.Password), p.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("accounts: hash password: %w", err)
	}
	uid, err := p.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("accounts: generate uid: %w", err)
	}

	account := Account{
		UID:              uid,
		Email:            email,
		DisplayName:      strings.TrimSpace(spec.DisplayName),
		PasswordHash:     string(hash),
		CustomClaimsJSON: "{}",
	}
	if err := p.db.WithContext(ctx).Create(&account).Error; err != nil {
		return "", fmt.Errorf("accounts: create: %w", err)
	}
	p.logger.Info("account created", zap.String("uid", uid))
	return uid, nil
}

// SetClaims replaces the custom claims of the account. Existing sessions keep
// the claims they were minted with until they are refreshed.
func (p *Provider) SetClaims(ctx context.Context, uid string, claims auth.Claims) error {
	encoded, err := json.Marshal(claims.Map())
	if err != nil {
		return fmt.Errorf("accounts: encode claims: %w", err)
	}
	result := p.db.WithContext(ctx).
		Model(&Account{}).
		Where("uid = ?", uid).
		Update("custom_claims", string(encoded))
	if result.Error != nil {
		return fmt.Errorf("accounts: set claims: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Authenticate checks an email/password pair and returns the account uid.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (string, error) {
	account, err := p.findAccount(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", ErrAccountNotFound
	}
	return account.UID, nil
}

// MintSession signs a session cookie value for the account carrying its current claims.
func (p *Provider) MintSession(ctx context.Context, uid string) (string, time.Time, error) {
	account, err := p.findAccount(ctx, "uid = ?", uid)
	if err != nil {
		return "", time.Time{}, err
	}

	now := p.clock().UTC()
	expiresAt := now.Add(p.sessionTTL)

	claims := jwt.MapClaims{}
	for key, value := range account.CustomClaims() {
		claims[key] = value
	}
	claims["iss"] = p.issuer
	claims["sub"] = account.UID
	claims[claimUID] = account.UID
	claims["iat"] = now.Unix()
	claims["exp"] = expiresAt.Unix()
	claims[auth.ClaimEmail] = account.Email
	if account.DisplayName != "" {
		claims[auth.ClaimName] = account.DisplayName
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.signingSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("accounts: sign session: %w", err)
	}
	return signed, expiresAt, nil
}

// RevokeSessions invalidates every session minted for the account before now.
func (p *Provider) RevokeSessions(ctx context.Context, uid string) error {
	result := p.db.WithContext(ctx).
		Model(&Account{}).
		Where("uid = ?", uid).
		Update("tokens_valid_after_s", p.clock().UTC().Unix())
	if result.Error != nil {
		return fmt.Errorf("accounts: revoke sessions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// VerifySessionCookie validates the signed session and rejects revoked sessions.
func (p *Provider) VerifySessionCookie(ctx context.Context, artifact string) (auth.VerifiedSession, error) {
	token := strings.TrimSpace(artifact)
	if token == "" {
		return auth.VerifiedSession{}, fmt.Errorf("%w: empty", auth.ErrSessionInvalid)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm %s", t.Method.Alg())
			}
			return p.signingSecret, nil
		},
		jwt.WithIssuer(p.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.VerifiedSession{}, fmt.Errorf("%w: %v", auth.ErrSessionExpired, err)
		}
		return auth.VerifiedSession{}, fmt.Errorf("%w: %v", auth.ErrSessionInvalid, err)
	}
	if parsed == nil || !parsed.Valid {
		return auth.VerifiedSession{}, auth.ErrSessionInvalid
	}

	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return auth.VerifiedSession{}, fmt.Errorf("%w: missing subject", auth.ErrSessionInvalid)
	}
	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return auth.VerifiedSession{}, fmt.Errorf("%w: missing issued at", auth.ErrSessionInvalid)
	}

	account, err := p.findAccount(ctx, "uid = ?", subject)
	if errors.Is(err, ErrAccountNotFound) {
		return auth.VerifiedSession{}, fmt.Errorf("%w: unknown account", auth.ErrSessionInvalid)
	}
	if err != nil {
		return auth.VerifiedSession{}, err
	}
	if issuedAt.Unix() < account.TokensValidAfterSeconds {
		return auth.VerifiedSession{}, auth.ErrSessionRevoked
	}

	return auth.VerifiedSession{
		UID:    subject,
		Claims: map[string]interface{}(claims),
	}, nil
}

func (p *Provider) findAccount(ctx context.Context, query string, arg interface{}) (Account, error) {
	var account Account
	err := p.db.WithContext(ctx).Where(query, arg).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("accounts: lookup: %w", err)
	}
	return account, nil
}
