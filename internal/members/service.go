package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/profiles"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	opServiceNew = "members.service.new"
	opRegister   = "members.register"
	opListUsers  = "members.list_users"
	opCreateUser = "members.create_user"
	opEditUser   = "members.edit_user"
	opDeleteUser = "members.delete_user"
)

// Defaults applied to new profiles.
const (
	RegisteredRole       = "President"
	RegisteredMemoTokens = 10
	RegisteredPoints     = 1000
	RegisteredRank       = profiles.RankHacker
	CreatedMemoTokens    = 1
	CreatedPoints        = 10
)

var (
	errMissingProvider = errors.New("identity provider is required")
	errMissingStore    = errors.New("profile store is required")
	noOpLogger         = zap.NewNop()
)

// Caller is the per-request view of who is invoking an operation.
type Caller struct {
	Identity      auth.ResolvedIdentity
	Authenticated bool
}

// Anonymous is the caller of a request without a valid session.
var Anonymous = Caller{}

// Member summarizes a created user.
type Member struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Committee string `json:"committee,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
}

type ServiceConfig struct {
	Provider   auth.Provider
	Store      profiles.Store
	BcryptCost int
	Logger     *zap.Logger
}

// Service implements the user management operations on top of the identity
// provider and the profile store. The two are not updated atomically.
type Service struct {
	provider   auth.Provider
	store      profiles.Store
	bcryptCost int
	logger     *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, newServiceError(KindUnknown, opServiceNew, "missing_provider", errMissingProvider)
	}
	if cfg.Store == nil {
		return nil, newServiceError(KindUnknown, opServiceNew, "missing_store", errMissingStore)
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		provider:   cfg.Provider,
		store:      cfg.Store,
		bcryptCost: cost,
		logger:     logger,
	}, nil
}

// Register creates a provider account and its profile for a self-service sign-up.
// Every registered account is granted the President role with admin privilege.
func (s *Service) Register(ctx context.Context, request RegisterRequest) (Member, error) {
	request.normalize()
	if err := request.Validate(); err != nil {
		return Member{}, newServiceError(KindValidation, opRegister, "invalid_input", err)
	}

	uid, err := s.createAccount(ctx, opRegister, auth.AccountSpec{
		Email:       request.Email,
		Password:    request.Password,
		DisplayName: request.Name,
	})
	if err != nil {
		return Member{}, err
	}

	claims := auth.Claims{Role: RegisteredRole, IsAdmin: true}
	if err := s.provider.SetClaims(ctx, uid, claims); err != nil {
		s.logError(opRegister, "set_claims_failed", err, zap.String("uid", uid))
		return Member{}, newServiceError(KindProvider, opRegister, "set_claims_failed", err)
	}

	exists, err := s.store.Exists(ctx, uid)
	if err != nil {
		s.logError(opRegister, "profile_lookup_failed", err, zap.String("uid", uid))
		return Member{}, newServiceError(KindStore, opRegister, "profile_lookup_failed", err)
	}
	if exists {
		return Member{}, newServiceError(KindConflict, opRegister, "user_exists", errUserExists)
	}

	profile := profiles.Profile{
		Email:      request.Email,
		Name:       request.Name,
		MemoTokens: RegisteredMemoTokens,
		Rank:       RegisteredRank,
		Points:     RegisteredPoints,
	}
	if err := s.store.Set(ctx, uid, profile); err != nil {
		s.logError(opRegister, "profile_create_failed", err, zap.String("uid", uid), zap.Bool("orphan_account", true))
		return Member{}, newServiceError(KindStore, opRegister, "profile_create_failed", err)
	}

	s.logger.Info("user registered", zap.String("uid", uid))
	return Member{UID: uid, Email: request.Email, Name: request.Name, Role: claims.Role, IsAdmin: claims.IsAdmin}, nil
}

// ListUsers returns every profile document to any authenticated caller.
func (s *Service) ListUsers(ctx context.Context, caller Caller) ([]profiles.Profile, error) {
	if !caller.Authenticated || caller.Identity.UID == "" {
		return nil, newServiceError(KindAuthentication, opListUsers, "unauthenticated", errUnauthenticated)
	}
	users, err := s.store.List(ctx)
	if err != nil {
		s.logError(opListUsers, "query_failed", err)
		return nil, newServiceError(KindStore, opListUsers, "query_failed", err)
	}
	if users == nil {
		users = []profiles.Profile{}
	}
	return users, nil
}

// CreateUser lets an admin create an account with explicit role and committee.
func (s *Service) CreateUser(ctx context.Context, caller Caller, request CreateRequest) (Member, error) {
	if err := s.requireAdmin(opCreateUser, caller); err != nil {
		return Member{}, err
	}
	request.normalize()
	if err := request.Validate(); err != nil {
		return Member{}, newServiceError(KindValidation, opCreateUser, "invalid_input", err)
	}

	uid, err := s.createAccount(ctx, opCreateUser, auth.AccountSpec{
		Email:       request.Email,
		Password:    request.Password,
		DisplayName: request.Name,
	})
	if err != nil {
		return Member{}, err
	}

	if err := s.provider.SetClaims(ctx, uid, auth.Claims{Role: request.Role, IsAdmin: request.IsAdmin}); err != nil {
		s.logError(opCreateUser, "set_claims_failed", err, zap.String("uid", uid))
		return Member{}, newServiceError(KindProvider, opCreateUser, "set_claims_failed", err)
	}

	profile := profiles.Profile{
		Email:      request.Email,
		Name:       request.Name,
		Role:       request.Role,
		Committee:  request.Committee,
		MemoTokens: CreatedMemoTokens,
		Points:     CreatedPoints,
		Rank:       profiles.RankForPoints(CreatedPoints),
	}
	if err := s.store.Set(ctx, uid, profile); err != nil {
		s.logError(opCreateUser, "profile_create_failed", err, zap.String("uid", uid), zap.Bool("orphan_account", true))
		return Member{}, newServiceError(KindStore, opCreateUser, "profile_create_failed", err)
	}

	s.logger.Info("user created", zap.String("uid", uid), zap.String("created_by", caller.Identity.UID))
	return Member{
		UID:       uid,
		Email:     request.Email,
		Name:      request.Name,
		Role:      request.Role,
		Committee: request.Committee,
		IsAdmin:   request.IsAdmin,
	}, nil
}

// EditUser applies a partial change to the profile document only; the provider
// account and its claims are left as they are.
func (s *Service) EditUser(ctx context.Context, caller Caller, rawUID string, request EditRequest) error {
	if err := s.requireAdmin(opEditUser, caller); err != nil {
		return err
	}
	uid, err := profiles.ValidateUID(rawUID)
	if err != nil {
		return newServiceError(KindValidation, opEditUser, "invalid_uid", err)
	}
	if request.empty() {
		return newServiceError(KindValidation, opEditUser, "no_fields", errNoFields)
	}
	request.normalize()
	if err := request.Validate(); err != nil {
		return newServiceError(KindValidation, opEditUser, "invalid_input", err)
	}

	update := profiles.Update{
		Email:     request.Email,
		Name:      request.Name,
		Role:      request.Role,
		Committee: request.Committee,
	}
	if request.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*request.Password), s.bcryptCost)
		if err != nil {
			s.logError(opEditUser, "hash_failed", err, zap.String("uid", uid))
			return newServiceError(KindUnknown, opEditUser, "hash_failed", err)
		}
		hashed := string(hash)
		update.PasswordHash = &hashed
	}

	if err := s.store.Update(ctx, uid, update); err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return newServiceError(KindNotFound, opEditUser, "not_found", errUserNotFound)
		}
		s.logError(opEditUser, "update_failed", err, zap.String("uid", uid))
		return newServiceError(KindStore, opEditUser, "update_failed", err)
	}
	s.logger.Info("user edited", zap.String("uid", uid), zap.String("edited_by", caller.Identity.UID))
	return nil
}

// DeleteUser removes the profile document; the provider account is kept.
func (s *Service) DeleteUser(ctx context.Context, caller Caller, rawUID string) error {
	if err := s.requireAdmin(opDeleteUser, caller); err != nil {
		return err
	}
	uid, err := profiles.ValidateUID(rawUID)
	if err != nil {
		return newServiceError(KindValidation, opDeleteUser, "invalid_uid", err)
	}
	if err := s.store.Delete(ctx, uid); err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return newServiceError(KindNotFound, opDeleteUser, "not_found", errUserNotFound)
		}
		s.logError(opDeleteUser, "delete_failed", err, zap.String("uid", uid))
		return newServiceError(KindStore, opDeleteUser, "delete_failed", err)
	}
	s.logger.Info("user deleted", zap.String("uid", uid), zap.String("deleted_by", caller.Identity.UID))
	return nil
}

func (s *Service) requireAdmin(operation string, caller Caller) error {
	if auth.RequireAdmin(caller.Identity, caller.Authenticated) == auth.Allowed {
		return nil
	}
	if !caller.Authenticated {
		return newServiceError(KindAuthorization, operation, "unauthenticated", errUnauthenticated)
	}
	return newServiceError(KindAuthorization, operation, "forbidden", errNotAdmin)
}

func (s *Service) createAccount(ctx context.Context, operation string, spec auth.AccountSpec) (string, error) {
	uid, err := s.provider.CreateAccount(ctx, spec)
	if errors.Is(err, auth.ErrAccountExists) {
		return "", newServiceError(KindConflict, operation, "account_exists", err)
	}
	if err != nil {
		s.logError(operation, "create_account_failed", err)
		return "", newServiceError(KindProvider, operation, "create_account_failed", err)
	}
	if uid == "" {
		err := fmt.Errorf("provider returned empty uid")
		s.logError(operation, "create_account_failed", err)
		return "", newServiceError(KindProvider, operation, "create_account_failed", err)
	}
	return uid, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("members service error", attrs...)
}
