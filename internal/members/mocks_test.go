package members

import (
	"context"

	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/profiles"
	"github.com/stretchr/testify/mock"
)

// mockProvider implements auth.Provider
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateAccount(ctx context.Context, spec auth.AccountSpec) (string, error) {
	args := m.Called(ctx, spec)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) SetClaims(ctx context.Context, uid string, claims auth.Claims) error {
	args := m.Called(ctx, uid, claims)
	return args.Error(0)
}

func (m *mockProvider) VerifySessionCookie(ctx context.Context, artifact string) (auth.VerifiedSession, error) {
	args := m.Called(ctx, artifact)
	return args.Get(0).(auth.VerifiedSession), args.Error(1)
}

// mockStore implements profiles.Store
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, uid string) (profiles.Profile, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(profiles.Profile), args.Error(1)
}

func (m *mockStore) Exists(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]profiles.Profile, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]profiles.Profile)
	return users, args.Error(1)
}

func (m *mockStore) Set(ctx context.Context, uid string, profile profiles.Profile) error {
	args := m.Called(ctx, uid, profile)
	return args.Error(0)
}

func (m *mockStore) Update(ctx context.Context, uid string, update profiles.Update) error {
	args := m.Called(ctx, uid, update)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}
