package main

import (
	"context"
	"fmt"

	"github.com/memberhub/backend/internal/accounts"
	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/config"
	"github.com/memberhub/backend/internal/database"
	"github.com/memberhub/backend/internal/firebase"
	"github.com/memberhub/backend/internal/profiles"
	"go.uber.org/zap"
)

// backend pairs the identity provider with the profile store it is deployed with.
type backend struct {
	Provider auth.Provider
	Store    profiles.Store
	// Accounts is set only for the local backend.
	Accounts *accounts.Provider
	closers  []func() error
}

func (b *backend) Close() {
	for _, closer := range b.closers {
		_ = closer()
	}
}

func openBackend(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return openLocalBackend(cfg, logger)
	case config.BackendFirebase:
		return openFirebaseBackend(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func openLocalBackend(cfg config.AppConfig, logger *zap.Logger) (*backend, error) {
	db, err := database.OpenSQLite(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	accountProvider, err := accounts.NewProvider(accounts.ProviderConfig{
		Database:      db,
		SigningSecret: []byte(cfg.LocalSigningSecret),
		SessionTTL:    cfg.LocalSessionTTL,
		Logger:        logger,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	store, err := profiles.NewGORMStore(profiles.GORMStoreConfig{Database: db, Logger: logger})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &backend{
		Provider: accountProvider,
		Store:    store,
		Accounts: accountProvider,
		closers:  []func() error{sqlDB.Close},
	}, nil
}

func openFirebaseBackend(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*backend, error) {
	clients, err := firebase.NewClients(ctx, firebase.AppConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	provider, err := firebase.NewAuthProvider(clients.Auth, logger)
	if err != nil {
		clients.Close()
		return nil, err
	}
	store, err := firebase.NewFirestoreStore(clients.Firestore, cfg.FirebaseUsersCollection, logger)
	if err != nil {
		clients.Close()
		return nil, err
	}
	return &backend{
		Provider: provider,
		Store:    store,
		closers:  []func() error{clients.Close},
	}, nil
}
