// Package firebase adapts the Firebase Admin SDK to the identity provider and
// profile store capabilities.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebasesdk "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var errMissingProjectID = errors.New("firebase: project id required")

// AppConfig describes how to reach the Firebase project.
// An empty CredentialsFile falls back to application default credentials.
type AppConfig struct {
	ProjectID       string
	CredentialsFile string
	Logger          *zap.Logger
}

// Clients bundles the SDK clients shared by the adapters.
type Clients struct {
	Auth      *fbauth.Client
	Firestore *firestore.Client
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// NewClients initializes the Firebase app and its auth and Firestore clients.
func NewClients(ctx context.Context, cfg AppConfig) (*Clients, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errMissingProjectID
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if credentials := strings.TrimSpace(cfg.CredentialsFile); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	app, err := firebasesdk.NewApp(ctx, &firebasesdk.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init auth: %w", err)
	}
	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init firestore: %w", err)
	}

	logger.Info("firebase clients initialized",
		zap.String("project_id", projectID),
		zap.Bool("explicit_credentials", len(opts) > 0))
	return &Clients{Auth: authClient, Firestore: firestoreClient}, nil
}
