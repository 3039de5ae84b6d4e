package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/config"
	"github.com/spf13/viper"
)

func configureLocalBackend(t *testing.T) config.AppConfig {
	t.Helper()
	viper.Reset()
	config.ApplyDefaults(viper.GetViper())
	viper.Set("local.signing_secret", "cli-secret")
	viper.Set("database.path", filepath.Join(t.TempDir(), "cli.db"))
	t.Cleanup(viper.Reset)

	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return appConfig
}

func TestSessionMintByCredentials(t *testing.T) {
	appConfig := configureLocalBackend(t)

	local, err := openLocalBackend(appConfig, nil)
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}
	uid, err := local.Accounts.CreateAccount(context.Background(), auth.AccountSpec{Email: "ops@example.com", Password: "pw", DisplayName: "Ops"})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	local.Close()

	output := &bytes.Buffer{}
	cmd := newSessionMintCommand()
	cmd.SetOut(output)
	cmd.SetArgs([]string{"--email", "ops@example.com", "--password", "pw"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	cookieValue := strings.SplitN(output.String(), "\n", 2)[0]
	verifier, err := openLocalBackend(appConfig, nil)
	if err != nil {
		t.Fatalf("failed to reopen backend: %v", err)
	}
	defer verifier.Close()
	session, err := verifier.Accounts.VerifySessionCookie(context.Background(), cookieValue)
	if err != nil {
		t.Fatalf("minted session did not verify: %v", err)
	}
	if session.UID != uid {
		t.Fatalf("expected session for %s, got %s", uid, session.UID)
	}
}

func TestSessionMintRequiresIdentity(t *testing.T) {
	configureLocalBackend(t)

	cmd := newSessionMintCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected missing identity error")
	}
}

func TestSessionCommandsRejectFirebaseBackend(t *testing.T) {
	viper.Reset()
	config.ApplyDefaults(viper.GetViper())
	viper.Set("backend", config.BackendFirebase)
	viper.Set("firebase.project_id", "memberhub-prod")
	t.Cleanup(viper.Reset)

	if _, err := openLocalAccounts(); err != errLocalBackendOnly {
		t.Fatalf("expected local backend error, got %v", err)
	}
}
