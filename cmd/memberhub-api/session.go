package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/memberhub/backend/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errLocalBackendOnly = errors.New("session commands require the local backend")

func newSessionCommand() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage local backend sessions",
	}
	sessionCmd.AddCommand(newSessionMintCommand(), newSessionRevokeCommand())
	return sessionCmd
}

func newSessionMintCommand() *cobra.Command {
	var uid, email, password string
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Print a session cookie value for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openLocalAccounts()
			if err != nil {
				return err
			}
			defer backend.Close()

			ctx := cmd.Context()
			if strings.TrimSpace(uid) == "" {
				if strings.TrimSpace(email) == "" {
					return errors.New("either --uid or --email is required")
				}
				uid, err = backend.Accounts.Authenticate(ctx, email, password)
				if err != nil {
					return fmt.Errorf("authenticate %s: %w", email, err)
				}
			}

			value, expiresAt, err := backend.Accounts.MintSession(ctx, uid)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", value, expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Account uid")
	cmd.Flags().StringVar(&email, "email", "", "Account email, used with --password instead of --uid")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newSessionRevokeCommand() *cobra.Command {
	var uid string
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Invalidate every session minted for an account so far",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(uid) == "" {
				return errors.New("--uid is required")
			}
			backend, err := openLocalAccounts()
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := backend.Accounts.RevokeSessions(cmd.Context(), uid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sessions revoked for %s\n", uid)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Account uid")
	return cmd
}

func openLocalAccounts() (*backend, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if appConfig.Backend != config.BackendLocal {
		return nil, errLocalBackendOnly
	}
	return openLocalBackend(appConfig, zap.NewNop())
}
