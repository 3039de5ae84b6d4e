package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/config"
	"github.com/memberhub/backend/internal/logging"
	"github.com/memberhub/backend/internal/members"
	"github.com/memberhub/backend/internal/reporting"
	"github.com/memberhub/backend/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
	version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "memberhub-api",
		Short:        "Membership administration backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newSessionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().StringSlice("allowed-origins", defaults.GetStringSlice("http.allowed_origins"), "Origins allowed to send credentialed requests")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", defaults.GetString("log.format"), "Log format (json, console)")
	cmd.PersistentFlags().String("session-cookie", defaults.GetString("session.cookie_name"), "Name of the session cookie")
	cmd.PersistentFlags().String("backend", defaults.GetString("backend"), "Identity and profile backend (local, firebase)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path for the local backend")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret for the local backend (overrides env)")
	cmd.PersistentFlags().String("firebase-project", defaults.GetString("firebase.project_id"), "Firebase project ID")
	cmd.PersistentFlags().String("firebase-credentials", defaults.GetString("firebase.credentials_file"), "Service account credentials file")
	cmd.PersistentFlags().String("sentry-dsn", "", "Sentry DSN (empty disables error reporting)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "http.allowed_origins", "allowed-origins")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
	bindFlag(cmd, "session.cookie_name", "session-cookie")
	bindFlag(cmd, "backend", "backend")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "local.signing_secret", "signing-secret")
	bindFlag(cmd, "firebase.project_id", "firebase-project")
	bindFlag(cmd, "firebase.credentials_file", "firebase-credentials")
	bindFlag(cmd, "sentry.dsn", "sentry-dsn")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reporter, err := reporting.NewSentry(reporting.SentryConfig{
		DSN:         appConfig.SentryDSN,
		Environment: appConfig.SentryEnvironment,
		Release:     version,
	}, logger)
	if err != nil {
		return err
	}
	defer reporter.Flush()

	backend, err := openBackend(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	resolver, err := auth.NewSessionResolver(auth.SessionResolverConfig{
		Provider:   backend.Provider,
		CookieName: appConfig.SessionCookieName,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	memberService, err := members.NewService(members.ServiceConfig{
		Provider: backend.Provider,
		Store:    backend.Store,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		SessionResolver: resolver,
		MemberService:   memberService,
		Reporter:        reporter,
		AllowedOrigins:  appConfig.AllowedOrigins,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         appConfig.HTTPAddress,
		Handler:      handler,
		ReadTimeout:  appConfig.HTTPReadTimeout,
		WriteTimeout: appConfig.HTTPWriteTimeout,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("backend", appConfig.Backend))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
