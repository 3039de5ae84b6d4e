package reporting

import (
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const flushTimeout = 2 * time.Second

// Reporter forwards unexpected failures to an error tracker.
type Reporter interface {
	CaptureException(err error, tags map[string]string)
	Flush()
}

type noopReporter struct{}

// NewNoop returns a Reporter that drops every event.
func NewNoop() Reporter {
	return noopReporter{}
}

func (noopReporter) CaptureException(error, map[string]string) {}

func (noopReporter) Flush() {}

// SentryConfig configures the Sentry reporter.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

type sentryReporter struct{}

// NewSentry initializes the Sentry client. An empty DSN yields a no-op reporter.
func NewSentry(cfg SentryConfig, logger *zap.Logger) (Reporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		logger.Info("sentry dsn not set, error reporting disabled")
		return NewNoop(), nil
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "development"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     cfg.Release,
	}); err != nil {
		return nil, err
	}
	logger.Info("sentry error reporting enabled", zap.String("environment", environment))
	return sentryReporter{}, nil
}

func (sentryReporter) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		sentry.CaptureException(err)
	})
}

func (sentryReporter) Flush() {
	sentry.Flush(flushTimeout)
}
