package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/forecastviz/config"
	coremon "github.com/kilianp07/forecastviz/core/monitoring"
)

// NewSentryMonitor initializes the Sentry client used to report failed plot,
// persist and evaluate operations. An empty DSN yields a NopMonitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

// sentryMonitor forwards to the global Sentry hub.
type sentryMonitor struct{}

// CaptureException tags the event with the operation fields, such as op and run.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if len(tags) == 0 {
		sentry.CaptureException(err)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Recover sends a recovered panic value along with the current stack.
func (s *sentryMonitor) Recover(v any) {
	if v == nil {
		return
	}
	sentry.CurrentHub().Recover(v)
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
