package sentry

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// Initialize sets up Sentry if dsn is provided. Release builds report to the
// production environment unless STACKIFY_SENTRY_ENVIRONMENT says otherwise.
func Initialize(dsn, version string, release bool) error {
	if dsn == "" {
		// Sentry not configured, skip initialization
		return nil
	}

	environment := os.Getenv("STACKIFY_SENTRY_ENVIRONMENT")
	if environment == "" {
		environment = "development"
		if release {
			environment = "production"
		}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          version,
		Debug:            os.Getenv("STACKIFY_SENTRY_DEBUG") == "true",
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Extra == nil {
				event.Extra = map[string]interface{}{}
			}
			event.Extra["docker_host"] = os.Getenv("DOCKER_HOST")
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

// Enabled reports whether a client is configured
func Enabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// Flush waits for all events to be sent
func Flush(timeout time.Duration) {
	if Enabled() {
		sentry.Flush(timeout)
	}
}

// CaptureError captures an error with additional context
func CaptureError(err error, tags map[string]string, extras map[string]interface{}) {
	if !Enabled() || err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}

// AddBreadcrumb adds a breadcrumb for debugging
func AddBreadcrumb(category, message string, data map[string]interface{}) {
	if Enabled() {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Category:  category,
			Message:   message,
			Level:     sentry.LevelInfo,
			Data:      data,
			Timestamp: time.Now(),
		})
	}
}

// RecoverWithSentry recovers from panic and reports to Sentry
func RecoverWithSentry(ctx context.Context, extras map[string]interface{}) {
	if err := recover(); err != nil {
		if Enabled() {
			sentry.WithScope(func(scope *sentry.Scope) {
				for k, v := range extras {
					scope.SetExtra(k, v)
				}
				sentry.CurrentHub().RecoverWithContext(ctx, err)
			})
			sentry.Flush(2 * time.Second)
		}
		// Re-panic after reporting
		panic(err)
	}
}
