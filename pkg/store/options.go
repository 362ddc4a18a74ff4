package store

import (
	"context"
	"log/slog"
	"time"
)

// Observer receives store activity for metrics and tracing.
// Implementations must not call back into the store.
type Observer interface {
	// ChangeDispatched is called for every Change Notification.
	ChangeDispatched(key string)

	// ViewRerendered is called each time a view's re-render is triggered.
	ViewRerendered(viewID string)

	// SelectorComputed is called after a selector recomputes.
	SelectorComputed(name string, d time.Duration)

	// SubscriptionsChanged is called with the number of live subscriptions.
	SubscriptionsChanged(n int)

	// PatchStarted is called before a patch is applied. The returned end
	// function is called with the patch outcome.
	PatchStarted(ctx context.Context, keys []string) (context.Context, func(err error))
}

// config holds Store options.
type config struct {
	logger     *slog.Logger
	observer   Observer
	strictKeys bool
}

func defaultConfig() config {
	return config{
		logger:     slog.Default(),
		strictKeys: true,
	}
}

// Option configures a Store.
type Option func(*config)

// WithLogger sets the store's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets an Observer for store activity.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// WithStrictKeys controls whether watching a key absent from state is an
// error. Default: true. Disable it for views that watch keys created later.
func WithStrictKeys(strict bool) Option {
	return func(c *config) {
		c.strictKeys = strict
	}
}
