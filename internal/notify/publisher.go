package notify

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/retry"
)

// Publisher delivers upgrade events.
type Publisher interface {
	Publish(ctx context.Context, event *UpgradeEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *UpgradeEvent) error { return nil }
func (NoopPublisher) Close() error                                 { return nil }

// Notifier wraps a Publisher, retries transient failures and logs the final
// failure instead of returning it.
type Notifier struct {
	pub    Publisher
	logger *slog.Logger
	policy retry.Policy
}

// NewNotifier returns a Notifier that makes a single attempt per event; a nil
// publisher means NoopPublisher.
func NewNotifier(pub Publisher, logger *slog.Logger) *Notifier {
	if pub == nil {
		pub = NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, logger: logger, policy: retry.Policy{Mode: retry.ModeFixed}}
}

// WithRetry returns n configured to retry failed publishes with p.
func (n *Notifier) WithRetry(p retry.Policy) *Notifier {
	n.policy = p
	return n
}

// Notify publishes event. It reports whether delivery succeeded.
func (n *Notifier) Notify(ctx context.Context, event *UpgradeEvent) bool {
	attempts, err := n.policy.Do(ctx, func(ctx context.Context) error {
		return n.pub.Publish(ctx, event)
	})
	if err != nil {
		n.logger.Warn("Failed to publish upgrade event",
			logfields.Document(event.Document),
			slog.Int("attempts", attempts),
			logfields.Error(err))
		return false
	}
	return true
}

// Close closes the underlying publisher.
func (n *Notifier) Close() error {
	return n.pub.Close()
}
