package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/sitemigrate/internal/config"
)

// NATSPublisher publishes events on a JetStream subject and keeps the latest
// event per document in a KV bucket.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
	bucket  string
}

// NewNATSPublisher connects to NATS using cfg.
func NewNATSPublisher(cfg *config.NotifyConfig) (*NATSPublisher, error) {
	if cfg == nil {
		return nil, errors.New("notify config is required")
	}
	if !cfg.Enabled {
		return nil, errors.New("notify is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("sitemigrate"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &NATSPublisher{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
		bucket:  cfg.KVBucket,
	}
	if err := p.initKVBucket(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}

	slog.Info("NATS publisher initialized for upgrade events",
		"url", cfg.NATSURL,
		"subject", cfg.Subject,
		"kv_bucket", cfg.KVBucket)
	return p, nil
}

func (p *NATSPublisher) initKVBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := p.js.KeyValue(ctx, p.bucket)
	if err == nil {
		p.kv = kv
		return nil
	}

	kv, err = p.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      p.bucket,
		Description: "Latest upgrade outcome per saved website",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}
	p.kv = kv
	slog.Info("Created KV bucket for upgrade outcomes", "bucket", p.bucket)
	return nil
}

// Publish sends event on the subject and records it as the document's latest.
func (p *NATSPublisher) Publish(ctx context.Context, event *UpgradeEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if _, err := p.kv.Put(ctx, KVKey(event.Document), data); err != nil {
		return fmt.Errorf("failed to put latest outcome: %w", err)
	}

	slog.Debug("Published upgrade event",
		"document", event.Document,
		"outcome", event.Outcome)
	return nil
}

// Latest returns the last event stored for document, or nil if none exists.
func (p *NATSPublisher) Latest(ctx context.Context, document string) (*UpgradeEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := p.kv.Get(ctx, KVKey(document))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest outcome: %w", err)
	}
	var ev UpgradeEvent
	if err := json.Unmarshal(entry.Value(), &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest outcome: %w", err)
	}
	return &ev, nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
