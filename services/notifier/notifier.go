package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"voxhire/pkg/bus"
)

// Config holds the notifier's runtime configuration.
type Config struct {
	NATSUrl        string        `env:"NATS_URL,required"`
	WebhookURL     string        `env:"WEBHOOK_URL,required"`
	WebhookSecret  string        `env:"WEBHOOK_SECRET"`
	RequestTimeout time.Duration `env:"WEBHOOK_TIMEOUT,default=10s"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Notifier forwards completed-interview events to a staff webhook so hiring
// teams get notified without polling the API.
type Notifier struct {
	cfg    Config
	log    zerolog.Logger
	client *http.Client
}

func New(cfg Config, log zerolog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Run attaches a durable consumer for completed sessions and blocks until ctx
// is cancelled. Delivery errors nak the message so JetStream redelivers.
func (n *Notifier) Run(ctx context.Context, b *bus.Bus) error {
	sub, err := b.ConsumeSessions(ctx, bus.SubjectSessionCompleted, "voxhire-notifier", n.handle)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Close()

	n.log.Info().Str("webhook", n.cfg.WebhookURL).Msg("notifier running")
	<-ctx.Done()
	return nil
}

func (n *Notifier) handle(ctx context.Context, evt bus.SessionEvent) error {
	if err := n.deliver(ctx, evt); err != nil {
		n.log.Warn().Err(err).Stringer("session_id", evt.SessionID).Msg("webhook delivery failed")
		return err
	}

	n.log.Info().Stringer("session_id", evt.SessionID).Msg("webhook delivered")
	return nil
}

func (n *Notifier) deliver(ctx context.Context, evt bus.SessionEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.WebhookSecret != "" {
		req.Header.Set("X-Voxhire-Signature", Sign(n.cfg.WebhookSecret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature receivers use to verify the
// payload came from us.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
