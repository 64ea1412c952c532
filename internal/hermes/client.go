package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectReadingGenerated carries a ReadingGenerated for every stored reading.
	SubjectReadingGenerated = "swarm.sibyl.reading.generated"
	// SubjectRegistered announces the service once its HTTP listener is up.
	SubjectRegistered = "swarm.agent.sibyl.registered"
)

// ReadingGenerated is emitted after a reading has been persisted. It carries
// the drawn card and the producing model, never the reading text.
type ReadingGenerated struct {
	ReadingID   string `json:"reading_id"`
	UserID      string `json:"user_id"`
	ReadingType string `json:"reading_type"`
	Card        string `json:"card"`
	Element     string `json:"element"`
	Model       string `json:"model"`
	Timestamp   string `json:"timestamp"`
}

// Registration is the payload published on SubjectRegistered.
type Registration struct {
	Timestamp string `json:"timestamp"`
	Port      int    `json:"port"`
	Version   string `json:"version"`
}

// Client publishes events to NATS. A nil *Client is valid and drops every
// event, so NATS stays optional.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("sibyl"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishReading emits ev on SubjectReadingGenerated, stamping it if needed.
func (c *Client) PublishReading(ev ReadingGenerated) error {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return c.Publish(SubjectReadingGenerated, ev)
}

// Announce publishes the service registration.
func (c *Client) Announce(port int, version string) error {
	return c.Publish(SubjectRegistered, Registration{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Port:      port,
		Version:   version,
	})
}

// Close flushes pending messages and closes the connection.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
	}
}
