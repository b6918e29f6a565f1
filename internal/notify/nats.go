package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"alertengine/internal/config"
	"alertengine/internal/domain"
	"alertengine/internal/listener"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes lifecycle changes to a NATS subject tree.
// Params: connection and subject prefix.
// Returns: best-effort broker publisher.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects the lifecycle change publisher.
// Params: notify NATS config and logger.
// Returns: connected publisher or initialization error.
func NewNATSPublisher(cfg config.NATSNotifyConfig, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(strings.Join(cfg.URL, ","))
	if err != nil {
		return nil, fmt.Errorf("connect nats notify: %w", err)
	}
	return &NATSPublisher{nc: nc, subject: cfg.Subject, logger: logger}, nil
}

// Listener returns the fan-out callback for this publisher.
// Params: none.
// Returns: listener publishing every change under subject.<kind>.
func (p *NATSPublisher) Listener() listener.Func {
	return func(change domain.Change) error {
		payload, err := json.Marshal(change)
		if err != nil {
			return fmt.Errorf("encode change: %w", err)
		}
		subject := p.subject + "." + string(change.Kind)
		if err := p.nc.Publish(subject, payload); err != nil {
			return fmt.Errorf("publish %s: %w", subject, err)
		}
		return nil
	}
}

// Close drains the connection.
// Params: none.
// Returns: drain error.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return err
	}
	return nil
}
