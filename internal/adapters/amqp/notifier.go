package amqpad

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"listings_pipeline/internal/adapters/observability"
)

// publisher is the subset of *amqp.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Notifier publishes job summaries as persistent JSON messages to a topic
// exchange, routed by pipeline ("listings.split", "listings.load").
type Notifier struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       publisher
	exchange string
}

func Dial(url, exchange string) (*Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &Notifier{conn: conn, ch: ch, exchange: exchange}, nil
}

func newWithChannel(ch publisher, exchange string) *Notifier {
	return &Notifier{ch: ch, exchange: exchange}
}

func (n *Notifier) Notify(ctx context.Context, routingKey string, v any) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("amqp", "publish", err, time.Since(start)) }()

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// channels are not safe for concurrent publishing
	n.mu.Lock()
	defer n.mu.Unlock()
	if err = n.ch.PublishWithContext(ctx, n.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
