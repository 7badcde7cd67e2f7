package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
)

// Publisher sends events to RabbitMQ.  Each Publish dials, declares the
// queue and closes again; the email volume is low and this keeps no
// broken connection around between requests.
type Publisher struct {
	url string
	log *slog.Logger
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish sends ev to the email.requested queue as a persistent message.
// Errors are logged and returned so callers may ignore them.
func (p *Publisher) Publish(ctx context.Context, ev EmailRequestedEvent) error {
	if ev.RequestedAt == "" {
		ev.RequestedAt = time.Now().UTC().Format(time.RFC3339)
	}
	conn, err := p.dial(ctx)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// idempotent; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",             // default exchange
		EmailQueueName, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		pub,
	); err != nil {
		p.log.Warn("rabbitmq publish failed", "err", err, "kind", ev.Kind)
		return err
	}
	return nil
}

// dial retries briefly so a broker restart does not drop the event.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	var conn *amqp.Connection
	b := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, b, func(context.Context) error {
		c, err := amqp.Dial(p.url)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	return conn, err
}
