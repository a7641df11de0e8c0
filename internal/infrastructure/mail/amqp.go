package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// DefaultQueue is where outbound mail is published for the mail worker.
const DefaultQueue = "mail.outbound"

// AMQPMailer publishes messages as JSON to a durable RabbitMQ queue. A
// separate consumer owns the actual SMTP delivery.
type AMQPMailer struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPMailer dials the broker and declares the queue.
func NewAMQPMailer(url, queue string) (*AMQPMailer, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	m := &AMQPMailer{url: url, queue: queue}
	if err := m.connect(); err != nil {
		return nil, err
	}
	return m, nil
}

// connect must be called with mu held or before m is shared.
func (m *AMQPMailer) connect() error {
	conn, err := amqp.Dial(m.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(m.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	m.conn, m.ch = conn, ch
	return nil
}

func (m *AMQPMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch == nil || m.ch.IsClosed() {
		if m.conn != nil {
			_ = m.conn.Close()
		}
		if err := m.connect(); err != nil {
			return err
		}
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := m.ch.PublishWithContext(ctx, "", m.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (m *AMQPMailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ch != nil {
		_ = m.ch.Close()
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
