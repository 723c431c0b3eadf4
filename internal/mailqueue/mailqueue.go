// Package mailqueue moves outgoing mail onto RabbitMQ so API requests never
// wait on SMTP. A Publisher enqueues jobs; a Consumer delivers them.
package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"petconnect/internal/mail"
	"petconnect/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	Exchange      = "petconnect.mail"
	RoutingKeyOTP = "mail.otp"
	bindingKey    = "mail.*"
)

// Job is the message body for one email.
type Job struct {
	Kind     string    `json:"kind"`
	To       string    `json:"to"`
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issuedAt"`
}

type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

type channel interface {
	queueDeclarer
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements mail.Sender by enqueueing jobs.
type Publisher struct {
	conn *amqp.Connection
	ch   channel
}

var _ mail.Sender = (*Publisher)(nil)

// Dial connects to RabbitMQ and declares the durable topic exchange.
func Dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, ch, nil
}

// DeclareQueue declares the durable mail queue and binds it to the exchange.
// Both sides declare it, so jobs published before any consumer has started
// wait in the queue instead of being dropped by the exchange.
func DeclareQueue(ch queueDeclarer, name string) (string, error) {
	if name == "" {
		return "", errors.New("mail queue name is required")
	}
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, bindingKey, Exchange, false, nil); err != nil {
		return "", fmt.Errorf("failed to bind queue: %w", err)
	}
	return q.Name, nil
}

// NewPublisher connects to RabbitMQ and ensures queue exists and is bound.
func NewPublisher(url, queue string) (*Publisher, error) {
	conn, ch, err := Dial(url)
	if err != nil {
		return nil, err
	}
	return newPublisher(conn, ch, queue)
}

func newPublisher(conn *amqp.Connection, ch channel, queue string) (*Publisher, error) {
	p := &Publisher{conn: conn, ch: ch}
	name, err := DeclareQueue(ch, queue)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	log.Printf("Mail publisher connected to exchange %s (queue %s)", Exchange, name)
	return p, nil
}

func (p *Publisher) SendOTP(ctx context.Context, to, name, code string) error {
	body, err := json.Marshal(Job{Kind: "otp", To: to, Name: name, Code: code, IssuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx, Exchange, RoutingKeyOTP, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Expiration:   "300000", // a code is worthless after its 5 minute TTL
		Body:         body,
	})
	result := "queued"
	if err != nil {
		result = "error"
	}
	observability.MailJobs.WithLabelValues("amqp", result).Inc()
	return err
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Consumer drains the mail queue into a mail.Sender.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	sender mail.Sender
}

func NewConsumer(url, queue string, sender mail.Sender) (*Consumer, error) {
	conn, ch, err := Dial(url)
	if err != nil {
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, sender: sender}, nil
}

// Start declares and binds the queue, then consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	queue, err := DeclareQueue(c.ch, c.queue)
	if err != nil {
		return err
	}
	if err := c.ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}
	msgs, err := c.ch.Consume(
		queue,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	log.Printf("Mail consumer listening on %s", queue)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Mail consumer channel closed")
					return
				}
				if err := Handle(ctx, c.sender, msg.Body); err != nil {
					log.Printf("Mail job failed: %v", err)
					_ = msg.Nack(false, false)
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()
	return nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Handle decodes one job and delivers it.
func Handle(ctx context.Context, sender mail.Sender, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("decode mail job: %w", err)
	}
	switch job.Kind {
	case "otp":
		if job.To == "" || job.Code == "" {
			return fmt.Errorf("otp job missing recipient or code")
		}
		return sender.SendOTP(ctx, job.To, job.Name, job.Code)
	default:
		return fmt.Errorf("unknown mail job kind %q", job.Kind)
	}
}
