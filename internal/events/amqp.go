package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	reconnectDelay       = 2 * time.Second
	maxReconnectAttempts = 10
	publishTimeout       = 5 * time.Second
)

var errNotConnected = errors.New("amqp channel is not open")

// AMQPPublisher publishes events to a durable topic exchange, using the event
// type as routing key.
type AMQPPublisher struct {
	url      string
	exchange string

	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &AMQPPublisher{
		url:      url,
		exchange: exchange,
		ctx:      ctx,
		cancel:   cancel,
	}
	if err := p.connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.channel = ch
	p.mu.Unlock()

	logger.Info("connected to RabbitMQ", "exchange", p.exchange)

	go p.monitorConnection(conn)
	return nil
}

func (p *AMQPPublisher) monitorConnection(conn *amqp.Connection) {
	notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case err := <-notifyClose:
		if err != nil {
			logger.Error("RabbitMQ connection closed unexpectedly", "error", err)
			p.reconnect()
		}
	case <-p.ctx.Done():
	}
}

func (p *AMQPPublisher) reconnect() {
	p.mu.Lock()
	p.channel = nil
	p.conn = nil
	p.mu.Unlock()

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		if err := p.connect(); err == nil {
			logger.Info("reconnected to RabbitMQ", "attempt", attempt)
			return
		}

		delay := reconnectDelay * time.Duration(attempt)
		logger.Warn("RabbitMQ reconnection failed, retrying", "attempt", attempt, "delay", delay)

		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			return
		}
	}
	logger.Error("max RabbitMQ reconnection attempts reached, events will be dropped")
}

// Publish sends e as a persistent JSON message. Errors are logged.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) {
	if err := p.publish(ctx, e); err != nil {
		logger.WithContext(ctx).Error("failed to publish event", "type", e.Type, "user_id", e.AccountID, "error", err)
	}
}

func (p *AMQPPublisher) publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	p.mu.RLock()
	ch := p.channel
	p.mu.RUnlock()
	if ch == nil {
		return errNotConnected
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	return ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    e.At,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	logger.Info("event publisher closed")
}
