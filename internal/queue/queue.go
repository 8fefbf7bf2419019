package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/progress"

	"github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "pubsub_exchange"

// Channel is the subset of *amqp091.Channel used for topic publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Init connects to the broker at url and opens a channel.
func Init(url string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return conn, ch, nil
}

func declareTopicExchange(ch Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		"topic",
		false,
		true,
		false,
		false,
		nil,
	)
}

// PublishTopic sends data to exchange with the given routing key.
func PublishTopic(ctx context.Context, ch Channel, exchange, topic string, contentType string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  contentType,
		Body:         data,
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
	}
	return ch.PublishWithContext(ctx, exchange, topic, false, false, publishing)
}

// ProgressForwarder publishes progress events as JSON on a topic exchange
// so processes outside this one can follow a run.
type ProgressForwarder struct {
	ch       Channel
	exchange string
	topic    string
}

func NewProgressForwarder(ch Channel, exchange, topic string) (*ProgressForwarder, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := declareTopicExchange(ch, exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	logger.Info("[Queue] Forwarding progress", "exchange", exchange, "topic", topic)
	return &ProgressForwarder{ch: ch, exchange: exchange, topic: topic}, nil
}

func (f *ProgressForwarder) Forward(ctx context.Context, e progress.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return PublishTopic(ctx, f.ch, f.exchange, f.topic, "application/json", data)
}
