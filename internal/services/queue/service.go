// Package queue publishes photo lifecycle events to RabbitMQ for downstream
// consumers such as feed fan-out and notifications.
package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// EventPublisher is what the upload flow needs from the broker.
type EventPublisher interface {
	PublishPhotoCreated(ctx context.Context, event models.PhotoEvent) error
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueInspect(name string) (amqp.Queue, error)
	Close() error
}

type QueueService struct {
	conn      *amqp.Connection
	channel   channel
	logger    *zap.Logger
	queueName string
}

func NewQueueService(rabbitmqURL, queueName string, logger *zap.Logger) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("queue", queueName))

	return &QueueService{
		conn:      conn,
		channel:   ch,
		logger:    logger,
		queueName: queueName,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
