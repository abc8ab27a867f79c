package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func (q *QueueService) PublishPhotoCreated(ctx context.Context, event models.PhotoEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			MessageId:    event.PhotoID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	q.logger.Info("Event published",
		zap.String("type", event.Type),
		zap.String("photo_id", event.PhotoID))
	return nil
}
