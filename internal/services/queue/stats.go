package queue

import "fmt"

type Stats struct {
	Name      string `json:"name"`
	Messages  int    `json:"messages"`
	Consumers int    `json:"consumers"`
}

// Backlog reports how many events are waiting for a consumer.
func (q *QueueService) Backlog() (Stats, error) {
	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return Stats{
		Name:      info.Name,
		Messages:  info.Messages,
		Consumers: info.Consumers,
	}, nil
}

// HealthCheck checks if RabbitMQ is available
func (q *QueueService) HealthCheck() string {
	if q.conn != nil && q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if q.channel == nil {
		return "unhealthy: channel not available"
	}

	if _, err := q.channel.QueueInspect(q.queueName); err != nil {
		return "unhealthy: " + err.Error()
	}

	return "healthy"
}
