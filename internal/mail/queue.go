package mail

import "context"

// Job is a broker-agnostic mail job delivered to the mail worker.
type Job struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a mail job. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, job Job) error

// Queue defines the broker operations mail dispatch relies on. Backends
// exist for RabbitMQ and Google Cloud Pub/Sub.
type Queue interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}
