package redis

import "time"

// Config describes the redis connection backing the work queue.
type Config struct {
	// ConnectionURL has the form redis://:password@host:6379/0.
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // bounds all attempts together
	// QueueKey names the list of attachment ids waiting to be cleaned.
	QueueKey string `env:"REDIS_QUEUE_KEY" envDefault:"cleanmedia:pending"`
}
