// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct parsing. Every configuration type is
// parsed at most once per process and served from a cache afterwards, so
// packages can call Load for the same type without coordinating.
//
// # Usage
//
//	type QueueConfig struct {
//		Driver string `env:"QUEUE_DRIVER" envDefault:"memory"`
//	}
//
//	if err := config.LoadEnv(".env.local"); err != nil {
//		log.Fatal(err)
//	}
//
//	var q QueueConfig
//	config.MustLoad(&q)
//
// Driver-specific configs should only be loaded once their driver is
// selected, since their required variables are meaningless otherwise.
//
// # Testing
//
// Call ResetCache after changing the environment with t.Setenv.
package config
