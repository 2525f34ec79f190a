package main

import (
	"time"
)

// Driver names.
const (
	StorageLocal = "local"
	StorageS3    = "s3"

	MetadataMemory   = "memory"
	MetadataPostgres = "postgres"
	MetadataMongo    = "mongo"

	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// AppConfig selects the drivers and holds the settings shared by every command.
// Driver-specific settings live in their own packages and are loaded only
// when that driver is selected.
type AppConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Service  string `env:"APP_NAME" envDefault:"cleanmedia"`
	LogLevel string `env:"LOG_LEVEL"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"local"`
	UploadsDir    string `env:"UPLOADS_DIR" envDefault:"./wp-content/uploads"`
	UploadsURL    string `env:"UPLOADS_URL" envDefault:"/wp-content/uploads/"`

	MetadataDriver string `env:"METADATA_DRIVER" envDefault:"memory"`
	MemorySeedFile string `env:"MEMORY_SEED_FILE"`
	RunMigrations  bool   `env:"PG_RUN_MIGRATIONS" envDefault:"true"`

	QueueDriver string `env:"QUEUE_DRIVER" envDefault:"memory"`

	SubstitutionsFile string `env:"SANITIZER_SUBSTITUTIONS_FILE"`
	BackupFileRename  bool   `env:"BACKUP_FILE_RENAME"`

	RenameInterval time.Duration `env:"RENAME_INTERVAL"`
	RenameTimeout  time.Duration `env:"RENAME_TIMEOUT" envDefault:"2m"`
	HealthTimeout  time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`
}
