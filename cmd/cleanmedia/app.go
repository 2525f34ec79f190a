package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/cleanmedia/internal/driver"
	"github.com/dmitrymomot/cleanmedia/internal/httpapi"
	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/internal/metrics"
	"github.com/dmitrymomot/cleanmedia/internal/renamer"
	"github.com/dmitrymomot/cleanmedia/internal/store/memory"
	"github.com/dmitrymomot/cleanmedia/internal/store/mongostore"
	"github.com/dmitrymomot/cleanmedia/internal/store/postgres"
	"github.com/dmitrymomot/cleanmedia/pkg/config"
	"github.com/dmitrymomot/cleanmedia/pkg/file"
	"github.com/dmitrymomot/cleanmedia/pkg/filename"
	"github.com/dmitrymomot/cleanmedia/pkg/httpserver"
	"github.com/dmitrymomot/cleanmedia/pkg/logger"
	"github.com/dmitrymomot/cleanmedia/pkg/mongo"
	"github.com/dmitrymomot/cleanmedia/pkg/pg"
	"github.com/dmitrymomot/cleanmedia/pkg/redis"
)

var (
	ErrUnknownDriver = errors.New("unknown driver")
	ErrQueueRequired = errors.New("queue driver is required")
)

// recordStore is a metadata backend that can also import snapshots.
type recordStore interface {
	renamer.Store
	Save(ctx context.Context, a media.Attachment) error
}

// fileBackend is a storage backend with public URLs.
type fileBackend interface {
	renamer.Files
	URL(path string) string
}

// app holds the wired components of one command invocation.
type app struct {
	cfg      AppConfig
	log      *slog.Logger
	store    recordStore
	files    fileBackend
	queue    driver.Queue
	service  *renamer.Service
	registry *prometheus.Registry
	checks   []httpserver.Check
	closers  []func()
}

func newLogger(cfg AppConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(httpapi.RequestIDExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	return logger.New(opts...)
}

// newApp connects the configured drivers. Call close when done.
func newApp(ctx context.Context, cfg AppConfig, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if err := a.openFiles(ctx); err != nil {
		return nil, err
	}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	if err := a.openQueue(ctx); err != nil {
		return nil, err
	}

	opts := []renamer.Option{renamer.WithLogger(log)}
	if cfg.SubstitutionsFile != "" {
		subs, err := filename.LoadSubstitutions(cfg.SubstitutionsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, renamer.WithSanitizer(filename.New(filename.WithSubstitutions(subs...))))
	}
	if cfg.BackupFileRename {
		opts = append(opts, renamer.WithBackupFileRename())
	}
	if cfg.MetricsEnabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observer, err := metrics.NewPrometheusObserver("", a.registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, renamer.WithObserver(observer))
	}

	a.service = renamer.New(a.store, a.files, opts...)
	return a, nil
}

func (a *app) openFiles(ctx context.Context) error {
	switch a.cfg.StorageDriver {
	case StorageLocal:
		storage, err := file.NewLocalStorage(a.cfg.UploadsDir, a.cfg.UploadsURL)
		if err != nil {
			return err
		}
		a.files = storage
	case StorageS3:
		var s3cfg file.S3Config
		if err := config.Load(&s3cfg); err != nil {
			return err
		}
		storage, err := file.NewS3Storage(ctx, s3cfg)
		if err != nil {
			return err
		}
		a.files = storage
	default:
		return fmt.Errorf("%w: storage %q", ErrUnknownDriver, a.cfg.StorageDriver)
	}
	return nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.MetadataDriver {
	case MetadataMemory:
		if a.cfg.MemorySeedFile == "" {
			a.store = memory.New()
			return nil
		}
		store, err := memory.LoadFile(a.cfg.MemorySeedFile)
		if err != nil {
			return err
		}
		a.store = store

	case MetadataPostgres:
		var pgcfg pg.Config
		if err := config.Load(&pgcfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgcfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		if a.cfg.RunMigrations {
			if pgcfg.MigrationsPath != "" {
				err = pg.Migrate(ctx, pool, pgcfg, a.log)
			} else {
				err = pg.MigrateFS(ctx, pool, postgres.Migrations, postgres.MigrationsDir, pgcfg, a.log)
			}
			if err != nil {
				return err
			}
		}
		a.store = postgres.New(pool)
		a.checks = append(a.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

	case MetadataMongo:
		var mcfg mongo.Config
		if err := config.Load(&mcfg); err != nil {
			return err
		}
		db, err := mongo.NewWithDatabase(ctx, mcfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = db.Client().Disconnect(context.Background()) })
		a.store = mongostore.NewFromDatabase(db)
		a.checks = append(a.checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())})

	default:
		return fmt.Errorf("%w: metadata %q", ErrUnknownDriver, a.cfg.MetadataDriver)
	}
	return nil
}

func (a *app) openQueue(ctx context.Context) error {
	switch a.cfg.QueueDriver {
	case QueueMemory:
		a.queue = driver.NewMemoryQueue()
	case QueueRedis:
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		queue, err := driver.NewRedisQueue(client, rcfg.QueueKey)
		if err != nil {
			return err
		}
		a.queue = queue
		a.checks = append(a.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	case "":
		return ErrQueueRequired
	default:
		return fmt.Errorf("%w: queue %q", ErrUnknownDriver, a.cfg.QueueDriver)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// writeSnapshot saves the memory store back to its seed file so that runs
// against a snapshot keep their result.
func (a *app) writeSnapshot() error {
	store, ok := a.store.(*memory.Store)
	if !ok || a.cfg.MemorySeedFile == "" {
		return nil
	}
	return store.WriteFile(a.cfg.MemorySeedFile)
}
