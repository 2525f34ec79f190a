// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver: connection pooling with retries, goose migrations, health
// checks and error classification helpers.
//
// # Building blocks
//
//   - Config is populated from environment variables via
//     github.com/caarlos0/env and controls pool limits, retry cadence and the
//     migrations table.
//   - Connect opens a *pgxpool.Pool and pings it, retrying with a growing
//     delay until the database becomes available.
//   - Migrate runs goose migrations from a directory on disk; MigrateFS runs
//     them from an fs.FS such as an embed.FS compiled into the binary.
//   - Healthcheck returns a probe closure for the HTTP health endpoint.
//
// # Usage
//
//	import "github.com/dmitrymomot/cleanmedia/pkg/pg"
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, migrations, "migrations", cfg, slog.Default()); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// IsNotFoundError and IsForeignKeyViolationError unwrap
// errors returned by pgx (including *pgconn.PgError) so callers can classify
// them without importing pgx themselves.
package pg
