// Package redis provides helpers for connecting to a Redis server and keeping
// simple work lists in it.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied configuration.
//   - List, a FIFO list under one key (RPUSH / LPOP / LLEN), used as the
//     backing store of the attachment work queue.
//   - Healthcheck for HTTP liveness / readiness probes.
//
// Configuration is described by the Config struct whose fields can be
// populated from environment variables via github.com/caarlos0/env.
//
// # Usage
//
//	import "github.com/dmitrymomot/cleanmedia/pkg/redis"
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	list, err := redis.NewList(client, "cleanmedia:pending")
//	if err != nil {
//	    return err
//	}
//	_ = list.Push(ctx, "42", "43")
//	v, ok, err := list.Pop(ctx) // "42", true, nil
//
// Register a health-check:
//
//	checker := redis.Healthcheck(client)
//	if err := checker(ctx); err != nil {
//	    // redis is not healthy
//	}
//
// # Errors
//
// Sentinel errors (e.g. ErrRedisNotReady, ErrListOperationFailed) wrap the
// underlying go-redis errors using errors.Join, so callers can match them with
// errors.Is. An empty list is reported by Pop's ok result, not by redis.Nil.
package redis
