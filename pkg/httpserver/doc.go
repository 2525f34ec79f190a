// Package httpserver runs an http.Handler until its context ends and then
// shuts it down gracefully.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// In-flight requests get ShutdownTimeout to finish. A rename that already
// moved its primary file completes regardless, because request contexts are
// detached from the server context.
//
// HealthCheckHandler serves liveness (no checks) and readiness probes
// (named checks such as a database ping).
package httpserver
