// Package logger builds *slog.Logger values for cleanmedia components and
// keeps attribute names consistent across them.
//
// New takes functional options: WithEnvironment picks the format and level
// for development, staging or production; WithLevelName lets LOG_LEVEL
// override it; WithContextExtractors injects request-scoped attributes such
// as the HTTP request id on every record.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "cleanmedia"),
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithOutput(os.Stderr),
//	)
//	log.InfoContext(ctx, "attachment renamed",
//		logger.AttachmentID(42),
//		logger.Filename("2020/01/strasse.png"),
//		logger.Duration(time.Since(start)),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
