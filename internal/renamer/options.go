package renamer

import (
	"log/slog"

	"github.com/dmitrymomot/cleanmedia/internal/metrics"
	"github.com/dmitrymomot/cleanmedia/pkg/filename"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver sets the metrics observer. Nil is ignored.
func WithObserver(o metrics.Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithSanitizer replaces the default filename sanitizer. Nil is ignored.
func WithSanitizer(sanitizer *filename.Sanitizer) Option {
	return func(s *Service) {
		if sanitizer != nil {
			s.sanitizer = sanitizer
		}
	}
}

// WithBackupFileRename renames backup files on disk too.
// By default only their names in the metadata are cleaned.
func WithBackupFileRename() Option {
	return func(s *Service) {
		s.renameBackupFiles = true
	}
}
