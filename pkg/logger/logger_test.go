package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cleanmedia/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf)).Info("hello")
		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText)).Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithAttr(logger.Component("renamer"))).Info("msg")
		assert.Equal(t, "renamer", decode(t, buf)["component"])
	})

	t.Run("source", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithSource()).Info("msg")
		assert.Contains(t, decode(t, buf), slog.SourceKey)
	})

	t.Run("level filter", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("hidden")
		assert.Empty(t, buf.String())
		log.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestWithFormatPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { logger.WithFormat(logger.Format("xml")) })
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	type key struct{}
	extractor := func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(key{}).(string); ok {
			return logger.RequestID(v), true
		}
		return slog.Attr{}, false
	}

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(nil, extractor),
	).With(logger.Component("httpapi")).WithGroup("req")

	ctx := context.WithValue(context.Background(), key{}, "req-42")
	log.InfoContext(ctx, "served", slog.Int("status", 200))

	entry := decode(t, buf)
	assert.Equal(t, "httpapi", entry["component"])
	group := entry["req"].(map[string]any)
	assert.Equal(t, "req-42", group["request_id"])
	assert.InDelta(t, 200, group["status"], 0)

	buf.Reset()
	log.Info("no request")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env      string
		wantEnv  string
		wantJSON bool
		debug    bool
	}{
		{"production", logger.EnvProduction, true, false},
		{"prod", logger.EnvProduction, true, false},
		{"stage", logger.EnvStaging, true, false},
		{"", logger.EnvDevelopment, false, true},
		{"test", logger.EnvDevelopment, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			log := logger.New(logger.WithEnvironment(tt.env, "cleanmedia"), logger.WithOutput(buf))
			log.Debug("debug line")
			assert.Equal(t, tt.debug, buf.Len() > 0)

			buf.Reset()
			log.Warn("msg")
			if tt.wantJSON {
				entry := decode(t, buf)
				assert.Equal(t, tt.wantEnv, entry["env"])
				assert.Equal(t, "cleanmedia", entry["service"])
				return
			}
			assert.Contains(t, buf.String(), "env="+tt.wantEnv)
			assert.Contains(t, buf.String(), "service=cleanmedia")
		})
	}
}

func TestWithLevelName(t *testing.T) {
	t.Parallel()

	t.Run("overrides environment level", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithEnvironment(logger.EnvProduction, "svc"),
			logger.WithOutput(buf),
			logger.WithLevelName("debug"),
		)
		log.Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("unknown name is ignored", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithEnvironment(logger.EnvProduction, "svc"),
			logger.WithOutput(buf),
			logger.WithLevelName("verbose"),
		)
		log.Debug("hidden")
		assert.Empty(t, buf.String())
	})
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("default")
	assert.Equal(t, "default", decode(t, buf)["msg"])
}
