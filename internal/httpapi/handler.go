package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/pkg/filename"
	"github.com/dmitrymomot/cleanmedia/pkg/httpserver"
	"github.com/dmitrymomot/cleanmedia/pkg/logger"
)

// Renamer runs rename transactions and discovery.
type Renamer interface {
	Rename(ctx context.Context, id int64) (media.Summary, error)
	Discover(ctx context.Context) ([]int64, error)
	Sanitizer() *filename.Sanitizer
}

// Records reads the stored attachment records.
type Records interface {
	Metadata(ctx context.Context, id int64) (media.Metadata, error)
	AttachedFile(ctx context.Context, id int64) (string, error)
	BackupSizes(ctx context.Context, id int64) (media.BackupSizes, error)
}

// Queue receives ids for a later run.
type Queue interface {
	Push(ctx context.Context, ids ...int64) error
	Len(ctx context.Context) (int64, error)
}

// Handler serves the HTTP API.
type Handler struct {
	renamer       Renamer
	records       Records
	queue         Queue
	fileURL       func(string) string
	logger        *slog.Logger
	checks        []httpserver.Check
	checkTimeout  time.Duration
	metrics       http.Handler
	renameTimeout time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRecords enables GET /api/attachments/{id}.
func WithRecords(r Records) Option {
	return func(h *Handler) { h.records = r }
}

// WithQueue enables /api/queue.
func WithQueue(q Queue) Option {
	return func(h *Handler) { h.queue = q }
}

// WithFileURL adds public URLs to attachment records.
func WithFileURL(fn func(path string) string) Option {
	return func(h *Handler) { h.fileURL = fn }
}

// WithHealthChecks registers readiness checks for /healthz.
func WithHealthChecks(timeout time.Duration, checks ...httpserver.Check) Option {
	return func(h *Handler) {
		h.checkTimeout = timeout
		h.checks = append(h.checks, checks...)
	}
}

// WithMetricsHandler mounts handler at /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(h *Handler) { h.metrics = handler }
}

// WithRenameTimeout bounds a single rename request. The deadline only
// applies until the primary file has been moved.
func WithRenameTimeout(d time.Duration) Option {
	return func(h *Handler) { h.renameTimeout = d }
}

// New creates a Handler.
func New(renamer Renamer, opts ...Option) (*Handler, error) {
	if renamer == nil {
		return nil, ErrMissingRenamer
	}
	h := &Handler{
		renamer: renamer,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("httpapi"))
	return h, nil
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(h.logger, h.checkTimeout, h.checks...))
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Get("/ajax/clean", h.clean)
	r.Post("/ajax/clean", h.clean)
	r.Get("/wp-admin/admin-ajax.php", h.adminAjax)
	r.Post("/wp-admin/admin-ajax.php", h.adminAjax)

	r.Route("/api", func(r chi.Router) {
		r.Get("/attachments/pending", h.pending)
		r.Get("/attachments/{id}", h.attachment)
		r.Post("/attachments/{id}/rename", h.rename)
		r.Get("/queue", h.queueLength)
		r.Post("/queue", h.enqueue)
	})

	return r
}

// adminAjax dispatches on the action parameter like admin-ajax.php.
// Unknown actions answer 400 with body 0.
func (h *Handler) adminAjax(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != AjaxAction {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("0"))
		return
	}
	h.clean(w, r)
}

// clean is the legacy transaction invocation endpoint.
func (h *Handler) clean(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, ErrMissingID)
		return
	}
	id, err := media.ParseID(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.runRename(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeLegacy(w, summary.LegacyValue())
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	id, err := media.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.runRename(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	meta := map[string]any{"legacy": summary.LegacyValue()}
	if summary.Err != nil {
		meta["error"] = summary.Err.Error()
	}
	writeData(w, summary, meta)
}

func (h *Handler) runRename(ctx context.Context, id int64) (media.Summary, error) {
	if h.renameTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.renameTimeout)
		defer cancel()
	}
	summary, err := h.renamer.Rename(ctx, id)
	if err != nil {
		return summary, err
	}
	h.logger.InfoContext(ctx, "attachment processed",
		logger.AttachmentID(id),
		logger.Outcome(string(summary.Outcome)),
	)
	return summary, nil
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	ids, err := h.renamer.Discover(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, ids, map[string]any{"count": len(ids)})
}

// attachmentView is the stored state of one attachment.
type attachmentView struct {
	ID           int64             `json:"id"`
	AttachedFile string            `json:"attached_file"`
	URL          string            `json:"url,omitempty"`
	NeedsClean   bool              `json:"needs_cleaning"`
	Metadata     media.Metadata    `json:"metadata"`
	BackupSizes  media.BackupSizes `json:"backup_sizes,omitempty"`
}

func (h *Handler) attachment(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		writeError(w, media.ErrNotFound)
		return
	}
	id, err := media.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	meta, err := h.records.Metadata(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	view := attachmentView{ID: id, Metadata: meta}

	view.AttachedFile, err = h.records.AttachedFile(ctx, id)
	if err != nil && !errors.Is(err, media.ErrNotFound) {
		writeError(w, err)
		return
	}
	view.BackupSizes, err = h.records.BackupSizes(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.fileURL != nil && meta.File != "" {
		view.URL = h.fileURL(meta.File)
	}
	view.NeedsClean = h.renamer.Sanitizer().NeedsCleaning(meta.Name())

	writeData(w, view, nil)
}

func (h *Handler) queueLength(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeError(w, ErrQueueDisabled)
		return
	}
	n, err := h.queue.Len(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]int64{"length": n}, nil)
}

// enqueue pushes every pending id to the queue.
func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeError(w, ErrQueueDisabled)
		return
	}
	ctx := r.Context()
	ids, err := h.renamer.Discover(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.queue.Push(ctx, ids...); err != nil {
		writeError(w, err)
		return
	}
	n, err := h.queue.Len(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "pending attachments enqueued", slog.Int("count", len(ids)), logger.QueueLength(n))
	writeData(w, map[string]any{"enqueued": ids, "length": n}, nil)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}

// RequestIDExtractor adds the chi request id to log records.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := middleware.GetReqID(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}
