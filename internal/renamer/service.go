package renamer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/internal/metrics"
	"github.com/dmitrymomot/cleanmedia/pkg/filename"
	"github.com/dmitrymomot/cleanmedia/pkg/logger"
)

// Service runs attachment rename transactions.
type Service struct {
	store             Store
	files             Files
	sanitizer         *filename.Sanitizer
	logger            *slog.Logger
	observer          metrics.Observer
	renameBackupFiles bool
}

// New creates a Service over the given store and file backend.
func New(store Store, files Files, opts ...Option) *Service {
	s := &Service{
		store:     store,
		files:     files,
		sanitizer: filename.New(),
		logger:    slog.New(slog.DiscardHandler),
		observer:  metrics.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("renamer"))
	return s
}

// Rename cleans the filenames of attachment id.
//
// The returned error is non-nil only when the store fails; media.ErrNotFound
// is wrapped for unknown ids. Rename failures are reported through the
// summary. When the primary file was renamed but the records could not be
// written, the summary is returned together with ErrFailedToSaveMetadata.
func (s *Service) Rename(ctx context.Context, id int64) (media.Summary, error) {
	start := time.Now()
	log := s.logger.With(logger.AttachmentID(id))

	meta, err := s.store.Metadata(ctx, id)
	if err != nil {
		return media.Summary{AttachmentID: id}, errors.Join(ErrFailedToLoadMetadata, err)
	}

	summary, err := s.rename(ctx, id, meta, log)
	if err != nil {
		// Files already moved are listed so the records can be fixed by hand.
		log.ErrorContext(ctx, "failed to save attachment records",
			logger.Error(err),
			s.movedFiles(meta.Dir(), summary),
		)
		return summary, err
	}

	s.observer.RecordRename(summary, time.Since(start))
	return summary, nil
}

func (s *Service) rename(ctx context.Context, id int64, meta media.Metadata, log *slog.Logger) (media.Summary, error) {
	current := meta.Name()
	clean := s.sanitizer.Clean(current)

	summary := media.Summary{
		AttachmentID: id,
		Outcome:      media.NoChangeNeeded,
		OldName:      current,
		NewName:      current,
	}
	if clean == current {
		log.DebugContext(ctx, "filename already clean", logger.Filename(current))
		return summary, nil
	}

	backups, err := s.store.BackupSizes(ctx, id)
	if err != nil {
		return summary, errors.Join(ErrFailedToLoadMetadata, err)
	}

	dir := meta.Dir()
	newPrimary := media.Join(dir, clean)
	if err := s.renameFile(ctx, meta.File, newPrimary, current, clean); err != nil {
		log.WarnContext(ctx, "failed to rename attachment file",
			logger.Filename(meta.File),
			slog.String("target", newPrimary),
			logger.Error(err),
		)
		summary.Outcome = media.PhysicalFailure
		summary.Err = err
		return summary, nil
	}

	// The primary file has moved; the rest must run to completion.
	ctx = context.WithoutCancel(ctx)

	meta = meta.Clone()
	meta.File = newPrimary
	summary.Outcome = media.Success
	summary.NewName = clean

	// Several labels may share one file, and a size may reuse the primary file.
	done := map[string]string{current: clean}

	for _, label := range sortedKeys(meta.Sizes) {
		v := meta.Sizes[label]
		res := s.renameSibling(ctx, dir, v.File, done)
		res.Label = label
		if res.Status == media.StatusRenamed {
			v.File = res.New
			meta.Sizes[label] = v
		}
		if res.Status == media.StatusFailed {
			log.WarnContext(ctx, "failed to rename size variant",
				slog.String("size", label),
				logger.Filename(res.Old),
				logger.Error(res.Err),
			)
		}
		summary.Variants = append(summary.Variants, res)
	}

	if backups != nil {
		backups = backups.Clone()
		for _, label := range sortedKeys(backups) {
			b := backups[label]
			res := s.cleanBackup(ctx, dir, b.File, done)
			res.Label = label
			if res.Status == media.StatusRenamed {
				b.File = res.New
				backups[label] = b
			}
			if res.Status == media.StatusFailed {
				log.WarnContext(ctx, "failed to rename backup file",
					slog.String("size", label),
					logger.Filename(res.Old),
					logger.Error(res.Err),
				)
			}
			summary.Backups = append(summary.Backups, res)
		}

		if err := s.store.SetBackupSizes(ctx, id, backups); err != nil {
			return summary, errors.Join(ErrFailedToSaveMetadata, err)
		}
	}

	if err := s.store.SetAttachedFile(ctx, id, newPrimary); err != nil {
		return summary, errors.Join(ErrFailedToSaveMetadata, err)
	}
	if err := s.store.SetMetadata(ctx, id, meta); err != nil {
		return summary, errors.Join(ErrFailedToSaveMetadata, err)
	}

	log.InfoContext(ctx, "attachment renamed",
		slog.String("old_name", current),
		slog.String("new_name", clean),
		slog.Int("variants", len(summary.Variants)),
		slog.Int("failed_variants", summary.FailedVariants()),
		logger.Errors(failures(summary)...),
	)
	return summary, nil
}

// movedFiles lists the files renamed on disk by summary, old path to new path.
func (s *Service) movedFiles(dir string, summary media.Summary) slog.Attr {
	if summary.Outcome != media.Success {
		return slog.Attr{}
	}
	moved := []slog.Attr{slog.String(media.Join(dir, summary.OldName), media.Join(dir, summary.NewName))}
	seen := map[string]bool{summary.OldName: true}
	results := summary.Variants
	if s.renameBackupFiles {
		results = append(slices.Clone(results), summary.Backups...)
	}
	for _, res := range results {
		if res.Status != media.StatusRenamed || seen[res.Old] {
			continue
		}
		seen[res.Old] = true
		moved = append(moved, slog.String(media.Join(dir, res.Old), media.Join(dir, res.New)))
	}
	return logger.Group("moved_files", moved...)
}

func failures(summary media.Summary) []error {
	var errs []error
	for _, res := range append(slices.Clone(summary.Variants), summary.Backups...) {
		if res.Status == media.StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", res.Old, res.Err))
		}
	}
	return errs
}

// renameSibling renames a file that lives next to the primary file.
func (s *Service) renameSibling(ctx context.Context, dir, name string, done map[string]string) media.RenameResult {
	target := s.sanitizer.Clean(name)
	if target == name {
		return media.RenameResult{Status: media.StatusUnchanged, Old: name, New: name}
	}
	if renamed, ok := done[name]; ok {
		return media.RenameResult{Status: media.StatusRenamed, Old: name, New: renamed}
	}

	if err := s.renameFile(ctx, media.Join(dir, name), media.Join(dir, target), name, target); err != nil {
		return media.RenameResult{Status: media.StatusFailed, Old: name, New: target, Err: err}
	}
	done[name] = target
	return media.RenameResult{Status: media.StatusRenamed, Old: name, New: target}
}

// cleanBackup cleans a backup name, on disk only with WithBackupFileRename.
func (s *Service) cleanBackup(ctx context.Context, dir, name string, done map[string]string) media.RenameResult {
	if s.renameBackupFiles {
		return s.renameSibling(ctx, dir, name, done)
	}

	target := s.sanitizer.Clean(name)
	if target == name {
		return media.RenameResult{Status: media.StatusUnchanged, Old: name, New: name}
	}
	return media.RenameResult{Status: media.StatusRenamed, Old: name, New: target}
}

// renameFile refuses targets that lose the whole stem, such as "Фото.jpg"
// cleaning to ".jpg", which would turn the file into a hidden dotfile.
func (s *Service) renameFile(ctx context.Context, oldPath, newPath, oldName, newName string) error {
	if newName == "" {
		return ErrEmptyFilename
	}
	if newStem, _, _ := filename.Split(newName); newStem == "" {
		if oldStem, _, _ := filename.Split(oldName); oldStem != "" {
			return ErrEmptyFilename
		}
	}
	return s.files.Rename(ctx, oldPath, newPath)
}

// Discover lists the attachments whose primary filename needs cleaning,
// in ascending id order. Attachments without metadata are skipped.
func (s *Service) Discover(ctx context.Context) ([]int64, error) {
	start := time.Now()

	pending, err := s.discover(ctx)
	s.observer.RecordDiscovery(len(pending), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "discovery finished",
		slog.Int("pending", len(pending)),
		logger.Duration(time.Since(start)),
	)
	return pending, nil
}

func (s *Service) discover(ctx context.Context) ([]int64, error) {
	ids, err := s.store.Attachments(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToListAttachments, err)
	}

	pending := make([]int64, 0)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meta, err := s.store.Metadata(ctx, id)
		if errors.Is(err, media.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadMetadata, err)
		}

		if s.sanitizer.NeedsCleaning(meta.Name()) {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

// Sanitizer returns the filename sanitizer in use.
func (s *Service) Sanitizer() *filename.Sanitizer {
	return s.sanitizer
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
