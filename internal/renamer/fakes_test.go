package renamer_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/internal/store/memory"
)

var errRenameRefused = errors.New("rename refused")

// recordingStore wraps the memory store and records every write.
type recordingStore struct {
	*memory.Store
	mu       sync.Mutex
	writes   []string
	failOn   string
	failWith error
}

func newRecordingStore(attachments ...media.Attachment) *recordingStore {
	return &recordingStore{Store: memory.New(attachments...)}
}

func (s *recordingStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, op)
	if op == s.failOn {
		return s.failWith
	}
	return nil
}

func (s *recordingStore) SetMetadata(ctx context.Context, id int64, meta media.Metadata) error {
	if err := s.record("SetMetadata"); err != nil {
		return err
	}
	return s.Store.SetMetadata(ctx, id, meta)
}

func (s *recordingStore) SetAttachedFile(ctx context.Context, id int64, file string) error {
	if err := s.record("SetAttachedFile"); err != nil {
		return err
	}
	return s.Store.SetAttachedFile(ctx, id, file)
}

func (s *recordingStore) SetBackupSizes(ctx context.Context, id int64, sizes media.BackupSizes) error {
	if err := s.record("SetBackupSizes"); err != nil {
		return err
	}
	return s.Store.SetBackupSizes(ctx, id, sizes)
}

func (s *recordingStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

// fakeFiles records renames in memory and refuses the listed sources.
type fakeFiles struct {
	mu      sync.Mutex
	renames [][2]string
	refuse  map[string]bool
	// afterRename runs after every successful rename.
	afterRename func()
}

func (f *fakeFiles) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse[oldPath] {
		return errRenameRefused
	}
	f.renames = append(f.renames, [2]string{oldPath, newPath})
	if f.afterRename != nil {
		f.afterRename()
	}
	return nil
}

func (f *fakeFiles) Renames() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.renames...)
}

type recordingObserver struct {
	mu        sync.Mutex
	summaries []media.Summary
	pending   []int
}

func (o *recordingObserver) RecordRename(summary media.Summary, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summaries = append(o.summaries, summary)
}

func (o *recordingObserver) RecordDiscovery(pending int, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, pending)
}
