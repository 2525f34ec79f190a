// Package memory provides an in-memory attachment store.
// It backs tests and dry runs against a JSON snapshot of the media library.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/dmitrymomot/cleanmedia/internal/media"
)

// Store is a concurrency-safe in-memory attachment store.
// Values are copied on the way in and out.
type Store struct {
	mu          sync.RWMutex
	attachments map[int64]media.Attachment
}

// New creates a store seeded with the given attachments.
func New(attachments ...media.Attachment) *Store {
	s := &Store{attachments: make(map[int64]media.Attachment, len(attachments))}
	for _, a := range attachments {
		s.Put(a)
	}
	return s
}

// LoadFile creates a store from a JSON array of attachments.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachments file: %w", err)
	}
	var attachments []media.Attachment
	if err := json.Unmarshal(data, &attachments); err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrInvalidMetadata, err)
	}
	return New(attachments...), nil
}

// WriteFile writes every attachment to path as a JSON array ordered by id,
// in the format LoadFile reads.
func (s *Store) WriteFile(path string) error {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.attachments))
	for id := range s.attachments {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	attachments := make([]media.Attachment, len(ids))
	for i, id := range ids {
		attachments[i] = clone(s.attachments[id])
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(attachments, "", "  ")
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write attachments file: %w", err)
	}
	return nil
}

// Put inserts or replaces an attachment.
func (s *Store) Put(a media.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[a.ID] = clone(a)
}

// Save stores a, rejecting non-positive ids.
func (s *Store) Save(_ context.Context, a media.Attachment) error {
	if a.ID <= 0 {
		return media.ErrInvalidID
	}
	s.Put(a)
	return nil
}

// Get returns a copy of the attachment.
func (s *Store) Get(_ context.Context, id int64) (media.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attachments[id]
	if !ok {
		return media.Attachment{}, media.ErrNotFound
	}
	return clone(a), nil
}

func (s *Store) Metadata(_ context.Context, id int64) (media.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attachments[id]
	if !ok || a.Metadata == nil {
		return media.Metadata{}, media.ErrNotFound
	}
	return a.Metadata.Clone(), nil
}

func (s *Store) SetMetadata(_ context.Context, id int64, meta media.Metadata) error {
	return s.update(id, func(a *media.Attachment) {
		m := meta.Clone()
		a.Metadata = &m
	})
}

func (s *Store) AttachedFile(_ context.Context, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attachments[id]
	if !ok {
		return "", media.ErrNotFound
	}
	return a.AttachedFile, nil
}

func (s *Store) SetAttachedFile(_ context.Context, id int64, file string) error {
	return s.update(id, func(a *media.Attachment) { a.AttachedFile = file })
}

func (s *Store) BackupSizes(_ context.Context, id int64) (media.BackupSizes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attachments[id]
	if !ok {
		return nil, media.ErrNotFound
	}
	return a.BackupSizes.Clone(), nil
}

func (s *Store) SetBackupSizes(_ context.Context, id int64, sizes media.BackupSizes) error {
	return s.update(id, func(a *media.Attachment) { a.BackupSizes = sizes.Clone() })
}

// Attachments lists all ids in ascending order.
func (s *Store) Attachments(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.attachments))
	for id := range s.attachments {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) update(id int64, fn func(a *media.Attachment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok {
		return media.ErrNotFound
	}
	fn(&a)
	s.attachments[id] = a
	return nil
}

func clone(a media.Attachment) media.Attachment {
	if a.Metadata != nil {
		m := a.Metadata.Clone()
		a.Metadata = &m
	}
	a.BackupSizes = a.BackupSizes.Clone()
	return a
}
