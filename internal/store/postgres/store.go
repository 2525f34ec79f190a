// Package postgres stores attachment records in PostgreSQL.
//
// Every record lives in attachment_meta as one row per (attachment, meta key):
// the attached file as plain text, metadata and backup sizes as JSON.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/pkg/pg"
)

// Migrations holds the schema, applied with pg.MigrateFS(ctx, pool, Migrations, MigrationsDir, ...).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that holds the SQL files.
const MigrationsDir = "migrations"

var ErrQueryFailed = errors.New("attachment query failed")

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements the attachment store on PostgreSQL.
type Store struct {
	db DB
}

// New creates a Store.
func New(db DB) *Store {
	return &Store{db: db}
}

const (
	selectMetaSQL = `SELECT m.meta_value FROM attachments a
LEFT JOIN attachment_meta m ON m.attachment_id = a.id AND m.meta_key = $2
WHERE a.id = $1`

	upsertMetaSQL = `INSERT INTO attachment_meta (attachment_id, meta_key, meta_value)
VALUES ($1, $2, $3)
ON CONFLICT (attachment_id, meta_key)
DO UPDATE SET meta_value = EXCLUDED.meta_value, updated_at = now()`

	insertAttachmentSQL = `INSERT INTO attachments (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`

	listAttachmentsSQL = `SELECT id FROM attachments ORDER BY id`
)

// meta returns the value of key. ok is false when the attachment exists but
// has no such record; unknown attachments yield media.ErrNotFound.
func (s *Store) meta(ctx context.Context, id int64, key string) (value string, ok bool, err error) {
	var v *string
	if err := s.db.QueryRow(ctx, selectMetaSQL, id, key).Scan(&v); err != nil {
		if pg.IsNotFoundError(err) {
			return "", false, media.ErrNotFound
		}
		return "", false, errors.Join(ErrQueryFailed, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (s *Store) setMeta(ctx context.Context, id int64, key, value string) error {
	if _, err := s.db.Exec(ctx, upsertMetaSQL, id, key, value); err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return media.ErrNotFound
		}
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, id int64, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", media.ErrInvalidMetadata, err)
	}
	return s.setMeta(ctx, id, key, string(data))
}

func (s *Store) Metadata(ctx context.Context, id int64) (media.Metadata, error) {
	raw, ok, err := s.meta(ctx, id, media.MetaAttachmentMetadata)
	if err != nil {
		return media.Metadata{}, err
	}
	if !ok {
		return media.Metadata{}, media.ErrNotFound
	}
	var meta media.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return media.Metadata{}, fmt.Errorf("%w: %v", media.ErrInvalidMetadata, err)
	}
	return meta, nil
}

func (s *Store) SetMetadata(ctx context.Context, id int64, meta media.Metadata) error {
	return s.setJSON(ctx, id, media.MetaAttachmentMetadata, meta)
}

func (s *Store) AttachedFile(ctx context.Context, id int64) (string, error) {
	v, ok, err := s.meta(ctx, id, media.MetaAttachedFile)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", media.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetAttachedFile(ctx context.Context, id int64, file string) error {
	return s.setMeta(ctx, id, media.MetaAttachedFile, file)
}

func (s *Store) BackupSizes(ctx context.Context, id int64) (media.BackupSizes, error) {
	raw, ok, err := s.meta(ctx, id, media.MetaBackupSizes)
	if err != nil || !ok {
		return nil, err
	}
	var sizes media.BackupSizes
	if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrInvalidMetadata, err)
	}
	return sizes, nil
}

func (s *Store) SetBackupSizes(ctx context.Context, id int64, sizes media.BackupSizes) error {
	return s.setJSON(ctx, id, media.MetaBackupSizes, sizes)
}

// Attachments lists all attachment ids in ascending order.
func (s *Store) Attachments(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, listAttachmentsSQL)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return ids, nil
}

// Save inserts the attachment if needed and writes every record it carries.
func (s *Store) Save(ctx context.Context, a media.Attachment) error {
	if a.ID <= 0 {
		return media.ErrInvalidID
	}
	if _, err := s.db.Exec(ctx, insertAttachmentSQL, a.ID); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if a.AttachedFile != "" {
		if err := s.SetAttachedFile(ctx, a.ID, a.AttachedFile); err != nil {
			return err
		}
	}
	if a.Metadata != nil {
		if err := s.SetMetadata(ctx, a.ID, *a.Metadata); err != nil {
			return err
		}
	}
	if a.BackupSizes != nil {
		if err := s.SetBackupSizes(ctx, a.ID, a.BackupSizes); err != nil {
			return err
		}
	}
	return nil
}
