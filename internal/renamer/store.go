package renamer

import (
	"context"

	"github.com/dmitrymomot/cleanmedia/internal/media"
)

// Store reads and writes the attachment records.
// Metadata returns media.ErrNotFound for unknown ids. BackupSizes returns nil
// without an error when the attachment has none.
type Store interface {
	Metadata(ctx context.Context, id int64) (media.Metadata, error)
	SetMetadata(ctx context.Context, id int64, meta media.Metadata) error
	AttachedFile(ctx context.Context, id int64) (string, error)
	SetAttachedFile(ctx context.Context, id int64, file string) error
	BackupSizes(ctx context.Context, id int64) (media.BackupSizes, error)
	SetBackupSizes(ctx context.Context, id int64, sizes media.BackupSizes) error
	// Attachments lists all attachment ids in ascending order.
	Attachments(ctx context.Context) ([]int64, error)
}

// Files renames files relative to the upload root.
// It is satisfied by file.LocalStorage and file.S3Storage.
type Files interface {
	Rename(ctx context.Context, oldPath, newPath string) error
}
