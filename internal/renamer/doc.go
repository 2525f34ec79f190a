// Package renamer implements the attachment rename transaction.
//
// Service.Rename cleans the primary filename of one attachment, renames the
// file through a Files backend, renames every size variant next to it and
// writes the updated records back to the Store:
//
//	svc := renamer.New(store, storage, renamer.WithLogger(log))
//	summary, err := svc.Rename(ctx, 42)
//
// Only a failed rename of the primary file aborts the transaction; it is
// reported as media.PhysicalFailure and nothing is written. A failed variant
// rename keeps that variant's old name in the metadata, so records always
// match the files on disk. Backup sizes are rewritten in the metadata only,
// unless WithBackupFileRename is set.
//
// The service holds no per-attachment state. Callers run one transaction per
// attachment at a time; the package does not lock.
package renamer
