// Package file provides the media storage that attachment renames run against.
//
// The Storage interface is deliberately small: renames happen in place,
// inside one directory, relative to a fixed upload root. Two implementations
// are provided:
//   - LocalStorage: the upload directory on the local filesystem
//   - S3Storage: a bucket (optionally under a key prefix) on AWS S3 or an
//     S3-compatible service such as MinIO
//
// # Usage
//
//	import "github.com/dmitrymomot/cleanmedia/pkg/file"
//
//	storage, err := file.NewLocalStorage("/var/www/wp-content/uploads", "/wp-content/uploads/")
//	if err != nil {
//		return err
//	}
//
//	err = storage.Rename(ctx, "2020/01/Straße.png", "2020/01/strasse.png")
//	switch {
//	case errors.Is(err, file.ErrFileNotFound):
//		// source is gone
//	case errors.Is(err, file.ErrFileExists):
//		// target name is already taken
//	}
//
// Using S3 storage:
//
//	storage, err := file.NewS3Storage(ctx, file.S3Config{
//		Bucket: "media",
//		Region: "eu-central-1",
//		Prefix: "wp-content/uploads",
//	})
//
// # Rename Semantics
//
// A rename never overwrites an existing file: a taken target fails with
// ErrFileExists. os.Rename alone would silently replace it on Unix. On a
// case-insensitive filesystem a case-only rename of the same file is allowed.
//
// On S3 a rename is HeadObject (source), HeadObject (target), CopyObject and
// DeleteObject. If the source cannot be deleted after the copy, the copy is
// removed so the old key stays authoritative.
//
// # Security Considerations
//
// Every path is resolved against the root and rejected with ErrInvalidPath
// if it would escape it ("../" segments, absolute paths outside the root).
//
// # Error Handling
//
// S3-specific errors are mapped to the generic sentinels:
//   - NoSuchKey, NotFound -> ErrFileNotFound
//   - NoSuchBucket -> ErrBucketNotFound
//   - AccessDenied -> ErrAccessDenied
package file
