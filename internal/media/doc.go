// Package media defines the attachment model shared by the rename service, the
// metadata stores and the HTTP surface.
//
// An attachment owns three records, named after the meta keys the upload
// library stores them under:
//
//   - the attached file (MetaAttachedFile): path of the primary file relative
//     to the upload root, e.g. "2020/01/photo.jpg";
//   - the metadata (MetaAttachmentMetadata): primary file, dimensions and the
//     generated size variants, which live next to the primary file;
//   - the backup sizes (MetaBackupSizes): originals kept after image edits.
//
// The outcome of one rename is a Summary. Summary.LegacyValue encodes it the
// way older clients expect it: -1 when nothing had to change, -2 when the
// primary file could not be renamed, ["old", "new"] on success.
package media
