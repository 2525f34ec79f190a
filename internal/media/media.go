package media

import (
	"path"
	"strconv"
	"strings"
)

// Meta keys the attachment records are stored under.
const (
	MetaAttachedFile       = "_wp_attached_file"
	MetaAttachmentMetadata = "_wp_attachment_metadata"
	MetaBackupSizes        = "_wp_attachment_backup_sizes"
)

// Attachment bundles the three records of one attachment.
type Attachment struct {
	ID           int64       `json:"id" bson:"_id"`
	AttachedFile string      `json:"attached_file" bson:"attached_file"`
	Metadata     *Metadata   `json:"metadata,omitempty" bson:"metadata,omitempty"`
	BackupSizes  BackupSizes `json:"backup_sizes,omitempty" bson:"backup_sizes,omitempty"`
}

// Metadata is the attachment metadata record.
// File is relative to the upload root; size variant files are bare names in
// the same directory.
type Metadata struct {
	File      string                 `json:"file" bson:"file"`
	Width     int                    `json:"width,omitempty" bson:"width,omitempty"`
	Height    int                    `json:"height,omitempty" bson:"height,omitempty"`
	Sizes     map[string]SizeVariant `json:"sizes,omitempty" bson:"sizes,omitempty"`
	ImageMeta map[string]any         `json:"image_meta,omitempty" bson:"image_meta,omitempty"`
}

// SizeVariant is one generated size of the primary image.
type SizeVariant struct {
	File     string `json:"file" bson:"file"`
	Width    int    `json:"width,omitempty" bson:"width,omitempty"`
	Height   int    `json:"height,omitempty" bson:"height,omitempty"`
	MimeType string `json:"mime-type,omitempty" bson:"mime-type,omitempty"`
}

// BackupVariant is an original kept after the image was edited.
type BackupVariant struct {
	File   string `json:"file" bson:"file"`
	Width  int    `json:"width,omitempty" bson:"width,omitempty"`
	Height int    `json:"height,omitempty" bson:"height,omitempty"`
}

// BackupSizes maps a size label (e.g. "full-orig") to its backup.
type BackupSizes map[string]BackupVariant

// Dir returns the directory of the primary file, "" for files at the root.
func (m Metadata) Dir() string {
	dir := path.Dir(m.File)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// Name returns the base name of the primary file.
func (m Metadata) Name() string {
	if m.File == "" {
		return ""
	}
	return path.Base(m.File)
}

// Clone returns a deep copy of the metadata. ImageMeta is copied shallowly.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Sizes != nil {
		out.Sizes = make(map[string]SizeVariant, len(m.Sizes))
		for k, v := range m.Sizes {
			out.Sizes[k] = v
		}
	}
	if m.ImageMeta != nil {
		out.ImageMeta = make(map[string]any, len(m.ImageMeta))
		for k, v := range m.ImageMeta {
			out.ImageMeta[k] = v
		}
	}
	return out
}

// Clone returns a copy of the backup sizes; nil stays nil.
func (b BackupSizes) Clone() BackupSizes {
	if b == nil {
		return nil
	}
	out := make(BackupSizes, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Join places a bare filename into dir.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// ParseID filters s down to digits and signs, then parses it as an
// attachment id. Only positive ids are valid.
func ParseID(s string) (int64, error) {
	filtered := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' || r == '-' {
			return r
		}
		return -1
	}, s)
	id, err := strconv.ParseInt(filtered, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
