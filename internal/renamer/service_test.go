package renamer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/internal/renamer"
	"github.com/dmitrymomot/cleanmedia/pkg/file"
	"github.com/dmitrymomot/cleanmedia/pkg/filename"
	"github.com/dmitrymomot/cleanmedia/pkg/logger"
)

func imageAttachment(id int64, primary string, sizes map[string]string) media.Attachment {
	meta := &media.Metadata{File: primary, Width: 1024, Height: 768}
	if len(sizes) > 0 {
		meta.Sizes = make(map[string]media.SizeVariant, len(sizes))
		for label, name := range sizes {
			meta.Sizes[label] = media.SizeVariant{File: name, Width: 150, Height: 150, MimeType: "image/png"}
		}
	}
	return media.Attachment{ID: id, AttachedFile: primary, Metadata: meta}
}

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
	}
}

func TestRename_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	touch(t, root, "2020/01/straße.png", "2020/01/straße-150x150.png")

	storage, err := file.NewLocalStorage(root, "/uploads")
	require.NoError(t, err)

	store := newRecordingStore(imageAttachment(1, "2020/01/straße.png", map[string]string{
		"thumbnail": "straße-150x150.png",
	}))
	svc := renamer.New(store, storage)

	summary, err := svc.Rename(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, media.Success, summary.Outcome)
	assert.Equal(t, "straße.png", summary.OldName)
	assert.Equal(t, "strasse.png", summary.NewName)
	assert.Equal(t, []string{"straße.png", "strasse.png"}, summary.LegacyValue())

	meta, err := store.Metadata(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2020/01/strasse.png", meta.File)
	assert.Equal(t, "strasse-150x150.png", meta.Sizes["thumbnail"].File)
	assert.Equal(t, 150, meta.Sizes["thumbnail"].Width)

	attached, err := store.AttachedFile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2020/01/strasse.png", attached)

	assert.FileExists(t, filepath.Join(root, "2020", "01", "strasse.png"))
	assert.FileExists(t, filepath.Join(root, "2020", "01", "strasse-150x150.png"))
	assert.NoFileExists(t, filepath.Join(root, "2020", "01", "straße.png"))
	assert.NoFileExists(t, filepath.Join(root, "2020", "01", "straße-150x150.png"))

	t.Run("second run needs no change", func(t *testing.T) {
		summary, err := svc.Rename(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, media.NoChangeNeeded, summary.Outcome)
		assert.Equal(t, media.LegacyNoChange, summary.LegacyValue())
	})
}

func TestRename_PartialVariantFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newRecordingStore(imageAttachment(2, "2021/05/Bücher %1.jpg", map[string]string{
		"thumbnail": "Bücher %1-150x150.jpg",
		"medium":    "Bücher %1-300x225.jpg",
	}))
	before, err := store.Metadata(ctx, 2)
	require.NoError(t, err)

	files := &fakeFiles{refuse: map[string]bool{"2021/05/Bücher %1-150x150.jpg": true}}
	svc := renamer.New(store, files)

	summary, err := svc.Rename(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, media.Success, summary.Outcome)
	assert.Equal(t, "bucher-1.jpg", summary.NewName)
	assert.Equal(t, 1, summary.FailedVariants())

	after, err := store.Metadata(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "2021/05/bucher-1.jpg", after.File)
	assert.Equal(t, before.Sizes["thumbnail"], after.Sizes["thumbnail"])
	assert.Equal(t, "bucher-1-300x225.jpg", after.Sizes["medium"].File)

	require.Len(t, summary.Variants, 2)
	assert.Equal(t, "medium", summary.Variants[0].Label)
	assert.Equal(t, media.StatusRenamed, summary.Variants[0].Status)
	assert.Equal(t, "thumbnail", summary.Variants[1].Label)
	assert.Equal(t, media.StatusFailed, summary.Variants[1].Status)
	assert.ErrorIs(t, summary.Variants[1].Err, errRenameRefused)
}

func TestRename_NoChangeNeeded(t *testing.T) {
	t.Parallel()

	store := newRecordingStore(imageAttachment(3, "2020/01/clean-name.jpg", map[string]string{
		"thumbnail": "Dirty Thumb.jpg",
	}))
	files := &fakeFiles{}
	svc := renamer.New(store, files)

	summary, err := svc.Rename(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, media.NoChangeNeeded, summary.Outcome)
	assert.Equal(t, -1, summary.LegacyValue())
	assert.Empty(t, store.Writes())
	assert.Empty(t, files.Renames())
}

func TestRename_PhysicalFailure(t *testing.T) {
	t.Parallel()

	t.Run("refused by backend", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(imageAttachment(4, "2020/01/a b.jpg", map[string]string{"thumbnail": "a b-150x150.jpg"}))
		files := &fakeFiles{refuse: map[string]bool{"2020/01/a b.jpg": true}}
		svc := renamer.New(store, files)

		summary, err := svc.Rename(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, media.PhysicalFailure, summary.Outcome)
		assert.Equal(t, -2, summary.LegacyValue())
		assert.ErrorIs(t, summary.Err, errRenameRefused)
		assert.Empty(t, store.Writes())
		assert.Empty(t, files.Renames())
	})

	t.Run("missing file on disk", func(t *testing.T) {
		t.Parallel()
		storage, err := file.NewLocalStorage(t.TempDir(), "")
		require.NoError(t, err)
		store := newRecordingStore(imageAttachment(5, "2020/01/a b.jpg", nil))
		svc := renamer.New(store, storage)

		summary, err := svc.Rename(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, media.PhysicalFailure, summary.Outcome)
		assert.ErrorIs(t, summary.Err, file.ErrFileNotFound)
		assert.Empty(t, store.Writes())
	})

	t.Run("target taken", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		touch(t, root, "2020/01/a b.jpg", "2020/01/a-b.jpg")
		storage, err := file.NewLocalStorage(root, "")
		require.NoError(t, err)
		store := newRecordingStore(imageAttachment(6, "2020/01/a b.jpg", nil))
		svc := renamer.New(store, storage)

		summary, err := svc.Rename(context.Background(), 6)
		require.NoError(t, err)
		assert.Equal(t, media.PhysicalFailure, summary.Outcome)
		assert.ErrorIs(t, summary.Err, file.ErrFileExists)
		assert.FileExists(t, filepath.Join(root, "2020", "01", "a b.jpg"))
	})

	t.Run("name cleans to nothing", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(imageAttachment(7, "2020/01/写真", nil))
		files := &fakeFiles{}
		svc := renamer.New(store, files)

		summary, err := svc.Rename(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, media.PhysicalFailure, summary.Outcome)
		assert.ErrorIs(t, summary.Err, renamer.ErrEmptyFilename)
		assert.Empty(t, files.Renames())
	})
}

func TestRename_DirectoryContainsBasename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	touch(t, root, "Foto 1.png/Foto 1.png", "Foto 1.png/Foto 1-150x150.png")
	storage, err := file.NewLocalStorage(root, "")
	require.NoError(t, err)

	store := newRecordingStore(imageAttachment(14, "Foto 1.png/Foto 1.png", map[string]string{
		"thumbnail": "Foto 1-150x150.png",
	}))
	svc := renamer.New(store, storage)

	summary, err := svc.Rename(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, media.Success, summary.Outcome)

	meta, err := store.Metadata(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, "Foto 1.png/foto-1.png", meta.File)
	assert.Equal(t, "foto-1-150x150.png", meta.Sizes["thumbnail"].File)

	attached, err := store.AttachedFile(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, "Foto 1.png/foto-1.png", attached)

	assert.DirExists(t, filepath.Join(root, "Foto 1.png"))
	assert.NoDirExists(t, filepath.Join(root, "foto-1.png"))
	assert.FileExists(t, filepath.Join(root, "Foto 1.png", "foto-1.png"))
	assert.FileExists(t, filepath.Join(root, "Foto 1.png", "foto-1-150x150.png"))
	assert.NoFileExists(t, filepath.Join(root, "Foto 1.png", "Foto 1.png"))
}

func TestRename_EmptyStem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("primary", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(
			imageAttachment(15, "x/Фото.jpg", nil),
			imageAttachment(16, "x/Море.jpg", nil),
		)
		files := &fakeFiles{}
		svc := renamer.New(store, files)

		for _, id := range []int64{15, 16} {
			summary, err := svc.Rename(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, media.PhysicalFailure, summary.Outcome)
			assert.ErrorIs(t, summary.Err, renamer.ErrEmptyFilename)
		}
		assert.Empty(t, files.Renames())
		assert.Empty(t, store.Writes())
	})

	t.Run("size variant", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(imageAttachment(17, "x/a b.jpg", map[string]string{
			"large":     "Фото.jpg",
			"thumbnail": "a b-150x150.jpg",
		}))
		files := &fakeFiles{}
		svc := renamer.New(store, files)

		summary, err := svc.Rename(ctx, 17)
		require.NoError(t, err)
		assert.Equal(t, media.Success, summary.Outcome)
		require.Len(t, summary.Variants, 2)
		assert.Equal(t, media.StatusFailed, summary.Variants[0].Status)
		assert.ErrorIs(t, summary.Variants[0].Err, renamer.ErrEmptyFilename)

		meta, err := store.Metadata(ctx, 17)
		require.NoError(t, err)
		assert.Equal(t, "Фото.jpg", meta.Sizes["large"].File)
		assert.Equal(t, "a-b-150x150.jpg", meta.Sizes["thumbnail"].File)
	})

	t.Run("dotfile stays as is", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(imageAttachment(18, "x/.htaccess", nil))
		files := &fakeFiles{}
		summary, err := renamer.New(store, files).Rename(ctx, 18)
		require.NoError(t, err)
		assert.Equal(t, media.NoChangeNeeded, summary.Outcome)
		assert.Empty(t, files.Renames())
	})
}

func TestRename_Logging(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("save failure lists moved files", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		store := newRecordingStore(imageAttachment(19, "2020/01/a b.jpg", map[string]string{
			"full":      "a b.jpg",
			"thumbnail": "a b-150x150.jpg",
		}))
		store.failOn = "SetAttachedFile"
		store.failWith = errors.New("connection reset")
		svc := renamer.New(store, &fakeFiles{}, renamer.WithLogger(logger.New(logger.WithOutput(buf))))

		_, err := svc.Rename(ctx, 19)
		require.ErrorIs(t, err, renamer.ErrFailedToSaveMetadata)

		entry := findLogEntry(t, buf, "failed to save attachment records")
		assert.Equal(t, map[string]any{
			"2020/01/a b.jpg":         "2020/01/a-b.jpg",
			"2020/01/a b-150x150.jpg": "2020/01/a-b-150x150.jpg",
		}, entry["moved_files"])
		assert.Contains(t, entry["error"], "connection reset")
	})

	t.Run("failed variants are reported", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		store := newRecordingStore(imageAttachment(20, "2020/01/a b.jpg", map[string]string{
			"thumbnail": "a b-150x150.jpg",
		}))
		files := &fakeFiles{refuse: map[string]bool{"2020/01/a b-150x150.jpg": true}}
		svc := renamer.New(store, files, renamer.WithLogger(logger.New(logger.WithOutput(buf))))

		_, err := svc.Rename(ctx, 20)
		require.NoError(t, err)

		entry := findLogEntry(t, buf, "attachment renamed")
		require.Contains(t, entry, "errors")
		assert.Contains(t, entry["errors"].(map[string]any)["0"], errRenameRefused.Error())
	})
}

func findLogEntry(t *testing.T, buf *bytes.Buffer, msg string) map[string]any {
	t.Helper()
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == msg {
			return entry
		}
	}
	t.Fatalf("no log entry %q in %s", msg, buf.String())
	return nil
}

func TestRename_SharedVariantFiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newRecordingStore(imageAttachment(8, "2020/01/a b.jpg", map[string]string{
		"medium":       "a b-300x200.jpg",
		"medium_large": "a b-300x200.jpg",
		"full":         "a b.jpg",
	}))
	files := &fakeFiles{}
	svc := renamer.New(store, files)

	summary, err := svc.Rename(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, media.Success, summary.Outcome)

	assert.Equal(t, [][2]string{
		{"2020/01/a b.jpg", "2020/01/a-b.jpg"},
		{"2020/01/a b-300x200.jpg", "2020/01/a-b-300x200.jpg"},
	}, files.Renames())

	meta, err := store.Metadata(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "a-b.jpg", meta.Sizes["full"].File)
	assert.Equal(t, "a-b-300x200.jpg", meta.Sizes["medium"].File)
	assert.Equal(t, "a-b-300x200.jpg", meta.Sizes["medium_large"].File)
}

func TestRename_RootLevelFile(t *testing.T) {
	t.Parallel()

	store := newRecordingStore(imageAttachment(9, "Photo One.JPG", map[string]string{"thumbnail": "Photo One-150x150.JPG"}))
	files := &fakeFiles{}
	svc := renamer.New(store, files)

	summary, err := svc.Rename(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "photo-one.JPG", summary.NewName)
	assert.Equal(t, [][2]string{
		{"Photo One.JPG", "photo-one.JPG"},
		{"Photo One-150x150.JPG", "photo-one-150x150.JPG"},
	}, files.Renames())
}

func TestRename_BackupSizes(t *testing.T) {
	t.Parallel()

	seed := func() media.Attachment {
		a := imageAttachment(10, "2019/12/Café.jpg", map[string]string{"thumbnail": "Café-e1576-150x150.jpg"})
		a.BackupSizes = media.BackupSizes{
			"full-orig":      {File: "Café.jpg", Width: 2000, Height: 1500},
			"thumbnail-orig": {File: "Café-150x150.jpg", Width: 150, Height: 150},
			"clean-orig":     {File: "already-clean.jpg"},
		}
		return a
	}

	t.Run("metadata only by default", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(seed())
		files := &fakeFiles{}
		svc := renamer.New(store, files)

		summary, err := svc.Rename(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, media.Success, summary.Outcome)

		backups, err := store.BackupSizes(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, "cafe.jpg", backups["full-orig"].File)
		assert.Equal(t, 2000, backups["full-orig"].Width)
		assert.Equal(t, "cafe-150x150.jpg", backups["thumbnail-orig"].File)
		assert.Equal(t, "already-clean.jpg", backups["clean-orig"].File)

		for _, r := range files.Renames() {
			assert.NotEqual(t, "2019/12/Café-150x150.jpg", r[0])
		}
		assert.Len(t, files.Renames(), 2)
		assert.Equal(t, []string{"SetBackupSizes", "SetAttachedFile", "SetMetadata"}, store.Writes())
	})

	t.Run("physical rename when enabled", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(seed())
		files := &fakeFiles{}
		svc := renamer.New(store, files, renamer.WithBackupFileRename())

		summary, err := svc.Rename(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, summary.Backups, 3)

		assert.Contains(t, files.Renames(), [2]string{"2019/12/Café-150x150.jpg", "2019/12/cafe-150x150.jpg"})
		// full-orig shares its name with the primary file, which has already moved.
		assert.Len(t, files.Renames(), 3)
		assert.Equal(t, media.StatusRenamed, summary.Backups[1].Status)

		backups, err := store.BackupSizes(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, "cafe.jpg", backups["full-orig"].File)
		assert.Equal(t, "cafe-150x150.jpg", backups["thumbnail-orig"].File)
	})

	t.Run("failed backup rename keeps old name", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(seed())
		files := &fakeFiles{refuse: map[string]bool{"2019/12/Café-150x150.jpg": true}}
		svc := renamer.New(store, files, renamer.WithBackupFileRename())

		_, err := svc.Rename(context.Background(), 10)
		require.NoError(t, err)

		backups, err := store.BackupSizes(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, "Café-150x150.jpg", backups["thumbnail-orig"].File)
		assert.Equal(t, "cafe.jpg", backups["full-orig"].File)
	})
}

func TestRename_PersistOrder(t *testing.T) {
	t.Parallel()

	store := newRecordingStore(imageAttachment(11, "2020/01/a b.jpg", nil))
	svc := renamer.New(store, &fakeFiles{})

	_, err := svc.Rename(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, []string{"SetAttachedFile", "SetMetadata"}, store.Writes())
}

func TestRename_StoreErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown attachment", func(t *testing.T) {
		t.Parallel()
		svc := renamer.New(newRecordingStore(), &fakeFiles{})
		_, err := svc.Rename(context.Background(), 404)
		assert.ErrorIs(t, err, media.ErrNotFound)
		assert.ErrorIs(t, err, renamer.ErrFailedToLoadMetadata)
	})

	t.Run("save failure after rename", func(t *testing.T) {
		t.Parallel()
		store := newRecordingStore(imageAttachment(12, "2020/01/a b.jpg", nil))
		store.failOn = "SetMetadata"
		store.failWith = errors.New("connection reset")
		files := &fakeFiles{}
		svc := renamer.New(store, files)

		summary, err := svc.Rename(context.Background(), 12)
		assert.ErrorIs(t, err, renamer.ErrFailedToSaveMetadata)
		assert.Equal(t, media.Success, summary.Outcome)
		assert.Len(t, files.Renames(), 1)
	})
}

func TestRename_IgnoresCancellationAfterPrimaryRename(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newRecordingStore(imageAttachment(13, "2020/01/a b.jpg", map[string]string{"thumbnail": "a b-150x150.jpg"}))
	files := &fakeFiles{afterRename: cancel}
	svc := renamer.New(store, files)

	summary, err := svc.Rename(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, media.Success, summary.Outcome)
	assert.Len(t, files.Renames(), 2)
	assert.Equal(t, []string{"SetAttachedFile", "SetMetadata"}, store.Writes())
}

func TestRename_Observer(t *testing.T) {
	t.Parallel()

	store := newRecordingStore(
		imageAttachment(14, "2020/01/a b.jpg", nil),
		imageAttachment(15, "2020/01/clean.jpg", nil),
	)
	obs := &recordingObserver{}
	svc := renamer.New(store, &fakeFiles{}, renamer.WithObserver(obs))

	_, err := svc.Rename(context.Background(), 14)
	require.NoError(t, err)
	_, err = svc.Rename(context.Background(), 15)
	require.NoError(t, err)

	require.Len(t, obs.summaries, 2)
	assert.Equal(t, media.Success, obs.summaries[0].Outcome)
	assert.Equal(t, media.NoChangeNeeded, obs.summaries[1].Outcome)
}

func TestRename_CustomSanitizer(t *testing.T) {
	t.Parallel()

	sanitizer := filename.New(filename.WithSubstitutions(filename.Substitution{From: "&", To: "and"}))
	store := newRecordingStore(imageAttachment(16, "2020/01/Salt&Pepper.jpg", nil))
	svc := renamer.New(store, &fakeFiles{}, renamer.WithSanitizer(sanitizer))

	summary, err := svc.Rename(context.Background(), 16)
	require.NoError(t, err)
	assert.Equal(t, "saltandpepper.jpg", summary.NewName)
	assert.Same(t, sanitizer, svc.Sanitizer())
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	store := newRecordingStore(
		imageAttachment(30, "2020/01/Straße.png", nil),
		imageAttachment(10, "2020/01/clean.png", nil),
		imageAttachment(20, "2020/01/100%.png", nil),
		media.Attachment{ID: 40, AttachedFile: "2020/01/no meta.pdf"},
	)
	obs := &recordingObserver{}
	svc := renamer.New(store, &fakeFiles{}, renamer.WithObserver(obs))

	ids, err := svc.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 30}, ids)
	assert.Equal(t, []int{2}, obs.pending)

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Discover(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty store", func(t *testing.T) {
		ids, err := renamer.New(newRecordingStore(), &fakeFiles{}).Discover(context.Background())
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.NotNil(t, ids)
	})
}
