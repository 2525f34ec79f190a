package driver_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cleanmedia/internal/driver"
	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/internal/renamer"
	"github.com/dmitrymomot/cleanmedia/internal/store/memory"
	"github.com/dmitrymomot/cleanmedia/pkg/file"
)

// scriptedRenamer returns a fixed outcome per id and records the call order.
type scriptedRenamer struct {
	outcomes map[int64]media.Outcome
	errs     map[int64]error
	calls    []int64
	onCall   func(id int64)
}

func (s *scriptedRenamer) Rename(_ context.Context, id int64) (media.Summary, error) {
	s.calls = append(s.calls, id)
	if s.onCall != nil {
		s.onCall(id)
	}
	if err := s.errs[id]; err != nil {
		return media.Summary{AttachmentID: id}, err
	}
	outcome, ok := s.outcomes[id]
	if !ok {
		outcome = media.NoChangeNeeded
	}
	return media.Summary{AttachmentID: id, Outcome: outcome}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	_, err := driver.NewRunner(nil, &scriptedRenamer{})
	assert.ErrorIs(t, err, driver.ErrQueueNil)

	_, err = driver.NewRunner(driver.NewMemoryQueue(), nil)
	assert.ErrorIs(t, err, driver.ErrRenamerNil)
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store unavailable")
	r := &scriptedRenamer{
		outcomes: map[int64]media.Outcome{1: media.Success, 2: media.PhysicalFailure, 4: media.Success},
		errs:     map[int64]error{3: storeErr},
	}
	q := driver.NewMemoryQueue(1, 2, 3, 4, 5)

	var seen []int64
	runner, err := driver.NewRunner(q, r,
		driver.WithLogger(discardLogger()),
		driver.WithResultFunc(func(id int64, _ media.Summary, _ error) { seen = append(seen, id) }),
	)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, r.calls)
	assert.Equal(t, r.calls, seen)
	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 2, report.Renamed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 1, report.Errors)
	assert.NotEqual(t, [16]byte{}, [16]byte(report.RunID))

	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunner_StopOnError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store unavailable")
	r := &scriptedRenamer{errs: map[int64]error{2: storeErr}}
	q := driver.NewMemoryQueue(1, 2, 3)

	runner, err := driver.NewRunner(q, r, driver.WithLogger(discardLogger()), driver.WithStopOnError())
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, driver.ErrRunAborted)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 2, report.Processed)

	n, _ := q.Len(context.Background())
	assert.Equal(t, int64(1), n)
}

func TestRunner_Limit(t *testing.T) {
	t.Parallel()

	r := &scriptedRenamer{}
	q := driver.NewMemoryQueue(1, 2, 3)
	runner, err := driver.NewRunner(q, r, driver.WithLogger(discardLogger()), driver.WithLimit(2))
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, []int64{1, 2}, r.calls)
}

func TestRunner_CancelBetweenTransactions(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedRenamer{onCall: func(id int64) {
		if id == 2 {
			cancel()
		}
	}}
	q := driver.NewMemoryQueue(1, 2, 3)
	runner, err := driver.NewRunner(q, r, driver.WithLogger(discardLogger()))
	require.NoError(t, err)

	report, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, []int64{1, 2}, r.calls)

	n, _ := q.Len(context.Background())
	assert.Equal(t, int64(1), n)
}

func TestRunner_IntervalCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := &scriptedRenamer{}
	q := driver.NewMemoryQueue(1, 2)
	runner, err := driver.NewRunner(q, r, driver.WithLogger(discardLogger()), driver.WithInterval(time.Hour))
	require.NoError(t, err)

	// The deadline expires while the runner waits before id 2.
	_, err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []int64{1}, r.calls)
	assert.Equal(t, []int64{2}, drain(t, q))
}

// rejectingQueue accepts its initial ids but refuses later pushes.
type rejectingQueue struct {
	*driver.MemoryQueue
	err error
}

func (q rejectingQueue) Push(context.Context, ...int64) error { return q.err }

func TestRunner_IntervalCanceledRequeueFails(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	pushErr := errors.New("READONLY You can't write against a read only replica")
	q := rejectingQueue{MemoryQueue: driver.NewMemoryQueue(1, 2), err: pushErr}

	buf := &bytes.Buffer{}
	r := &scriptedRenamer{}
	runner, err := driver.NewRunner(q, r,
		driver.WithLogger(slog.New(slog.NewTextHandler(buf, nil))),
		driver.WithInterval(time.Hour),
	)
	require.NoError(t, err)

	_, err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, driver.ErrRequeueFailed)
	assert.ErrorIs(t, err, pushErr)
	assert.Equal(t, []int64{1}, r.calls)
	assert.Contains(t, buf.String(), "failed to requeue attachment")
	assert.Contains(t, buf.String(), "attachment_id=2")
}

func TestRunner_SkipsInvalidQueueEntries(t *testing.T) {
	t.Parallel()

	client := newFakeListClient()
	client.lists["q"] = []string{"1", "oops", "2"}
	q, err := driver.NewRedisQueue(client, "q")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	r := &scriptedRenamer{}
	runner, err := driver.NewRunner(q, r, driver.WithLogger(slog.New(slog.NewTextHandler(buf, nil))))
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, r.calls)
	assert.Equal(t, 2, report.Processed)
	assert.Contains(t, buf.String(), "skipping queue entry")
}

func TestRunner_WithRenamerService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	for _, name := range []string{"2020/01/Straße.png", "2020/01/ok.png", "2020/02/Bücher %1.jpg"} {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
	storage, err := file.NewLocalStorage(root, "")
	require.NoError(t, err)

	store := memory.New(
		media.Attachment{ID: 1, AttachedFile: "2020/01/Straße.png", Metadata: &media.Metadata{File: "2020/01/Straße.png"}},
		media.Attachment{ID: 2, AttachedFile: "2020/01/ok.png", Metadata: &media.Metadata{File: "2020/01/ok.png"}},
		media.Attachment{ID: 3, AttachedFile: "2020/02/Bücher %1.jpg", Metadata: &media.Metadata{File: "2020/02/Bücher %1.jpg"}},
	)
	svc := renamer.New(store, storage)

	pending, err := svc.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, pending)

	q := driver.NewMemoryQueue(pending...)
	runner, err := driver.NewRunner(q, svc, driver.WithLogger(discardLogger()))
	require.NoError(t, err)

	report, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Renamed)

	assert.FileExists(t, filepath.Join(root, "2020", "01", "strasse.png"))
	assert.FileExists(t, filepath.Join(root, "2020", "02", "bucher-1.jpg"))

	pending, err = svc.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
