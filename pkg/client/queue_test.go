package client_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filevault/pkg/client"
	"github.com/yeisme/filevault/pkg/internal/types"
)

type fakeUploader struct {
	delay    time.Duration
	fail     map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu    sync.Mutex
	order []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, _ []byte) (types.UploadResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	f.order = append(f.order, name)
	f.mu.Unlock()

	time.Sleep(f.delay)

	if f.fail[name] {
		return types.UploadResult{}, errors.New("upload failed")
	}

	return types.UploadResult{FileID: "id-" + name, FileName: "tok-" + name}, nil
}

func TestQueueRunsSequentiallyAndContinuesAfterFailure(t *testing.T) {
	up := &fakeUploader{delay: 5 * time.Millisecond, fail: map[string]bool{"b.txt": true}}
	q := client.NewUploadQueue(context.Background(), up, client.QueueOptions{Capacity: 2, ProgressInterval: time.Millisecond})

	var (
		mu      sync.Mutex
		results []client.Result
	)

	done := func(r client.Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		require.NoError(t, q.Enqueue(context.Background(), client.UploadTask{Name: name, OnDone: done}))
	}

	q.Close()

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "d.txt"}, up.order)
	assert.EqualValues(t, 1, up.maxSeen.Load())

	require.Len(t, results, 4)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "id-a.txt", results[0].File.FileID)
	assert.Error(t, results[1].Err)
	assert.Equal(t, "b.txt", results[1].Task.Name)
	assert.NoError(t, results[2].Err)
	assert.NoError(t, results[3].Err)
}

func TestQueueProgress(t *testing.T) {
	up := &fakeUploader{delay: 50 * time.Millisecond, fail: map[string]bool{"bad.txt": true}}
	q := client.NewUploadQueue(context.Background(), up, client.QueueOptions{ProgressInterval: 2 * time.Millisecond})

	var good, bad []int

	require.NoError(t, q.Enqueue(context.Background(), client.UploadTask{
		Name:       "good.txt",
		OnProgress: func(p int) { good = append(good, p) },
	}))
	require.NoError(t, q.Enqueue(context.Background(), client.UploadTask{
		Name:       "bad.txt",
		OnProgress: func(p int) { bad = append(bad, p) },
	}))

	q.Close()

	require.NotEmpty(t, good)
	assert.Equal(t, 0, good[0])
	assert.Equal(t, 100, good[len(good)-1])
	assert.Contains(t, good, 90)

	for i := 1; i < len(good)-1; i++ {
		assert.Equal(t, good[i-1]+10, good[i])
		assert.LessOrEqual(t, good[i], 90)
	}

	require.NotEmpty(t, bad)
	assert.Equal(t, 0, bad[0])
	assert.NotContains(t, bad, 100)
}

func TestEnqueueAfterClose(t *testing.T) {
	q := client.NewUploadQueue(context.Background(), &fakeUploader{}, client.QueueOptions{})
	q.Close()
	q.Close()

	err := q.Enqueue(context.Background(), client.UploadTask{Name: "late.txt"})
	assert.ErrorIs(t, err, client.ErrQueueClosed)
}

func TestEnqueueBlocksWhileFull(t *testing.T) {
	release := make(chan struct{})
	up := blockingUploader{release: release}
	q := client.NewUploadQueue(context.Background(), up, client.QueueOptions{Capacity: 1})

	require.NoError(t, q.Enqueue(context.Background(), client.UploadTask{Name: "first"}))

	// Wait until the worker took "first" so the buffer is empty again.
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), client.UploadTask{Name: "second"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, q.Enqueue(ctx, client.UploadTask{Name: "third"}), context.DeadlineExceeded)

	close(release)
	q.Close()
}

type blockingUploader struct {
	release chan struct{}
}

func (b blockingUploader) Upload(ctx context.Context, name string, _ []byte) (types.UploadResult, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return types.UploadResult{}, ctx.Err()
	}

	return types.UploadResult{FileID: name}, nil
}
