// AngelaMos | 2026
// runner_test.go

package segmentation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisLocker_ExclusivePerScope(t *testing.T) {
	_, client := setupRedis(t)
	locker := NewRedisLocker(client, time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "all")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "all")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	otherRelease, err := locker.Acquire(ctx, "owner-1")
	require.NoError(t, err)
	require.NoError(t, otherRelease(ctx))

	require.NoError(t, release(ctx))

	again, err := locker.Acquire(ctx, "all")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLocker_ReleaseLeavesNewHolder(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "all")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = locker.Acquire(ctx, "all")
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists(lockKeyPrefix+"all"))
}

func TestRedisReportStore_RoundTrip(t *testing.T) {
	_, client := setupRedis(t)
	store := NewRedisReportStore(client)
	ctx := context.Background()

	_, err := store.Last(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)

	report := Report{
		Result: Result{
			TotalSubscribers: 4,
			Segmented:        3,
			Failed:           1,
			StartedAt:        testNow,
			FinishedAt:       testNow.Add(time.Second),
		},
		Scope:   "all",
		Elapsed: "1s",
	}
	require.NoError(t, store.Save(ctx, report))

	got, err := store.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Segmented)
	assert.Equal(t, "all", got.Scope)
	assert.True(t, got.FinishedAt.Equal(report.FinishedAt))
}

type stubEngine struct {
	result  Result
	err     error
	owners  []string
	running chan struct{}
	release chan struct{}
}

func (s *stubEngine) Run(_ context.Context, ownerID string) (Result, error) {
	s.owners = append(s.owners, ownerID)
	if s.running != nil {
		close(s.running)
		<-s.release
	}
	return s.result, s.err
}

func TestRunner_Trigger_RecordsReport(t *testing.T) {
	_, client := setupRedis(t)
	reports := NewRedisReportStore(client)
	engine := &stubEngine{result: Result{
		OwnerID:          "owner-1",
		TotalSubscribers: 2,
		Segmented:        2,
		StartedAt:        testNow,
		FinishedAt:       testNow.Add(3 * time.Second),
	}}

	runner := NewRunner(engine, NewRedisLocker(client, time.Minute), reports, discardLogger())

	res, err := runner.Trigger(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Segmented)
	assert.Equal(t, []string{"owner-1"}, engine.owners)

	report, err := reports.Last(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "owner-1", report.Scope)
	assert.Equal(t, "3s", report.Elapsed)
	assert.Empty(t, report.Error)
}

func TestRunner_Trigger_RecordsFailure(t *testing.T) {
	_, client := setupRedis(t)
	reports := NewRedisReportStore(client)
	engine := &stubEngine{err: ErrFetchSubscribers}

	runner := NewRunner(engine, NewRedisLocker(client, time.Minute), reports, discardLogger())

	_, err := runner.Trigger(context.Background(), "")
	require.ErrorIs(t, err, ErrFetchSubscribers)

	report, err := reports.Last(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "all", report.Scope)
	assert.Equal(t, ErrFetchSubscribers.Error(), report.Error)
}

func TestRunner_Trigger_RejectsConcurrentRun(t *testing.T) {
	_, client := setupRedis(t)
	engine := &stubEngine{
		running: make(chan struct{}),
		release: make(chan struct{}),
	}
	runner := NewRunner(
		engine,
		NewRedisLocker(client, time.Minute),
		NewRedisReportStore(client),
		discardLogger(),
	)

	done := make(chan error, 1)
	go func() {
		_, err := runner.Trigger(context.Background(), "")
		done <- err
	}()

	<-engine.running

	_, err := runner.Trigger(context.Background(), "")
	assert.True(t, errors.Is(err, ErrAlreadyRunning))

	close(engine.release)
	require.NoError(t, <-done)

	_, err = client.Get(context.Background(), lockKeyPrefix+"all").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRunner_Trigger_OwnerRunOverlapsAllOwnersRun(t *testing.T) {
	_, client := setupRedis(t)
	locker := NewRedisLocker(client, time.Minute)
	runner := NewRunner(&stubEngine{}, locker, NewRedisReportStore(client), discardLogger())

	release, err := locker.Acquire(context.Background(), scopeOf(""))
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	_, err = runner.Trigger(context.Background(), "owner-1")
	require.NoError(t, err)

	_, err = runner.Trigger(context.Background(), "")
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}
