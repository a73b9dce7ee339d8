package scheduler

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"rolodex_reminder/internal/domain/trigger"
	idb "rolodex_reminder/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu       sync.Mutex
	triggers map[string]*trigger.Trigger
	// afterList, when set, runs once right after the next List returns its snapshot.
	afterList func()
}

func newMemRepo() *memRepo {
	return &memRepo{triggers: make(map[string]*trigger.Trigger)}
}

func (r *memRepo) Create(_ context.Context, t *trigger.Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.triggers[t.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.triggers[id]; !ok {
		return idb.ErrTriggerNotFound
	}
	delete(r.triggers, id)
	return nil
}

func (r *memRepo) List(_ context.Context) ([]*trigger.Trigger, error) {
	r.mu.Lock()
	out := make([]*trigger.Trigger, 0, len(r.triggers))
	for _, t := range r.triggers {
		cp := *t
		out = append(out, &cp)
	}
	hook := r.afterList
	r.afterList = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *memRepo) setAfterList(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterList = fn
}

// concurrently starts fn in the background and gives it time to race the caller.
// The returned channel closes once fn has finished.
func concurrently(fn func()) (func(), <-chan struct{}) {
	done := make(chan struct{})
	return func() {
		go func() {
			defer close(done)
			fn()
		}()
		time.Sleep(50 * time.Millisecond)
	}, done
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.triggers)
}

func newTestScheduler(repo trigger.Repository) *TriggerScheduler {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewTriggerScheduler(repo, logrus.NewEntry(l), time.Hour, 5*time.Second)
}

func TestOnceScheduleFiresOnce(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	at := now.Add(2 * time.Minute)

	s := &onceSchedule{at: at}
	assert.Equal(t, at, s.Next(now))
	assert.True(t, s.Next(at.Add(time.Second)).IsZero())

	overdue := &onceSchedule{at: now.Add(-time.Hour)}
	assert.Equal(t, now, overdue.Next(now), "overdue trigger fires right away")
}

func TestScheduleForDaily(t *testing.T) {
	t.Parallel()
	sched, err := scheduleFor(&trigger.Trigger{Kind: trigger.KindDaily, Hour: 9, Timezone: "Asia/Tokyo"})
	require.NoError(t, err)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	from := time.Date(2026, 10, 18, 10, 0, 0, 0, tokyo)
	next := sched.Next(from)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, tokyo).Unix(), next.Unix())

	_, err = scheduleFor(&trigger.Trigger{Kind: "WEEKLY"})
	require.Error(t, err)
}

func TestScheduleDailyValidates(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(newMemRepo())
	ctx := context.Background()

	_, err := s.ScheduleDaily(ctx, trigger.HandlerDailyKickoff, 24, "UTC")
	require.Error(t, err)
	_, err = s.ScheduleDaily(ctx, trigger.HandlerDailyKickoff, 9, "Nowhere/Land")
	require.Error(t, err)

	tr, err := s.ScheduleDaily(ctx, trigger.HandlerDailyKickoff, 9, "UTC")
	require.NoError(t, err)
	assert.Equal(t, trigger.KindDaily, tr.Kind)
	assert.Equal(t, 1, s.armedCount())
}

func TestDeleteDisarmsAndIsIdempotent(t *testing.T) {
	t.Parallel()
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	tr, err := s.ScheduleAfter(ctx, trigger.HandlerContinuation, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, repo.count())
	require.Equal(t, 1, s.armedCount())

	require.NoError(t, s.Delete(ctx, tr.ID))
	require.NoError(t, s.Delete(ctx, tr.ID))
	assert.Zero(t, repo.count())
	assert.Zero(t, s.armedCount())
}

func TestReconcileFollowsRepository(t *testing.T) {
	t.Parallel()
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &trigger.Trigger{ID: "cli-daily", Handler: trigger.HandlerDailyKickoff, Kind: trigger.KindDaily, Hour: 7, Timezone: "UTC"}))
	require.NoError(t, repo.Create(ctx, &trigger.Trigger{ID: "broken", Handler: trigger.HandlerDailyKickoff, Kind: trigger.KindDaily, Hour: 7, Timezone: "Nowhere/Land"}))
	require.NoError(t, s.Reconcile(ctx))
	assert.Equal(t, 1, s.armedCount(), "unschedulable triggers are skipped")

	require.NoError(t, repo.Delete(ctx, "cli-daily"))
	require.NoError(t, s.Reconcile(ctx))
	assert.Zero(t, s.armedCount())
}

func TestOneShotTriggerFiresAndIsConsumed(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	fired := make(chan struct{}, 2)
	s.Register(trigger.HandlerContinuation, func(ctx context.Context) error {
		fired <- struct{}{}
		return nil
	})

	require.NoError(t, s.Start(ctx))
	t.Cleanup(s.Stop)

	_, err := s.ScheduleAfter(ctx, trigger.HandlerContinuation, 20*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("one-shot trigger did not fire")
	}
	require.Eventually(t, func() bool { return repo.count() == 0 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return s.armedCount() == 0 }, time.Second, 10*time.Millisecond)

	select {
	case <-fired:
		t.Fatal("one-shot trigger fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOverdueTriggerFiresOnStart(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &trigger.Trigger{
		ID:      "left-over",
		Handler: trigger.HandlerContinuation,
		Kind:    trigger.KindOnce,
		FireAt:  time.Now().Add(-10 * time.Minute),
	}))

	fired := make(chan struct{}, 1)
	s.Register(trigger.HandlerContinuation, func(ctx context.Context) error {
		fired <- struct{}{}
		return nil
	})

	require.NoError(t, s.Start(ctx))
	t.Cleanup(s.Stop)

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("overdue trigger did not fire")
	}
}

func TestReconcileKeepsTriggerCreatedMidway(t *testing.T) {
	t.Parallel()
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	var scheduleErr error
	hook, done := concurrently(func() {
		_, scheduleErr = s.ScheduleAfter(ctx, trigger.HandlerContinuation, time.Hour)
	})
	repo.setAfterList(hook)

	require.NoError(t, s.Reconcile(ctx))
	<-done
	require.NoError(t, scheduleErr)

	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 1, s.armedCount(), "continuation created during reconcile stays armed")
}

func TestReconcileDoesNotRearmTriggerDeletedMidway(t *testing.T) {
	t.Parallel()
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	daily, err := s.ScheduleDaily(ctx, trigger.HandlerDailyKickoff, 9, "UTC")
	require.NoError(t, err)

	var deleteErr error
	hook, done := concurrently(func() {
		deleteErr = s.Delete(ctx, daily.ID)
	})
	repo.setAfterList(hook)

	require.NoError(t, s.Reconcile(ctx))
	<-done
	require.NoError(t, deleteErr)

	assert.Zero(t, repo.count())
	assert.Zero(t, s.armedCount(), "deleted daily trigger is not re-armed")
}

func TestDailyTriggerRemovedElsewhereDoesNotRun(t *testing.T) {
	t.Parallel()
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	ran := false
	s.Register(trigger.HandlerDailyKickoff, func(ctx context.Context) error {
		ran = true
		return nil
	})

	daily, err := s.ScheduleDaily(ctx, trigger.HandlerDailyKickoff, 9, "UTC")
	require.NoError(t, err)
	require.Equal(t, 1, s.armedCount())

	// Another process removed the row; this engine has not reconciled yet.
	require.NoError(t, repo.Delete(ctx, daily.ID))
	s.jobFor(daily).Run()

	assert.False(t, ran)
	assert.Zero(t, s.armedCount())
}

func TestDailyTriggerStillPersistedRuns(t *testing.T) {
	t.Parallel()
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	ran := false
	s.Register(trigger.HandlerDailyKickoff, func(ctx context.Context) error {
		ran = true
		return nil
	})

	daily, err := s.ScheduleDaily(ctx, trigger.HandlerDailyKickoff, 9, "UTC")
	require.NoError(t, err)
	s.jobFor(daily).Run()

	assert.True(t, ran)
	assert.Equal(t, 1, repo.count(), "daily trigger is not consumed")
	assert.Equal(t, 1, s.armedCount())
}
