package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rolodex_reminder/internal/domain/trigger"
	idb "rolodex_reminder/internal/infra/database" // For ErrTriggerNotFound

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobFunc is the callback behind a trigger handler.
type JobFunc func(ctx context.Context) error

// TriggerScheduler implements trigger.Scheduler. The trigger table is the source of
// truth; the cron engine only mirrors it, and Reconcile brings the two back in line
// so triggers installed by other processes (CLI commands) are picked up.
type TriggerScheduler struct {
	cronEngine        *cron.Cron
	repo              trigger.Repository
	logger            *logrus.Entry
	reconcileInterval time.Duration
	jobTimeout        time.Duration
	now               func() time.Time

	mu       sync.Mutex
	handlers map[trigger.Handler]JobFunc
	entries  map[string]cron.EntryID // trigger ID -> cron entry

	// reconcileMu makes Reconcile atomic with the persist+arm and delete+disarm
	// steps, so the engine never drifts from a List snapshot taken mid-change.
	reconcileMu sync.Mutex

	// runMu serializes handler runs so two scan slices never overlap.
	runMu sync.Mutex
}

func NewTriggerScheduler(
	repo trigger.Repository,
	logger *logrus.Entry,
	reconcileInterval time.Duration, // e.g. 30s
	jobTimeout time.Duration, // upper bound for a single handler run
) *TriggerScheduler {
	return &TriggerScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC), // daily triggers carry their own CRON_TZ
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		repo:              repo,
		logger:            logger,
		reconcileInterval: reconcileInterval,
		jobTimeout:        jobTimeout,
		now:               time.Now,
		handlers:          make(map[trigger.Handler]JobFunc),
		entries:           make(map[string]cron.EntryID),
	}
}

// Register binds a handler name to the function its triggers invoke.
func (s *TriggerScheduler) Register(handler trigger.Handler, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[handler] = fn
}

func (s *TriggerScheduler) ScheduleAfter(ctx context.Context, handler trigger.Handler, delay time.Duration) (*trigger.Trigger, error) {
	if delay < 0 {
		delay = 0
	}
	now := s.now()
	t := &trigger.Trigger{
		ID:        uuid.NewString(),
		Handler:   handler,
		Kind:      trigger.KindOnce,
		FireAt:    now.Add(delay),
		CreatedAt: now,
	}
	if err := s.persistAndArm(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to install one-shot trigger for %s: %w", handler, err)
	}
	s.logger.WithFields(logrus.Fields{
		"trigger_id": t.ID,
		"handler":    handler,
		"fire_at":    t.FireAt.Format(time.RFC3339),
	}).Info("One-shot trigger installed")
	return t, nil
}

func (s *TriggerScheduler) ScheduleDaily(ctx context.Context, handler trigger.Handler, hour int, timezone string) (*trigger.Trigger, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour %d: must be 0-23", hour)
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	t := &trigger.Trigger{
		ID:        uuid.NewString(),
		Handler:   handler,
		Kind:      trigger.KindDaily,
		Hour:      hour,
		Timezone:  timezone,
		CreatedAt: s.now(),
	}
	if err := s.persistAndArm(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to install daily trigger for %s: %w", handler, err)
	}
	s.logger.WithFields(logrus.Fields{
		"trigger_id": t.ID,
		"handler":    handler,
		"hour":       hour,
		"timezone":   timezone,
	}).Info("Daily trigger installed")
	return t, nil
}

func (s *TriggerScheduler) List(ctx context.Context) ([]*trigger.Trigger, error) {
	return s.repo.List(ctx)
}

func (s *TriggerScheduler) persistAndArm(ctx context.Context, t *trigger.Trigger) error {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	return s.arm(t)
}

// Delete removes a trigger. Deleting an unknown trigger is not an error.
func (s *TriggerScheduler) Delete(ctx context.Context, id string) error {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, idb.ErrTriggerNotFound) {
		return fmt.Errorf("failed to delete trigger %s: %w", id, err)
	}
	s.disarm(id)
	return nil
}

// Reconcile arms every persisted trigger missing from the engine and drops
// engine entries whose trigger no longer exists.
func (s *TriggerScheduler) Reconcile(ctx context.Context) error {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	triggers, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list triggers: %w", err)
	}

	live := make(map[string]struct{}, len(triggers))
	for _, t := range triggers {
		live[t.ID] = struct{}{}
		if err := s.arm(t); err != nil {
			s.logger.WithError(err).WithField("trigger_id", t.ID).Warn("Skipping trigger that cannot be scheduled")
		}
	}

	s.mu.Lock()
	var stale []string
	for id := range s.entries {
		if _, ok := live[id]; !ok {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()
	for _, id := range stale {
		s.disarm(id)
	}
	return nil
}

func (s *TriggerScheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting trigger scheduler...")

	if err := s.Reconcile(ctx); err != nil {
		return err
	}

	reconcileSpec := fmt.Sprintf("@every %s", s.reconcileInterval)
	_, err := s.cronEngine.AddFunc(reconcileSpec, func() {
		rctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Reconcile(rctx); err != nil {
			s.logger.WithError(err).Error("Trigger reconcile failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add reconcile job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("armed", s.armedCount()).Info("Trigger scheduler started")
	return nil
}

func (s *TriggerScheduler) Stop() {
	s.logger.Info("Stopping trigger scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Trigger scheduler gracefully stopped.")
}

func (s *TriggerScheduler) arm(t *trigger.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[t.ID]; ok {
		return nil
	}

	sched, err := scheduleFor(t)
	if err != nil {
		return err
	}
	s.entries[t.ID] = s.cronEngine.Schedule(sched, s.jobFor(t))
	return nil
}

func (s *TriggerScheduler) disarm(id string) {
	s.mu.Lock()
	entryID, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if ok {
		s.cronEngine.Remove(entryID)
	}
}

func (s *TriggerScheduler) armedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *TriggerScheduler) jobFor(t *trigger.Trigger) cron.Job {
	return cron.FuncJob(func() {
		logger := s.logger.WithFields(logrus.Fields{"trigger_id": t.ID, "handler": t.Handler})

		if !s.claim(t, logger) {
			return
		}

		s.mu.Lock()
		fn, ok := s.handlers[t.Handler]
		s.mu.Unlock()
		if !ok {
			logger.Warn("No function registered for trigger handler")
			return
		}

		s.runMu.Lock()
		defer s.runMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		logger.Info("Trigger fired")
		if err := fn(ctx); err != nil {
			logger.WithError(err).Error("Trigger handler failed")
		}
	})
}

// claim decides whether a fired trigger may run its handler. A one-shot trigger
// is consumed first, so the handler itself may install the next one. A daily
// trigger must still be in the table; it may have been deleted by another
// process since the engine last reconciled.
func (s *TriggerScheduler) claim(t *trigger.Trigger, logger *logrus.Entry) bool {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if t.Kind == trigger.KindOnce {
		s.disarm(t.ID)
		err := s.repo.Delete(ctx, t.ID)
		if errors.Is(err, idb.ErrTriggerNotFound) {
			logger.Info("One-shot trigger was removed before firing; skipping")
			return false
		}
		if err != nil {
			logger.WithError(err).Error("Failed to consume one-shot trigger")
			return false
		}
		return true
	}

	triggers, err := s.repo.List(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to confirm trigger before firing")
		return false
	}
	for _, persisted := range triggers {
		if persisted.ID == t.ID {
			return true
		}
	}
	s.disarm(t.ID)
	logger.Info("Trigger was removed before firing; skipping")
	return false
}

func scheduleFor(t *trigger.Trigger) (cron.Schedule, error) {
	switch t.Kind {
	case trigger.KindDaily:
		spec := fmt.Sprintf("CRON_TZ=%s 0 %d * * *", t.Timezone, t.Hour)
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid daily schedule %q: %w", spec, err)
		}
		return sched, nil
	case trigger.KindOnce:
		return &onceSchedule{at: t.FireAt}, nil
	default:
		return nil, fmt.Errorf("unknown trigger kind %q", t.Kind)
	}
}

// onceSchedule fires a single time at `at`, or right away when `at` has already
// passed (a continuation that came due while no server was running).
type onceSchedule struct {
	mu   sync.Mutex
	at   time.Time
	used bool
}

func (o *onceSchedule) Next(now time.Time) time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.used {
		return time.Time{}
	}
	o.used = true
	if o.at.After(now) {
		return o.at
	}
	return now
}
