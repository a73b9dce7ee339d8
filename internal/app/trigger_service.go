// internal/app/trigger_service.go
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rolodex_reminder/internal/domain/trigger"

	"github.com/sirupsen/logrus"
)

// DefaultTriggerHour is used whenever the configured hour is missing or invalid.
const DefaultTriggerHour = 9

// TriggerService manages the daily kickoff and the continuation triggers.
type TriggerService struct {
	scheduler         trigger.Scheduler
	continuationDelay time.Duration
	logger            *logrus.Entry
}

func NewTriggerService(scheduler trigger.Scheduler, continuationDelay time.Duration, logger *logrus.Entry) *TriggerService {
	return &TriggerService{
		scheduler:         scheduler,
		continuationDelay: continuationDelay,
		logger:            logger,
	}
}

// ParseTriggerHour reads the leading integer of a cell's display value. Anything
// that is not an hour between 0 and 23 yields DefaultTriggerHour.
func ParseTriggerHour(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultTriggerHour
	}
	h, err := strconv.Atoi(s[:end])
	if err != nil {
		return DefaultTriggerHour
	}
	return NormalizeHour(h)
}

// NormalizeHour maps out-of-range hours to DefaultTriggerHour.
func NormalizeHour(h int) int {
	if h < 0 || h > 23 {
		return DefaultTriggerHour
	}
	return h
}

// InstallDailyTrigger replaces any existing daily kickoff with one firing at hour
// in timezone, so exactly one survives. A kickoff queued by QueueKickoff is a
// one-shot and is left alone.
func (s *TriggerService) InstallDailyTrigger(ctx context.Context, hour int, timezone string) (*trigger.Trigger, error) {
	hour = NormalizeHour(hour)

	removed, err := s.deleteMatching(ctx, func(t *trigger.Trigger) bool {
		return t.Handler == trigger.HandlerDailyKickoff && t.Kind == trigger.KindDaily
	})
	if err != nil {
		return nil, err
	}

	t, err := s.scheduler.ScheduleDaily(ctx, trigger.HandlerDailyKickoff, hour, timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to install daily trigger: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"hour":     hour,
		"timezone": timezone,
		"replaced": removed,
	}).Info("Daily reminder trigger set")
	return t, nil
}

// RemoveAllTriggers deletes every trigger, kickoff and continuation alike.
func (s *TriggerService) RemoveAllTriggers(ctx context.Context) (int, error) {
	triggers, err := s.scheduler.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list triggers: %w", err)
	}
	removed := 0
	for _, t := range triggers {
		if err := s.scheduler.Delete(ctx, t.ID); err != nil {
			return removed, fmt.Errorf("failed to delete trigger %s: %w", t.ID, err)
		}
		removed++
	}
	s.logger.WithField("removed", removed).Info("All triggers removed")
	return removed, nil
}

// ScheduleContinuation installs the one-shot trigger that resumes a scan.
func (s *TriggerService) ScheduleContinuation(ctx context.Context) (*trigger.Trigger, error) {
	t, err := s.scheduler.ScheduleAfter(ctx, trigger.HandlerContinuation, s.continuationDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule continuation: %w", err)
	}
	return t, nil
}

// QueueKickoff installs a one-shot kickoff due right away, so an on-demand run goes
// through the scheduler like any other.
func (s *TriggerService) QueueKickoff(ctx context.Context) (*trigger.Trigger, error) {
	t, err := s.scheduler.ScheduleAfter(ctx, trigger.HandlerDailyKickoff, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to queue reminder run: %w", err)
	}
	return t, nil
}

// CancelContinuations deletes every pending continuation trigger.
func (s *TriggerService) CancelContinuations(ctx context.Context) (int, error) {
	return s.deleteMatching(ctx, func(t *trigger.Trigger) bool {
		return t.Handler == trigger.HandlerContinuation
	})
}

func (s *TriggerService) ListTriggers(ctx context.Context) ([]*trigger.Trigger, error) {
	return s.scheduler.List(ctx)
}

func (s *TriggerService) deleteMatching(ctx context.Context, match func(*trigger.Trigger) bool) (int, error) {
	triggers, err := s.scheduler.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list triggers: %w", err)
	}
	removed := 0
	for _, t := range triggers {
		if !match(t) {
			continue
		}
		if err := s.scheduler.Delete(ctx, t.ID); err != nil {
			return removed, fmt.Errorf("failed to delete %s trigger %s: %w", t.Handler, t.ID, err)
		}
		removed++
	}
	return removed, nil
}
