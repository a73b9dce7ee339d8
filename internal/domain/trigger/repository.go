package trigger

import (
	"context"
	"time"
)

// Repository persists installed triggers so they survive process restarts.
type Repository interface {
	Create(ctx context.Context, t *Trigger) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Trigger, error)
}

// Scheduler is the scheduling primitive shared by the daily kickoff and the
// continuation of a scan.
type Scheduler interface {
	// ScheduleAfter installs a one-shot trigger firing once delay has elapsed.
	ScheduleAfter(ctx context.Context, handler Handler, delay time.Duration) (*Trigger, error)
	// ScheduleDaily installs a trigger firing every day at hour in the named timezone.
	ScheduleDaily(ctx context.Context, handler Handler, hour int, timezone string) (*Trigger, error)
	List(ctx context.Context) ([]*Trigger, error)
	Delete(ctx context.Context, id string) error
}
