// internal/app/cursor.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rolodex_reminder/internal/domain/accumulator"
	"rolodex_reminder/internal/domain/property"
)

const (
	cursorPropertyKey = "nextStart"
	accumulatorKey    = "reminderRows"
)

// Cursor is the persisted state of a scan spanning several invocations:
// the offset the next slice resumes from and the rows rendered so far.
// It is the only code that touches those keys.
type Cursor struct {
	props property.Store
	cache accumulator.Cache
	ttl   time.Duration
}

func NewCursor(props property.Store, cache accumulator.Cache, ttl time.Duration) *Cursor {
	return &Cursor{props: props, cache: cache, ttl: ttl}
}

// Offset returns the persisted resume offset. ok is false when no scan is in
// progress or the stored value is unusable.
func (c *Cursor) Offset(ctx context.Context) (offset int, ok bool, err error) {
	raw, err := c.props.Get(ctx, cursorPropertyKey)
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read scan cursor: %w", err)
	}
	offset, err = strconv.Atoi(raw)
	if err != nil || offset < 1 {
		return 0, false, nil
	}
	return offset, true, nil
}

// Advance persists the offset the next slice starts from.
func (c *Cursor) Advance(ctx context.Context, next int) error {
	if err := c.props.Set(ctx, cursorPropertyKey, strconv.Itoa(next)); err != nil {
		return fmt.Errorf("failed to persist scan cursor: %w", err)
	}
	return nil
}

// Reset drops rows left behind by an earlier scan that never finished.
func (c *Cursor) Reset(ctx context.Context) error {
	if err := c.cache.Delete(ctx, accumulatorKey); err != nil {
		return fmt.Errorf("failed to reset accumulated rows: %w", err)
	}
	return nil
}

// Append adds rendered rows and refreshes the accumulator's expiry.
func (c *Cursor) Append(ctx context.Context, fragments []string) error {
	if err := c.cache.Append(ctx, accumulatorKey, fragments, c.ttl); err != nil {
		return fmt.Errorf("failed to accumulate rows: %w", err)
	}
	return nil
}

// Rows returns everything accumulated so far. Rows whose expiry elapsed are gone.
func (c *Cursor) Rows(ctx context.Context) ([]string, error) {
	rows, err := c.cache.Get(ctx, accumulatorKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read accumulated rows: %w", err)
	}
	return rows, nil
}

// Clear returns the cursor to idle.
func (c *Cursor) Clear(ctx context.Context) error {
	var errs []error
	if err := c.cache.Delete(ctx, accumulatorKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear accumulated rows: %w", err))
	}
	if err := c.props.Delete(ctx, cursorPropertyKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear scan cursor: %w", err))
	}
	return errors.Join(errs...)
}
