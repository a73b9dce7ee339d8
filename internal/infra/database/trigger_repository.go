// internal/infra/database/trigger_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rolodex_reminder/internal/domain/trigger"
)

var ErrTriggerNotFound = fmt.Errorf("trigger not found")

type TriggerRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewTriggerRepository(db *sql.DB, dialect Dialect) *TriggerRepository {
	return &TriggerRepository{db: db, dialect: dialect}
}

func (r *TriggerRepository) Create(ctx context.Context, t *trigger.Trigger) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	var fireAt sql.NullInt64
	if !t.FireAt.IsZero() {
		fireAt = sql.NullInt64{Int64: t.FireAt.UnixMilli(), Valid: true}
	}

	query := r.dialect.rebind(`INSERT INTO triggers (id, handler, kind, fire_at_ms, hour, timezone, created_at_ms)
               VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		t.ID, string(t.Handler), string(t.Kind), fireAt, t.Hour, t.Timezone, t.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error creating trigger %s: %w", t.ID, err)
	}
	return nil
}

// Delete removes a trigger by ID and returns ErrTriggerNotFound when nothing was deleted.
func (r *TriggerRepository) Delete(ctx context.Context, id string) error {
	query := r.dialect.rebind(`DELETE FROM triggers WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting trigger %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows for trigger %s: %w", id, err)
	}
	if n == 0 {
		return ErrTriggerNotFound
	}
	return nil
}

// List returns all triggers ordered by creation time.
func (r *TriggerRepository) List(ctx context.Context) ([]*trigger.Trigger, error) {
	query := `SELECT id, handler, kind, fire_at_ms, hour, timezone, created_at_ms
               FROM triggers ORDER BY created_at_ms, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing triggers: %w", err)
	}
	defer rows.Close()

	var triggers []*trigger.Trigger
	for rows.Next() {
		var (
			t         trigger.Trigger
			handler   string
			kind      string
			fireAt    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &handler, &kind, &fireAt, &t.Hour, &t.Timezone, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning trigger row: %w", err)
		}
		t.Handler = trigger.Handler(handler)
		t.Kind = trigger.Kind(kind)
		if fireAt.Valid {
			t.FireAt = time.UnixMilli(fireAt.Int64)
		}
		t.CreatedAt = time.UnixMilli(createdAt)
		triggers = append(triggers, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trigger rows: %w", err)
	}
	return triggers, nil
}
