// internal/infra/database/property_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rolodex_reminder/internal/domain/property"
)

type PropertyRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewPropertyRepository(db *sql.DB, dialect Dialect) *PropertyRepository {
	return &PropertyRepository{db: db, dialect: dialect}
}

func (r *PropertyRepository) Get(ctx context.Context, key string) (string, error) {
	query := r.dialect.rebind(`SELECT value FROM script_properties WHERE name = ?`)
	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", property.ErrNotFound
		}
		return "", fmt.Errorf("error getting property %s: %w", key, err)
	}
	return value, nil
}

func (r *PropertyRepository) Set(ctx context.Context, key, value string) error {
	query := r.dialect.rebind(`INSERT INTO script_properties (name, value, updated_at_ms)
               VALUES (?, ?, ?)
               ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms`)
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("error setting property %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *PropertyRepository) Delete(ctx context.Context, key string) error {
	query := r.dialect.rebind(`DELETE FROM script_properties WHERE name = ?`)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("error deleting property %s: %w", key, err)
	}
	return nil
}
