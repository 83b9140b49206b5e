package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Entitlement names.
const (
	EntitlementPro = "pro"
)

// IsUnlocked reports whether the named entitlement has been granted. A
// missing row means it has not.
func (db *DB) IsUnlocked(ctx context.Context, name string) (bool, error) {
	var unlocked bool
	err := db.Pool.QueryRow(ctx,
		`SELECT unlocked FROM entitlements WHERE name = $1`, name).Scan(&unlocked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading entitlement %s: %w", name, err)
	}
	return unlocked, nil
}

// SetUnlocked grants or revokes an entitlement.
func (db *DB) SetUnlocked(ctx context.Context, name string, unlocked bool) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO entitlements (name, unlocked, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (name) DO UPDATE SET unlocked = EXCLUDED.unlocked, updated_at = NOW()`,
		name, unlocked)
	if err != nil {
		return fmt.Errorf("writing entitlement %s: %w", name, err)
	}
	return nil
}
