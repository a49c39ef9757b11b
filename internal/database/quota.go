// Package database defines the reads and writes of quota records
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cinesage-api/internal/shared"
)

// QuotaRecord is the stored quota state for one client identity. A record
// is either absent (client never seen) or represents exactly one open
// accounting window.
type QuotaRecord struct {
	Count       int
	WindowStart time.Time
}

// QuotaStore reads and writes one quota record per client identity.
//
// Fetch returns (nil, nil) when no record exists for the identity; a
// non-nil error always wraps shared.ErrStoreUnavailable and must not be
// treated as "no record". Upsert writes the record as the current state
// for the identity, insert-or-replace.
type QuotaStore interface {
	Fetch(ctx context.Context, clientID string) (*QuotaRecord, error)
	Upsert(ctx context.Context, clientID string, rec QuotaRecord) error
}

// SQLQuotaStore backs QuotaStore with one user_requests table. The table
// is shared across processes; records are never pruned here (retention is
// an external store-level policy).
type SQLQuotaStore struct {
	db *sql.DB
}

func NewSQLQuotaStore(db *sql.DB) *SQLQuotaStore {
	return &SQLQuotaStore{db: db}
}

func (s *SQLQuotaStore) Fetch(ctx context.Context, clientID string) (*QuotaRecord, error) {
	var rec QuotaRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT count, window_start FROM user_requests WHERE user_ip = ?",
		clientID,
	).Scan(&rec.Count, &rec.WindowStart)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetch for %q: %v", shared.ErrStoreUnavailable, clientID, err)
	}
	return &rec, nil
}

func (s *SQLQuotaStore) Upsert(ctx context.Context, clientID string, rec QuotaRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_requests (user_ip, count, window_start)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE count = VALUES(count), window_start = VALUES(window_start)`,
		clientID, rec.Count, rec.WindowStart,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert for %q: %v", shared.ErrStoreUnavailable, clientID, err)
	}
	return nil
}
