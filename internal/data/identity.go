package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// identityRepo implements the identity repository over SQLite
type identityRepo struct {
	db *sql.DB
}

// NewIdentityRepo creates a new identity repository
func NewIdentityRepo(dbPath string) (repo.IdentityRepo, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS identities (
			user_id TEXT PRIMARY KEY,
			alias TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			attested INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create identities table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS group_intros (
			conv_id TEXT PRIMARY KEY,
			introduced_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create group_intros table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_identities_updated_at ON identities(updated_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &identityRepo{db: db}, nil
}

// GetByUser gets a record by user ID, nil if none stored
func (r *identityRepo) GetByUser(ctx context.Context, userID string) (*domain.IdentityRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, alias, address, attested, updated_at
		FROM identities
		WHERE user_id = ?
	`, userID)

	var record domain.IdentityRecord
	var attested int
	var updatedAt int64
	err := row.Scan(&record.UserID, &record.Alias, &record.Address, &attested, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}

	record.Attested = attested != 0
	record.UpdatedAt = time.Unix(updatedAt, 0)
	return &record, nil
}

// Save saves a record (create or update)
func (r *identityRepo) Save(ctx context.Context, record *domain.IdentityRecord) error {
	attested := 0
	if record.Attested {
		attested = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO identities (user_id, alias, address, attested, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		record.UserID,
		record.Alias,
		record.Address,
		attested,
		record.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

// Delete removes a record
func (r *identityRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}

// ListAll lists all records
func (r *identityRepo) ListAll(ctx context.Context) ([]*domain.IdentityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, alias, address, attested, updated_at
		FROM identities
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var result []*domain.IdentityRecord
	for rows.Next() {
		var record domain.IdentityRecord
		var attested int
		var updatedAt int64
		if err := rows.Scan(&record.UserID, &record.Alias, &record.Address, &attested, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		record.Attested = attested != 0
		record.UpdatedAt = time.Unix(updatedAt, 0)
		result = append(result, &record)
	}
	return result, rows.Err()
}

// MarkGroupIntroduced records the one-time group introduction.
// Returns true when this call inserted the row.
func (r *identityRepo) MarkGroupIntroduced(ctx context.Context, convID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO group_intros (conv_id, introduced_at) VALUES (?, ?)
	`, convID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to mark group introduced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database
func (r *identityRepo) Close() error {
	return r.db.Close()
}
